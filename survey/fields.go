package survey

import (
	"fmt"
	"strconv"
	"strings"
)

// Field identifies one fixed form field. Every field is bound to a typed
// setter in fieldSetters; there is no generic string-keyed access.
type Field int

const (
	FieldAssembly Field = iota
	FieldGbaWard
	FieldGbaWardID
	FieldPollingStationName
	FieldPollingStationID
	FieldPollingStationNumber
	FieldSurveyorName
	FieldSurveyorMobile
	FieldInterviewerName
	FieldInterviewerAge
	FieldInterviewerGender
	FieldInterviewerCaste
	FieldInterviewerCommunity
	FieldInterviewerMobile
	FieldInterviewerEducation
	FieldInterviewerWork
	FieldQ1
	FieldQ2
	FieldQ3
	FieldQ4
	FieldCandidatePriority1
	FieldCandidatePriority2
	FieldCandidatePriority3
	FieldCandidatePriority4
	FieldCandidatePriority5
	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldAssembly:             "assembly",
	FieldGbaWard:              "gbaWard",
	FieldGbaWardID:            "gbaWardId",
	FieldPollingStationName:   "pollingStationName",
	FieldPollingStationID:     "pollingStationId",
	FieldPollingStationNumber: "pollingStationNumber",
	FieldSurveyorName:         "surveyorName",
	FieldSurveyorMobile:       "surveyorMobile",
	FieldInterviewerName:      "interviewerName",
	FieldInterviewerAge:       "interviewerAge",
	FieldInterviewerGender:    "interviewerGender",
	FieldInterviewerCaste:     "interviewerCaste",
	FieldInterviewerCommunity: "interviewerCommunity",
	FieldInterviewerMobile:    "interviewerMobile",
	FieldInterviewerEducation: "interviewerEducation",
	FieldInterviewerWork:      "interviewerWork",
	FieldQ1:                   "q1",
	FieldQ2:                   "q2",
	FieldQ3:                   "q3",
	FieldQ4:                   "q4",
	FieldCandidatePriority1:   "candidatePriority1",
	FieldCandidatePriority2:   "candidatePriority2",
	FieldCandidatePriority3:   "candidatePriority3",
	FieldCandidatePriority4:   "candidatePriority4",
	FieldCandidatePriority5:   "candidatePriority5",
}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return "Field(" + strconv.Itoa(int(f)) + ")"
	}
	return fieldNames[f]
}

// ParseField maps a wire name such as "interviewerName" to its Field.
func ParseField(name string) (Field, error) {
	for f, n := range fieldNames {
		if n == name {
			return Field(f), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Party is an answer to one of the fixed sentiment questions q1..q4.
type Party string

const (
	PartyNone     Party = ""
	PartyCongress Party = "congress"
	PartyBJP      Party = "bjp"
	PartyJDS      Party = "jds"
	PartyOthers   Party = "others"
)

func ParseParty(s string) (Party, error) {
	switch p := Party(strings.ToLower(strings.TrimSpace(s))); p {
	case PartyNone, PartyCongress, PartyBJP, PartyJDS, PartyOthers:
		return p, nil
	}
	return "", fmt.Errorf("%w: party %q", ErrInvalidValue, s)
}

type Fields struct {
	Assembly             string `json:"assembly"`
	GbaWard              string `json:"gbaWard"`
	GbaWardID            int    `json:"gbaWardId"`
	PollingStationName   string `json:"pollingStationName"`
	PollingStationID     int    `json:"pollingStationId"`
	PollingStationNumber string `json:"pollingStationNumber"`
	SurveyorName         string `json:"surveyorName"`
	SurveyorMobile       string `json:"surveyorMobile"`

	InterviewerName      string `json:"interviewerName"`
	InterviewerAge       string `json:"interviewerAge"`
	InterviewerGender    string `json:"interviewerGender"`
	InterviewerCaste     string `json:"interviewerCaste"`
	InterviewerCommunity string `json:"interviewerCommunity"`
	InterviewerMobile    string `json:"interviewerMobile"`
	InterviewerEducation string `json:"interviewerEducation"`
	InterviewerWork      string `json:"interviewerWork"`

	Q1 Party `json:"q1"`
	Q2 Party `json:"q2"`
	Q3 Party `json:"q3"`
	Q4 Party `json:"q4"`

	CandidatePriority1 string `json:"candidatePriority1"`
	CandidatePriority2 string `json:"candidatePriority2"`
	CandidatePriority3 string `json:"candidatePriority3"`
	CandidatePriority4 string `json:"candidatePriority4"`
	CandidatePriority5 string `json:"candidatePriority5"`
}

type setter func(f *Fields, value string) error

func text(get func(f *Fields) *string) setter {
	return func(f *Fields, value string) error {
		*get(f) = value
		return nil
	}
}

func id(get func(f *Fields) *int) setter {
	return func(f *Fields, value string) error {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return fmt.Errorf("%w: id %q", ErrInvalidValue, value)
		}
		*get(f) = n
		return nil
	}
}

func party(get func(f *Fields) *Party) setter {
	return func(f *Fields, value string) error {
		p, err := ParseParty(value)
		if err != nil {
			return err
		}
		*get(f) = p
		return nil
	}
}

var fieldSetters = [fieldCount]setter{
	FieldAssembly:             text(func(f *Fields) *string { return &f.Assembly }),
	FieldGbaWard:              text(func(f *Fields) *string { return &f.GbaWard }),
	FieldGbaWardID:            id(func(f *Fields) *int { return &f.GbaWardID }),
	FieldPollingStationName:   text(func(f *Fields) *string { return &f.PollingStationName }),
	FieldPollingStationID:     id(func(f *Fields) *int { return &f.PollingStationID }),
	FieldPollingStationNumber: text(func(f *Fields) *string { return &f.PollingStationNumber }),
	FieldSurveyorName:         text(func(f *Fields) *string { return &f.SurveyorName }),
	FieldSurveyorMobile:       text(func(f *Fields) *string { return &f.SurveyorMobile }),
	FieldInterviewerName:      text(func(f *Fields) *string { return &f.InterviewerName }),
	FieldInterviewerAge:       text(func(f *Fields) *string { return &f.InterviewerAge }),
	FieldInterviewerGender:    text(func(f *Fields) *string { return &f.InterviewerGender }),
	FieldInterviewerCaste:     text(func(f *Fields) *string { return &f.InterviewerCaste }),
	FieldInterviewerCommunity: text(func(f *Fields) *string { return &f.InterviewerCommunity }),
	FieldInterviewerMobile:    text(func(f *Fields) *string { return &f.InterviewerMobile }),
	FieldInterviewerEducation: text(func(f *Fields) *string { return &f.InterviewerEducation }),
	FieldInterviewerWork:      text(func(f *Fields) *string { return &f.InterviewerWork }),
	FieldQ1:                   party(func(f *Fields) *Party { return &f.Q1 }),
	FieldQ2:                   party(func(f *Fields) *Party { return &f.Q2 }),
	FieldQ3:                   party(func(f *Fields) *Party { return &f.Q3 }),
	FieldQ4:                   party(func(f *Fields) *Party { return &f.Q4 }),
	FieldCandidatePriority1:   text(func(f *Fields) *string { return &f.CandidatePriority1 }),
	FieldCandidatePriority2:   text(func(f *Fields) *string { return &f.CandidatePriority2 }),
	FieldCandidatePriority3:   text(func(f *Fields) *string { return &f.CandidatePriority3 }),
	FieldCandidatePriority4:   text(func(f *Fields) *string { return &f.CandidatePriority4 }),
	FieldCandidatePriority5:   text(func(f *Fields) *string { return &f.CandidatePriority5 }),
}

// Set applies value to field through its typed setter.
func (f *Fields) Set(field Field, value string) error {
	if field < 0 || field >= fieldCount {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return fieldSetters[field](f, value)
}

// resetForNextSurvey clears the respondent's data. Operator identity and
// the assembly/ward context stay the same from one respondent to the next.
func (f Fields) resetForNextSurvey() Fields {
	return Fields{
		Assembly:       f.Assembly,
		GbaWard:        f.GbaWard,
		GbaWardID:      f.GbaWardID,
		SurveyorName:   f.SurveyorName,
		SurveyorMobile: f.SurveyorMobile,
	}
}

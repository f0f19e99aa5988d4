package model

import (
	"strings"
	"time"
)

type Ward struct {
	ID        int    `json:"id"`
	NameEn    string `json:"ward_name_en"`
	NameLocal string `json:"ward_name_local,omitempty"`
}

type Booth struct {
	ID           int    `json:"id"`
	Number       string `json:"booth_no"`
	AddressEn    string `json:"booth_add_en"`
	AddressLocal string `json:"booth_add_local,omitempty"`
	WardID       int    `json:"ward_id"`
}

// Question is a ward-specific question. The backend sends options as a
// comma separated string, see SplitOptions.
type Question struct {
	ID      int      `json:"id,omitempty"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

func SplitOptions(s string) []string {
	options := []string{}
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			options = append(options, o)
		}
	}
	return options
}

type VoterSuggestion struct {
	NameEn string `json:"name_en"`
	EPIC   string `json:"epic"`
	House  string `json:"house"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SurveyPayload is the body of POST /surveys.
type SurveyPayload struct {
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

	Q1 string `json:"q1"`
	Q2 string `json:"q2"`
	Q3 string `json:"q3"`
	Q4 string `json:"q4"`

	CandidatePriority1 string `json:"candidatePriority1"`
	CandidatePriority2 string `json:"candidatePriority2"`
	CandidatePriority3 string `json:"candidatePriority3"`
	CandidatePriority4 string `json:"candidatePriority4"`
	CandidatePriority5 string `json:"candidatePriority5"`

	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	AudioBase64 *string  `json:"audio_base64"`
	// JSON object encoded as a string, question text -> option.
	DynamicAnswers string `json:"dynamicAnswers"`
}

// SurveyResponse is a stored survey as listed on the admin dashboard.
type SurveyResponse struct {
	ID                   int     `json:"id"`
	Assembly             *string `json:"assembly"`
	GbaWard              *string `json:"gba_ward"`
	PollingStationName   *string `json:"polling_station_name"`
	PollingStationNumber *string `json:"polling_station_number"`
	SurveyorName         *string `json:"surveyor_name"`
	SurveyorMobile       *string `json:"surveyor_mobile"`

	InterviewerName      *string `json:"interviewer_name"`
	InterviewerAge       *string `json:"interviewer_age"`
	InterviewerGender    *string `json:"interviewer_gender"`
	InterviewerCaste     *string `json:"interviewer_caste"`
	InterviewerCommunity *string `json:"interviewer_community"`
	InterviewerMobile    *string `json:"interviewer_mobile"`
	InterviewerEducation *string `json:"interviewer_education"`
	InterviewerWork      *string `json:"interviewer_work"`

	Q1 *string `json:"q1"`
	Q2 *string `json:"q2"`
	Q3 *string `json:"q3"`
	Q4 *string `json:"q4"`

	CandidatePriority1 *string `json:"candidate_priority1"`
	CandidatePriority2 *string `json:"candidate_priority2"`
	CandidatePriority3 *string `json:"candidate_priority3"`
	CandidatePriority4 *string `json:"candidate_priority4"`
	CandidatePriority5 *string `json:"candidate_priority5"`

	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	AudioBase64 *string  `json:"audio_base64"`
	CreatedAt   string   `json:"created_at"`
}

// Operator is the surveyor identity kept across sessions.
type Operator struct {
	SurveyorName   string `json:"surveyorName"`
	SurveyorMobile string `json:"surveyorMobile"`
}

type Outcome string

const (
	OutcomeSubmitted Outcome = "submitted"
	OutcomeFailed    Outcome = "failed"
)

// SubmissionAttempt is one journal entry, written after every submit.
type SubmissionAttempt struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"sessionId"`
	Time            time.Time `json:"time"`
	Outcome         Outcome   `json:"outcome"`
	Message         string    `json:"message,omitempty"`
	InterviewerName string    `json:"interviewerName"`
	Ward            string    `json:"ward"`
}

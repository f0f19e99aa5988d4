package survey

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/mbolis/field-survey/model"
)

// payload builds the request body from the current state. Callers hold s.mu.
func (s *Session) payload() (model.SurveyPayload, error) {
	answers, err := s.encodeAnswers()
	if err != nil {
		return model.SurveyPayload{}, err
	}

	f := s.fields
	p := model.SurveyPayload{
		Assembly:             f.Assembly,
		GbaWard:              f.GbaWard,
		GbaWardID:            f.GbaWardID,
		PollingStationName:   f.PollingStationName,
		PollingStationID:     f.PollingStationID,
		PollingStationNumber: f.PollingStationNumber,
		SurveyorName:         f.SurveyorName,
		SurveyorMobile:       f.SurveyorMobile,
		InterviewerName:      f.InterviewerName,
		InterviewerAge:       f.InterviewerAge,
		InterviewerGender:    f.InterviewerGender,
		InterviewerCaste:     f.InterviewerCaste,
		InterviewerCommunity: f.InterviewerCommunity,
		InterviewerMobile:    f.InterviewerMobile,
		InterviewerEducation: f.InterviewerEducation,
		InterviewerWork:      f.InterviewerWork,
		Q1:                   string(f.Q1),
		Q2:                   string(f.Q2),
		Q3:                   string(f.Q3),
		Q4:                   string(f.Q4),
		CandidatePriority1:   f.CandidatePriority1,
		CandidatePriority2:   f.CandidatePriority2,
		CandidatePriority3:   f.CandidatePriority3,
		CandidatePriority4:   f.CandidatePriority4,
		CandidatePriority5:   f.CandidatePriority5,
		AudioBase64:          s.audio,
		DynamicAnswers:       answers,
	}
	if s.location != nil {
		lat, lng := s.location.Latitude, s.location.Longitude
		p.Latitude = &lat
		p.Longitude = &lng
	}
	return p, nil
}

// encodeAnswers serializes the answers as a JSON object keyed by question
// text. With a ward's questions loaded, only answers to those are sent.
func (s *Session) encodeAnswers() (string, error) {
	active := s.answers
	if len(s.questions) > 0 {
		active = make(map[string]string, len(s.answers))
		for _, q := range s.questions {
			if a, ok := s.answers[q.Text]; ok {
				active[q.Text] = a
			}
		}
	}
	b, err := json.Marshal(active)
	if err != nil {
		return "", fmt.Errorf("survey: encode answers: %w", err)
	}
	return string(b), nil
}

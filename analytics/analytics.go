// Package analytics computes the admin dashboard figures from the stored
// survey responses.
package analytics

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mbolis/field-survey/model"
)

const (
	topCandidates = 5
	noTopParty    = "N/A"
)

type Count struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type Summary struct {
	TotalResponses  int     `json:"totalResponses"`
	UniqueWards     int     `json:"uniqueWards"`
	UniqueSurveyors int     `json:"uniqueSurveyors"`
	TopParty        string  `json:"topParty"`
	Parties         []Count `json:"parties"`
	Genders         []Count `json:"genders"`
	Candidates      []Count `json:"candidates"`
}

// Summarize aggregates party preference over q1..q4, respondent gender and
// first candidate priority.
func Summarize(responses []model.SurveyResponse) Summary {
	parties := map[string]int{}
	genders := map[string]int{}
	candidates := map[string]int{}
	wards := map[string]struct{}{}
	surveyors := map[string]struct{}{}

	for _, r := range responses {
		for _, p := range []*string{r.Q1, r.Q2, r.Q3, r.Q4} {
			if v := value(p); v != "" {
				parties[v]++
			}
		}
		if v := value(r.InterviewerGender); v != "" {
			genders[strings.ToLower(v)]++
		}
		if v := value(r.CandidatePriority1); v != "" {
			candidates[v]++
		}
		// missing values count as one distinct entry
		wards[value(r.GbaWard)] = struct{}{}
		surveyors[value(r.SurveyorName)] = struct{}{}
	}

	s := Summary{
		TotalResponses:  len(responses),
		UniqueWards:     len(wards),
		UniqueSurveyors: len(surveyors),
		Parties:         capitalized(byCount(parties)),
		Genders:         capitalized(byName(genders)),
		Candidates:      byCount(candidates),
		TopParty:        noTopParty,
	}
	if len(s.Candidates) > topCandidates {
		s.Candidates = s.Candidates[:topCandidates]
	}
	if len(s.Parties) > 0 {
		s.TopParty = s.Parties[0].Name
	}
	return s
}

// Filter keeps the responses whose interviewer, ward or surveyor contains q,
// ignoring case. An empty query keeps everything.
func Filter(responses []model.SurveyResponse, q string) []model.SurveyResponse {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return responses
	}
	filtered := []model.SurveyResponse{}
	for _, r := range responses {
		for _, field := range []*string{r.InterviewerName, r.GbaWard, r.SurveyorName} {
			if field != nil && strings.Contains(strings.ToLower(*field), q) {
				filtered = append(filtered, r)
				break
			}
		}
	}
	return filtered
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// byCount sorts by descending count, ties by name.
func byCount(m map[string]int) []Count {
	counts := byName(m)
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Value > counts[j].Value })
	return counts
}

func byName(m map[string]int) []Count {
	counts := make([]Count, 0, len(m))
	for name, n := range m {
		counts = append(counts, Count{Name: name, Value: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Name < counts[j].Name })
	return counts
}

func capitalized(counts []Count) []Count {
	for i := range counts {
		r, size := utf8.DecodeRuneInString(counts[i].Name)
		counts[i].Name = string(unicode.ToUpper(r)) + counts[i].Name[size:]
	}
	return counts
}

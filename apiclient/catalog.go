package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/mbolis/field-survey/model"
)

const wardsKey = "wards"

func questionsKey(wardName string) string {
	return "questions:" + wardName
}

func boothsKey(wardID int) string {
	return "booths:" + strconv.Itoa(wardID)
}

// Wards lists the configured wards. Catalog reads are cached briefly.
func (c *Client) Wards(ctx context.Context) ([]model.Ward, error) {
	if cached, ok := c.catalog.Get(wardsKey); ok {
		return cached.([]model.Ward), nil
	}

	wards := []model.Ward{}
	err := c.do(ctx, request{method: http.MethodGet, path: "/wards"}, &wards)
	if err != nil {
		return nil, err
	}
	c.catalog.SetDefault(wardsKey, wards)
	return wards, nil
}

// Ward looks a ward up by its English name.
func (c *Client) Ward(ctx context.Context, name string) (model.Ward, bool, error) {
	wards, err := c.Wards(ctx)
	if err != nil {
		return model.Ward{}, false, err
	}
	for _, w := range wards {
		if w.NameEn == name {
			return w, true, nil
		}
	}
	return model.Ward{}, false, nil
}

func (c *Client) Questions(ctx context.Context, wardName string) ([]model.Question, error) {
	key := questionsKey(wardName)
	if cached, ok := c.catalog.Get(key); ok {
		return cached.([]model.Question), nil
	}

	questions, err := c.fetchQuestions(ctx, "/wards/"+url.PathEscape(wardName)+"/questions", "")
	if err != nil {
		return nil, err
	}
	c.catalog.SetDefault(key, questions)
	return questions, nil
}

func (c *Client) fetchQuestions(ctx context.Context, path, token string) ([]model.Question, error) {
	var wire []questionWire
	err := c.do(ctx, request{method: http.MethodGet, path: path, token: token}, &wire)
	if err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(wire))
	for _, q := range wire {
		options, err := q.options()
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", q.ID, err)
		}
		questions = append(questions, model.Question{ID: q.ID, Text: q.Text, Options: options})
	}
	return questions, nil
}

func (c *Client) Booths(ctx context.Context, wardID int) ([]model.Booth, error) {
	key := boothsKey(wardID)
	if cached, ok := c.catalog.Get(key); ok {
		return cached.([]model.Booth), nil
	}

	booths := []model.Booth{}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/booths",
		query:  url.Values{"ward_id": {strconv.Itoa(wardID)}},
	}, &booths)
	if err != nil {
		return nil, err
	}
	c.catalog.SetDefault(key, booths)
	return booths, nil
}

// SearchVoters is not cached: every debounced keystroke must hit the roll.
func (c *Client) SearchVoters(ctx context.Context, text string, wardID int) ([]model.VoterSuggestion, error) {
	query := url.Values{"q": {text}}
	if wardID > 0 {
		query.Set("ward_id", strconv.Itoa(wardID))
	}

	voters := []model.VoterSuggestion{}
	err := c.do(ctx, request{method: http.MethodGet, path: "/voters/search", query: query}, &voters)
	if err != nil {
		return nil, err
	}
	return voters, nil
}

// questionWire accepts options either as the comma separated string the
// public endpoint sends or as a JSON array.
type questionWire struct {
	ID      int             `json:"id"`
	Text    string          `json:"text"`
	Options json.RawMessage `json:"options"`
}

func (q questionWire) options() ([]string, error) {
	if len(q.Options) == 0 || string(q.Options) == "null" {
		return []string{}, nil
	}
	var s string
	if err := json.Unmarshal(q.Options, &s); err == nil {
		return model.SplitOptions(s), nil
	}
	var list []string
	if err := json.Unmarshal(q.Options, &list); err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	return list, nil
}

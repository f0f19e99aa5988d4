package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mbolis/field-survey/model"
)

// Admin calls carry the operator's bearer token; the token is passed
// through untouched.

func (c *Client) AdminWards(ctx context.Context, token string) ([]model.Ward, error) {
	wards := []model.Ward{}
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/wards", token: token}, &wards)
	if err != nil {
		return nil, err
	}
	return wards, nil
}

func (c *Client) CreateWard(ctx context.Context, token, nameEn string) error {
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/wards",
		token:  token,
		body:   map[string]string{"ward_name_en": nameEn},
	}, nil)
	if err != nil {
		return err
	}
	c.catalog.Delete(wardsKey)
	return nil
}

func (c *Client) AdminQuestions(ctx context.Context, token, wardName string) ([]model.Question, error) {
	return c.fetchQuestions(ctx, "/api/wards/"+url.PathEscape(wardName)+"/questions", token)
}

// SaveQuestions replaces the ward's question list, in order.
func (c *Client) SaveQuestions(ctx context.Context, token, wardName string, questions []model.Question) error {
	type questionBody struct {
		Text    string   `json:"text"`
		Options []string `json:"options"`
	}
	body := make([]questionBody, 0, len(questions))
	for _, q := range questions {
		options := q.Options
		if options == nil {
			options = []string{}
		}
		body = append(body, questionBody{Text: q.Text, Options: options})
	}

	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/wards/" + url.PathEscape(wardName) + "/questions",
		token:  token,
		body:   body,
	}, nil)
	if err != nil {
		return err
	}
	c.catalog.Delete(questionsKey(wardName))
	return nil
}

func (c *Client) Responses(ctx context.Context, token string) ([]model.SurveyResponse, error) {
	responses := []model.SurveyResponse{}
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/responses", token: token}, &responses)
	if err != nil {
		return nil, err
	}
	return responses, nil
}

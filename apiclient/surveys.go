package apiclient

import (
	"context"
	"net/http"

	"github.com/mbolis/field-survey/model"
)

// SubmitSurvey posts a completed survey. It makes exactly one attempt;
// retrying is left to the operator.
func (c *Client) SubmitSurvey(ctx context.Context, payload model.SurveyPayload) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/surveys", body: payload}, nil)
}

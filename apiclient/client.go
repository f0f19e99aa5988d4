// Package apiclient consumes the survey backend HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/patrickmn/go-cache"

	"github.com/mbolis/field-survey/log"
)

const (
	DefaultTimeout  = 10 * time.Second
	catalogTTL      = 5 * time.Minute
	catalogCleanup  = 10 * time.Minute
	maxErrorBodyLen = 64 * 1024
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	catalog    *cache.Cache
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		catalog: cache.New(catalogTTL, catalogCleanup),
	}
}

type request struct {
	method string
	path   string
	query  url.Values
	token  string
	body   any
}

// do performs one request and decodes a JSON response into out, if not nil.
// Failures are *NetworkError when no response was received and
// *ApplicationError for non-2xx statuses.
func (c *Client) do(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	op := r.method + " " + r.path

	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	log.Debugf("api.request: %s", op)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		appErr := &ApplicationError{Op: op, Status: resp.StatusCode, Message: errorMessage(raw)}
		log.WithFields(log.Fields{"op": op, "status": resp.StatusCode}).Debug("api.response.error")
		return appErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// errorMessage extracts {"message": "..."} or {"detail": "..."} from an
// error body.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	if detail, ok := body.Detail.(string); ok {
		return detail
	}
	return ""
}

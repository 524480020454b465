package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a thin HTTP client for the jiradash backend-of-record, the
// service that holds Nango credentials and proxies Jira's REST API.
// It handles JSON marshaling and maps failures onto *Error. Requests are
// never retried; callers decide what a failure means.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxResults int
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMaxResults forwards max_results on issue queries. Zero omits it.
func WithMaxResults(n int) Option {
	return func(c *Client) { c.maxResults = n }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a new backend client. The baseURL is the API root,
// e.g. http://localhost:8000/api.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) get(
	ctx context.Context,
	op string,
	path string,
	query url.Values,
	result interface{},
) error {
	return c.do(ctx, op, http.MethodGet, path, query, nil, result)
}

// post performs an HTTP POST request with a JSON body and unmarshals
// the JSON response.
func (c *Client) post(
	ctx context.Context,
	op string,
	path string,
	body interface{},
	result interface{},
) error {
	return c.do(ctx, op, http.MethodPost, path, nil, body, result)
}

// do builds the request, sends it once and decodes the response.
func (c *Client) do(
	ctx context.Context,
	op string,
	method string,
	path string,
	query url.Values,
	body interface{},
	result interface{},
) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling %s request body: %w", op, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{
			Kind:       KindNetwork,
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("reading response body: %w", err),
		}
	}

	c.logger.Debug("backend request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(op, resp.StatusCode, respBody)
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return &Error{
			Kind:       KindNetwork,
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err),
		}
	}

	return nil
}

// responseError maps a non-2xx response onto *Error, pulling the
// human-readable detail out of the FastAPI error body when present.
func responseError(op string, status int, body []byte) *Error {
	e := &Error{
		Kind:       KindNetwork,
		Op:         op,
		StatusCode: status,
		Detail:     errorDetail(body),
	}

	switch status {
	case http.StatusNotFound:
		e.Kind = KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	}

	return e
}

// errorDetail decodes {"detail": "..."} or {"detail": [{"msg": ...}]}.
func errorDetail(body []byte) string {
	var resp errorResponse
	if json.Unmarshal(body, &resp) != nil || len(resp.Detail) == 0 {
		return ""
	}

	var text string
	if json.Unmarshal(resp.Detail, &text) == nil {
		return text
	}

	var problems []validationProblem
	if json.Unmarshal(resp.Detail, &problems) == nil {
		msgs := make([]string, 0, len(problems))
		for _, p := range problems {
			if p.Msg == "" {
				continue
			}
			if field := problemField(p.Loc); field != "" {
				msgs = append(msgs, field+": "+p.Msg)
			} else {
				msgs = append(msgs, p.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}

// problemField returns the last string element of a FastAPI error
// location, e.g. ["body", "summary"] -> "summary".
func problemField(loc []any) string {
	for i := len(loc) - 1; i >= 0; i-- {
		if s, ok := loc[i].(string); ok && s != "body" && s != "query" {
			return s
		}
	}
	return ""
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/devtrack-foundation/devtrack/lib/netutil"
	"github.com/devtrack-foundation/devtrack/lib/session"
	"github.com/devtrack-foundation/devtrack/lib/version"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8000". Required.
	BaseURL string

	// Timeout bounds each request. Zero leaves the transport default
	// (no client-side timeout).
	Timeout time.Duration

	// Transport overrides the HTTP transport. Tests use it to route
	// requests to an httptest server.
	Transport http.RoundTripper

	// Logger receives one debug line per request. Nil discards.
	Logger *slog.Logger
}

// Client is a typed DevTrack API client. Safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	session    *session.Session
	logger     *slog.Logger
}

// New creates a Client that authenticates with the given session.
func New(config Config, sess *session.Session) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("apiclient: base URL is required")
	}
	if sess == nil {
		return nil, fmt.Errorf("apiclient: session is required")
	}
	baseURL, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parsing base URL %q: %w", config.BaseURL, err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("apiclient: base URL %q must be http or https", config.BaseURL)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	httpClient := &http.Client{Timeout: config.Timeout}
	if config.Transport != nil {
		httpClient.Transport = config.Transport
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		session:    sess,
		logger:     logger,
	}, nil
}

// BaseURL returns the API root the client talks to.
func (client *Client) BaseURL() string {
	return client.baseURL.String()
}

// Session returns the session the client authenticates with.
func (client *Client) Session() *session.Session {
	return client.session
}

// call describes one API request.
type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any

	// public calls carry no bearer token and never invalidate the
	// session on 401.
	public bool

	// out receives the decoded 2xx body. Nil ignores the body.
	out any
}

func (client *Client) do(ctx context.Context, request call) error {
	var (
		token      string
		generation uint64
	)
	if !request.public {
		var ok bool
		token, generation, ok = client.session.Credential()
		if !ok {
			return fmt.Errorf("%s: %w", request.op, ErrNotAuthenticated)
		}
	}

	target := *client.baseURL
	target.Path = client.baseURL.Path + request.path
	if len(request.query) > 0 {
		target.RawQuery = request.query.Encode()
	}

	var body *bytes.Reader
	if request.body != nil {
		data, err := json.Marshal(request.body)
		if err != nil {
			return fmt.Errorf("%s: marshaling request: %w", request.op, err)
		}
		body = bytes.NewReader(data)
	}

	var httpRequest *http.Request
	var err error
	if body != nil {
		httpRequest, err = http.NewRequestWithContext(ctx, request.method, target.String(), body)
	} else {
		httpRequest, err = http.NewRequestWithContext(ctx, request.method, target.String(), nil)
	}
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", request.op, err)
	}
	requestID := uuid.NewString()
	httpRequest.Header.Set(RequestIDHeader, requestID)
	httpRequest.Header.Set("Accept", "application/json")
	httpRequest.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		httpRequest.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := client.httpClient.Do(httpRequest)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", request.op, ctxErr)
		}
		var urlError *url.Error
		timeout := errors.As(err, &urlError) && urlError.Timeout()
		client.logger.Debug("api request failed",
			"op", request.op,
			"request_id", requestID,
			"error", err,
		)
		return &NetworkError{Op: request.op, Timeout: timeout, Err: err}
	}
	defer response.Body.Close()

	data, err := netutil.ReadResponse(response.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", request.op, ctxErr)
		}
		return &NetworkError{Op: request.op, Err: fmt.Errorf("reading response: %w", err)}
	}

	client.logger.Debug("api request",
		"op", request.op,
		"method", request.method,
		"path", request.path,
		"status", response.StatusCode,
		"request_id", requestID,
	)

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		if request.out == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, request.out); err != nil {
			return fmt.Errorf("%s: decoding response: %w", request.op, err)
		}
		return nil
	}

	statusErr := statusError(response.StatusCode, data)
	if response.StatusCode == http.StatusUnauthorized && !request.public {
		reason := statusErr.(*AuthError).Detail
		if client.session.InvalidateGeneration(generation, reason) {
			client.logger.Warn("session rejected by server",
				"op", request.op,
				"request_id", requestID,
			)
		}
	}
	return fmt.Errorf("%s: %w", request.op, statusErr)
}

// statusError converts a non-2xx response into a typed error.
func statusError(statusCode int, body []byte) error {
	detail, fields := decodeErrorBody(body)
	switch statusCode {
	case http.StatusUnauthorized:
		return &AuthError{Detail: detail}
	case http.StatusForbidden:
		return &ForbiddenError{Detail: detail}
	case http.StatusNotFound:
		return &NotFoundError{Detail: detail}
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return &ValidationError{StatusCode: statusCode, Detail: detail, Fields: fields}
	}
	return &ServerError{StatusCode: statusCode, Detail: detail}
}

// validationIssue is one entry of a FastAPI validation error list.
type validationIssue struct {
	Location []any  `json:"loc"`
	Message  string `json:"msg"`
}

// decodeErrorBody extracts the human-readable message from an error
// body of the form {"detail": "..."} or {"detail": [{"loc", "msg"}]}.
// Anything else is returned verbatim, truncated.
func decodeErrorBody(body []byte) (string, map[string]string) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", nil
	}
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil || len(envelope.Detail) == 0 {
		return truncate(string(trimmed), 200), nil
	}

	var message string
	if err := json.Unmarshal(envelope.Detail, &message); err == nil {
		return message, nil
	}

	var issues []validationIssue
	if err := json.Unmarshal(envelope.Detail, &issues); err == nil && len(issues) > 0 {
		fields := make(map[string]string, len(issues))
		messages := make([]string, 0, len(issues))
		for _, issue := range issues {
			field := issueField(issue.Location)
			if field == "" {
				messages = append(messages, issue.Message)
				continue
			}
			if _, seen := fields[field]; !seen {
				fields[field] = issue.Message
			}
		}
		if len(messages) == 0 {
			return "validation failed", fields
		}
		return strings.Join(messages, "; "), fields
	}

	return truncate(string(envelope.Detail), 200), nil
}

// issueField names the request field a validation location points at,
// dropping the leading "body"/"query"/"path" segment.
func issueField(location []any) string {
	parts := make([]string, 0, len(location))
	for index, element := range location {
		text := fmt.Sprint(element)
		if index == 0 && (text == "body" || text == "query" || text == "path") {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, ".")
}

// truncate shortens text to limit runes, keeping it valid UTF-8.
func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + "..."
}

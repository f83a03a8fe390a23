// Package companion talks to the player service that owns the remote half of
// every course and registration.
package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"catapult/internal/platform/metrics"
	"catapult/internal/registration/models"
	dErrors "catapult/pkg/domain-errors"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseBody = 64 << 10
)

// CreatedRegistration is the companion's answer to a registration create.
type CreatedRegistration struct {
	RemoteID string
	Code     string
	Actor    models.ActorRecord
}

type createRequest struct {
	CourseID string             `json:"courseId"`
	Actor    models.ActorRecord `json:"actor"`
}

type createResponse struct {
	ID    json.RawMessage `json:"id"`
	Code  string          `json:"code"`
	Actor json.RawMessage `json:"actor"`
}

// Client is stateless and safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	key     string
	secret  string
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCredentials sets the basic auth pair presented to the companion.
func WithCredentials(key, secret string) Option {
	return func(c *Client) {
		c.key = key
		c.secret = secret
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("companion base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse companion base url: %w", err)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateRegistration allocates the remote registration and returns the code
// the companion assigned to it.
func (c *Client) CreateRegistration(ctx context.Context, courseRemoteID string, actor models.ActorRecord) (*CreatedRegistration, error) {
	payload, err := json.Marshal(createRequest{CourseID: courseRemoteID, Actor: actor})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode registration request")
	}

	status, body, err := c.do(ctx, http.MethodPost, "/api/v1/registration", payload)
	if err != nil {
		return nil, c.fail(ctx, "create_registration", "failed to create registration", err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, c.fail(ctx, "create_registration", "failed to create registration", statusError(status, body))
	}

	created, err := decodeCreated(body)
	if err != nil {
		return nil, c.fail(ctx, "create_registration", "failed to decode registration response", err)
	}
	c.metrics.IncCompanionRequest("create_registration", "success")
	return created, nil
}

// DeleteRegistration removes the remote registration. Only 204 counts as deleted.
func (c *Client) DeleteRegistration(ctx context.Context, remoteID string) error {
	return c.delete(ctx, "delete_registration", "/api/v1/registration/"+url.PathEscape(remoteID))
}

// DeleteCourse removes the remote course. Only 204 counts as deleted.
func (c *Client) DeleteCourse(ctx context.Context, remoteID string) error {
	return c.delete(ctx, "delete_course", "/api/v1/course/"+url.PathEscape(remoteID))
}

func (c *Client) delete(ctx context.Context, operation, path string) error {
	status, body, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return c.fail(ctx, operation, "companion delete failed", err)
	}
	if status != http.StatusNoContent {
		return c.fail(ctx, operation, "companion delete failed", statusError(status, body))
	}
	c.metrics.IncCompanionRequest(operation, "success")
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.key != "" {
		req.SetBasicAuth(c.key, c.secret)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return res.StatusCode, raw, nil
}

func (c *Client) fail(ctx context.Context, operation, msg string, cause error) error {
	c.metrics.IncCompanionRequest(operation, "failure")
	if c.logger != nil {
		c.logger.WarnContext(ctx, "companion request failed",
			"operation", operation,
			"error", cause,
		)
	}
	return dErrors.Wrap(cause, dErrors.CodeUpstreamFailure, msg)
}

func statusError(status int, body []byte) error {
	return fmt.Errorf("unexpected status %d: %s", status, strings.TrimSpace(string(body)))
}

func decodeCreated(body []byte) (*CreatedRegistration, error) {
	var resp createResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	remoteID, err := decodeID(resp.ID)
	if err != nil {
		return nil, err
	}
	if resp.Code == "" {
		return nil, fmt.Errorf("response is missing registration code")
	}
	actor, err := decodeActor(resp.Actor)
	if err != nil {
		return nil, err
	}
	return &CreatedRegistration{RemoteID: remoteID, Code: resp.Code, Actor: actor}, nil
}

// decodeID accepts both numeric and string identifiers.
func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("response is missing registration id")
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return n.String(), nil
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", fmt.Errorf("invalid registration id %s", string(raw))
	}
	return s, nil
}

// decodeActor handles the companion returning actor either as an object or
// as a JSON document encoded in a string.
func decodeActor(raw json.RawMessage) (models.ActorRecord, error) {
	var actor models.ActorRecord
	if len(raw) == 0 {
		return actor, fmt.Errorf("response is missing actor")
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}
	if err := json.Unmarshal(raw, &actor); err != nil {
		return actor, fmt.Errorf("decode actor: %w", err)
	}
	return actor, nil
}

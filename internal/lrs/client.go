package lrs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"catapult/internal/platform/metrics"
	dErrors "catapult/pkg/domain-errors"
)

const (
	xapiVersion     = "1.0.3"
	maxResponseBody = 64 << 10
	defaultTimeout  = 10 * time.Second
)

var tracer = otel.Tracer("catapult/internal/lrs")

// SubmissionError describes a statement the LRS did not accept.
type SubmissionError struct {
	StatementID string
	StatusCode  int
	Body        string
	Err         error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("statement %s: %v", e.StatementID, e.Err)
	}
	return fmt.Sprintf("statement %s: status %d: %s", e.StatementID, e.StatusCode, e.Body)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Response is the LRS answer to an accepted submission.
type Response struct {
	StatusCode   int
	StatementIDs []string
}

// Client submits statements to an LRS. It is stateless and safe for
// concurrent use. It never retries: retry policy belongs to the caller.
type Client struct {
	statementsURL string
	http          *http.Client
	username      string
	password      string
	limiter       *rate.Limiter
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithRateLimit caps outbound submissions. Waiting honours ctx.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
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

// New builds a client for the LRS at endpoint (the xAPI base, e.g. https://lrs.example.com/xapi/).
func New(endpoint string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("lrs endpoint is required")
	}
	statementsURL, err := url.JoinPath(endpoint, "statements")
	if err != nil {
		return nil, fmt.Errorf("parse lrs endpoint: %w", err)
	}
	c := &Client{
		statementsURL: statementsURL,
		http:          &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Submit posts one statement. It succeeds only on a 200 whose id array
// contains the statement id; anything else fails with
// CodeStatementSubmissionFailed.
func (c *Client) Submit(ctx context.Context, stmt Statement) (*Response, error) {
	ctx, span := tracer.Start(ctx, "lrs.Submit", trace.WithAttributes(
		attribute.String("statement.id", stmt.ID),
		attribute.String("statement.verb", stmt.Verb.ID),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.submit(ctx, stmt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "statement submission failed")
		c.metrics.ObserveStatement(stmt.VerbName(), "rejected", start)
		if c.logger != nil {
			c.logger.WarnContext(ctx, "statement submission failed",
				"statement_id", stmt.ID,
				"verb", stmt.VerbName(),
				"error", err,
			)
		}
		return nil, err
	}
	c.metrics.ObserveStatement(stmt.VerbName(), "accepted", start)
	return resp, nil
}

func (c *Client) submit(ctx context.Context, stmt Statement) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.fail(stmt, &SubmissionError{StatementID: stmt.ID, Err: err})
		}
	}

	payload, err := json.Marshal(stmt)
	if err != nil {
		return nil, c.fail(stmt, &SubmissionError{StatementID: stmt.ID, Err: fmt.Errorf("encode statement: %w", err)})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.statementsURL, bytes.NewReader(payload))
	if err != nil {
		return nil, c.fail(stmt, &SubmissionError{StatementID: stmt.ID, Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Experience-API-Version", xapiVersion)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(stmt, &SubmissionError{StatementID: stmt.ID, Err: err})
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return nil, c.fail(stmt, &SubmissionError{StatementID: stmt.ID, StatusCode: res.StatusCode, Err: fmt.Errorf("read response: %w", err)})
	}
	if res.StatusCode != http.StatusOK {
		return nil, c.fail(stmt, &SubmissionError{StatementID: stmt.ID, StatusCode: res.StatusCode, Body: strings.TrimSpace(string(raw))})
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, c.fail(stmt, &SubmissionError{
			StatementID: stmt.ID,
			StatusCode:  res.StatusCode,
			Body:        strings.TrimSpace(string(raw)),
			Err:         fmt.Errorf("decode statement ids: %w", err),
		})
	}
	if !slices.Contains(ids, stmt.ID) {
		return nil, c.fail(stmt, &SubmissionError{
			StatementID: stmt.ID,
			StatusCode:  res.StatusCode,
			Body:        strings.TrimSpace(string(raw)),
			Err:         fmt.Errorf("LRS did not acknowledge statement %s", stmt.ID),
		})
	}
	return &Response{StatusCode: res.StatusCode, StatementIDs: ids}, nil
}

func (c *Client) fail(stmt Statement, cause *SubmissionError) error {
	return dErrors.Wrap(cause, dErrors.CodeStatementSubmissionFailed, "failed to store "+stmt.VerbName()+" statement")
}

// Package transport issues the HTTPS calls to DHL and classifies
// failures. It knows nothing about SOAP or JSON payloads; composers
// hand it a fully-formed request and parsers receive the raw body.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Class is the transport-level failure classification.
type Class string

const (
	ClassTimeout    Class = "timeout"
	ClassConnection Class = "connection"
	ClassAuth       Class = "auth"
	ClassNotFound   Class = "not_found"
	ClassRateLimit  Class = "rate_limit"
	ClassServer     Class = "server"
	ClassUpstream   Class = "upstream"
)

// Failure is a classified transport error.
type Failure struct {
	Class      Class
	StatusCode int
	Message    string
	SubReason  string
	Body       []byte
	Retries    int
	Cause      error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("transport %s (HTTP %d): %s", f.Class, f.StatusCode, f.Message)
	}
	return fmt.Sprintf("transport %s: %s", f.Class, f.Message)
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error { return f.Cause }

// retryable reports whether the failure may be retried at all.
// 4xx responses never retry.
func (f *Failure) retryable() bool {
	switch f.Class {
	case ClassTimeout, ClassConnection, ClassServer:
		return true
	}
	return false
}

// Request is one outbound call to DHL.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
	// Timeout overrides the client default when non-zero.
	Timeout time.Duration
	// Idempotent enables the retry budget. Shipment creation must
	// never set this.
	Idempotent bool
	// Operation labels logs and diagnostics.
	Operation string
}

// Response is a 2xx answer from DHL. Retries records how much of the
// retry budget the call consumed before succeeding.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	Retries    int
}

// Client is the single transport seam. Production uses HTTPClient;
// tests plug a MockClient.
type Client interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Config holds HTTPClient configuration.
type Config struct {
	Username string
	Password string
	// Timeout is the per-call default, 30s when zero.
	Timeout time.Duration
	// BackoffSchedule are the waits between retries; nil gets the
	// observed-contract default of 2s, 5s, 10s.
	BackoffSchedule []time.Duration
	// InsecureSkipVerify disables TLS verification for legacy
	// endpoints. Documented hazard, not recommended.
	InsecureSkipVerify bool
	Logger             *otelzap.Logger
}

// HTTPClient is the production transport with timeout, bounded retry
// and a circuit breaker per client.
type HTTPClient struct {
	httpClient *http.Client
	username   string
	password   string
	timeout    time.Duration
	schedule   []time.Duration
	breaker    *gobreaker.CircuitBreaker
	logger     *otelzap.Logger
}

// NewHTTPClient creates a production transport client.
func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	schedule := cfg.BackoffSchedule
	if schedule == nil {
		schedule = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dhl",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &HTTPClient{
		httpClient: &http.Client{Transport: transport},
		username:   cfg.Username,
		password:   cfg.Password,
		timeout:    timeout,
		schedule:   schedule,
		breaker:    breaker,
		logger:     logger,
	}
}

// fixedSchedule walks a fixed list of delays, then stops.
type fixedSchedule struct {
	delays []time.Duration
	next   int
}

func (s *fixedSchedule) NextBackOff() time.Duration {
	if s.next >= len(s.delays) {
		return backoff.Stop
	}
	d := s.delays[s.next]
	s.next++
	return d
}

func (s *fixedSchedule) Reset() { s.next = 0 }

// Send executes the request. Idempotent operations retry on timeout,
// connection failure and 5xx with the fixed backoff schedule;
// everything else, and all non-idempotent calls, get one attempt.
func (c *HTTPClient) Send(ctx context.Context, req *Request) (*Response, error) {
	var resp *Response
	attempts := 0

	attempt := func() error {
		attempts++
		r, err := c.attempt(ctx, req)
		if err != nil {
			var f *Failure
			if errors.As(err, &f) && req.Idempotent && f.retryable() {
				c.logger.Warn("retrying DHL call",
					zap.String("operation", req.Operation),
					zap.String("class", string(f.Class)),
					zap.Int("attempt", attempts),
				)
				return err
			}
			return backoff.Permanent(err)
		}
		resp = r
		return nil
	}

	sched := backoff.WithContext(&fixedSchedule{delays: c.schedule}, ctx)
	if err := backoff.Retry(attempt, sched); err != nil {
		var f *Failure
		if errors.As(err, &f) {
			f.Retries = attempts - 1
			return nil, f
		}
		return nil, &Failure{Class: ClassConnection, Message: err.Error(), Cause: err, Retries: attempts - 1}
	}
	resp.Retries = attempts - 1
	return resp, nil
}

func (c *HTTPClient) attempt(ctx context.Context, req *Request) (*Response, error) {
	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &Failure{Class: ClassConnection, Message: "carrier circuit open", Cause: err}
		}
		return nil, err
	}
	return result.(*Response), nil
}

func (c *HTTPClient) roundTrip(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, &Failure{Class: ClassConnection, Message: "building request", Cause: err}
	}
	httpReq.SetBasicAuth(c.username, c.password)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyNetError(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &Failure{Class: ClassConnection, Message: "reading response", Cause: err}
	}

	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		return &Response{StatusCode: httpResp.StatusCode, Body: body, Header: httpResp.Header}, nil
	}
	return nil, classifyStatus(httpResp.StatusCode, body)
}

func classifyNetError(err error) *Failure {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Failure{Class: ClassTimeout, Message: "request deadline exceeded", Cause: err}
	case errors.Is(err, context.Canceled):
		return &Failure{Class: ClassTimeout, Message: "request canceled", Cause: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &Failure{Class: ClassTimeout, Message: "network timeout", Cause: err}
	default:
		return &Failure{Class: ClassConnection, Message: "connection failed", Cause: err}
	}
}

func classifyStatus(status int, body []byte) *Failure {
	f := &Failure{StatusCode: status, Body: body}
	switch {
	case status == http.StatusUnauthorized:
		f.Class = ClassAuth
		f.Message = "carrier rejected the credentials"
	case status == http.StatusForbidden:
		f.Class = ClassAuth
		f.SubReason = "forbidden"
		f.Message = "carrier denied access"
	case status == http.StatusNotFound:
		f.Class = ClassNotFound
		f.Message = "resource not found at carrier"
	case status == http.StatusTooManyRequests:
		f.Class = ClassRateLimit
		f.Message = "carrier rate limit exceeded"
	case status >= 500:
		f.Class = ClassServer
		f.Message = "carrier server error"
	default:
		f.Class = ClassUpstream
		f.Message = fmt.Sprintf("carrier answered HTTP %d", status)
	}
	return f
}

var _ Client = (*HTTPClient)(nil)

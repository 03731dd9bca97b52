package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-translator/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-translator/internal/platform/config"
	"github.com/jsamuelsen/quote-translator/internal/platform/logging"
)

const instrumentationName = "github.com/jsamuelsen/quote-translator/internal/adapters/clients"

// Config describes one downstream.
type Config struct {
	BaseURL     string // prefixed to every path
	ServiceName string // peer.service on spans and metrics; required

	// Timeout bounds a single attempt. Zero means none.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// AuthFunc stamps credentials on the request before every attempt.
	AuthFunc func(*http.Request)

	Logger *slog.Logger
}

// Client calls one downstream over HTTP with tracing, metrics, ID
// propagation, optional retries and an optional circuit breaker.
type Client struct {
	http        *http.Client
	baseURL     string
	serviceName string
	cfg         *Config
	logger      *slog.Logger
	cb          *CircuitBreaker

	tracer   trace.Tracer
	duration metric.Float64Histogram
	total    metric.Int64Counter
}

// New validates cfg and builds the client. MaxAttempts below one is
// treated as one.
func New(cfg *Config) (*Client, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("config is required")
	case cfg.ServiceName == "":
		return nil, errors.New("service name is required")
	}

	cfg.Retry.MaxAttempts = max(cfg.Retry.MaxAttempts, 1)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "clients.Client"), slog.String("downstream", cfg.ServiceName))

	meter := otel.Meter(instrumentationName)
	duration, errD := meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Outbound request latency including retries"), metric.WithUnit("s"))
	total, errT := meter.Int64Counter("http.client.request.total",
		metric.WithDescription("Outbound requests by outcome"))
	if err := errors.Join(errD, errT); err != nil {
		return nil, fmt.Errorf("client instruments: %w", err)
	}

	c := &Client{
		http:        &http.Client{Timeout: cfg.Timeout, Transport: newTransport(cfg.Transport)},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceName: cfg.ServiceName,
		cfg:         cfg,
		logger:      logger,
		tracer:      otel.Tracer(instrumentationName),
		duration:    duration,
		total:       total,
	}

	if cfg.Circuit.Enabled {
		c.cb = NewCircuitBreaker(cfg.ServiceName, cfg.Circuit, func(from, to State) {
			logger.Warn("circuit breaker state changed", slog.String("from", from.String()), slog.String("to", to.String()))
		})
	}

	return c, nil
}

func newTransport(cfg config.TransportConfig) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.MaxIdleConns > 0 {
		t.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout > 0 {
		t.IdleConnTimeout = cfg.IdleConnTimeout
	}

	return t
}

// Get issues a GET for path relative to BaseURL.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.send(ctx, http.MethodGet, path, http.NoBody)
}

// Post issues a POST of a JSON body.
func (c *Client) Post(ctx context.Context, path string, body io.Reader) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, path, body)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.Do(ctx, req)
}

// Do sends req. Any status code is a response, not an error: a 4xx or the
// last 5xx is handed back for the caller to read. Errors mean the breaker
// refused the call (ErrCircuitOpen) or no response arrived
// (ErrRequestFailed).
//
// Retried requests replay their body through req.GetBody.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.serviceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	var admission Admission
	if c.cb != nil {
		var err error
		if admission, err = c.cb.Allow(); err != nil {
			c.observe(ctx, req.Method, 0, time.Since(start), "circuit_open")
			logger.Warn("request blocked by circuit breaker", slog.Any("error", err))
			return nil, err
		}
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.serviceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.Redacted()),
			attribute.String("peer.service", c.serviceName),
		),
	)
	defer span.End()

	c.stampHeaders(ctx, req)

	resp, err := c.attempt(ctx, req, logger)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			admission.Abandoned()
		} else {
			admission.Failed()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.observe(ctx, req.Method, 0, elapsed, "error")
		logger.Warn("request failed", slog.Duration("duration", elapsed), slog.Any("error", err))

		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		admission.Failed()
	} else {
		admission.Succeeded()
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(resp.StatusCode))
	}
	c.observe(ctx, req.Method, resp.StatusCode, elapsed, strconv.Itoa(resp.StatusCode/100)+"xx")
	logger.Log(ctx, logging.LevelTrace, "request completed",
		slog.Int("status", resp.StatusCode), slog.Duration("duration", elapsed))

	return resp, nil
}

// attempt runs req up to Retry.MaxAttempts times. Retryable are transport
// errors other than cancellation, and 5xx answers while attempts remain.
func (c *Client) attempt(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	limit := c.cfg.Retry.MaxAttempts
	n := 0

	op := func() (*http.Response, error) {
		n++
		if n > 1 {
			if err := rewind(req); err != nil {
				return nil, backoff.Permanent(err)
			}
			if c.cfg.AuthFunc != nil {
				c.cfg.AuthFunc(req)
			}
		}

		resp, err := c.http.Do(req.WithContext(ctx))
		switch {
		case err != nil && n < limit && isRetryableError(err):
			return nil, err
		case err != nil:
			return nil, backoff.Permanent(err)
		case resp.StatusCode >= http.StatusInternalServerError && n < limit:
			drain(resp, logger)
			return nil, fmt.Errorf("server error: %d", resp.StatusCode)
		}

		return resp, nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(limit)), //nolint:gosec // validated to 1..10
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Debug("retrying request",
				slog.Int("attempt", n+1), slog.Duration("backoff", wait), slog.Any("error", err))
		}),
	)
}

func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	r := c.cfg.Retry
	b := backoff.NewExponentialBackOff()
	b.RandomizationFactor = r.JitterFactor
	if r.InitialInterval > 0 {
		b.InitialInterval = r.InitialInterval
	}
	if r.MaxInterval > 0 {
		b.MaxInterval = r.MaxInterval
	}
	if r.Multiplier > 0 {
		b.Multiplier = r.Multiplier
	}

	return b
}

// CircuitState is StateClosed when no breaker is configured.
func (c *Client) CircuitState() State {
	if c.cb == nil {
		return StateClosed
	}

	return c.cb.State()
}

// stampHeaders forwards request and correlation IDs, applies credentials
// and injects W3C trace context.
func (c *Client) stampHeaders(ctx context.Context, req *http.Request) {
	ids := map[string]string{
		middleware.HeaderRequestID:     middleware.RequestIDFromContext(ctx),
		middleware.HeaderCorrelationID: middleware.CorrelationIDFromContext(ctx),
	}
	for header, id := range ids {
		if id != "" {
			req.Header.Set(header, id)
		}
	}

	if c.cfg.AuthFunc != nil {
		c.cfg.AuthFunc(req)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

func (c *Client) buildURL(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) observe(ctx context.Context, method string, status int, elapsed time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.serviceName),
		attribute.String("result", result),
	}
	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	set := metric.WithAttributes(attrs...)
	c.duration.Record(ctx, elapsed.Seconds(), set)
	c.total.Add(ctx, 1, set)
}

func rewind(req *http.Request) error {
	if req.GetBody == nil {
		return nil
	}

	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("rewinding request body: %w", err)
	}
	req.Body = body

	return nil
}

func drain(resp *http.Response, logger *slog.Logger) {
	_, _ = io.Copy(io.Discard, resp.Body)
	if err := resp.Body.Close(); err != nil {
		logger.Debug("closing discarded response body", slog.Any("error", err))
	}
}

// isRetryableError is true for network errors and timeouts, false for
// cancellation.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}

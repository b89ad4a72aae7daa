package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/workcity/chat-admin/internal/domain"
	"github.com/workcity/chat-admin/internal/logger"
	"github.com/workcity/chat-admin/middleware"
)

var (
	ErrTimeout     = errors.New("api_timeout")
	ErrUnavailable = errors.New("api_unavailable")
	ErrDecode      = errors.New("api_decode")
)

var apiRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "chat_admin_api_request_duration_seconds",
		Help:    "Latency of calls to the WorkCity API",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "status"},
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error [%d]: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether the API rejected the bearer token.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

// IsTransport reports whether err happened before any API answer arrived.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable)
}

// Message returns the API-provided message when err carries one, else fallback.
func Message(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var apiErr domain.APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Text() != "" {
		return &StatusError{StatusCode: resp.StatusCode, Message: apiErr.Text()}
	}
	return &StatusError{StatusCode: resp.StatusCode}
}

type ClientConfig struct {
	BaseURL string
	// ReadTimeout is used for GET requests
	ReadTimeout time.Duration
	// WriteTimeout is used for POST, PUT, PATCH, DELETE requests
	WriteTimeout time.Duration
	Transport    http.RoundTripper
}

func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:      baseURL,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Client is the single HTTP client used for the WorkCity API. It forwards
// the request id, applies method-based timeouts, attaches the bearer token
// and maps failures onto the package errors.
type Client struct {
	baseURL    string
	baseClient *http.Client
	config     ClientConfig
}

func NewClient(config ClientConfig) *Client {
	transport := config.Transport
	if transport == nil {
		transport = &middleware.TracingTransport{Base: http.DefaultTransport}
	}
	return &Client{
		baseURL: config.BaseURL,
		baseClient: &http.Client{
			// per-request timeouts come from the context
			Timeout:   0,
			Transport: transport,
		},
		config: config,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Do sends req and logs the outcome. Transport failures come back as
// ErrTimeout or ErrUnavailable.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		req.Header.Set(middleware.HeaderXRequestID, reqID)
	}

	log := logger.Ctx(ctx).With().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Logger()

	start := time.Now()
	resp, err := c.baseClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		apiRequestDuration.WithLabelValues(req.Method, "error").Observe(duration.Seconds())
		log.Warn().Err(err).Dur("duration", duration).Msg("api_request_failed")
		return nil, c.mapError(err)
	}

	apiRequestDuration.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Observe(duration.Seconds())
	log.Debug().Int("status", resp.StatusCode).Dur("duration", duration).Msg("api_request_completed")
	return resp, nil
}

func (c *Client) mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return ErrTimeout
	}
	return ErrUnavailable
}

func (c *Client) timeoutFor(method string) time.Duration {
	if isWriteMethod(method) {
		return c.config.WriteTimeout
	}
	return c.config.ReadTimeout
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// doJSON performs one API call. body is JSON-encoded when non-nil and out
// receives the decoded 2xx body when non-nil. token is sent as a bearer
// credential when set.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, token string, body, out any) error {
	if timeout := c.timeoutFor(method); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return fmt.Errorf("%w: %s %s: %v", ErrDecode, method, path, err)
	}
	return nil
}

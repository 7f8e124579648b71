// Package apiclient is the authenticated request client of the remote REST API.
package apiclient

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
	"sync"
	"time"

	"etuition/config"
	"etuition/internal/infra/metrics"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 4 << 10

// ResponseError is returned for non-2xx responses.
type ResponseError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

// Error implements the error interface
func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
}

// Client sends JSON requests to the backend through the registered interceptors.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	metrics *metrics.Metrics
	logger  *slog.Logger

	// swapMu pairs interceptor snapshots with ReplaceInterceptors.
	swapMu    sync.RWMutex
	Requests  Manager[RequestInterceptor]
	Responses Manager[ResponseInterceptor]
}

// NewClient creates the client for backend.baseUrl
func NewClient(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.Backend.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid backend.baseUrl")
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   cfg.Backend.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		metrics: m,
		logger:  logger,
	}, nil
}

// ReplaceInterceptors swaps a request/response interceptor pair atomically
// with respect to requests being sent.
func (c *Client) ReplaceInterceptors(
	oldRequest int, request RequestInterceptor,
	oldResponse int, response ResponseInterceptor,
) (requestID, responseID int) {
	c.swapMu.Lock()
	defer c.swapMu.Unlock()

	return c.Requests.Replace(oldRequest, request), c.Responses.Replace(oldResponse, response)
}

// EjectInterceptors removes a pair registered with ReplaceInterceptors.
func (c *Client) EjectInterceptors(requestID, responseID int) {
	c.swapMu.Lock()
	defer c.swapMu.Unlock()

	c.Requests.Eject(requestID)
	c.Responses.Eject(responseID)
}

func (c *Client) snapshot() ([]RequestInterceptor, []ResponseInterceptor) {
	c.swapMu.RLock()
	defer c.swapMu.RUnlock()

	return c.Requests.Snapshot(), c.Responses.Snapshot()
}

// Get sends a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Do sends a request relative to the base URL. path may carry a query string.
// out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	target, err := c.baseURL.Parse(c.baseURL.Path + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return errors.Wrapf(err, "invalid path %q", path)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestInterceptors, responseInterceptors := c.snapshot()

	for _, intercept := range requestInterceptors {
		if err := intercept(req); err != nil {
			return err
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(method, "error", start)

		return reject(responseInterceptors, req, errors.Wrapf(err, "%s %s", method, target.Path))
	}
	defer resp.Body.Close()
	c.observe(method, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.DebugContext(ctx, "Backend request rejected",
			slog.String("method", method),
			slog.String("path", target.Path),
			slog.Int("status", resp.StatusCode),
		)

		return reject(responseInterceptors, req, &ResponseError{
			Method:     method,
			URL:        target.String(),
			StatusCode: resp.StatusCode,
			Body:       data,
		})
	}

	for _, intercept := range responseInterceptors {
		if intercept.Fulfilled == nil {
			continue
		}
		if resp, err = intercept.Fulfilled(resp); err != nil {
			return err
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrapf(err, "decode %s %s", method, target.Path)
	}

	return nil
}

func reject(interceptors []ResponseInterceptor, req *http.Request, err error) error {
	for _, intercept := range interceptors {
		if intercept.Rejected != nil {
			err = intercept.Rejected(req, err)
		}
	}

	return err
}

func (c *Client) observe(method, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.BackendRequests.WithLabelValues(method, status).Observe(time.Since(start).Seconds())
}

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/fjod/go_cart/storefront/internal/errors"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	breakerName     = "store-api"
	maxResponseSize = 4 << 20 // 4MB
)

type Options struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
	// Transport defaults to http.DefaultTransport; it is always wrapped by otelhttp.
	Transport http.RoundTripper
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
}

// Client talks to the store REST API. Copies made by WithToken share the
// underlying HTTP client and circuit breaker.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*response]
	token   string
	log     *logger.Logger
	metrics *metrics.Metrics
}

type response struct {
	status int
	body   []byte
}

var errServerStatus = errors.New("server error status")

func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(base),
			Timeout:   opts.Timeout,
		},
		log:     opts.Logger,
		metrics: opts.Metrics,
	}

	failures := opts.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up is not the store's fault
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.metrics.BreakerOpen(name, to == gobreaker.StateOpen)
			c.log.Warn(context.Background(), fmt.Sprintf("circuit breaker %s: %s -> %s", name, from, to), nil)
		},
	})
	return c, nil
}

// WithToken returns a client that authenticates as the given session.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) endpoint(path string, query url.Values) string {
	if len(query) == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + query.Encode()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.breaker.Execute(func() (*response, error) {
		return c.roundTrip(req)
	})
	if err = c.classify(ctx, method, path, res, err); err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(res.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		c.metrics.RemoteRequest(method, "malformed")
		return pkgerrors.Wrap(pkgerrors.CodeServerRejected, err, pkgerrors.GenericFailureMessage)
	}
	return nil
}

func (c *Client) roundTrip(req *http.Request) (*response, error) {
	httpRes, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpRes.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpRes.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	res := &response{status: httpRes.StatusCode, body: data}
	if res.status >= http.StatusInternalServerError {
		return res, errServerStatus
	}
	return res, nil
}

// classify maps transport outcomes onto the error taxonomy.
func (c *Client) classify(ctx context.Context, method, path string, res *response, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.RemoteRequest(method, "breaker_open")
		return pkgerrors.Wrap(pkgerrors.CodeNetworkUnknown, err, "the store is unreachable right now")
	case res == nil && err != nil:
		c.metrics.RemoteRequest(method, "network")
		c.log.Warn(ctx, fmt.Sprintf("%s %s failed", method, path), err)
		return pkgerrors.Wrap(pkgerrors.CodeNetworkUnknown, err, "request to the store did not complete")
	case res.status == http.StatusUnauthorized:
		c.metrics.RemoteRequest(method, "unauthenticated")
		return pkgerrors.New(pkgerrors.CodeUnauthenticated, serverMessage(res.body))
	case res.status >= http.StatusBadRequest:
		c.metrics.RemoteRequest(method, "rejected")
		return pkgerrors.New(pkgerrors.CodeServerRejected, serverMessage(res.body)).
			WithDetails(map[string]any{"status": res.status})
	}
	c.metrics.RemoteRequest(method, "ok")
	return nil
}

// serverMessage pulls a human readable message out of an error payload.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
	}
	return pkgerrors.GenericFailureMessage
}

func pathID(id string) string {
	return url.PathEscape(id)
}

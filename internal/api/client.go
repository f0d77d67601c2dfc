// Package api is the HTTP client of the restaurant backend.
package api

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

	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBody = 4 << 20

type Options struct {
	BaseURL     string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
	Transport   http.RoundTripper
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *logrus.Entry
}

func NewClient(opts Options, log *logrus.Entry) *Client {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 5
	}
	maxFailures := opts.MaxFailures

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "restaurant-backend",
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			var apiErr *Error
			if errors.As(err, &apiErr) {
				return apiErr.clientSide()
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		breaker: breaker,
		log:     log,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

type call struct {
	name   string
	method string
	path   string
	token  string
	query  url.Values
	body   interface{}
}

// do sends c and decodes the envelope's data into out (when out is non-nil).
func (c *Client) do(ctx context.Context, cl call, out interface{}) error {
	start := time.Now()
	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, cl)
	})
	metrics.ObserveRemoteCall(cl.name, err, time.Since(start))

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w: %v", cl.name, ErrUnavailable, err)
	}
	if err != nil {
		logger.WithContext(ctx, c.log).WithFields(logrus.Fields{
			"call":  cl.name,
			"error": err,
		}).Debug("backend call failed")
		return fmt.Errorf("%s: %w", cl.name, err)
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%s: decode envelope: %w", cl.name, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: decode data: %w", cl.name, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, cl call) ([]byte, error) {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			apiErr.Message = eb.Message
			apiErr.Fields = eb.Errors
		}
		return nil, apiErr
	}
	return data, nil
}

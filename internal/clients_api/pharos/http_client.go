// Package pharos is the client for the Pharos testnet engagement backend (daily check-in and swap).
package pharos

// This file contains base HTTP client - builds requests, applies rate limiter and circuit breaker
// Acts as transport layer - actions in checkin.go and swap.go turn its output into Result

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pharos-bot/internal/infra/log"
	"pharos-bot/internal/infra/retry"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL - Pharos testnet web backend
	DefaultBaseURL = "https://testnet.pharosnetwork.xyz"

	DefaultTimeout = 30 * time.Second

	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxResponseSize = 1 << 20

	endpointCheckIn = "/api/checkin"
	endpointSwap    = "/api/swap"
)

// swap is only retried when the backend certainly did not process it
var swapRetryOn = []int{429, 503}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// RequestsPerSecond paces every attempt, retries included; defaults to 1
	RequestsPerSecond float64
	// RetryBaseDelay and RetryMaxDelay bound the backoff, defaults 1s and 10s
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set
	HTTPClient *http.Client
}

// Client keeps everything needed to talk to the backend
type Client struct {
	baseURL        string
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	circuitBreaker *gobreaker.CircuitBreaker
	retry          retry.Options
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				MaxIdleConns:    4,
				IdleConnTimeout: 90 * time.Second,
			},
		}
	}

	// the pause keeps check-in and swap apart, so the limiter mostly paces retry bursts
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(rps), 1)

	baseDelay := opts.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	maxDelay := opts.RetryMaxDelay
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}

	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "PharosAPI",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     10 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// an answered request, whatever the status, proves the backend is reachable;
		// only transport failures trip the breaker so a failing check-in never blocks the swap
		IsSuccessful: func(err error) bool {
			return err == nil || retry.IsAnswered(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.LogWarn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		baseURL:        baseURL,
		httpClient:     httpClient,
		rateLimiter:    rateLimiter,
		circuitBreaker: circuitBreaker,
		retry: retry.Options{
			MaxRetries: opts.MaxRetries,
			BaseDelay:  baseDelay,
			MaxDelay:   maxDelay,
		},
	}
}

// retryFor returns the retry policy of endpoint
func (c *Client) retryFor(endpoint string) retry.Options {
	opts := c.retry
	if endpoint == endpointSwap {
		opts.RetryOn = swapRetryOn
	}
	opts.OnRetry = func(attempt int, err error, wait time.Duration) {
		log.LogWarn("Retrying backend request",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	return opts
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// response of a completed HTTP exchange, whatever the status
type response struct {
	StatusCode int
	Body       []byte
}

// post sends body as JSON. A non-nil response comes back for every status the server answered with,
// err is set for transport failures, non-200 statuses and breaker/limiter rejections.
func (c *Client) post(ctx context.Context, endpoint string, body interface{}) (*response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	var last *response
	err = retry.Do(ctx, c.retryFor(endpoint), func() error {
		last = nil
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
		_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			resp, err := c.do(ctx, http.MethodPost, endpoint, payload)
			if resp != nil {
				last = resp
			}
			return resp, err
		})
		return err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		log.LogError("Circuit breaker rejected request", zap.String("endpoint", endpoint), zap.Error(err))
	}
	return last, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) (*response, error) {
	requestID := log.GenerateRequestID()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	setHeaders(req)

	log.LogRequest(requestID, method, endpoint, zap.String("url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.LogResponse(requestID, 0, time.Since(start).Milliseconds(), zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	duration := time.Since(start).Milliseconds()
	if err != nil {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.LogResponse(requestID, resp.StatusCode, duration, zap.String("endpoint", endpoint))
	log.LogJSON(respBody, "Response body "+endpoint)

	out := &response{StatusCode: resp.StatusCode, Body: respBody}
	// the backend signals success with 200 only
	if resp.StatusCode != http.StatusOK {
		return out, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       truncate(respBody, 256),
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return out, nil
}

func setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// Package fetch provides the API clients that fill a report's raw inputs:
// reward payouts from Subscan and daily prices from a CoinGecko compatible API.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/yourorg/staking-rewards/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// ErrAPI is returned when an API answers with an error status or code
var ErrAPI = errors.New("api error")

// apiClient bundles the retrying transport, the rate limiter and metrics
// shared by the concrete clients
type apiClient struct {
	http    *retryablehttp.Client
	limiter *rate.Limiter
	metrics *telemetry.Metrics
}

func newAPIClient(sleepDelayMs int, m *telemetry.Metrics) apiClient {
	return apiClient{
		http:    newRetryClient(),
		limiter: newLimiter(sleepDelayMs),
		metrics: m,
	}
}

// newRetryClient creates a new HTTP client with retry capabilities. Every
// attempt gets its own client span.
func newRetryClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.HTTPClient.Transport = otelhttp.NewTransport(c.HTTPClient.Transport)
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.Logger = leveledLogger{logrus.StandardLogger()}
	return c
}

// newLimiter spaces calls at least sleepDelayMs apart; zero disables limiting
func newLimiter(sleepDelayMs int) *rate.Limiter {
	if sleepDelayMs <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Duration(sleepDelayMs)*time.Millisecond), 1)
}

// do sends req after waiting for the limiter and decodes a 200 JSON body into out
func (c apiClient) do(ctx context.Context, api string, req *retryablehttp.Request, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", api, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		c.metrics.ObserveRequest(api, "error", time.Since(start).Seconds())
		return fmt.Errorf("%s request failed: %w", api, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(api, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s status %d, body: %s", ErrAPI, api, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", api, err)
	}
	return nil
}

// leveledLogger adapts logrus to retryablehttp.LeveledLogger
type leveledLogger struct {
	l *logrus.Logger
}

func (l leveledLogger) fields(keysAndValues []interface{}) *logrus.Entry {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.l.WithFields(f)
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.fields(kv).Error(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.fields(kv).Debug(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.fields(kv).Debug(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.fields(kv).Warn(msg) }

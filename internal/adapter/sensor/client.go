package sensor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/aqi-monitor/internal/domain"
	"github.com/couchcryptid/aqi-monitor/internal/observability"
)

// ErrUnauthorized is returned when the PurpleAir API rejects the key.
var ErrUnauthorized = errors.New("purpleair: api key rejected")

const (
	apiKeyHeader  = "X-API-Key"
	maxBodyBytes  = 1 << 20
	maxErrExcerpt = 256

	initialRetryBackoff = 500 * time.Millisecond
	maxRetryBackoff     = 10 * time.Second
)

// CloudClient fetches a single sensor from the PurpleAir cloud API.
type CloudClient struct {
	apiKey     string
	sensorID   string
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
	clock      clockwork.Clock
	retryBase  time.Duration
}

// NewCloudClient creates a client for GET {baseURL}/sensors/{sensorID}.
func NewCloudClient(apiKey, sensorID, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CloudClient {
	return &CloudClient{
		apiKey:     apiKey,
		sensorID:   sensorID,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
		clock:      clockwork.NewRealClock(),
		retryBase:  initialRetryBackoff,
	}
}

// Fetch returns the current sensor payload.
func (c *CloudClient) Fetch(ctx context.Context) (domain.RawSample, error) {
	u := fmt.Sprintf("%s/sensors/%s", c.baseURL, url.PathEscape(c.sensorID))
	body, err := c.get(ctx, u)
	if err != nil {
		return domain.RawSample{}, err
	}
	return domain.RawSample{
		SensorID:  c.sensorID,
		Source:    domain.SourceCloud,
		Payload:   body,
		FetchedAt: c.clock.Now().UTC(),
	}, nil
}

// ValidateKey checks the API key against GET {baseURL}/keys. PurpleAir
// answers 201 for a valid read key.
func (c *CloudClient) ValidateKey(ctx context.Context) error {
	_, err := c.get(ctx, c.baseURL+"/keys")
	if err != nil {
		return err
	}
	c.logger.Info("purpleair api key validated")
	return nil
}

// AwaitValidKey calls ValidateKey up to attempts times, backing off between
// transient failures. A rejected key fails immediately.
func (c *CloudClient) AwaitValidKey(ctx context.Context, attempts int) error {
	backoff := c.retryBase
	var err error
	for i := 1; i <= attempts; i++ {
		err = c.ValidateKey(ctx)
		if err == nil || errors.Is(err, ErrUnauthorized) {
			return err
		}
		c.logger.Warn("api key validation failed, retrying", "attempt", i, "backoff", backoff, "error", err)
		if i == attempts || !retry.SleepWithContext(ctx, backoff) {
			break
		}
		backoff = retry.NextBackoff(backoff, maxRetryBackoff)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("validate api key after %d attempts: %w", attempts, err)
}

func (c *CloudClient) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	return do(c.httpClient, c.clock, req, domain.SourceCloud, c.metrics, c.logger)
}

// LocalClient fetches live readings from a sensor on the local network.
type LocalClient struct {
	addr       string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
	clock      clockwork.Clock
}

// NewLocalClient creates a client for GET http://{addr}/json?live=true.
// addr may be a bare host or a full URL.
func NewLocalClient(addr string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *LocalClient {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &LocalClient{
		addr:       strings.TrimRight(addr, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
		clock:      clockwork.NewRealClock(),
	}
}

// Fetch returns the current live payload.
func (c *LocalClient) Fetch(ctx context.Context) (domain.RawSample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.addr+"/json?live=true", nil)
	if err != nil {
		return domain.RawSample{}, fmt.Errorf("create request: %w", err)
	}
	body, err := do(c.httpClient, c.clock, req, domain.SourceLocal, c.metrics, c.logger)
	if err != nil {
		return domain.RawSample{}, err
	}
	return domain.RawSample{
		Source:    domain.SourceLocal,
		Payload:   body,
		FetchedAt: c.clock.Now().UTC(),
	}, nil
}

func do(client *http.Client, clock clockwork.Clock, req *http.Request, source domain.SourceKind, metrics *observability.Metrics, logger *slog.Logger) ([]byte, error) {
	start := clock.Now()
	resp, err := client.Do(req)
	metrics.SensorRequestLatency.WithLabelValues(string(source)).Observe(clock.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s sensor request: %w", source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s sensor response: %w", source, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%s sensor error: status %d: %s", source, resp.StatusCode, excerpt(body))
	}

	logger.Debug("sensor response", "source", source, "status", resp.StatusCode, "bytes", len(body))
	return body, nil
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrExcerpt {
		return s[:maxErrExcerpt] + "..."
	}
	return s
}

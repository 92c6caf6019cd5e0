package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/aqi-monitor/internal/domain"
	"github.com/couchcryptid/aqi-monitor/internal/observability"
)

const (
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"
	// Finest to coarsest; Mapbox returns the closest match among these.
	placeTypes = "neighborhood,locality,place"
	maxErrBody = 512
)

// Client implements domain.Geocoder with Mapbox reverse geocoding.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox client. timeout bounds each lookup.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// ReverseGeocode resolves sensor coordinates to the nearest neighbourhood,
// locality, or place. No match yields an empty result and a nil error.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	features, err := c.lookup(ctx, lat, lon)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, err
	}
	if len(features) == 0 {
		c.logger.Debug("no place found for sensor coordinates", "lat", lat, "lon", lon)
		return domain.GeocodingResult{}, nil
	}

	best := features[0]
	return domain.GeocodingResult{
		FormattedAddress: best.PlaceName,
		PlaceName:        best.Text,
		Confidence:       best.Relevance,
	}, nil
}

// placeURL builds {base}/{lon},{lat}.json; Mapbox expects longitude first.
func (c *Client) placeURL(lat, lon float64) string {
	query := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {placeTypes},
	}
	coords := strconv.FormatFloat(lon, 'f', 6, 64) + "," + strconv.FormatFloat(lat, 'f', 6, 64)
	return strings.TrimRight(c.baseURL, "/") + "/" + coords + ".json?" + query.Encode()
}

func (c *Client) lookup(ctx context.Context, lat, lon float64) ([]feature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.placeURL(lat, lon), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return nil, fmt.Errorf("mapbox: status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode mapbox response: %w", err)
	}
	return body.Features, nil
}

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	PlaceName string  `json:"place_name"`
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
}

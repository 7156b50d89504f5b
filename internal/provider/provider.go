package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akotliarov/weather-favorites/internal/observability"
)

// Client is the upstream weather-provider interface consumed by the
// orchestrator. Payloads are opaque and forwarded verbatim.
type Client interface {
	ResolvePlace(ctx context.Context, name string) (Place, error)
	CurrentConditions(ctx context.Context, placeID string) (json.RawMessage, error)
	Forecast(ctx context.Context, placeID string) (json.RawMessage, error)
}

// Place is the provider's identity for a resolved place name.
type Place struct {
	ID   string
	Name string
}

var (
	ErrInvalidAPIKey       = errors.New("invalid API key")
	ErrPlaceNotFound       = errors.New("place not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// AccuWeatherClient talks to the AccuWeather REST API: place search,
// current conditions, and the 5-day daily forecast.
type AccuWeatherClient struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewAccuWeatherClient validates the key and returns a client. timeout bounds
// every individual upstream call.
func NewAccuWeatherClient(apiKey, baseURL string, timeout time.Duration) (*AccuWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AccuWeatherClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// citySearchResult is the subset of the location search response we use.
type citySearchResult struct {
	Key           string `json:"Key"`
	LocalizedName string `json:"LocalizedName"`
}

// ResolvePlace looks up the provider place identifier for a human-readable
// name. An empty search result maps to ErrPlaceNotFound.
func (c *AccuWeatherClient) ResolvePlace(ctx context.Context, name string) (Place, error) {
	body, err := c.get(ctx, "resolve", "/locations/v1/cities/search?q="+url.QueryEscape(name))
	if err != nil {
		return Place{}, err
	}

	var results []citySearchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Place{}, fmt.Errorf("%w: parse search response: %v", ErrUpstreamUnavailable, err)
	}
	if len(results) == 0 {
		return Place{}, fmt.Errorf("%w: %s", ErrPlaceNotFound, name)
	}
	if results[0].Key == "" {
		return Place{}, fmt.Errorf("%w: search result missing location key", ErrUpstreamUnavailable)
	}
	return Place{ID: results[0].Key, Name: results[0].LocalizedName}, nil
}

// CurrentConditions fetches current conditions for a resolved place ID.
// The payload is returned verbatim; an empty array is treated as a failure.
func (c *AccuWeatherClient) CurrentConditions(ctx context.Context, placeID string) (json.RawMessage, error) {
	body, err := c.get(ctx, "conditions", "/currentconditions/v1/"+url.PathEscape(placeID))
	if err != nil {
		return nil, err
	}
	if emptyPayload(body) {
		return nil, fmt.Errorf("%w: empty conditions payload", ErrUpstreamUnavailable)
	}
	return json.RawMessage(body), nil
}

// Forecast fetches the 5-day daily forecast for a resolved place ID.
func (c *AccuWeatherClient) Forecast(ctx context.Context, placeID string) (json.RawMessage, error) {
	body, err := c.get(ctx, "forecast", "/forecasts/v1/daily/5day/"+url.PathEscape(placeID))
	if err != nil {
		return nil, err
	}
	if emptyPayload(body) {
		return nil, fmt.Errorf("%w: empty forecast payload", ErrUpstreamUnavailable)
	}
	return json.RawMessage(body), nil
}

// get performs one bounded upstream call and returns the raw body.
// endpoint is a stable label used for metrics only.
func (c *AccuWeatherClient) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues(endpoint, "error").Inc()
		observability.ProviderCallDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: request timeout: %v", ErrUpstreamUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	observability.ProviderCallsTotal.WithLabelValues(endpoint, statusLabel(resp.StatusCode)).Inc()
	observability.ProviderCallDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err := categorizeStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrUpstreamUnavailable, err)
	}
	return body, nil
}

// categorizeStatus maps upstream HTTP status codes onto the sentinel errors.
func categorizeStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", ErrInvalidAPIKey, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w", ErrPlaceNotFound)
	default:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamUnavailable, code)
	}
}

// emptyPayload reports whether a provider body carries no usable data.
// AccuWeather returns JSON arrays for conditions and bare objects for
// forecasts; null, [] and {} all count as empty.
func emptyPayload(body []byte) bool {
	s := strings.TrimSpace(string(body))
	return s == "" || s == "null" || s == "[]" || s == "{}"
}

func statusLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "success"
	case code >= 400 && code < 500:
		return "client_error"
	case code >= 500:
		return "server_error"
	default:
		return "error"
	}
}

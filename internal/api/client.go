package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"enbw-hass/internal/geo"

	"github.com/sirupsen/logrus"
)

// Error categories. Callers that only need "did it work" can treat any
// non-nil error the same; logs carry the distinction.
var (
	// ErrStatus marks responses with an HTTP status >= 400.
	ErrStatus = errors.New("unexpected HTTP status")
	// ErrDecode marks payloads that could not be decoded as JSON.
	ErrDecode = errors.New("malformed payload")
)

// Client handles communication with the public EnBW charge-station API
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new EnBW API client
func NewClient(baseURL, apiKey, userAgent string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: NewTransport(),
		},
		logger: logger,
	}
}

// GetStation fetches the current state of a single station
func (c *Client) GetStation(ctx context.Context, stationNumber string) (*StationResponse, error) {
	fullURL := fmt.Sprintf("%s/chargestations/%s", c.baseURL, url.PathEscape(stationNumber))

	body, err := c.get(ctx, fullURL)
	if err != nil {
		return nil, err
	}

	var resp StationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	c.logger.WithFields(logrus.Fields{
		"station":       stationNumber,
		"charge_points": resp.NumberOfChargePoints,
	}).Debug("Fetched station state")

	return &resp, nil
}

// SearchArea fetches all stations inside the bounding box. Array elements
// that are not well-formed station objects are skipped silently.
func (c *Client) SearchArea(ctx context.Context, box geo.Box) ([]StationResponse, error) {
	params := url.Values{}
	params.Set("fromLat", fmt.Sprintf("%f", box.FromLat))
	params.Set("toLat", fmt.Sprintf("%f", box.ToLat))
	params.Set("fromLon", fmt.Sprintf("%f", box.FromLon))
	params.Set("toLon", fmt.Sprintf("%f", box.ToLon))
	params.Set("grouping", "false")
	params.Set("groupingDivisor", "15")
	fullURL := fmt.Sprintf("%s/chargestations?%s", c.baseURL, params.Encode())

	body, err := c.get(ctx, fullURL)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	stations := make([]StationResponse, 0, len(raw))
	for _, elem := range raw {
		var station StationResponse
		if err := json.Unmarshal(elem, &station); err != nil {
			c.logger.WithError(err).Debug("Skipping malformed station element")
			continue
		}
		stations = append(stations, station)
	}

	c.logger.WithField("stations", len(stations)).Debug("Fetched stations in area")

	return stations, nil
}

// get performs one GET against the API with the required headers and returns
// the raw body.
func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// The public endpoint rejects requests without a browser-like origin.
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Origin", "https://www.enbw.com")
	req.Header.Set("Referer", "https://www.enbw.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"response_size": len(body),
	}).Debug("Received API response")

	return body, nil
}

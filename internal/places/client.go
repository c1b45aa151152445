package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ryuhosoy/mobile-gym-app/internal/domain"
)

// Upstream response statuses that mean "request understood".
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

var ErrUpstream = errors.New("places API error")

// Config holds places API client configuration.
type Config struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Client calls the upstream places-search API: nearby search, text
// search, place details, and the distance matrix.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	language string
}

// NewClient creates a places client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api"
	}
	language := cfg.Language
	if language == "" {
		language = "ja"
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		language: language,
	}
}

// NearbySearch finds gyms around a location. keyword is optional.
func (c *Client) NearbySearch(ctx context.Context, origin domain.LatLng, radiusMeters int, keyword string) ([]domain.Place, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", origin.Lat, origin.Lng))
	params.Set("radius", strconv.Itoa(radiusMeters))
	params.Set("type", "gym")
	if keyword != "" {
		params.Set("keyword", keyword)
	}

	var body struct {
		Status  string         `json:"status"`
		Results []domain.Place `json:"results"`
	}
	if err := c.get(ctx, "/place/nearbysearch/json", params, &body); err != nil {
		return nil, err
	}
	if err := checkStatus(body.Status); err != nil {
		return nil, err
	}
	return body.Results, nil
}

// TextSearch runs a free-text gym query.
func (c *Client) TextSearch(ctx context.Context, query string) ([]domain.Place, error) {
	params := url.Values{}
	params.Set("query", query)

	var body struct {
		Status  string         `json:"status"`
		Results []domain.Place `json:"results"`
	}
	if err := c.get(ctx, "/place/textsearch/json", params, &body); err != nil {
		return nil, err
	}
	if err := checkStatus(body.Status); err != nil {
		return nil, err
	}
	return body.Results, nil
}

// Details fetches the detail record for one place.
func (c *Client) Details(ctx context.Context, placeID string) (*domain.PlaceDetails, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "name,formatted_address,rating,user_ratings_total,formatted_phone_number,website,opening_hours,geometry")

	var body struct {
		Status string              `json:"status"`
		Result domain.PlaceDetails `json:"result"`
	}
	if err := c.get(ctx, "/place/details/json", params, &body); err != nil {
		return nil, err
	}
	if err := checkStatus(body.Status); err != nil {
		return nil, err
	}
	return &body.Result, nil
}

// WalkingDistance looks up walking distance and duration between two
// points via the distance matrix.
func (c *Client) WalkingDistance(ctx context.Context, from, to domain.LatLng) (*domain.DistanceInfo, error) {
	params := url.Values{}
	params.Set("origins", fmt.Sprintf("%f,%f", from.Lat, from.Lng))
	params.Set("destinations", fmt.Sprintf("%f,%f", to.Lat, to.Lng))
	params.Set("mode", "walking")

	var body struct {
		Status string `json:"status"`
		Rows   []struct {
			Elements []struct {
				Status string `json:"status"`
				domain.DistanceInfo
			} `json:"elements"`
		} `json:"rows"`
	}
	if err := c.get(ctx, "/distancematrix/json", params, &body); err != nil {
		return nil, err
	}
	if err := checkStatus(body.Status); err != nil {
		return nil, err
	}
	if len(body.Rows) == 0 || len(body.Rows[0].Elements) == 0 {
		return nil, fmt.Errorf("%w: empty distance matrix", ErrUpstream)
	}
	elem := body.Rows[0].Elements[0]
	if elem.Status != statusOK {
		return nil, fmt.Errorf("%w: element status %s", ErrUpstream, elem.Status)
	}
	return &elem.DistanceInfo, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("language", c.language)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("places request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: http %d", ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode places response: %w", err)
	}
	return nil
}

func checkStatus(status string) error {
	if status != statusOK && status != statusZeroResults {
		return fmt.Errorf("%w: status %s", ErrUpstream, status)
	}
	return nil
}

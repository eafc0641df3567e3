package postcodeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jakechorley/locum-dental/pkg/core/apperr"
)

// Location is the geocoded centre of a postcode
type Location struct {
	Postcode  string
	Latitude  float64
	Longitude float64
}

// Client looks up UK postcodes on postcodes.io
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a postcode client allowing ratePerSecond lookups per second
func NewClient(baseURL string, ratePerSecond float64) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), 1),
	}
}

type lookupResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Result *struct {
		Postcode  string   `json:"postcode"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"result"`
}

// Lookup geocodes a postcode. Unknown postcodes return a NotFound error.
func (c *Client) Lookup(ctx context.Context, postcode string) (*Location, error) {
	const op = "lookup postcode"

	postcode = strings.TrimSpace(postcode)
	if postcode == "" {
		return nil, apperr.Rejected(op, "postcode is required")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperr.Upstream(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/postcodes/"+url.PathEscape(postcode), nil)
	if err != nil {
		return nil, apperr.Upstream(op, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Upstream(op, fmt.Errorf("failed to call postcodes.io: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.NotFound(op, "postcode %q not found", postcode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.Upstream(op, fmt.Errorf("postcodes.io returned status %d: %s", resp.StatusCode, string(body)))
	}

	var data lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperr.Upstream(op, fmt.Errorf("failed to decode response: %w", err))
	}

	// Some terminated or offshore postcodes have no coordinates
	if data.Result == nil || data.Result.Latitude == nil || data.Result.Longitude == nil {
		return nil, apperr.NotFound(op, "postcode %q has no location", postcode)
	}

	return &Location{
		Postcode:  data.Result.Postcode,
		Latitude:  *data.Result.Latitude,
		Longitude: *data.Result.Longitude,
	}, nil
}

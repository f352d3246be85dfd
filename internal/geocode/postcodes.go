package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb"

	"gigmate/matching-service/internal/geo"
)

const (
	defaultBaseURL = "https://api.postcodes.io"
	httpTimeout    = 5 * time.Second
)

// PostcodesClient resolves UK postcodes through a postcodes.io-compatible
// lookup API. Calls are bounded by httpTimeout; a slow or down service
// surfaces as an error, which search-time callers degrade on.
type PostcodesClient struct {
	baseURL string
	client  *http.Client
}

// NewPostcodesClient constructs a client with a shared HTTP client.
// An empty baseURL selects the public postcodes.io endpoint.
func NewPostcodesClient(baseURL string) *PostcodesClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &PostcodesClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// postcodesResponse mirrors the postcodes.io lookup payload.
type postcodesResponse struct {
	Status int `json:"status"`
	Result *struct {
		Postcode  string  `json:"postcode"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"result"`
}

// Geocode looks up locationText as a postcode. Returns ErrNotFound when the
// service reports the input as unknown (HTTP 404).
func (p *PostcodesClient) Geocode(ctx context.Context, locationText string) (orb.Point, error) {
	endpoint := fmt.Sprintf("%s/postcodes/%s", p.baseURL, url.PathEscape(Normalize(locationText)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return orb.Point{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return orb.Point{}, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return orb.Point{}, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return orb.Point{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return orb.Point{}, fmt.Errorf("postcode lookup returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp postcodesResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return orb.Point{}, fmt.Errorf("json unmarshal: %w", err)
	}
	if apiResp.Result == nil {
		return orb.Point{}, ErrNotFound
	}

	return geo.NewPoint(apiResp.Result.Latitude, apiResp.Result.Longitude), nil
}

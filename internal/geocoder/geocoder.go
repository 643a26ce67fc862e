// Package geocoder resolves free-text addresses to coordinates through a
// public geocoding service. Failures are always non-fatal to callers: a
// report without coordinates is still useful, just not plottable.
package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/relieflink/report-gateway/pkg/logger"
	"github.com/relieflink/report-gateway/pkg/prom"
)

// ErrNotFound means the service answered but had no result for the
// address. Transport errors are reported as-is.
var ErrNotFound = errors.New("address not found")

type Coordinates struct {
	Lat float64
	Lng float64
}

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client queries a Nominatim-style search endpoint, first result wins.
// Successful lookups are cached in-process; the provider rate-limits
// anonymous callers and addresses repeat heavily during one incident.
type Client struct {
	config Config
	http   *http.Client
	cache  *gocache.Cache
}

func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = time.Hour
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
		cache:  gocache.New(config.CacheTTL, 10*time.Minute),
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves an address. No retries, no backoff; the caller treats
// any error as "proceed with null coordinates".
func (c *Client) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrNotFound
	}

	key := strings.ToLower(address)
	if v, ok := c.cache.Get(key); ok {
		prom.IncGeocodeLookup("cache_hit")
		coords := v.(Coordinates)
		return &coords, nil
	}

	u := fmt.Sprintf("%s/search?q=%s&format=json&limit=1",
		strings.TrimRight(c.config.BaseURL, "/"), url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "report-gateway/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		prom.IncGeocodeLookup("error")
		logger.Warn("geocode request failed", "address", address, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		prom.IncGeocodeLookup("error")
		return nil, fmt.Errorf("geocode status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		prom.IncGeocodeLookup("error")
		return nil, err
	}
	if len(results) == 0 {
		prom.IncGeocodeLookup("miss")
		return nil, ErrNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, err
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, err
	}

	coords := Coordinates{Lat: lat, Lng: lng}
	c.cache.Set(key, coords, gocache.DefaultExpiration)
	prom.IncGeocodeLookup("hit")
	return &coords, nil
}

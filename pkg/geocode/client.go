// Package geocode resolves free-text postal addresses to coordinates with the
// Google Geocoding API.
package geocode

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Sentinel errors.
var (
	ErrMissingAPIKey = eris.New("geocode: api key is required")
	ErrKeyValidation = eris.New("geocode: api key validation failed")
)

// Defaults.
const (
	DefaultEndpoint     = "https://maps.googleapis.com/maps/api/geocode/json"
	DefaultCheckAddress = "Chariteplatz 1, 10117 Berlin, Deutschland"
)

// Provider status values.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// Client geocodes one address per call.
type Client interface {
	// Geocode resolves address. An unmatched address is not an error; the
	// result has Matched=false and carries the provider status.
	Geocode(ctx context.Context, address string) (*Result, error)

	// Validate geocodes a known-good address and fails with ErrKeyValidation
	// unless the provider answers OK.
	Validate(ctx context.Context) error
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude     float64
	Longitude    float64
	Matched      bool
	Status       string // provider status, e.g. "OK", "ZERO_RESULTS", "REQUEST_DENIED"
	ErrorMessage string // provider error_message, if any
	Source       string // "google" or "cache"
	Quality      string // "rooftop", "range", "centroid", "approximate"
	Formatted    string
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithEndpoint overrides the Geocoding API URL.
func WithEndpoint(endpoint string) Option {
	return func(g *geocoder) {
		if endpoint != "" {
			g.endpoint = endpoint
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit caps requests per second. Zero or negative disables limiting.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		if rps <= 0 {
			g.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCheckAddress sets the address Validate geocodes.
func WithCheckAddress(addr string) Option {
	return func(g *geocoder) {
		if addr != "" {
			g.checkAddress = addr
		}
	}
}

type geocoder struct {
	apiKey       string
	endpoint     string
	checkAddress string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

// NewClient creates a Google geocoding Client. An empty apiKey returns
// ErrMissingAPIKey.
func NewClient(apiKey string, opts ...Option) (Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	g := &geocoder{
		apiKey:       apiKey,
		endpoint:     DefaultEndpoint,
		checkAddress: DefaultCheckAddress,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		limiter:      rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Geocode resolves one address and logs the outcome.
func (g *geocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	result, err := g.geocodeGoogle(ctx, address)
	if err != nil {
		return nil, err
	}

	if result.Matched {
		zap.L().Info("geocode ok",
			zap.String("address", address),
			zap.Float64("lat", result.Latitude),
			zap.Float64("lng", result.Longitude),
		)
	} else {
		zap.L().Warn("geocode failed",
			zap.String("address", address),
			zap.String("status", result.Status),
			zap.String("error_message", result.ErrorMessage),
		)
	}
	return result, nil
}

// Validate checks the key against the configured check address.
func (g *geocoder) Validate(ctx context.Context) error {
	result, err := g.geocodeGoogle(ctx, g.checkAddress)
	if err != nil {
		return eris.Wrapf(ErrKeyValidation, "geocode: check address %q: %s", g.checkAddress, err.Error())
	}
	if result.Status != StatusOK || !result.Matched {
		return eris.Wrapf(ErrKeyValidation, "geocode: check address %q: status %s: %s",
			g.checkAddress, result.Status, result.ErrorMessage)
	}

	zap.L().Info("geocode api key valid",
		zap.String("check_address", g.checkAddress),
		zap.Float64("lat", result.Latitude),
		zap.Float64("lng", result.Longitude),
	)
	return nil
}

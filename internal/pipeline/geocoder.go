package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/praxis-map/internal/config"
	"github.com/sells-group/praxis-map/internal/store"
	"github.com/sells-group/praxis-map/pkg/geocode"
)

// NewGeocodeClient builds the Google client from config, wrapped by cache
// when it is non-nil. A missing API key fails with geocode.ErrMissingAPIKey.
func NewGeocodeClient(cfg config.GeocodeConfig, cache geocode.Cache) (geocode.Client, error) {
	opts := []geocode.Option{geocode.WithRateLimit(cfg.RateLimit)}
	if cfg.Endpoint != "" {
		opts = append(opts, geocode.WithEndpoint(cfg.Endpoint))
	}
	if cfg.CheckAddress != "" {
		opts = append(opts, geocode.WithCheckAddress(cfg.CheckAddress))
	}
	if cfg.TimeoutSecs > 0 {
		opts = append(opts, geocode.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
		}))
	}

	client, err := geocode.NewClient(cfg.APIKey, opts...)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		client = geocode.WithCache(client, cache)
	}
	return client, nil
}

// OpenCache opens and migrates the SQLite geocode cache and purges expired
// entries. It returns nil when the cache is disabled.
func OpenCache(ctx context.Context, cfg config.CacheConfig) (store.Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	ttl := time.Duration(cfg.TTLDays) * 24 * time.Hour
	st, err := store.NewSQLite(cfg.Path, ttl)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: open geocode cache")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "pipeline: migrate geocode cache")
	}
	n, err := st.DeleteExpired(ctx)
	if err != nil {
		zap.L().Warn("geocode cache purge failed", zap.Error(err))
	} else if n > 0 {
		zap.L().Info("geocode cache purged", zap.Int("removed", n))
	}
	return st, nil
}

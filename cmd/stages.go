package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/praxis-map/internal/config"
	"github.com/sells-group/praxis-map/internal/fetcher"
	"github.com/sells-group/praxis-map/internal/mapview"
	"github.com/sells-group/praxis-map/internal/metrics"
	"github.com/sells-group/praxis-map/internal/pdftable"
	"github.com/sells-group/praxis-map/internal/pipeline"
	"github.com/sells-group/praxis-map/internal/schema"
	"github.com/sells-group/praxis-map/pkg/geocode"
)

// newRecorder returns a metrics recorder when a textfile path is configured.
func newRecorder(c *config.Config) *metrics.Recorder {
	if c.Metrics.TextfilePath == "" {
		return nil
	}
	return metrics.New()
}

// flushMetrics writes the textfile. Failures are logged, never fatal.
func flushMetrics(c *config.Config, rec *metrics.Recorder) {
	if err := rec.WriteTextfile(c.Metrics.TextfilePath); err != nil {
		zap.L().Warn("write metrics", zap.Error(err))
	}
}

// extractConfigFrom maps config onto the extract stage.
func extractConfigFrom(c *config.Config, s *schema.Schema) (pipeline.ExtractConfig, error) {
	strategy, err := pdftable.ParseStrategy(c.Extract.Strategy)
	if err != nil {
		return pipeline.ExtractConfig{}, err
	}
	return pipeline.ExtractConfig{
		Source:   c.Input.PDF,
		CSVPath:  c.Extract.CSVPath,
		XLSXPath: c.Export.XLSXPath,
		Pages:    c.Extract.Pages,
		Strategy: strategy,
		Schema:   s,
		Fetch: fetcher.SourceOptions{
			Timeout: time.Duration(c.Input.DownloadTimeoutSecs) * time.Second,
		},
	}, nil
}

// mapConfigFrom maps config onto the map stage.
func mapConfigFrom(c *config.Config, s *schema.Schema) pipeline.MapConfig {
	return pipeline.MapConfig{
		CSVPath:       c.Extract.CSVPath,
		HTMLPath:      c.Map.HTMLPath,
		GeoJSONPath:   c.Map.GeoJSONPath,
		ShapefilePath: c.Map.ShapefilePath,
		ReportPath:    c.Map.ReportPath,
		Schema:        s,
		Map: mapview.Map{
			Title:       c.Map.Title,
			Latitude:    c.Map.CenterLat,
			Longitude:   c.Map.CenterLng,
			Zoom:        c.Map.Zoom,
			TileURL:     c.Map.TileURL,
			Attribution: c.Map.Attribution,
			Style:       mapview.DefaultMarkerStyle,
		},
	}
}

func runExtract(ctx context.Context, c *config.Config, rec *metrics.Recorder) (*pipeline.ExtractResult, error) {
	s, err := schema.Load(c.Schema.Path)
	if err != nil {
		return nil, err
	}
	ec, err := extractConfigFrom(c, s)
	if err != nil {
		return nil, err
	}
	ec.Metrics = rec
	return pipeline.ExtractStage(ctx, ec, pdftable.NewExtractor())
}

func runMap(ctx context.Context, c *config.Config, rec *metrics.Recorder) (*pipeline.MapResult, error) {
	s, err := schema.Load(c.Schema.Path)
	if err != nil {
		return nil, err
	}

	st, err := pipeline.OpenCache(ctx, c.Cache)
	if err != nil {
		return nil, err
	}
	var cache geocode.Cache
	if st != nil {
		defer func() {
			if err := st.Close(); err != nil {
				zap.L().Warn("close geocode cache", zap.Error(err))
			}
		}()
		cache = st
	}

	client, err := pipeline.NewGeocodeClient(c.Geocode, cache)
	if err != nil {
		return nil, eris.Wrap(err, "init geocoder")
	}

	mc := mapConfigFrom(c, s)
	mc.Metrics = rec
	return pipeline.MapStage(ctx, mc, client)
}

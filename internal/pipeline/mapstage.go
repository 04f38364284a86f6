package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/praxis-map/internal/directory"
	"github.com/sells-group/praxis-map/internal/geo"
	"github.com/sells-group/praxis-map/internal/mapview"
	"github.com/sells-group/praxis-map/internal/metrics"
	"github.com/sells-group/praxis-map/internal/schema"
	"github.com/sells-group/praxis-map/pkg/geocode"
)

// MapConfig configures MapStage.
type MapConfig struct {
	CSVPath       string
	HTMLPath      string
	GeoJSONPath   string
	ShapefilePath string
	// ReportPath receives one CSV line per entry with its geocode outcome.
	ReportPath string
	Schema     *schema.Schema
	Metrics    *metrics.Recorder
	// Map carries the page settings. Its Points are filled in by MapStage.
	Map mapview.Map
}

// MapResult summarizes a finished map run.
type MapResult struct {
	RunID    string
	Records  int
	Mapped   int
	Failed   int
	HTMLPath string
	Points   []geo.Point
	Elapsed  time.Duration
}

// MapStage loads the record CSV, checks the geocoder credentials, geocodes
// every address in order and renders the matched ones. Records that fail to
// geocode are logged and dropped.
func MapStage(ctx context.Context, cfg MapConfig, client geocode.Client) (*MapResult, error) {
	log, runID := newRunLogger("map")
	start := time.Now()

	if cfg.HTMLPath == "" {
		return nil, eris.New("pipeline: html path is required")
	}

	dir, err := directory.Load(ctx, cfg.CSVPath, cfg.Schema)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load directory")
	}
	log.Info("directory loaded", zap.String("path", cfg.CSVPath), zap.Int("records", dir.Len()))

	if err := client.Validate(ctx); err != nil {
		return nil, eris.Wrap(err, "pipeline: api key check")
	}

	points, report, err := geocodeAll(ctx, log, client, dir, cfg.Metrics)
	if err != nil {
		return nil, err
	}

	res := &MapResult{
		RunID:    runID,
		Records:  dir.Len(),
		Mapped:   len(points),
		Failed:   dir.Len() - len(points),
		HTMLPath: cfg.HTMLPath,
		Points:   points,
	}
	log.Info("geocoding complete", zap.Int("mapped", res.Mapped), zap.Int("failed", res.Failed))
	cfg.Metrics.SetMapped(res.Mapped, res.Failed)

	m := cfg.Map
	m.Points = points
	if err := mapview.Save(cfg.HTMLPath, m); err != nil {
		return nil, eris.Wrap(err, "pipeline: save map")
	}

	if cfg.GeoJSONPath != "" {
		if err := geo.WriteGeoJSONFile(cfg.GeoJSONPath, points); err != nil {
			return nil, eris.Wrap(err, "pipeline: write geojson")
		}
	}
	if cfg.ShapefilePath != "" {
		if err := geo.WriteShapefile(cfg.ShapefilePath, points); err != nil {
			return nil, eris.Wrap(err, "pipeline: write shapefile")
		}
	}

	if cfg.ReportPath != "" {
		if err := WriteReport(cfg.ReportPath, report); err != nil {
			return nil, err
		}
	}

	res.Elapsed = time.Since(start)
	cfg.Metrics.StageDone("map", res.Elapsed)
	return res, nil
}

// geocodeAll resolves each entry sequentially. Only context cancellation
// aborts the loop.
func geocodeAll(ctx context.Context, log *zap.Logger, client geocode.Client, dir *directory.Directory, rec *metrics.Recorder) ([]geo.Point, []ReportRow, error) {
	points := make([]geo.Point, 0, dir.Len())
	report := make([]ReportRow, 0, dir.Len())
	for i, e := range dir.Entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, eris.Wrap(err, "pipeline: geocode")
		}

		row := ReportRow{
			ID:      dir.ID(e),
			Name:    dir.DisplayName(e),
			Address: e.Address,
		}
		if row.ID == "" {
			row.ID = strconv.Itoa(i + 1)
		}

		r, err := client.Geocode(ctx, e.Address)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, eris.Wrap(ctx.Err(), "pipeline: geocode")
			}
			log.Warn("geocode error, record dropped", zap.String("address", e.Address), zap.Error(err))
			rec.ObserveGeocode("")
			row.Error = err.Error()
			report = append(report, row)
			continue
		}
		if r == nil {
			r = &geocode.Result{}
		}
		rec.ObserveGeocode(r.Status)
		row.Status = r.Status
		row.Source = r.Source
		row.Error = r.ErrorMessage
		if !r.Matched {
			report = append(report, row)
			continue
		}

		p := geo.Point{
			ID:        row.ID,
			Name:      row.Name,
			Address:   e.Address,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Quality:   r.Quality,
		}
		if !p.Valid() {
			log.Warn("coordinates out of range, record dropped",
				zap.String("address", e.Address),
				zap.Float64("lat", r.Latitude),
				zap.Float64("lng", r.Longitude),
			)
			row.Error = "coordinates out of range"
			report = append(report, row)
			continue
		}

		row.Mapped = true
		row.Latitude, row.Longitude, row.Quality = r.Latitude, r.Longitude, r.Quality
		report = append(report, row)
		points = append(points, p)
	}
	return points, report, nil
}

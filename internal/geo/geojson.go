package geo

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// Feature property keys.
const (
	PropName    = "name"
	PropAddress = "address"
	PropQuality = "quality"
)

// FeatureCollection converts points into a GeoJSON feature collection.
func FeatureCollection(points []Point) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{
		BBox:     Bounds(points),
		Features: make([]*geojson.Feature, 0, len(points)),
	}
	for _, p := range points {
		props := map[string]interface{}{
			PropName:    p.Name,
			PropAddress: p.Address,
		}
		if p.Quality != "" {
			props[PropQuality] = p.Quality
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         p.ID,
			Geometry:   p.Geometry(),
			Properties: props,
		})
	}
	return fc
}

// EncodeGeoJSON writes the points as a GeoJSON FeatureCollection.
func EncodeGeoJSON(w io.Writer, points []Point) error {
	data, err := json.Marshal(FeatureCollection(points))
	if err != nil {
		return eris.Wrap(err, "geo: marshal geojson")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "geo: write geojson")
	}
	return nil
}

// WriteGeoJSONFile writes the points to path as GeoJSON.
func WriteGeoJSONFile(path string, points []Point) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "geo: create %s", path)
	}
	if err := EncodeGeoJSON(f, points); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "geo: close %s", path)
	}
	zap.L().Info("geojson written", zap.String("path", path), zap.Int("features", len(points)))
	return nil
}

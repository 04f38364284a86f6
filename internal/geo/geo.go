// Package geo turns geocoded directory entries into geometries and writes
// them as GeoJSON or ESRI shapefiles.
package geo

import (
	"github.com/twpayne/go-geom"
)

// SRID is the spatial reference of every geometry produced here (WGS 84).
const SRID = 4326

// Point is one geocoded marker.
type Point struct {
	ID        string
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	Quality   string
}

// Geometry returns the point as a go-geom point in lng/lat order.
func (p Point) Geometry() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.Longitude, p.Latitude}).SetSRID(SRID)
}

// Valid reports whether the coordinates fall inside the WGS 84 range.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// Bounds returns the bounding box of all points, or nil for an empty slice.
func Bounds(points []Point) *geom.Bounds {
	if len(points) == 0 {
		return nil
	}
	b := geom.NewBounds(geom.XY)
	for _, p := range points {
		b.Extend(p.Geometry())
	}
	return b
}

// Center returns the midpoint of the bounding box as (lat, lng).
func Center(points []Point) (lat, lng float64, ok bool) {
	b := Bounds(points)
	if b == nil {
		return 0, 0, false
	}
	return (b.Min(1) + b.Max(1)) / 2, (b.Min(0) + b.Max(0)) / 2, true
}

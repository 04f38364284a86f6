package geo

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// dBASE field names are limited to 10 characters.
var shapeFields = []shp.Field{
	shp.StringField("ID", 32),
	shp.StringField("NAME", 128),
	shp.StringField("ADDRESS", 200),
	shp.StringField("QUALITY", 16),
}

// WriteShapefile writes the points as a POINT shapefile. The .shx and .dbf
// siblings are created next to path.
func WriteShapefile(path string, points []Point) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "geo: create shapefile %s", path)
	}

	if err := w.SetFields(shapeFields); err != nil {
		w.Close()
		return eris.Wrapf(err, "geo: set shapefile fields %s", path)
	}

	for i, p := range points {
		row := int(w.Write(&shp.Point{X: p.Longitude, Y: p.Latitude}))
		for j, v := range []string{p.ID, p.Name, p.Address, p.Quality} {
			if err := w.WriteAttribute(row, j, truncateField(v, shapeFields[j])); err != nil {
				w.Close()
				return eris.Wrapf(err, "geo: write attribute %d of point %d", j, i)
			}
		}
	}
	w.Close()

	if err := placeDBF(path); err != nil {
		return err
	}

	zap.L().Info("shapefile written", zap.String("path", path), zap.Int("points", len(points)))
	return nil
}

// placeDBF moves the attribute table to <base>.dbf. go-shp's writer creates it
// as <base>dbf while its reader opens <base>.dbf.
func placeDBF(path string) error {
	base := path
	if strings.HasSuffix(strings.ToLower(base), ".shp") {
		base = base[:len(base)-len(".shp")]
	}
	if _, err := os.Stat(base + "dbf"); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return eris.Wrapf(err, "geo: stat attribute table for %s", path)
	}
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return eris.Wrapf(err, "geo: move attribute table for %s", path)
	}
	return nil
}

// ReadShapefile loads the points written by WriteShapefile.
func ReadShapefile(path string) ([]Point, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	idIdx := fieldIndex(reader, "ID")
	nameIdx := fieldIndex(reader, "NAME")
	addrIdx := fieldIndex(reader, "ADDRESS")
	qualIdx := fieldIndex(reader, "QUALITY")
	if idIdx < 0 || nameIdx < 0 || addrIdx < 0 {
		return nil, eris.New("geo: required shapefile fields (ID, NAME, ADDRESS) not found")
	}

	var points []Point
	for reader.Next() {
		_, shape := reader.Shape()
		pt, ok := shape.(*shp.Point)
		if !ok {
			continue
		}
		p := Point{
			ID:        attr(reader, idIdx),
			Name:      attr(reader, nameIdx),
			Address:   attr(reader, addrIdx),
			Latitude:  pt.Y,
			Longitude: pt.X,
		}
		if qualIdx >= 0 {
			p.Quality = attr(reader, qualIdx)
		}
		points = append(points, p)
	}
	return points, nil
}

func attr(reader *shp.Reader, idx int) string {
	return strings.Trim(reader.Attribute(idx), " \x00")
}

// fieldIndex returns the index of a named field in the shapefile, or -1 if not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// truncateField cuts v to the field's byte size without splitting a rune.
func truncateField(v string, f shp.Field) string {
	size := int(f.Size)
	if len(v) <= size {
		return v
	}
	cut := v[:size]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

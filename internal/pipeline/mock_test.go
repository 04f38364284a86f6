package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/praxis-map/internal/pdftable"
	"github.com/sells-group/praxis-map/pkg/geocode"
)

type fakeExtractor struct {
	tables []pdftable.Table
	err    error
	path   string
	opts   pdftable.Options
}

func (f *fakeExtractor) Extract(_ context.Context, path string, opts pdftable.Options) ([]pdftable.Table, error) {
	f.path = path
	f.opts = opts
	return f.tables, f.err
}

// stubGeocoder answers from a map. Unknown addresses return ZERO_RESULTS.
type stubGeocoder struct {
	mu          sync.Mutex
	results     map[string]*geocode.Result
	errs        map[string]error
	validateErr error
	calls       []string
	validations int
}

func (s *stubGeocoder) Geocode(_ context.Context, address string) (*geocode.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, address)
	if err, ok := s.errs[address]; ok {
		return nil, err
	}
	if r, ok := s.results[address]; ok {
		return r, nil
	}
	return &geocode.Result{Status: geocode.StatusZeroResults}, nil
}

func (s *stubGeocoder) Validate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validations++
	return s.validateErr
}

func matched(lat, lng float64) *geocode.Result {
	return &geocode.Result{Latitude: lat, Longitude: lng, Matched: true, Status: geocode.StatusOK, Source: "google", Quality: "rooftop"}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// Package pipeline wires the two batch stages: table extraction from the
// source PDF into a CSV, and geocoding that CSV onto a map.
package pipeline

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// newRunLogger returns a logger tagged with a fresh run id.
func newRunLogger(stage string) (*zap.Logger, string) {
	runID := uuid.NewString()
	return zap.L().With(zap.String("stage", stage), zap.String("run_id", runID)), runID
}

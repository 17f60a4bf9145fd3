// Package pipeline runs the assembly end to end: source records to base tables, the two
// cluster layers, sector links, optional LLM augmentation, and the final assembled graph.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/dd0wney/cluso-kg/pkg/layer"
	"github.com/dd0wney/cluso-kg/pkg/logging"
	"github.com/dd0wney/cluso-kg/pkg/metrics"
)

// RunContext carries what every stage of one run shares. It is passed explicitly; nothing
// in the pipeline reads process-wide state.
type RunContext struct {
	RunID        uuid.UUID
	Logger       logging.Logger
	Metrics      *metrics.Registry
	SectorPolicy layer.SectorPolicy
}

// NewRunContext creates a context with a fresh run id and its own metrics registry. A nil
// logger discards output.
func NewRunContext(logger logging.Logger, policy layer.SectorPolicy) *RunContext {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	id := uuid.New()
	return &RunContext{
		RunID:        id,
		Logger:       logger.With(logging.RunID(id)),
		Metrics:      metrics.NewRegistry(),
		SectorPolicy: policy,
	}
}

func (rc *RunContext) logger() logging.Logger {
	if rc.Logger == nil {
		return logging.NewNopLogger()
	}
	return rc.Logger
}

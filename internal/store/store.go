// Package store persists nearest-neighbour analysis runs.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pointpattern/internal/nnindex"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: run not found")

// RunStatus is the outcome of an analysis run.
type RunStatus string

// Run statuses.
const (
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunOptions records the parameters an analysis ran with.
type RunOptions struct {
	Units          string    `json:"units,omitempty" yaml:"units,omitempty"`
	Metric         string    `json:"metric,omitempty" yaml:"metric,omitempty"`
	BBox           []float64 `json:"bbox,omitempty" yaml:"bbox,omitempty"`
	StudyArea      string    `json:"studyArea,omitempty" yaml:"studyArea,omitempty"`
	Workers        int       `json:"workers,omitempty" yaml:"workers,omitempty"`
	IndexThreshold int       `json:"indexThreshold,omitempty" yaml:"indexThreshold,omitempty"`
	AllowMultiPart bool      `json:"allowMultiPart,omitempty" yaml:"allowMultiPart,omitempty"`
}

// Run is one recorded analysis.
type Run struct {
	ID      string          `json:"id" yaml:"id"`
	Source  string          `json:"source" yaml:"source"`
	Status  RunStatus       `json:"status" yaml:"status"`
	Options RunOptions      `json:"options" yaml:"options"`
	Result  *nnindex.Result `json:"result,omitempty" yaml:"result,omitempty"`
	// StudyArea is the resolved study area polygon as EWKB.
	StudyArea []byte    `json:"-" yaml:"-"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status RunStatus `json:"status,omitempty"`
	Source string    `json:"source,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}

const defaultListLimit = 100

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for analysis runs.
type Store interface {
	// CreateRun assigns an ID and creation time when unset and stores run.
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

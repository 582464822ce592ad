package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lox/pointcast/internal/grid"
)

// ErrCycleUnavailable indicates the inference job has not yet published a
// field document for the requested initialization cycle.
var ErrCycleUnavailable = errors.New("ingest: initialization cycle unavailable")

// FieldSource fetches the gridded output of one model run. Implementations
// return ErrCycleUnavailable when the cycle has not been published so the
// runner can fall back to an earlier one.
type FieldSource interface {
	FetchField(ctx context.Context, initTime time.Time) (*grid.Field, error)
}

// fieldDocumentName is the published filename for one cycle's field document.
func fieldDocumentName(initTime time.Time) string {
	return fmt.Sprintf("atlas_fields_%s.json", initTime.Format("2006010215"))
}

package forecast

import (
	"time"

	"github.com/lox/pointcast/internal/grid"
	"github.com/lox/pointcast/internal/models"
)

// InitTimeLayout is the naive ISO-8601 form used for initialization
// timestamps throughout the system, matching the inference job's convention.
const InitTimeLayout = "2006-01-02T15:04:05"

// BuildPayload assembles the persisted forecast document from one
// extraction-and-aggregation pass.
func BuildPayload(model, modelParams string, initTime time.Time, now time.Time,
	loc models.Location, pt grid.Point, steps []models.StepRecord) models.ForecastPayload {

	loc.GridLat = pt.Lat
	loc.GridLon = pt.Lon

	return models.ForecastPayload{
		Model:       model,
		ModelParams: modelParams,
		InitTime:    initTime.Format(InitTimeLayout),
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Location:    loc,
		Daily:       AggregateDaily(steps, initTime),
		Hourly6H:    steps,
	}
}

package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lox/pointcast/internal/forecast"
	"github.com/lox/pointcast/internal/metrics"
	"github.com/lox/pointcast/internal/models"
	"github.com/lox/pointcast/internal/store"
)

// Config is the immutable per-run configuration threaded through the
// pipeline from the entry point.
type Config struct {
	Model        string
	ModelParams  string
	LocationName string
	Lat          float64
	Lon          float64
	StepHours    int
	DocumentName string
}

// Runner performs one forecast pass: resolve an initialization cycle, fetch
// the gridded field, derive and aggregate at the configured point, and
// persist the payload.
type Runner struct {
	source  FieldSource
	docs    store.DocumentStore
	archive *store.Store
	cfg     Config
}

func NewRunner(source FieldSource, docs store.DocumentStore, archive *store.Store, cfg Config) *Runner {
	return &Runner{source: source, docs: docs, archive: archive, cfg: cfg}
}

// cycleInterval is the model's initialization cadence.
const cycleInterval = 6 * time.Hour

// previousCycle returns the most recent initialization time whose input data
// should already be published: one full cycle behind the current one, since
// upstream assimilation takes several hours.
func previousCycle(now time.Time) time.Time {
	now = now.UTC()
	cycleHour := (now.Hour() / 6) * 6
	current := time.Date(now.Year(), now.Month(), now.Day(), cycleHour, 0, 0, 0, time.UTC)
	return current.Add(-cycleInterval)
}

// Run executes one forecast pass. If the preferred cycle's field is not yet
// available it falls back exactly once to the cycle before it; a second miss
// fails the run.
func (r *Runner) Run(ctx context.Context, now time.Time) error {
	initTime := previousCycle(now)

	field, err := r.source.FetchField(ctx, initTime)
	if errors.Is(err, ErrCycleUnavailable) {
		log.Printf("ingest: cycle %s unavailable, falling back one cycle", initTime.Format(forecast.InitTimeLayout))
		metrics.CycleFallbacksTotal.Inc()
		initTime = initTime.Add(-cycleInterval)
		field, err = r.source.FetchField(ctx, initTime)
	}
	if err != nil {
		return fmt.Errorf("fetch field for %s: %w", initTime.Format(forecast.InitTimeLayout), err)
	}

	pt, err := field.Nearest(r.cfg.Lat, r.cfg.Lon)
	if err != nil {
		return fmt.Errorf("locate grid point: %w", err)
	}

	steps := forecast.ExtractSteps(field, pt, r.cfg.StepHours)
	if len(steps) == 0 {
		log.Printf("ingest: field for %s carries no configured variables, publishing empty forecast",
			initTime.Format(forecast.InitTimeLayout))
	}
	metrics.StepsExtractedTotal.Add(float64(len(steps)))

	loc := models.Location{
		Name:      r.cfg.LocationName,
		TargetLat: r.cfg.Lat,
		TargetLon: r.cfg.Lon,
	}
	payload := forecast.BuildPayload(r.cfg.Model, r.cfg.ModelParams, initTime, now, loc, pt, steps)

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if err := store.WriteWithRetry(ctx, r.docs, r.cfg.DocumentName, data); err != nil {
		return fmt.Errorf("persist forecast: %w", err)
	}

	if r.archive != nil {
		if _, err := r.archive.ArchivePayload(ctx, payload.InitTime, data); err != nil {
			log.Printf("ingest: archive payload: %v", err)
		}
	}

	log.Printf("ingest: forecast complete: init=%s days=%d steps=%d",
		payload.InitTime, len(payload.Daily), len(payload.Hourly6H))
	return nil
}

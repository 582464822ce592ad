package accuracy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/lox/pointcast/internal/derive"
	"github.com/lox/pointcast/internal/ingest"
	"github.com/lox/pointcast/internal/metrics"
	"github.com/lox/pointcast/internal/models"
	"github.com/lox/pointcast/internal/store"
)

const (
	// maxLogEntries bounds the persisted log. Eviction is oldest-first by
	// position, not by age: sparse entries may span more calendar days.
	maxLogEntries = 90

	// maeWindow is how many of the newest entries feed the rolling MAE.
	maeWindow = 14
)

// ObservationSource provides ground truth for a date.
type ObservationSource interface {
	FetchDay(ctx context.Context, date string) (*models.ObservedDay, error)
}

// Evaluator scores one archived prediction against later ground truth and
// maintains the bounded accuracy log. It keeps no state between runs: the
// log lives entirely in the document store.
type Evaluator struct {
	obs         ObservationSource
	docs        store.DocumentStore
	forecastDoc string
	logDoc      string
}

func NewEvaluator(obs ObservationSource, docs store.DocumentStore, forecastDoc, logDoc string) *Evaluator {
	return &Evaluator{
		obs:         obs,
		docs:        docs,
		forecastDoc: forecastDoc,
		logDoc:      logDoc,
	}
}

// Run evaluates accuracy for one YYYY-MM-DD date. Missing ground truth skips
// the run entirely: no partial entry is written.
func (e *Evaluator) Run(ctx context.Context, date string) error {
	observed, err := e.obs.FetchDay(ctx, date)
	if errors.Is(err, ingest.ErrObservationUnavailable) {
		log.Printf("accuracy: no observations for %s yet, skipping", date)
		metrics.AccuracyRunsTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	if err != nil {
		metrics.AccuracyRunsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("fetch observations: %w", err)
	}
	if observed.TempHighF == nil {
		log.Printf("accuracy: observations for %s incomplete, skipping", date)
		metrics.AccuracyRunsTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	predicted := e.prediction(ctx, date)

	accLog := e.readLog(ctx)
	accLog.Log = append(accLog.Log, buildEntry(date, *observed, predicted))
	if len(accLog.Log) > maxLogEntries {
		accLog.Log = accLog.Log[len(accLog.Log)-maxLogEntries:]
	}
	accLog.Summary = summarize(accLog.Log, time.Now().UTC())

	data, err := json.MarshalIndent(accLog, "", "  ")
	if err != nil {
		metrics.AccuracyRunsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("marshal accuracy log: %w", err)
	}
	if err := store.WriteWithRetry(ctx, e.docs, e.logDoc, data); err != nil {
		metrics.AccuracyRunsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("persist accuracy log: %w", err)
	}

	metrics.AccuracyRunsTotal.WithLabelValues("ok").Inc()
	log.Printf("accuracy: recorded %s (total=%d tracked=%d)", date,
		accLog.Summary.TotalDays, accLog.Summary.TrackedDays)
	return nil
}

// prediction extracts the archived forecast's daily entry for the date.
// Absent or malformed payloads mean no prediction: the observed side still
// gets logged so coverage gaps stay visible.
func (e *Evaluator) prediction(ctx context.Context, date string) *models.PredictedDay {
	raw, err := e.docs.ReadDocument(ctx, e.forecastDoc)
	if err != nil {
		if !errors.Is(err, store.ErrDocumentNotFound) {
			log.Printf("accuracy: read forecast document: %v", err)
		}
		return nil
	}

	var payload models.ForecastPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("accuracy: forecast document malformed, treating as absent: %v", err)
		return nil
	}

	for _, day := range payload.Daily {
		if day.Date == date {
			return &models.PredictedDay{
				Date:       date,
				Source:     payload.Model,
				InitTime:   payload.InitTime,
				TempHighF:  day.TempHighF,
				TempLowF:   day.TempLowF,
				WindMaxMPH: day.WindMaxMPH,
				WindAvgMPH: day.WindAvgMPH,
			}
		}
	}
	return nil
}

// readLog loads the persisted log, starting fresh when the document is
// absent or malformed.
func (e *Evaluator) readLog(ctx context.Context) models.AccuracyLog {
	raw, err := e.docs.ReadDocument(ctx, e.logDoc)
	if err != nil {
		if !errors.Is(err, store.ErrDocumentNotFound) {
			log.Printf("accuracy: read log document: %v", err)
		}
		return models.AccuracyLog{}
	}

	var accLog models.AccuracyLog
	if err := json.Unmarshal(raw, &accLog); err != nil {
		log.Printf("accuracy: log document malformed, starting fresh: %v", err)
		return models.AccuracyLog{}
	}
	return accLog
}

func buildEntry(date string, observed models.ObservedDay, predicted *models.PredictedDay) models.AccuracyEntry {
	entry := models.AccuracyEntry{
		Date:      date,
		Actual:    observed,
		Predicted: predicted,
	}
	if predicted == nil {
		return entry
	}
	entry.TempHighError = absError(predicted.TempHighF, observed.TempHighF)
	entry.TempLowError = absError(predicted.TempLowF, observed.TempLowF)
	entry.WindMaxError = absError(predicted.WindMaxMPH, observed.WindMaxMPH)
	return entry
}

// absError returns |predicted-actual| rounded to 1 decimal place, or nil
// when either side is absent.
func absError(predicted, actual *float64) *float64 {
	if predicted == nil || actual == nil {
		return nil
	}
	return models.Float(derive.Round1(math.Abs(*predicted - *actual)))
}

func summarize(entries []models.AccuracyEntry, now time.Time) models.AccuracySummary {
	window := entries
	if len(window) > maeWindow {
		window = window[len(window)-maeWindow:]
	}

	tracked := 0
	for _, entry := range window {
		if entry.Predicted != nil {
			tracked++
		}
	}

	return models.AccuracySummary{
		LastUpdated: now.Format(time.RFC3339),
		TotalDays:   len(entries),
		TrackedDays: tracked,
		TempHighMAE14D: meanAbsError(window,
			func(p *models.PredictedDay) *float64 { return p.TempHighF },
			func(o models.ObservedDay) *float64 { return o.TempHighF }),
		TempLowMAE14D: meanAbsError(window,
			func(p *models.PredictedDay) *float64 { return p.TempLowF },
			func(o models.ObservedDay) *float64 { return o.TempLowF }),
		WindMaxMAE14D: meanAbsError(window,
			func(p *models.PredictedDay) *float64 { return p.WindMaxMPH },
			func(o models.ObservedDay) *float64 { return o.WindMaxMPH }),
	}
}

// meanAbsError computes the rolling MAE for one field over entries where
// both sides are present, rounded to 2 decimal places, or nil when no
// complete pairs exist in the window.
func meanAbsError(entries []models.AccuracyEntry,
	predicted func(*models.PredictedDay) *float64,
	actual func(models.ObservedDay) *float64) *float64 {

	sum := 0.0
	n := 0
	for _, entry := range entries {
		if entry.Predicted == nil {
			continue
		}
		p, a := predicted(entry.Predicted), actual(entry.Actual)
		if p == nil || a == nil {
			continue
		}
		sum += math.Abs(*p - *a)
		n++
	}
	if n == 0 {
		return nil
	}
	return models.Float(derive.Round2(sum / float64(n)))
}

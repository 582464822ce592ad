package accuracy

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/lox/pointcast/internal/ingest"
	"github.com/lox/pointcast/internal/models"
	"github.com/lox/pointcast/internal/store"
)

type fakeDocs struct {
	docs   map[string][]byte
	writes int
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: make(map[string][]byte)}
}

func (f *fakeDocs) ReadDocument(ctx context.Context, name string) ([]byte, error) {
	content, ok := f.docs[name]
	if !ok {
		return nil, store.ErrDocumentNotFound
	}
	return content, nil
}

func (f *fakeDocs) WriteDocument(ctx context.Context, name string, content []byte) error {
	f.writes++
	f.docs[name] = content
	return nil
}

type fakeObs struct {
	days map[string]*models.ObservedDay
}

func (f *fakeObs) FetchDay(ctx context.Context, date string) (*models.ObservedDay, error) {
	day, ok := f.days[date]
	if !ok {
		return nil, ingest.ErrObservationUnavailable
	}
	return day, nil
}

func testNow() time.Time {
	return time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC)
}

func observedDay(date string, high, low, wind float64) *models.ObservedDay {
	return &models.ObservedDay{
		Date:       date,
		Source:     "open-meteo-archive",
		TempHighF:  models.Float(high),
		TempLowF:   models.Float(low),
		WindMaxMPH: models.Float(wind),
	}
}

func payloadWithDay(date string, high, low, windMax float64) []byte {
	payload := models.ForecastPayload{
		Model:    "atlas-crps",
		InitTime: "2026-02-05T03:00:00",
		Daily: []models.DailySummary{
			{
				Date:       date,
				TempHighF:  models.Float(high),
				TempLowF:   models.Float(low),
				WindMaxMPH: models.Float(windMax),
			},
		},
	}
	data, _ := json.Marshal(payload)
	return data
}

func readLogDoc(t *testing.T, docs *fakeDocs) models.AccuracyLog {
	t.Helper()
	raw, ok := docs.docs["accuracy_log.json"]
	if !ok {
		t.Fatal("accuracy log document not written")
	}
	var accLog models.AccuracyLog
	if err := json.Unmarshal(raw, &accLog); err != nil {
		t.Fatalf("unmarshal log: %v", err)
	}
	return accLog
}

func TestRunRecordsEntry(t *testing.T) {
	docs := newFakeDocs()
	docs.docs["atlas_forecast.json"] = payloadWithDay("2026-02-05", 62.0, 45.0, 12.0)
	obs := &fakeObs{days: map[string]*models.ObservedDay{
		"2026-02-05": observedDay("2026-02-05", 60.5, 44.0, 15.0),
	}}

	ev := NewEvaluator(obs, docs, "atlas_forecast.json", "accuracy_log.json")
	if err := ev.Run(context.Background(), "2026-02-05"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	accLog := readLogDoc(t, docs)
	if len(accLog.Log) != 1 {
		t.Fatalf("len(log) = %d, want 1", len(accLog.Log))
	}

	entry := accLog.Log[0]
	if entry.Predicted == nil || entry.Predicted.Source != "atlas-crps" {
		t.Fatalf("entry.Predicted = %+v, want atlas-crps prediction", entry.Predicted)
	}
	if entry.TempHighError == nil || *entry.TempHighError != 1.5 {
		t.Errorf("TempHighError = %v, want 1.5", entry.TempHighError)
	}
	if entry.WindMaxError == nil || *entry.WindMaxError != 3.0 {
		t.Errorf("WindMaxError = %v, want 3.0", entry.WindMaxError)
	}
	if accLog.Summary.TotalDays != 1 || accLog.Summary.TrackedDays != 1 {
		t.Errorf("summary total/tracked = %d/%d, want 1/1", accLog.Summary.TotalDays, accLog.Summary.TrackedDays)
	}
}

func TestRunSkipsWhenObservationsUnavailable(t *testing.T) {
	docs := newFakeDocs()
	obs := &fakeObs{days: nil}

	ev := NewEvaluator(obs, docs, "atlas_forecast.json", "accuracy_log.json")
	if err := ev.Run(context.Background(), "2026-02-05"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if docs.writes != 0 {
		t.Errorf("writes = %d, want 0 (skipped run must not touch the log)", docs.writes)
	}
}

func TestRunSkipsIncompleteObservations(t *testing.T) {
	docs := newFakeDocs()
	day := &models.ObservedDay{Date: "2026-02-05", Source: "open-meteo-archive"}
	obs := &fakeObs{days: map[string]*models.ObservedDay{"2026-02-05": day}}

	ev := NewEvaluator(obs, docs, "atlas_forecast.json", "accuracy_log.json")
	if err := ev.Run(context.Background(), "2026-02-05"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if docs.writes != 0 {
		t.Errorf("writes = %d, want 0", docs.writes)
	}
}

func TestRunWithoutPrediction(t *testing.T) {
	// No archived forecast: the observed side still gets logged.
	docs := newFakeDocs()
	obs := &fakeObs{days: map[string]*models.ObservedDay{
		"2026-02-05": observedDay("2026-02-05", 60, 44, 15),
	}}

	ev := NewEvaluator(obs, docs, "atlas_forecast.json", "accuracy_log.json")
	if err := ev.Run(context.Background(), "2026-02-05"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	accLog := readLogDoc(t, docs)
	if len(accLog.Log) != 1 {
		t.Fatalf("len(log) = %d, want 1", len(accLog.Log))
	}
	if accLog.Log[0].Predicted != nil {
		t.Errorf("Predicted = %+v, want nil", accLog.Log[0].Predicted)
	}
	if accLog.Log[0].TempHighError != nil {
		t.Errorf("TempHighError = %v, want nil without prediction", accLog.Log[0].TempHighError)
	}
	if accLog.Summary.TrackedDays != 0 {
		t.Errorf("TrackedDays = %d, want 0", accLog.Summary.TrackedDays)
	}
}

func TestRunMalformedLogStartsFresh(t *testing.T) {
	docs := newFakeDocs()
	docs.docs["accuracy_log.json"] = []byte("{not json")
	obs := &fakeObs{days: map[string]*models.ObservedDay{
		"2026-02-05": observedDay("2026-02-05", 60, 44, 15),
	}}

	ev := NewEvaluator(obs, docs, "atlas_forecast.json", "accuracy_log.json")
	if err := ev.Run(context.Background(), "2026-02-05"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	accLog := readLogDoc(t, docs)
	if len(accLog.Log) != 1 {
		t.Errorf("len(log) = %d, want 1 after discarding malformed document", len(accLog.Log))
	}
}

func TestRunEvictsOldestAtCap(t *testing.T) {
	docs := newFakeDocs()
	obs := &fakeObs{days: map[string]*models.ObservedDay{
		"2026-02-05": observedDay("2026-02-05", 60, 44, 15),
	}}

	// Seed a full 90-entry log.
	full := models.AccuracyLog{}
	for i := 0; i < 90; i++ {
		full.Log = append(full.Log, models.AccuracyEntry{
			Date:   fmt.Sprintf("2025-%02d-%02d", 1+i/28, 1+i%28),
			Actual: *observedDay("", 50, 40, 10),
		})
	}
	seeded, _ := json.Marshal(full)
	docs.docs["accuracy_log.json"] = seeded
	oldest := full.Log[0].Date

	ev := NewEvaluator(obs, docs, "atlas_forecast.json", "accuracy_log.json")
	if err := ev.Run(context.Background(), "2026-02-05"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	accLog := readLogDoc(t, docs)
	if len(accLog.Log) != 90 {
		t.Fatalf("len(log) = %d, want 90 after eviction", len(accLog.Log))
	}
	if accLog.Log[0].Date == oldest {
		t.Error("oldest entry survived eviction")
	}
	if accLog.Log[89].Date != "2026-02-05" {
		t.Errorf("newest entry = %s, want 2026-02-05", accLog.Log[89].Date)
	}
}

func TestRollingMAE(t *testing.T) {
	predicted := []float64{70, 72, 68}
	actual := []float64{71, 70, 69}

	var entries []models.AccuracyEntry
	for i := range predicted {
		entries = append(entries, models.AccuracyEntry{
			Date:   fmt.Sprintf("2026-02-0%d", i+1),
			Actual: models.ObservedDay{TempHighF: models.Float(actual[i])},
			Predicted: &models.PredictedDay{
				TempHighF: models.Float(predicted[i]),
			},
		})
	}

	summary := summarize(entries, testNow())
	if summary.TempHighMAE14D == nil {
		t.Fatal("TempHighMAE14D = nil, want value")
	}
	if *summary.TempHighMAE14D != 1.33 {
		t.Errorf("TempHighMAE14D = %v, want 1.33", *summary.TempHighMAE14D)
	}
	// No wind pairs at all: MAE undefined.
	if summary.WindMaxMAE14D != nil {
		t.Errorf("WindMaxMAE14D = %v, want nil", summary.WindMaxMAE14D)
	}
}

func TestMAEWindowBounds(t *testing.T) {
	// 20 entries: only the newest 14 count. The oldest 6 have error 100,
	// the newest 14 have error 1; a leaking window would inflate the MAE.
	var entries []models.AccuracyEntry
	for i := 0; i < 20; i++ {
		actual := 50.0
		predicted := 51.0
		if i < 6 {
			predicted = 150.0
		}
		entries = append(entries, models.AccuracyEntry{
			Actual:    models.ObservedDay{TempHighF: models.Float(actual)},
			Predicted: &models.PredictedDay{TempHighF: models.Float(predicted)},
		})
	}

	summary := summarize(entries, testNow())
	if summary.TempHighMAE14D == nil || *summary.TempHighMAE14D != 1.0 {
		t.Errorf("TempHighMAE14D = %v, want 1.0", summary.TempHighMAE14D)
	}
	if summary.TotalDays != 20 || summary.TrackedDays != 14 {
		t.Errorf("total/tracked = %d/%d, want 20/14", summary.TotalDays, summary.TrackedDays)
	}
}

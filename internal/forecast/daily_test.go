package forecast

import (
	"reflect"
	"testing"
	"time"

	"github.com/lox/pointcast/internal/derive"
	"github.com/lox/pointcast/internal/grid"
	"github.com/lox/pointcast/internal/models"
)

func pointAt(lat, lon float64) grid.Point {
	return grid.Point{Lat: lat, Lon: lon}
}

func step(leadHours int, tempF, windMPH, pressure, cloud float64) models.StepRecord {
	return models.StepRecord{
		LeadHours:    leadHours,
		TempF:        models.Float(tempF),
		WindMPH:      models.Float(windMPH),
		PressureInHg: models.Float(pressure),
		CloudPct:     cloud,
	}
}

func TestAggregateDailyDayBoundaries(t *testing.T) {
	// Init 03:00: lead 18h is still the init day (21:00), lead 24h rolls over
	// to 03:00 the next day.
	init := time.Date(2026, 2, 5, 3, 0, 0, 0, time.UTC)
	steps := []models.StepRecord{
		step(0, 50, 5, 29.92, 10),
		step(6, 55, 6, 29.90, 20),
		step(12, 60, 8, 29.88, 30),
		step(18, 52, 4, 29.91, 40),
		step(24, 48, 10, 29.95, 80),
	}

	daily := AggregateDaily(steps, init)
	if len(daily) != 2 {
		t.Fatalf("len(daily) = %d, want 2", len(daily))
	}
	if daily[0].Date != "2026-02-05" || daily[1].Date != "2026-02-06" {
		t.Fatalf("dates = %s,%s, want 2026-02-05,2026-02-06", daily[0].Date, daily[1].Date)
	}

	first := daily[0]
	if *first.TempHighF != 60 || *first.TempLowF != 50 {
		t.Errorf("high/low = %v/%v, want 60/50", *first.TempHighF, *first.TempLowF)
	}
	if *first.TempAvgF != 54.3 {
		t.Errorf("avg temp = %v, want 54.3", *first.TempAvgF)
	}
	if *first.WindMaxMPH != 8 || *first.WindAvgMPH != 5.8 {
		t.Errorf("wind max/avg = %v/%v, want 8/5.8", *first.WindMaxMPH, *first.WindAvgMPH)
	}
	if *first.PressureAvgInHg != 29.9 {
		t.Errorf("pressure avg = %v, want 29.9", *first.PressureAvgInHg)
	}
	if *first.CloudAvgPct != 25 {
		t.Errorf("cloud avg = %v, want 25", *first.CloudAvgPct)
	}
	// 25% average cloud lands in the mainly-clear band.
	if first.WeatherCode != derive.CodeMainlyClear {
		t.Errorf("weather code = %d, want %d", first.WeatherCode, derive.CodeMainlyClear)
	}

	second := daily[1]
	if *second.TempHighF != 48 || second.WeatherCode != derive.CodeOvercast {
		t.Errorf("day 2 high/code = %v/%d, want 48/%d", *second.TempHighF, second.WeatherCode, derive.CodeOvercast)
	}
}

func TestAggregateDailyIdempotent(t *testing.T) {
	init := time.Date(2026, 2, 5, 3, 0, 0, 0, time.UTC)
	steps := []models.StepRecord{
		step(0, 50, 5, 29.92, 10),
		step(6, 55, 6, 29.90, 20),
	}

	a := AggregateDaily(steps, init)
	b := AggregateDaily(steps, init)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("aggregation not idempotent:\n%+v\n%+v", a, b)
	}
}

func TestAggregateDailyEmpty(t *testing.T) {
	init := time.Date(2026, 2, 5, 3, 0, 0, 0, time.UTC)
	if daily := AggregateDaily(nil, init); len(daily) != 0 {
		t.Fatalf("len(daily) = %d, want 0 for no steps", len(daily))
	}
}

func TestAggregateDailyCodeIgnoresPrecip(t *testing.T) {
	// A raining step classifies as rain per-step, but the representative day
	// code comes from average cloud only.
	init := time.Date(2026, 2, 5, 3, 0, 0, 0, time.UTC)
	raining := step(0, 50, 5, 29.92, 5)
	raining.TP = models.Float(15)
	raining.WeatherCode = derive.CodeHeavyRain

	daily := AggregateDaily([]models.StepRecord{raining}, init)
	if len(daily) != 1 {
		t.Fatalf("len(daily) = %d, want 1", len(daily))
	}
	if daily[0].WeatherCode != derive.CodeClear {
		t.Errorf("day code = %d, want %d (cloud-only)", daily[0].WeatherCode, derive.CodeClear)
	}
}

func TestBuildPayloadStaleness(t *testing.T) {
	init := time.Date(2026, 2, 5, 3, 0, 0, 0, time.UTC)
	now := time.Date(2026, 2, 5, 7, 30, 0, 0, time.UTC)

	p := BuildPayload("atlas-crps", "4.3B", init, now, models.Location{Name: "Palo Alto, CA"}, pointAt(37.5, 237.75), nil)
	if p.InitTime != "2026-02-05T03:00:00" {
		t.Errorf("InitTime = %s, want naive ISO form", p.InitTime)
	}
	if p.Location.GridLat != 37.5 || p.Location.GridLon != 237.75 {
		t.Errorf("grid coords = %v/%v, want 37.5/237.75", p.Location.GridLat, p.Location.GridLon)
	}

	if p.Stale(now.Add(2 * time.Hour)) {
		t.Error("payload stale at 2h, want fresh")
	}
	if !p.Stale(now.Add(13 * time.Hour)) {
		t.Error("payload fresh at 13h, want stale")
	}
	if got := p.AgeHours(now.Add(6 * time.Hour)); got != 6 {
		t.Errorf("AgeHours = %v, want 6", got)
	}
}

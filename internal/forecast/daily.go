package forecast

import (
	"sort"
	"time"

	"github.com/lox/pointcast/internal/derive"
	"github.com/lox/pointcast/internal/models"
)

// AggregateDaily folds 6-hourly step records into per-day summaries. Steps
// group by the UTC calendar day of their valid time (init time plus lead
// hours); the initialization timestamp is naive, so lead-hour arithmetic and
// day boundaries are both evaluated in UTC. Days with no contributing steps
// are omitted. Output is ordered by ascending date.
//
// The day's representative weather code is re-derived from the day's average
// cloud cover with the cloud-only classifier, not the precipitation-aware
// per-step one, and defaults to partly cloudy when the day has no cloud data.
func AggregateDaily(steps []models.StepRecord, initTime time.Time) []models.DailySummary {
	type dayAccum struct {
		temps     []float64
		winds     []float64
		pressures []float64
		clouds    []float64
	}

	days := make(map[string]*dayAccum)
	for _, step := range steps {
		key := step.ValidTime(initTime).UTC().Format("2006-01-02")
		acc := days[key]
		if acc == nil {
			acc = &dayAccum{}
			days[key] = acc
		}

		if step.TempF != nil {
			acc.temps = append(acc.temps, *step.TempF)
		}
		if step.WindMPH != nil {
			acc.winds = append(acc.winds, *step.WindMPH)
		}
		if step.PressureInHg != nil {
			acc.pressures = append(acc.pressures, *step.PressureInHg)
		}
		acc.clouds = append(acc.clouds, step.CloudPct)
	}

	keys := make([]string, 0, len(days))
	for key := range days {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	summaries := make([]models.DailySummary, 0, len(keys))
	for _, key := range keys {
		acc := days[key]
		s := models.DailySummary{
			Date:        key,
			WeatherCode: derive.CodePartlyCloudy,
		}

		if len(acc.temps) > 0 {
			s.TempHighF = models.Float(derive.Round1(maxOf(acc.temps)))
			s.TempLowF = models.Float(derive.Round1(minOf(acc.temps)))
			s.TempAvgF = models.Float(derive.Round1(meanOf(acc.temps)))
		}
		if len(acc.winds) > 0 {
			s.WindAvgMPH = models.Float(derive.Round1(meanOf(acc.winds)))
			s.WindMaxMPH = models.Float(derive.Round1(maxOf(acc.winds)))
		}
		if len(acc.pressures) > 0 {
			s.PressureAvgInHg = models.Float(derive.Round2(meanOf(acc.pressures)))
		}
		if len(acc.clouds) > 0 {
			avgCloud := derive.Round1(meanOf(acc.clouds))
			s.CloudAvgPct = models.Float(avgCloud)
			s.WeatherCode = derive.CloudOnlyCode(avgCloud)
		}

		summaries = append(summaries, s)
	}
	return summaries
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func meanOf(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

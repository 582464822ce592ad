package forecast

import (
	"github.com/lox/pointcast/internal/derive"
	"github.com/lox/pointcast/internal/grid"
	"github.com/lox/pointcast/internal/models"
)

// Model variables extracted at the grid point. Surface fields feed the
// human-unit derivations; the pressure-level humidity/temperature pairs feed
// the cloud estimate.
var (
	surfaceVars = []string{"t2m", "u10m", "v10m", "msl", "tcwv", "sp", "tp"}
	cloudVars   = []string{"q850", "q700", "q500", "t850", "t700", "t500"}
)

// ExtractSteps walks every time step of the field at one grid point and
// derives a StepRecord per step. Lead time is step index times stepHours.
// A field carrying none of the configured variables yields an empty slice:
// "no forecast available" is a state for callers to handle, not an error.
func ExtractSteps(f *grid.Field, pt grid.Point, stepHours int) []models.StepRecord {
	if !anyVarPresent(f) {
		return nil
	}

	steps := make([]models.StepRecord, 0, f.Steps())
	for step := 0; step < f.Steps(); step++ {
		read := func(name string) *float64 {
			if !f.Has(name) {
				return nil
			}
			v, err := f.At(name, step, pt.LatIdx, pt.LonIdx)
			if err != nil {
				return nil
			}
			return &v
		}

		rec := models.StepRecord{
			LeadHours: step * stepHours,
			T2M:       read("t2m"),
			U10M:      read("u10m"),
			V10M:      read("v10m"),
			MSL:       read("msl"),
			TCWV:      read("tcwv"),
			SP:        read("sp"),
			TP:        read("tp"),
		}

		// Cloud cover works on unrounded humidity; the records carry the
		// rounded presentation values.
		rh850 := levelRH(read("q850"), read("t850"), 850)
		rh700 := levelRH(read("q700"), read("t700"), 700)
		rh500 := levelRH(read("q500"), read("t500"), 500)

		rec.CloudPct = derive.CloudFraction(rh850, rh700, rh500, rec.TCWV)
		rec.WeatherCode = derive.WeatherCode(rec.CloudPct, rec.TP)
		rec.RH850 = roundRH(rh850)
		rec.RH700 = roundRH(rh700)
		rec.RH500 = roundRH(rh500)

		if rec.T2M != nil {
			rec.TempF = models.Float(derive.KelvinToF(*rec.T2M))
		}
		if rec.U10M != nil && rec.V10M != nil {
			rec.WindMPH = models.Float(derive.MSToMPH(derive.WindSpeed(*rec.U10M, *rec.V10M)))
		}
		if rec.MSL != nil {
			rec.PressureInHg = models.Float(derive.PaToInHg(*rec.MSL))
		}

		steps = append(steps, rec)
	}
	return steps
}

func anyVarPresent(f *grid.Field) bool {
	for _, name := range surfaceVars {
		if f.Has(name) {
			return true
		}
	}
	for _, name := range cloudVars {
		if f.Has(name) {
			return true
		}
	}
	return false
}

// levelRH computes unrounded relative humidity for one pressure level, or nil
// when either input is absent.
func levelRH(q, tKelvin *float64, pHPa float64) *float64 {
	if q == nil || tKelvin == nil {
		return nil
	}
	return models.Float(derive.RelativeHumidity(*q, *tKelvin, pHPa))
}

func roundRH(rh *float64) *float64 {
	if rh == nil {
		return nil
	}
	return models.Float(derive.Round1(*rh))
}

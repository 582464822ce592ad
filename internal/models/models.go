package models

import "time"

// StaleAfter is how old a forecast payload may be before consumers must treat
// it as stale. Exposed here so readers and the producer share one threshold.
const StaleAfter = 12 * time.Hour

// StepRecord holds the derived values for one 6-hourly forecast step at the
// resolved grid point. Pointer fields are nil when the underlying model
// variable was absent from the gridded output.
type StepRecord struct {
	LeadHours int `json:"lead_hours"`

	// Raw surface fields, SI units as produced by the model.
	T2M  *float64 `json:"t2m,omitempty"`
	U10M *float64 `json:"u10m,omitempty"`
	V10M *float64 `json:"v10m,omitempty"`
	MSL  *float64 `json:"msl,omitempty"`
	TCWV *float64 `json:"tcwv,omitempty"`
	SP   *float64 `json:"sp,omitempty"`
	TP   *float64 `json:"tp,omitempty"`

	// Relative humidity per pressure level, percent.
	RH850 *float64 `json:"rh_850"`
	RH700 *float64 `json:"rh_700"`
	RH500 *float64 `json:"rh_500"`

	CloudPct    float64 `json:"cloud_pct"`
	WeatherCode int     `json:"weather_code"`

	// Human-unit derived fields.
	TempF        *float64 `json:"temp_f,omitempty"`
	WindMPH      *float64 `json:"wind_mph,omitempty"`
	PressureInHg *float64 `json:"pressure_inhg,omitempty"`
}

// ValidTime returns the step's valid time for a given initialization time.
func (s StepRecord) ValidTime(initTime time.Time) time.Time {
	return initTime.Add(time.Duration(s.LeadHours) * time.Hour)
}

// DailySummary is one calendar day's aggregate over the day's step records.
type DailySummary struct {
	Date            string   `json:"date"`
	TempHighF       *float64 `json:"temp_high_f"`
	TempLowF        *float64 `json:"temp_low_f"`
	TempAvgF        *float64 `json:"temp_avg_f"`
	WindAvgMPH      *float64 `json:"wind_avg_mph"`
	WindMaxMPH      *float64 `json:"wind_max_mph"`
	PressureAvgInHg *float64 `json:"pressure_avg_inhg"`
	CloudAvgPct     *float64 `json:"cloud_avg_pct"`
	WeatherCode     int      `json:"weather_code"`
}

// Location describes the requested coordinate and the grid cell it resolved to.
type Location struct {
	Name      string  `json:"name"`
	TargetLat float64 `json:"target_lat"`
	TargetLon float64 `json:"target_lon"`
	GridLat   float64 `json:"grid_lat"`
	GridLon   float64 `json:"grid_lon"`
}

// ForecastPayload is the document persisted after a forecast run.
type ForecastPayload struct {
	Model       string         `json:"model"`
	ModelParams string         `json:"model_params"`
	InitTime    string         `json:"init_time"`
	GeneratedAt string         `json:"generated_at"`
	Location    Location       `json:"location"`
	Daily       []DailySummary `json:"daily"`
	Hourly6H    []StepRecord   `json:"hourly_6h"`
}

// AgeHours returns the payload age relative to now, or -1 if the generation
// timestamp is missing or unparseable.
func (p *ForecastPayload) AgeHours(now time.Time) float64 {
	if p.GeneratedAt == "" {
		return -1
	}
	gen, err := time.Parse(time.RFC3339, p.GeneratedAt)
	if err != nil {
		return -1
	}
	return now.Sub(gen).Hours()
}

// Stale reports whether consumers must treat the payload as outdated.
// A missing or unparseable generation timestamp counts as stale.
func (p *ForecastPayload) Stale(now time.Time) bool {
	age := p.AgeHours(now)
	return age < 0 || age > StaleAfter.Hours()
}

// ObservedDay is a day of ground truth from the observation archive.
type ObservedDay struct {
	Date       string   `json:"date"`
	Source     string   `json:"source"`
	TempHighF  *float64 `json:"temp_high_f"`
	TempLowF   *float64 `json:"temp_low_f"`
	WindMaxMPH *float64 `json:"wind_max_mph"`
}

// PredictedDay is the slice of an archived forecast payload relevant to
// accuracy scoring for one date.
type PredictedDay struct {
	Date       string   `json:"date"`
	Source     string   `json:"source"`
	InitTime   string   `json:"init_time"`
	TempHighF  *float64 `json:"temp_high_f"`
	TempLowF   *float64 `json:"temp_low_f"`
	WindMaxMPH *float64 `json:"wind_max_mph"`
	WindAvgMPH *float64 `json:"wind_avg_mph"`
}

// AccuracyEntry pairs one day's prediction with its observed outcome.
// Error fields are present only when both sides of the pair were present.
type AccuracyEntry struct {
	Date          string        `json:"date"`
	Actual        ObservedDay   `json:"actual"`
	Predicted     *PredictedDay `json:"predicted"`
	TempHighError *float64      `json:"temp_high_f_error,omitempty"`
	TempLowError  *float64      `json:"temp_low_f_error,omitempty"`
	WindMaxError  *float64      `json:"wind_max_mph_error,omitempty"`
}

// AccuracySummary is the rolling headline recomputed after each append.
type AccuracySummary struct {
	LastUpdated    string   `json:"last_updated"`
	TotalDays      int      `json:"total_days"`
	TrackedDays    int      `json:"tracked_days"`
	TempHighMAE14D *float64 `json:"temp_high_mae_14d"`
	TempLowMAE14D  *float64 `json:"temp_low_mae_14d"`
	WindMaxMAE14D  *float64 `json:"wind_max_mae_14d"`
}

// AccuracyLog is the persisted accuracy document: a bounded append-only log
// plus its summary.
type AccuracyLog struct {
	Summary AccuracySummary `json:"summary"`
	Log     []AccuracyEntry `json:"log"`
}

// Float returns a pointer to v. Convenience for building nullable fields.
func Float(v float64) *float64 {
	return &v
}

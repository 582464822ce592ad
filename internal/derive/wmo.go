package derive

// WMO weather codes emitted by the classifier.
const (
	CodeClear        = 0
	CodeMainlyClear  = 1
	CodePartlyCloudy = 2
	CodeOvercast     = 3
	CodeSlightRain   = 61
	CodeModerateRain = 63
	CodeHeavyRain    = 65
)

// Precipitation thresholds, in the field's accumulation units per step.
const (
	precipThreshold = 1.0
	moderateRainTP  = 3.0
	heavyRainTP     = 10.0
)

// WeatherCode classifies a step into a WMO code. Precipitation takes
// precedence: measurable rain overrides whatever the humidity-based cloud
// estimate says, since Sundqvist can report a near-clear sky under a raining
// column. Only dry steps fall through to the cloud-cover bands.
func WeatherCode(cloudPct float64, tp *float64) int {
	if tp != nil && *tp > precipThreshold {
		switch {
		case *tp > heavyRainTP:
			return CodeHeavyRain
		case *tp > moderateRainTP:
			return CodeModerateRain
		default:
			return CodeSlightRain
		}
	}
	return CloudOnlyCode(cloudPct)
}

// CloudOnlyCode maps a cloud cover percentage onto the dry-sky codes. The
// daily aggregator uses this directly against a day's average cloud cover.
func CloudOnlyCode(cloudPct float64) int {
	switch {
	case cloudPct < 10:
		return CodeClear
	case cloudPct < 30:
		return CodeMainlyClear
	case cloudPct < 60:
		return CodePartlyCloudy
	default:
		return CodeOvercast
	}
}

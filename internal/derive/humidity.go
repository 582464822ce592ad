package derive

import "math"

// RelativeHumidity converts specific humidity (kg/kg) at a pressure level to
// relative humidity (0-100%), using the Tetens formula for saturation vapor
// pressure.
//
//	es = 6.112 * exp(17.67*Tc / (Tc + 243.5))   (hPa)
//	w  = q / (1 - q)                            (mixing ratio)
//	ws = 0.622 * es / (p - es)                  (saturation mixing ratio)
//	RH = 100 * w / ws
//
// q at or above 1 kg/kg is unphysical; the mixing ratio falls back to q to
// guard the division. When the level pressure does not exceed es the air is
// treated as fully saturated (ws = 1).
func RelativeHumidity(q, tKelvin, pHPa float64) float64 {
	tc := tKelvin - 273.15
	es := 6.112 * math.Exp(17.67*tc/(tc+243.5))

	w := q
	if q < 1 {
		w = q / (1 - q)
	}

	ws := 1.0
	if pHPa > es {
		ws = 0.622 * es / (pHPa - es)
	}

	rh := 0.0
	if ws > 0 {
		rh = w / ws * 100
	}

	return math.Max(0, math.Min(100, rh))
}

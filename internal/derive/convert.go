package derive

import "math"

// Unit conversions from the model's SI fields to the human units used in
// payloads. Rounding here is a presentation contract: 1 decimal place for
// temperature and wind, 2 for pressure.

// KelvinToF converts Kelvin to Fahrenheit, rounded to 1 decimal place.
func KelvinToF(k float64) float64 {
	return Round1((k-273.15)*9/5 + 32)
}

// MSToMPH converts metres per second to miles per hour, rounded to 1 decimal place.
func MSToMPH(ms float64) float64 {
	return Round1(ms * 2.237)
}

// PaToInHg converts Pascals to inches of mercury, rounded to 2 decimal places.
func PaToInHg(pa float64) float64 {
	return Round2(pa / 3386.39)
}

// WindSpeed returns the scalar wind speed from u/v components, in the
// components' units.
func WindSpeed(u, v float64) float64 {
	return math.Sqrt(u*u + v*v)
}

// Round1 rounds to 1 decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package derive

import "math"

// Critical relative humidity per pressure level for the Sundqvist closure.
// Cloud forms more readily aloft, so the threshold drops with height.
const (
	rhCritLow  = 0.70 // 850 hPa
	rhCritMid  = 0.60 // 700 hPa
	rhCritHigh = 0.50 // 500 hPa
)

// dryColumnTCWV is the total column water vapor (kg/m²) below which the
// column is too dry to sustain significant cloud; the total fraction is
// capped at dryColumnCap to suppress spurious mid/high cloud.
const (
	dryColumnTCWV = 8.0
	dryColumnCap  = 0.20
)

// CloudFraction estimates total cloud cover (0-100%, 1 decimal place) from
// per-level relative humidity plus total column water vapor. Levels with
// missing inputs contribute zero cloud. The three levels combine with a
// simplified maximum-random overlap:
//
//	total = 1 - (1-cf_low)(1-cf_mid)(1-cf_high)
func CloudFraction(rh850, rh700, rh500, tcwv *float64) float64 {
	var cfLow, cfMid, cfHigh float64
	if rh850 != nil {
		cfLow = sundqvist(*rh850, rhCritLow)
	}
	if rh700 != nil {
		cfMid = sundqvist(*rh700, rhCritMid)
	}
	if rh500 != nil {
		cfHigh = sundqvist(*rh500, rhCritHigh)
	}

	total := 1 - (1-cfLow)*(1-cfMid)*(1-cfHigh)

	if tcwv != nil && *tcwv < dryColumnTCWV {
		total = math.Min(total, dryColumnCap)
	}

	return Round1(total * 100)
}

// sundqvist is the Sundqvist (1989) one-parameter cloud fraction closure:
// zero below the critical RH, saturating to full cover at RH=1.
func sundqvist(rhPct, rhCrit float64) float64 {
	rh := rhPct / 100
	if rh <= rhCrit {
		return 0
	}
	if rh >= 1 {
		return 1
	}
	return 1 - math.Sqrt(math.Max(0, (1-rh)/(1-rhCrit)))
}

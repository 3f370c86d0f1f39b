// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

package gpsins

import "math"

var (
	sfAlphaBeta0 = exp2(-30)
	sfAlphaBeta1 = exp2(-27)
	sfAlphaBeta2 = exp2(-24)
	sfAlphaBeta3 = exp2(-24)
	sfAlphaBeta0B = exp2(11)
	sfAlphaBeta1B = exp2(14)
	sfAlphaBeta2B = exp2(16)
	sfAlphaBeta3B = exp2(16)
	sfA1         = exp2(-50)
	sfA0         = exp2(-30)
	sfTot        = exp2(12)
)

// IonoUTC carries the Klobuchar ionospheric coefficients and the
// UTC/leap-second parameters broadcast together in subframe 4 page 18.
type IonoUTC struct {
	Alpha [4]float64 // seconds, sec/semicircle, sec/semicircle^2, sec/semicircle^3
	Beta  [4]float64 // seconds, sec/semicircle, sec/semicircle^2, sec/semicircle^3

	A1        float64 // sec/sec
	A0        float64 // sec
	Tot       GPSTime
	WNt       int // truncated 8-bit week as broadcast; ResolveWeek maps it to a full week
	DeltaTLS  int
	WNLSF     int
	DN        int
	DeltaTLSF int
}

func scaleIonoUTC(raw *RawIonoUTC) IonoUTC {
	return IonoUTC{
		Alpha: [4]float64{
			float64(raw.Alpha0) * sfAlphaBeta0,
			float64(raw.Alpha1) * sfAlphaBeta1,
			float64(raw.Alpha2) * sfAlphaBeta2,
			float64(raw.Alpha3) * sfAlphaBeta3,
		},
		Beta: [4]float64{
			float64(raw.Beta0) * sfAlphaBeta0B,
			float64(raw.Beta1) * sfAlphaBeta1B,
			float64(raw.Beta2) * sfAlphaBeta2B,
			float64(raw.Beta3) * sfAlphaBeta3B,
		},
		A1:        float64(raw.A1) * sfA1,
		A0:        float64(raw.A0) * sfA0,
		Tot:       GPSTime{Sec: float64(raw.Tot) * sfTot},
		WNt:       raw.WNt,
		DeltaTLS:  int(raw.DeltaTLS),
		WNLSF:     raw.WNLSF,
		DN:        raw.DN,
		DeltaTLSF: int(raw.DeltaTLSF),
	}
}

// ResolveWeek reconstructs a field's truncated 8-bit week number to a
// full GPS week, choosing the candidate nearest to a supplied reference
// week - the same best-effort strategy the package's error-handling
// policy requires everywhere a rolling week field is involved.
func ResolveWeek(truncated8bit int, referenceWeek int) int {
	const period = 256
	base := referenceWeek - referenceWeek%period
	candidates := [3]int{base - period + truncated8bit, base + truncated8bit, base + period + truncated8bit}
	best := candidates[0]
	bestDiff := math.Abs(float64(candidates[0] - referenceWeek))
	for _, c := range candidates[1:] {
		if d := math.Abs(float64(c - referenceWeek)); d < bestDiff {
			best, bestDiff = c, d
		}
	}
	return best
}

// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

package gpsins

import "math"

// ICD scale factors (LSBs), applied to the raw integer fields captured
// by the decoder to produce physical units (seconds, radians, meters,
// sqrt(meters), dimensionless).
var (
	sfTgd      = exp2(-31)
	sfToc      = exp2(4)
	sfAf2      = exp2(-55)
	sfAf1      = exp2(-43)
	sfAf0      = exp2(-31)
	sfCrs      = exp2(-5)
	sfDeltaN   = exp2(-43) * PI
	sfM0       = exp2(-31) * PI
	sfCuc      = exp2(-29)
	sfEcc      = exp2(-33)
	sfCus      = exp2(-29)
	sfSqrtA    = exp2(-19)
	sfToe      = exp2(4)
	sfCic      = exp2(-29)
	sfOmega0   = exp2(-31) * PI
	sfCis      = exp2(-29)
	sfI0       = exp2(-31) * PI
	sfCrc      = exp2(-5)
	sfOmega    = exp2(-31) * PI
	sfOmegaDot = exp2(-43) * PI
	sfIDot     = exp2(-43) * PI
)

func exp2(n int) float64 {
	return math.Ldexp(1.0, n)
}

// uraMeters is the GPS ICD 4-bit URA index to meters-of-1-sigma table.
// Indices 0-5 are the defined sqrt(2) progression; 6-14 follow the
// published step table; 15 means "no accuracy prediction available",
// represented here as a large sentinel value rather than an error, in
// keeping with the package's never-fail-loudly policy.
var uraMeters = [16]float64{
	2.4, 3.4, 4.85, 6.85, 9.65, 13.65, 24.0, 48.0,
	96.0, 192.0, 384.0, 768.0, 1536.0, 3072.0, 6144.0, 1e9,
}

// URAMeters converts a 4-bit URA index to meters of 1-sigma user range
// accuracy.
func URAMeters(index int) float64 {
	if index < 0 || index > 15 {
		return uraMeters[15]
	}
	return uraMeters[index]
}

// Ephemeris is the fully scaled broadcast ephemeris for one satellite,
// plus the clock terms and fit interval that travel with it.
type Ephemeris struct {
	Gnss GnssID
	PRN  int

	WN       int
	URA      int
	SVHealth int
	IODC     int
	Tgd      float64
	Toc      GPSTime
	Af2      float64
	Af1      float64
	Af0      float64

	IODE    int
	Crs     float64
	DeltaN  float64
	M0      float64
	Cuc     float64
	Ecc     float64
	Cus     float64
	SqrtA   float64
	Toe     GPSTime
	FitFlag int

	Cic      float64
	Omega0   float64
	Cis      float64
	I0       float64
	Crc      float64
	Omega    float64
	OmegaDot float64
	IDot     float64

	// FitIntervalSec is the full width of the validity window centered
	// on Toc (IsValid accepts |t-Toc| <= FitIntervalSec/2), derived from
	// FitFlag/IODC per fitIntervalHours.
	FitIntervalSec float64
}

// scaleEphemeris converts a completed RawEphemeris to physical units.
// The week number carried in subframe 1 is GPS's rolling 10-bit value;
// it is stored as-is in WN and in the weeks of Toc and Toe. Neither this
// converter, Decoder.Ingest nor SpaceNode resolves it to a full week.
func scaleEphemeris(raw *RawEphemeris) Ephemeris {
	e := Ephemeris{
		Gnss:     GPSL1CA,
		WN:       raw.WN,
		URA:      raw.URA,
		SVHealth: raw.SVHealth,
		IODC:     raw.IODC,
		Tgd:      float64(raw.Tgd) * sfTgd,
		Toc:      NewGPSTime(raw.WN, float64(raw.Toc)*sfToc),
		Af2:      float64(raw.Af2) * sfAf2,
		Af1:      float64(raw.Af1) * sfAf1,
		Af0:      float64(raw.Af0) * sfAf0,

		IODE:    raw.IODE2,
		Crs:     float64(raw.Crs) * sfCrs,
		DeltaN:  float64(raw.DeltaN) * sfDeltaN,
		M0:      float64(raw.M0) * sfM0,
		Cuc:     float64(raw.Cuc) * sfCuc,
		Ecc:     float64(raw.Ecc) * sfEcc,
		Cus:     float64(raw.Cus) * sfCus,
		SqrtA:   float64(raw.SqrtA) * sfSqrtA,
		Toe:     NewGPSTime(raw.WN, float64(raw.Toe)*sfToe),
		FitFlag: raw.FitFlag,

		Cic:      float64(raw.Cic) * sfCic,
		Omega0:   float64(raw.Omega0) * sfOmega0,
		Cis:      float64(raw.Cis) * sfCis,
		I0:       float64(raw.I0) * sfI0,
		Crc:      float64(raw.Crc) * sfCrc,
		Omega:    float64(raw.Omega) * sfOmega,
		OmegaDot: float64(raw.OmegaDot) * sfOmegaDot,
		IDot:     float64(raw.IDot) * sfIDot,
	}
	e.FitIntervalSec = fitIntervalHours(e.FitFlag, e.IODC) * 3600
	return e
}

// toRaw re-quantizes e back to the integer fields it would have been
// decoded from, rounding each scaled field to the nearest LSB multiple.
// Used only to test the decode/scale round-trip invariant.
func (e Ephemeris) toRaw() RawEphemeris {
	round := func(v, sf float64) int64 {
		if v >= 0 {
			return int64(v/sf + 0.5)
		}
		return -int64(-v/sf + 0.5)
	}
	return RawEphemeris{
		WN:       e.WN,
		URA:      e.URA,
		SVHealth: e.SVHealth,
		IODC:     e.IODC,
		Tgd:      round(e.Tgd, sfTgd),
		Toc:      int(round(e.Toc.Sec, sfToc)),
		Af2:      round(e.Af2, sfAf2),
		Af1:      round(e.Af1, sfAf1),
		Af0:      round(e.Af0, sfAf0),
		IODE2:    e.IODE,
		Crs:      round(e.Crs, sfCrs),
		DeltaN:   round(e.DeltaN, sfDeltaN),
		M0:       round(e.M0, sfM0),
		Cuc:      round(e.Cuc, sfCuc),
		Ecc:      uint64(round(e.Ecc, sfEcc)),
		Cus:      round(e.Cus, sfCus),
		SqrtA:    uint64(round(e.SqrtA, sfSqrtA)),
		Toe:      int(round(e.Toe.Sec, sfToe)),
		FitFlag:  e.FitFlag,
		Cic:      round(e.Cic, sfCic),
		Omega0:   round(e.Omega0, sfOmega0),
		Cis:      round(e.Cis, sfCis),
		I0:       round(e.I0, sfI0),
		Crc:      round(e.Crc, sfCrc),
		Omega:    round(e.Omega, sfOmega),
		OmegaDot: round(e.OmegaDot, sfOmegaDot),
		IODE3:    e.IODE,
		IDot:     round(e.IDot, sfIDot),
	}
}

// fitIntervalHours reproduces the ICD-200 curve-fit interval table
// keyed by (fit interval flag, IODC). Flag 0 always means the default
// 4-hour fit.
func fitIntervalHours(flag, iodc int) float64 {
	if flag == 0 {
		return 4
	}
	switch {
	case iodc >= 240 && iodc <= 247:
		return 8
	case (iodc >= 248 && iodc <= 255) || iodc == 496:
		return 14
	case iodc >= 497 && iodc <= 503:
		return 26
	case iodc >= 504 && iodc <= 510:
		return 50
	case iodc == 511 || (iodc >= 752 && iodc <= 756):
		return 74
	case iodc >= 757 && iodc <= 763:
		return 98
	case (iodc >= 764 && iodc <= 767) || (iodc >= 1008 && iodc <= 1010):
		return 122
	case iodc >= 1011 && iodc <= 1020:
		return 146
	default:
		return 6
	}
}

// IsValid reports whether t falls within the ephemeris's fit interval
// around Toc.
func (e Ephemeris) IsValid(t GPSTime) bool {
	dt := math.Abs(t.Sub(e.Toc))
	return dt <= e.FitIntervalSec/2
}

// MaybeBetterAvailable is a cheap heuristic hint for whether a catalog
// holding this ephemeris should attempt a fresh EphemerisHistory.Select
// pass: once t has drifted more than a quarter of the fit interval
// away from Toc, a newer broadcast set is likely to already be in flight.
func (e Ephemeris) MaybeBetterAvailable(t GPSTime) bool {
	dt := math.Abs(t.Sub(e.Toc))
	return dt > e.FitIntervalSec/4
}

// Equivalent reports whether e and other are the field-for-field same
// broadcast ephemeris within one LSB of quantization noise per field -
// the test EphemerisHistory uses to avoid inserting redundant entries.
func (e Ephemeris) Equivalent(other Ephemeris) bool {
	const tol = 1.0001
	near := func(a, b, sf float64) bool {
		return math.Abs(a-b) <= sf*tol
	}
	return e.IODC == other.IODC &&
		e.IODE == other.IODE &&
		e.WN == other.WN && e.URA == other.URA &&
		e.SVHealth == other.SVHealth && e.FitFlag == other.FitFlag &&
		near(e.Toc.Sub(other.Toc), 0, sfToc) &&
		near(e.Toe.Sub(other.Toe), 0, sfToe) &&
		near(e.Tgd, other.Tgd, sfTgd) &&
		near(e.Crs, other.Crs, sfCrs) && near(e.Crc, other.Crc, sfCrc) &&
		near(e.Cus, other.Cus, sfCus) && near(e.Cuc, other.Cuc, sfCuc) &&
		near(e.Cis, other.Cis, sfCis) && near(e.Cic, other.Cic, sfCic) &&
		near(e.DeltaN, other.DeltaN, sfDeltaN) &&
		near(e.Omega0, other.Omega0, sfOmega0) &&
		near(e.I0, other.I0, sfI0) &&
		near(e.Omega, other.Omega, sfOmega) &&
		near(e.OmegaDot, other.OmegaDot, sfOmegaDot) &&
		near(e.IDot, other.IDot, sfIDot) &&
		near(e.Af0, other.Af0, sfAf0) &&
		near(e.Af1, other.Af1, sfAf1) &&
		near(e.Af2, other.Af2, sfAf2) &&
		near(e.SqrtA, other.SqrtA, sfSqrtA) &&
		near(e.Ecc, other.Ecc, sfEcc) &&
		near(e.M0, other.M0, sfM0)
}

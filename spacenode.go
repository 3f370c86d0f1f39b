// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

package gpsins

import "math"

// Satellite is one PRN's versioned ephemeris catalog.
type Satellite struct {
	PRN     int
	History *History[Ephemeris]
}

// SpaceNode is the aggregate catalog the decoder feeds and the
// orbit/correction layer reads from: per-satellite ephemeris history
// plus the single shared ionospheric/UTC parameter set. It carries no
// internal locking - concurrent decode and measurement-update access
// must be serialized by the caller.
type SpaceNode struct {
	Satellites map[int]*Satellite
	IonoUTC    *History[ionoUTCEntry]

	ionoInitialized bool
	utcInitialized  bool
}

// ionoUTCEntry wraps IonoUTC so it can live in a History, which
// requires an Equivalent method.
type ionoUTCEntry struct {
	IonoUTC
}

func (a ionoUTCEntry) Equivalent(b ionoUTCEntry) bool {
	return a.Alpha == b.Alpha && a.Beta == b.Beta && a.A0 == b.A0 && a.A1 == b.A1
}

// NewSpaceNode returns an empty catalog.
func NewSpaceNode() *SpaceNode {
	return &SpaceNode{
		Satellites: make(map[int]*Satellite),
		IonoUTC:    NewHistory[ionoUTCEntry](),
	}
}

// UpdateEphemeris feeds a freshly decoded ephemeris for PRN into the
// catalog, creating the satellite's history on first observation.
func (sn *SpaceNode) UpdateEphemeris(prn int, e Ephemeris, priority int) {
	sat, ok := sn.Satellites[prn]
	if !ok {
		sat = &Satellite{PRN: prn, History: NewHistory[Ephemeris]()}
		sn.Satellites[prn] = sat
	}
	sat.History.Add(e, e.Toe, priority)
}

// UpdateIonoUTC feeds a freshly decoded ionospheric/UTC parameter set
// into the catalog.
func (sn *SpaceNode) UpdateIonoUTC(iu IonoUTC, t GPSTime, priority int) {
	sn.IonoUTC.Add(ionoUTCEntry{iu}, t, priority)
	sn.ionoInitialized = true
	sn.utcInitialized = true
}

// SelectEphemeris returns the best ephemeris for prn valid at t, if
// any has been observed.
func (sn *SpaceNode) SelectEphemeris(prn int, t GPSTime) (Ephemeris, bool) {
	sat, ok := sn.Satellites[prn]
	if !ok {
		return Ephemeris{}, false
	}
	return sat.History.Select(t, func(e Ephemeris, t GPSTime) bool { return e.IsValid(t) })
}

// RefreshSelection returns the ephemeris a caller should use for prn at
// t, given the one it already has cached (hasCached reports whether
// cached is meaningful). If cached.MaybeBetterAvailable(t) says a newer
// broadcast is unlikely to have arrived yet, cached is returned as-is
// rather than re-running History.Select; otherwise a fresh
// SelectEphemeris pass decides.
func (sn *SpaceNode) RefreshSelection(prn int, cached Ephemeris, hasCached bool, t GPSTime) (Ephemeris, bool) {
	if hasCached && !cached.MaybeBetterAvailable(t) {
		return cached, true
	}
	return sn.SelectEphemeris(prn, t)
}

// CurrentIonoUTC returns the ionospheric/UTC parameter set that
// History.Select picks for t. The parameters carry no validity window
// of their own, so every stored entry counts as valid and the choice is
// the entry Select finds nearest in time, whether before or after t.
func (sn *SpaceNode) CurrentIonoUTC(t GPSTime) (IonoUTC, bool) {
	e, ok := sn.IonoUTC.Select(t, func(ionoUTCEntry, GPSTime) bool { return true })
	return e.IonoUTC, ok
}

// Merge folds another catalog's history into sn, preserving original
// priorities (used to combine almanac/log replays from multiple
// receivers tracking the same constellation).
func (sn *SpaceNode) Merge(other *SpaceNode) {
	for prn, sat := range other.Satellites {
		mine, ok := sn.Satellites[prn]
		if !ok {
			mine = &Satellite{PRN: prn, History: NewHistory[Ephemeris]()}
			sn.Satellites[prn] = mine
		}
		mine.History.Merge(sat.History, true)
	}
	sn.IonoUTC.Merge(other.IonoUTC, true)
}

// PiercePoint computes the ionospheric pierce point's geocentric
// latitude/longitude (as PosLLH.Lat/Lon, radians) at the conventional
// 350km shell height, given the user position and line-of-sight
// elevation/azimuth.
func PiercePoint(usr *PosLLH, el, az float64) (lat, lon float64) {
	const shellHeight = 350e3
	psi := PI/2 - el - math.Asin(Re/(Re+shellHeight)*math.Cos(el))

	latRad := math.Asin(math.Sin(usr.Lat)*math.Cos(psi) + math.Cos(usr.Lat)*math.Sin(psi)*math.Cos(az))
	lonRad := usr.Lon + math.Asin(math.Sin(psi)*math.Sin(az)/math.Cos(latRad))

	// Longitude-sign correction for geometries that graze the horizon
	// on the far side of the pierce point, matching the clamp the
	// pierce-point geometry needs whenever |lat| approaches the pole.
	if latRad > 70*PI/180 && lonRad > usr.Lon+PI/2 {
		lonRad -= 2 * PI
	} else if latRad < -70*PI/180 && lonRad < usr.Lon-PI/2 {
		lonRad += 2 * PI
	}

	return latRad, lonRad
}

// SlantFactor is the ionospheric obliquity factor mapping vertical TEC
// to slant TEC along the line of sight at elevation el.
func SlantFactor(el float64) float64 {
	return 1.0 / math.Sqrt(1-SQ(Re/(Re+350e3)*math.Cos(el)))
}

// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.9.21
//

package gpsins

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// wgs84Ecc2 returns the square of the WGS-84 first eccentricity, the
// term every ellipsoidal conversion below needs.
func wgs84Ecc2() float64 {
	return Fe * (2 - Fe)
}

// primeVerticalRadius returns WGS-84's radius of curvature in the
// prime vertical, N(lat), used to map geodetic latitude onto ECEF.
func primeVerticalRadius(lat float64) float64 {
	sinLat := math.Sin(lat)
	return Re / math.Sqrt(1-wgs84Ecc2()*sinLat*sinLat)
}

//-------------------------------------------------------------------
// PosLLH
//-------------------------------------------------------------------

// PosLLH is a geodetic position: latitude/longitude in radians,
// ellipsoidal height in meters above WGS-84.
type PosLLH struct {
	Lat float64
	Lon float64
	Hei float64
}

func NewPosLLH(lat, lon, hei float64) *PosLLH {
	return &PosLLH{
		Lat: lat,
		Lon: lon,
		Hei: hei,
	}
}

func (llh *PosLLH) ToXYZ() PosXYZ {
	n := primeVerticalRadius(llh.Lat)
	cosLat, sinLat := math.Cos(llh.Lat), math.Sin(llh.Lat)
	cosLon, sinLon := math.Cos(llh.Lon), math.Sin(llh.Lon)
	return PosXYZ{
		X: (n + llh.Hei) * cosLat * cosLon,
		Y: (n + llh.Hei) * cosLat * sinLon,
		Z: (n*(1-wgs84Ecc2()) + llh.Hei) * sinLat,
	}
}

func (llh *PosLLH) ToNED(base PosXYZ) PosNED {
	xyz := llh.ToXYZ()
	return xyz.ToNED(base)
}

func (usr *PosLLH) Elevation(sat PosXYZ) float64 {
	ned := sat.ToNED(usr.ToXYZ())
	return ned.Elevation()
}

func (usr *PosLLH) Azimuth(sat PosXYZ) float64 {
	ned := sat.ToNED(usr.ToXYZ())
	return ned.Azimuth()
}

// Set parses "lat lon hei" (degrees, degrees, meters) from a text log line.
func (llh *PosLLH) Set(s string) error {
	f := strings.Fields(s)
	if len(f) < 3 {
		return fmt.Errorf("llh: want 3 fields, got %d", len(f))
	}
	var err error
	llh.Lat, err = strconv.ParseFloat(f[0], 64)
	if err != nil {
		return err
	}
	llh.Lon, err = strconv.ParseFloat(f[1], 64)
	if err != nil {
		return err
	}
	llh.Hei, err = strconv.ParseFloat(f[2], 64)
	if err != nil {
		return err
	}
	llh.Lat *= math.Pi / 180
	llh.Lon *= math.Pi / 180
	return nil
}

func (llh *PosLLH) String() string {
	return fmt.Sprintf("%.8f %.8f %.4f", llh.Lat, llh.Lon, llh.Hei)
}

//-------------------------------------------------------------------
// PosXYZ
//-------------------------------------------------------------------

// PosXYZ is an Earth-Centered, Earth-Fixed position, meters.
type PosXYZ struct {
	X float64
	Y float64
	Z float64
}

func NewPosXYZ(x, y, z float64) *PosXYZ {
	return &PosXYZ{
		X: x,
		Y: y,
		Z: z,
	}
}

// ToLLH inverts the ellipsoidal projection via Bowring's closed-form
// approximation (no Newton iteration needed for WGS-84's eccentricity).
func (pos *PosXYZ) ToLLH() PosLLH {
	if pos.X == 0 && pos.Y == 0 && pos.Z == 0 {
		return PosLLH{Lat: 0, Lon: 0, Hei: -Re}
	}

	a := Re
	b := a * (1 - Fe)

	h := a*a - b*b
	p := math.Hypot(pos.X, pos.Y)
	bowring := math.Atan2(pos.Z*a, p*b)
	s3, c3 := cube(math.Sin(bowring)), cube(math.Cos(bowring))

	lat := math.Atan2(pos.Z+h/b*s3, p-h/a*c3)
	lon := math.Atan2(pos.Y, pos.X)
	hei := p/math.Cos(lat) - primeVerticalRadius(lat)
	return PosLLH{Lat: lat, Lon: lon, Hei: hei}
}

func cube(v float64) float64 { return v * v * v }

// ToNED expresses pos relative to base, in base's local North-East-Down frame.
func (pos *PosXYZ) ToNED(base PosXYZ) PosNED {
	dx := pos.X - base.X
	dy := pos.Y - base.Y
	dz := pos.Z - base.Z

	llh := base.ToLLH()
	sinLat, cosLat := math.Sin(llh.Lat), math.Cos(llh.Lat)
	sinLon, cosLon := math.Sin(llh.Lon), math.Cos(llh.Lon)

	return PosNED{
		N: -dx*cosLon*sinLat - dy*sinLon*sinLat + dz*cosLat,
		E: -dx*sinLon + dy*cosLon,
		D: -(dx*cosLon*cosLat + dy*sinLon*cosLat + dz*sinLat),
	}
}

func (usr *PosXYZ) Elevation(sat PosXYZ) float64 {
	ned := sat.ToNED(*usr)
	return ned.Elevation()
}

func (usr *PosXYZ) Azimuth(sat PosXYZ) float64 {
	ned := sat.ToNED(*usr)
	return ned.Azimuth()
}

//-------------------------------------------------------------------
// PosNED
//-------------------------------------------------------------------

// PosNED is a local-level offset from a reference ECEF position,
// North/East/Down, meters; the frame tightlycoupled.go's error state
// and losToNED both resolve into.
type PosNED struct {
	N float64
	E float64
	D float64
}

func NewPosNED(n, e, d float64) *PosNED {
	return &PosNED{N: n, E: e, D: d}
}

func (ned *PosNED) ToXYZ(base PosXYZ) PosXYZ {
	llh := base.ToLLH()
	sinLat, cosLat := math.Sin(llh.Lat), math.Cos(llh.Lat)
	sinLon, cosLon := math.Sin(llh.Lon), math.Cos(llh.Lon)

	return PosXYZ{
		X: base.X + -ned.N*cosLon*sinLat - ned.E*sinLon - ned.D*cosLon*cosLat,
		Y: base.Y + -ned.N*sinLon*sinLat + ned.E*cosLon - ned.D*sinLon*cosLat,
		Z: base.Z + ned.N*cosLat - ned.D*sinLat,
	}
}

func (ned *PosNED) Elevation() float64 {
	return math.Atan2(-ned.D, math.Hypot(ned.N, ned.E))
}

func (ned *PosNED) Azimuth() float64 {
	return math.Atan2(ned.E, ned.N)
}

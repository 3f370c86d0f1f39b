// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

package gpsins

import "math"

// semicircle converts radians to GPS ICD semicircles (half-turns).
func semicircle(rad float64) float64 {
	return rad / PI
}

func semicircleToRad(sc float64) float64 {
	return sc * PI
}

// KlobucharDelay computes the L1 ionospheric range correction, in
// meters, at the user position usr, toward a satellite at
// elevation/azimuth el/az (radians), at time t, per the broadcast
// Klobuchar model. The ionosphere delays the signal, so the returned
// value is already negated (−c·t_iono): it is the correction to be
// added directly to a measured pseudorange to back the delay out,
// not the raw group delay itself.
func (iu *IonoUTC) KlobucharDelay(usr *PosLLH, el, az float64, t GPSTime) float64 {
	scEl := semicircle(el)

	psi := 0.0137/(scEl+0.11) - 0.022
	phiI := semicircle(usr.Lat) + psi*math.Cos(az)
	if phiI > 0.416 {
		phiI = 0.416
	} else if phiI < -0.416 {
		phiI = -0.416
	}

	lambdaI := semicircle(usr.Lon) + psi*math.Sin(az)/math.Cos(semicircleToRad(phiI))
	phiM := phiI + 0.064*math.Cos(semicircleToRad(lambdaI-1.617))

	lt := 4.32e4*lambdaI + t.Sec
	lt = math.Mod(lt, 86400)
	if lt < 0 {
		lt += 86400
	}

	amp := iu.Alpha[0] + phiM*(iu.Alpha[1]+phiM*(iu.Alpha[2]+phiM*iu.Alpha[3]))
	if amp < 0 {
		amp = 0
	}
	per := iu.Beta[0] + phiM*(iu.Beta[1]+phiM*(iu.Beta[2]+phiM*iu.Beta[3]))
	if per < 72000 {
		per = 72000
	}

	f := 1.0 + 16.0*math.Pow(0.53-scEl, 3)

	x := 2 * PI * (lt - 50400) / per

	tIono := 5e-9
	if math.Abs(x) < 1.57 {
		tIono += amp * (1 - x*x/2 + x*x*x*x/24)
	}
	tIono *= f

	return -C * tIono
}

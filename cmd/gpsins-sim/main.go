// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

// Command gpsins-sim is a thin demonstration harness around the
// gpsins package: it builds a synthetic ephemeris, propagates it, and
// reports the satellite geometry seen from a fixed receiver position.
// It exists to exercise the public API end-to-end, not as a product
// surface of the package itself.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mkhts/gpsins"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "err=%s\n", err.Error())
		os.Exit(1)
	}
}

func run() error {
	lat := flag.Float64("lat", 35.681236, "receiver latitude, degrees")
	lon := flag.Float64("lon", 139.767125, "receiver longitude, degrees")
	hei := flag.Float64("hei", 40.0, "receiver height, meters")
	prn := flag.Int("prn", 1, "satellite PRN to report")
	flag.Parse()

	usr := gpsins.NewPosLLH(gpsins.ToRad(*lat), gpsins.ToRad(*lon), *hei)
	usrXYZ := usr.ToXYZ()

	eph, err := sampleEphemeris(*prn)
	if err != nil {
		return fmt.Errorf("failed to build sample ephemeris: %w", err)
	}

	rcvt := eph.Toe.Add(1800)
	state := gpsins.Propagate(&eph, rcvt, 0.075*gpsins.C)

	el := usr.Elevation(state.Pos)
	az := usr.Azimuth(state.Pos)
	rng := gpsins.EucDist(&usrXYZ, &state.Pos)

	fmt.Printf("prn=%d t=%s range=%.1fm elev=%.2fdeg az=%.2fdeg clockBias=%.3ems\n",
		*prn, rcvt.String(), rng, gpsins.ToDeg(el), gpsins.ToDeg(az), state.ClockBias*1e3)

	trop := gpsins.TropModel(&usrXYZ) * gpsins.TropMapf(rcvt, &usrXYZ, el)
	fmt.Printf("tropo delay=%.3fm\n", trop)

	return nil
}

// sampleEphemeris builds a plausible, internally-consistent broadcast
// ephemeris without needing a live receiver or a recorded capture on
// disk, so this command runs standalone.
func sampleEphemeris(prn int) (gpsins.Ephemeris, error) {
	if prn < 1 || prn > 32 {
		return gpsins.Ephemeris{}, fmt.Errorf("prn %d out of range", prn)
	}
	toe := gpsins.NewGPSTime(2300, 2*3600)
	return gpsins.Ephemeris{
		Gnss:           gpsins.GPSL1CA,
		PRN:            prn,
		WN:             2300,
		URA:            0,
		IODC:           0x123,
		IODE:           0x23,
		Toc:            toe,
		Toe:            toe,
		SqrtA:          5153.6,
		Ecc:            0.006,
		M0:             0.5,
		Omega0:         -1.2,
		I0:             0.95,
		Omega:          0.3,
		DeltaN:         4.3e-9,
		OmegaDot:       -8.0e-9,
		IDot:           2.0e-10,
		Cuc:            1e-6,
		Cus:            8e-6,
		Crc:            200.0,
		Crs:            -10.0,
		Cic:            -2e-7,
		Cis:            5e-8,
		FitFlag:        0,
		FitIntervalSec: 4 * 3600,
	}, nil
}

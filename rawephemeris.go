// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

package gpsins

// RawEphemeris holds the unscaled integer fields captured out of
// subframes 1-3 for a single satellite, in the process of being
// assembled. Nothing here errors: an incomplete accumulation (a
// subframe missed, or IODE mismatched between subframe 2 and 3) simply
// never promotes to an Ephemeris.
type RawEphemeris struct {
	WN       int
	URA      int
	SVHealth int
	IODC     int
	Tgd      int64
	Toc      int
	Af2      int64
	Af1      int64
	Af0      int64

	IODE2   int
	Crs     int64
	DeltaN  int64
	M0      int64
	Cuc     int64
	Ecc     uint64
	Cus     int64
	SqrtA   uint64
	Toe     int
	FitFlag int

	Cic      int64
	Omega0   int64
	Cis      int64
	I0       int64
	Crc      int64
	Omega    int64
	OmegaDot int64
	IODE3    int
	IDot     int64

	haveSF1, haveSF2, haveSF3 bool
}

// complete reports whether subframes 1-3 have all arrived and the IODE
// values they each carry agree, which is the ICD's own consistency
// check that the three subframes describe the same ephemeris set.
func (raw *RawEphemeris) complete() bool {
	if !raw.haveSF1 || !raw.haveSF2 || !raw.haveSF3 {
		return false
	}
	return raw.IODE2 == raw.IODE3 && raw.IODE2 == raw.IODC&0xFF
}

// RawIonoUTC holds the unscaled integer fields from subframe 4 page 18.
type RawIonoUTC struct {
	Alpha0, Alpha1, Alpha2, Alpha3 int64
	Beta0, Beta1, Beta2, Beta3     int64
	A1, A0                         int64
	Tot                            int
	WNt                            int
	DeltaTLS                       int64
	WNLSF                          int
	DN                             int
	DeltaTLSF                      int64

	haveIonoUTC bool
}

// Decoder accumulates subframes for every satellite it is fed and
// produces a scaled Ephemeris (or IonoUTC) whenever a complete,
// internally-consistent set arrives. It carries no back-reference to
// the catalog it feeds: callers drive the two by calling Ingest and
// acting on the returned, fully decoded values themselves.
type Decoder struct {
	Logger Logger

	pending map[int]*RawEphemeris
	iono    RawIonoUTC
}

// NewDecoder returns a Decoder ready to accept subframes. A nil logger
// falls back to StderrLogger.
func NewDecoder(logger Logger) *Decoder {
	return &Decoder{
		Logger:  orDefaultLogger(logger),
		pending: make(map[int]*RawEphemeris),
	}
}

// Ingest feeds one 300-bit subframe (as 38 bytes, MSB-aligned, the
// trailing 4 bits of the last byte unused) for the given satellite PRN.
// It returns a decoded, scaled Ephemeris if this subframe completes a
// consistent set, and/or a decoded IonoUTC if this subframe happens to
// be subframe 4 page 18. Both returns are nil unless that subframe was
// just completed.
func (d *Decoder) Ingest(prn int, data []byte) (eph *Ephemeris, ionoUTC *IonoUTC) {
	r := NewByteReader(data)
	sf := subframeID(r)

	raw, ok := d.pending[prn]
	if !ok {
		raw = &RawEphemeris{}
		d.pending[prn] = raw
	}

	switch sf {
	case 1:
		parseSubframe1(r, raw)
	case 2:
		parseSubframe2(r, raw)
	case 3:
		parseSubframe3(r, raw)
	case 4:
		var riu RawIonoUTC
		if parseSubframe4Page18(r, &riu) {
			d.iono = riu
			scaled := scaleIonoUTC(&d.iono)
			ionoUTC = &scaled
		}
		return nil, ionoUTC
	case 5:
		// Almanac subframes are not decoded: orbit propagation and
		// clock correction only ever need the broadcast ephemeris.
		return nil, nil
	default:
		d.Logger.Warnf("prn %d: unexpected subframe id %d", prn, sf)
		return nil, nil
	}

	if !raw.complete() {
		return nil, nil
	}
	scaled := scaleEphemeris(raw)
	delete(d.pending, prn)
	return &scaled, nil
}

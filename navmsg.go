// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

package gpsins

// Bit offsets below are absolute positions within one 300-bit GPS L1
// C/A subframe (word 1 TLM's preamble at offset 0), matching the ICD
// layout: the subframe buffer passed to the decoder always starts at
// the preamble.

const (
	offPreamble   = 0
	lenPreamble   = 8
	offHOW        = 30
	lenHOW        = 24
	offSubframeID = 49
	lenSubframeID = 3

	// Subframe 1
	offWN     = 60
	lenWN     = 10
	offURA    = 72
	lenURA    = 4
	offSVHlth = 76
	lenSVHlth = 6
	offIODCHi = 82
	lenIODCHi = 2
	offIODCLo = 210
	lenIODCLo = 8
	offTgd    = 196
	lenTgd    = 8
	offToc    = 218
	lenToc    = 16
	offAf2    = 240
	lenAf2    = 8
	offAf1    = 248
	lenAf1    = 16
	offAf0    = 270
	lenAf0    = 22

	// Subframe 2
	offIODE2  = 60
	lenIODE2  = 8
	offCrs    = 68
	lenCrs    = 16
	offDeltaN = 90
	lenDeltaN = 16
	offM0Hi   = 106
	lenM0Hi   = 8
	offM0Lo   = 120
	lenM0Lo   = 24
	offCuc    = 150
	lenCuc    = 16
	offEccHi  = 166
	lenEccHi  = 8
	offEccLo  = 180
	lenEccLo  = 24
	offCus    = 210
	lenCus    = 16
	offSqrtAHi = 226
	lenSqrtAHi = 8
	offSqrtALo = 240
	lenSqrtALo = 24
	offToe    = 270
	lenToe    = 16
	offFit    = 286
	lenFit    = 1

	// Subframe 3
	offCic       = 60
	lenCic       = 16
	offOmega0Hi  = 76
	lenOmega0Hi  = 8
	offOmega0Lo  = 90
	lenOmega0Lo  = 24
	offCis       = 120
	lenCis       = 16
	offI0Hi      = 136
	lenI0Hi      = 8
	offI0Lo      = 150
	lenI0Lo      = 24
	offCrc       = 180
	lenCrc       = 16
	offOmegaHi   = 196
	lenOmegaHi   = 8
	offOmegaLo   = 210
	lenOmegaLo   = 24
	offOmegaDot  = 240
	lenOmegaDot  = 24
	offIODE3     = 270
	lenIODE3     = 8
	offIDot      = 278
	lenIDot      = 14

	// Subframe 4 page 18 (ionospheric/UTC parameters)
	offSVPageID = 62
	lenSVPageID = 6
	offAlpha0   = 68
	offAlpha1   = 76
	offAlpha2   = 90
	offAlpha3   = 98
	lenAlphaBeta = 8
	offBeta0    = 106
	offBeta1    = 120
	offBeta2    = 128
	offBeta3    = 136
	offA1       = 150
	lenA1       = 24
	offA0Hi     = 180
	lenA0Hi     = 24
	offA0Lo     = 210
	lenA0Lo     = 8
	offTot      = 218
	lenTot      = 8
	offWNt      = 226
	lenWNt      = 8
	offDeltaTLS = 240
	lenDeltaTLS = 8
	offWNLSF    = 248
	lenWNLSF    = 8
	offDN       = 256
	lenDN       = 8
	offDeltaTLSF = 270
	lenDeltaTLSF = 8

	svPageID18 = 56 // almanac page ID reserved for ionospheric/UTC data
)

// preamble returns the 8-bit TLM preamble word at the start of a
// 300-bit subframe buffer; a valid GPS L1 C/A subframe always carries
// 0x8B here.
func preamble(r BitPackedReader[byte]) int {
	return int(r.Unsigned(offPreamble, lenPreamble))
}

// how returns the 24-bit handover word following the TLM word,
// carrying the truncated time-of-week count and subframe flags.
func how(r BitPackedReader[byte]) int {
	return int(r.Unsigned(offHOW, lenHOW))
}

// subframeID returns the 3-bit subframe number (1..5) encoded in a
// 300-bit subframe buffer.
func subframeID(r BitPackedReader[byte]) int {
	return int(r.Unsigned(offSubframeID, lenSubframeID))
}

func parseSubframe1(r BitPackedReader[byte], raw *RawEphemeris) {
	raw.WN = int(r.Unsigned(offWN, lenWN))
	raw.URA = int(r.Unsigned(offURA, lenURA))
	raw.SVHealth = int(r.Unsigned(offSVHlth, lenSVHlth))
	raw.IODC = int(r.UnsignedSplit(offIODCHi, lenIODCHi, offIODCLo, lenIODCLo))
	raw.Tgd = r.Signed(offTgd, lenTgd)
	raw.Toc = int(r.Unsigned(offToc, lenToc))
	raw.Af2 = r.Signed(offAf2, lenAf2)
	raw.Af1 = r.Signed(offAf1, lenAf1)
	raw.Af0 = r.Signed(offAf0, lenAf0)
	raw.haveSF1 = true
}

func parseSubframe2(r BitPackedReader[byte], raw *RawEphemeris) {
	raw.IODE2 = int(r.Unsigned(offIODE2, lenIODE2))
	raw.Crs = r.Signed(offCrs, lenCrs)
	raw.DeltaN = r.Signed(offDeltaN, lenDeltaN)
	raw.M0 = r.SignedSplit(offM0Hi, lenM0Hi, offM0Lo, lenM0Lo)
	raw.Cuc = r.Signed(offCuc, lenCuc)
	raw.Ecc = r.UnsignedSplit(offEccHi, lenEccHi, offEccLo, lenEccLo)
	raw.Cus = r.Signed(offCus, lenCus)
	raw.SqrtA = r.UnsignedSplit(offSqrtAHi, lenSqrtAHi, offSqrtALo, lenSqrtALo)
	raw.Toe = int(r.Unsigned(offToe, lenToe))
	raw.FitFlag = int(r.Unsigned(offFit, lenFit))
	raw.haveSF2 = true
}

func parseSubframe3(r BitPackedReader[byte], raw *RawEphemeris) {
	raw.Cic = r.Signed(offCic, lenCic)
	raw.Omega0 = r.SignedSplit(offOmega0Hi, lenOmega0Hi, offOmega0Lo, lenOmega0Lo)
	raw.Cis = r.Signed(offCis, lenCis)
	raw.I0 = r.SignedSplit(offI0Hi, lenI0Hi, offI0Lo, lenI0Lo)
	raw.Crc = r.Signed(offCrc, lenCrc)
	raw.Omega = r.SignedSplit(offOmegaHi, lenOmegaHi, offOmegaLo, lenOmegaLo)
	raw.OmegaDot = r.Signed(offOmegaDot, lenOmegaDot)
	raw.IODE3 = int(r.Unsigned(offIODE3, lenIODE3))
	raw.IDot = r.Signed(offIDot, lenIDot)
	raw.haveSF3 = true
}

// parseSubframe4Page18 decodes the ionospheric/UTC page, if that's what
// page the subframe 4 buffer carries; it reports ok=false otherwise.
func parseSubframe4Page18(r BitPackedReader[byte], raw *RawIonoUTC) (ok bool) {
	if int(r.Unsigned(offSVPageID, lenSVPageID)) != svPageID18 {
		return false
	}
	raw.Alpha0 = r.Signed(offAlpha0, lenAlphaBeta)
	raw.Alpha1 = r.Signed(offAlpha1, lenAlphaBeta)
	raw.Alpha2 = r.Signed(offAlpha2, lenAlphaBeta)
	raw.Alpha3 = r.Signed(offAlpha3, lenAlphaBeta)
	raw.Beta0 = r.Signed(offBeta0, lenAlphaBeta)
	raw.Beta1 = r.Signed(offBeta1, lenAlphaBeta)
	raw.Beta2 = r.Signed(offBeta2, lenAlphaBeta)
	raw.Beta3 = r.Signed(offBeta3, lenAlphaBeta)
	raw.A1 = r.Signed(offA1, lenA1)
	raw.A0 = r.SignedSplit(offA0Hi, lenA0Hi, offA0Lo, lenA0Lo)
	raw.Tot = int(r.Unsigned(offTot, lenTot))
	raw.WNt = int(r.Unsigned(offWNt, lenWNt))
	raw.DeltaTLS = r.Signed(offDeltaTLS, lenDeltaTLS)
	raw.WNLSF = int(r.Unsigned(offWNLSF, lenWNLSF))
	raw.DN = int(r.Unsigned(offDN, lenDN))
	raw.DeltaTLSF = r.Signed(offDeltaTLSF, lenDeltaTLSF)
	raw.haveIonoUTC = true
	return true
}

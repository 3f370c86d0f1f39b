package gpsins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleRawEphemeris() *RawEphemeris {
	return &RawEphemeris{
		WN: 2300, URA: 2, SVHealth: 0, IODC: 0x0A3,
		Tgd: -12, Toc: 57600 / 16, Af2: 0, Af1: 123, Af0: -4567,
		IODE2: 0xA3, Crs: 55, DeltaN: 321, M0: 123456789, Cuc: -100,
		Ecc: 4500000, Cus: 200, SqrtA: 2700000000, Toe: 57600 / 16, FitFlag: 0,
		Cic: -50, Omega0: -987654321, Cis: 60, I0: 456789123, Crc: 300,
		Omega: -123456, OmegaDot: -1500, IODE3: 0xA3, IDot: 80,
		haveSF1: true, haveSF2: true, haveSF3: true,
	}
}

func TestRawEphemerisCompleteRequiresMatchingIODE(t *testing.T) {
	assert := assert.New(t)
	raw := sampleRawEphemeris()
	assert.True(raw.complete())

	raw2 := sampleRawEphemeris()
	raw2.IODE3 = 0x55
	assert.False(raw2.complete())
}

func TestScaleEphemerisRoundTrip(t *testing.T) {
	assert := assert.New(t)
	raw := sampleRawEphemeris()
	e := scaleEphemeris(raw)
	back := e.toRaw()

	assert.Equal(raw.WN, back.WN)
	assert.Equal(raw.IODC, back.IODC)
	assert.InDelta(float64(raw.Tgd), float64(back.Tgd), 1)
	assert.InDelta(float64(raw.Af0), float64(back.Af0), 1)
	assert.InDelta(float64(raw.M0), float64(back.M0), 1)
	assert.InDelta(float64(raw.SqrtA), float64(back.SqrtA), 1)
	assert.InDelta(float64(raw.OmegaDot), float64(back.OmegaDot), 1)
}

func TestFitIntervalHours(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(4.0, fitIntervalHours(0, 99))
	assert.Equal(8.0, fitIntervalHours(1, 240))
	assert.Equal(14.0, fitIntervalHours(1, 250))
	assert.Equal(74.0, fitIntervalHours(1, 511))
	assert.Equal(6.0, fitIntervalHours(1, 1))
	assert.Equal(14.0, fitIntervalHours(1, 496))
	assert.Equal(26.0, fitIntervalHours(1, 497))
	assert.Equal(50.0, fitIntervalHours(1, 504))
	assert.Equal(98.0, fitIntervalHours(1, 757))
	assert.Equal(98.0, fitIntervalHours(1, 763))
	assert.Equal(122.0, fitIntervalHours(1, 764))
	assert.Equal(122.0, fitIntervalHours(1, 1008))
	assert.Equal(146.0, fitIntervalHours(1, 1011))
}

func TestEphemerisIsValid(t *testing.T) {
	assert := assert.New(t)
	raw := sampleRawEphemeris()
	e := scaleEphemeris(raw)
	assert.True(e.IsValid(e.Toc))
	assert.True(e.IsValid(e.Toc.Add(e.FitIntervalSec/2 - 1)))
	assert.False(e.IsValid(e.Toc.Add(e.FitIntervalSec/2 + 100)))
}

func TestURAMeters(t *testing.T) {
	assert := assert.New(t)
	assert.InDelta(2.4, URAMeters(0), 1e-9)
	assert.InDelta(1e9, URAMeters(15), 1e6)
	assert.InDelta(1e9, URAMeters(99), 1e6)
}

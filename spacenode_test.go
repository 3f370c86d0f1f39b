package gpsins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleEphemerisForSpaceNode(toe GPSTime) Ephemeris {
	return Ephemeris{
		Gnss: GPSL1CA, PRN: 1, WN: toe.Week, IODC: 0x123, IODE: 0x23,
		Toc: toe, Toe: toe,
		SqrtA: 5153.6, Ecc: 0.006, M0: 0.5, Omega0: -1.2, I0: 0.95, Omega: 0.3,
		FitIntervalSec: 4 * 3600,
	}
}

func TestRefreshSelectionReusesCacheWhenNoBetterLikely(t *testing.T) {
	assert := assert.New(t)
	sn := NewSpaceNode()
	toe := NewGPSTime(2300, 7200)
	eph := sampleEphemerisForSpaceNode(toe)
	sn.UpdateEphemeris(1, eph, 1)

	cached, ok := sn.SelectEphemeris(1, toe)
	assert.True(ok)

	// A newer broadcast is decoded, but the cached ephemeris is still
	// well within the first quarter of its fit interval, so
	// RefreshSelection shouldn't bother re-selecting.
	newer := sampleEphemerisForSpaceNode(toe.Add(1800))
	newer.IODE = 0x24
	sn.UpdateEphemeris(1, newer, 1)

	got, ok := sn.RefreshSelection(1, cached, true, toe.Add(60))
	assert.True(ok)
	assert.Equal(eph.IODE, got.IODE)
}

func TestRefreshSelectionPicksUpNewerBroadcastPastQuarterInterval(t *testing.T) {
	assert := assert.New(t)
	sn := NewSpaceNode()
	toe := NewGPSTime(2300, 7200)
	eph := sampleEphemerisForSpaceNode(toe)
	sn.UpdateEphemeris(1, eph, 1)

	cached, ok := sn.SelectEphemeris(1, toe)
	assert.True(ok)

	newToe := toe.Add(3900)
	newer := sampleEphemerisForSpaceNode(newToe)
	newer.IODE = 0x24
	sn.UpdateEphemeris(1, newer, 1)

	// Past a quarter of the 4-hour fit interval from the cached
	// ephemeris's Toc, MaybeBetterAvailable should trigger a re-select.
	got, ok := sn.RefreshSelection(1, cached, true, newToe)
	assert.True(ok)
	assert.Equal(newer.IODE, got.IODE)
}

func TestRefreshSelectionWithoutCacheAlwaysSelects(t *testing.T) {
	assert := assert.New(t)
	sn := NewSpaceNode()
	toe := NewGPSTime(2300, 7200)
	eph := sampleEphemerisForSpaceNode(toe)
	sn.UpdateEphemeris(1, eph, 1)

	got, ok := sn.RefreshSelection(1, Ephemeris{}, false, toe)
	assert.True(ok)
	assert.Equal(eph.IODE, got.IODE)
}

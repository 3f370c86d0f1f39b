package gpsins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGPSTimeCanonicalization(t *testing.T) {
	assert := assert.New(t)
	gt := NewGPSTime(100, SecPerWeek+10)
	assert.Equal(101, gt.Week)
	assert.InDelta(10.0, gt.Sec, 1e-9)

	gt2 := NewGPSTime(100, -10)
	assert.Equal(99, gt2.Week)
	assert.InDelta(SecPerWeek-10, gt2.Sec, 1e-9)
}

func TestGPSTimeCivilRoundTrip(t *testing.T) {
	assert := assert.New(t)
	cases := []struct{ y, mo, d, h, mi int; s float64 }{
		{1980, 1, 6, 0, 0, 0},
		{1999, 12, 31, 23, 59, 59},
		{2000, 2, 29, 12, 0, 0}, // divisible by 400: leap
		{2100, 3, 1, 0, 0, 0},   // divisible by 100, not 400: not leap, so no Feb 29
		{2400, 2, 29, 0, 0, 0},  // divisible by 400: leap
		{2026, 8, 6, 6, 7, 8.5},
	}
	for _, c := range cases {
		gt := FromCivil(c.y, c.mo, c.d, c.h, c.mi, c.s)
		y, mo, d, h, mi, s := gt.ToCivil()
		assert.Equal(c.y, y, "year for %v", c)
		assert.Equal(c.mo, mo, "month for %v", c)
		assert.Equal(c.d, d, "day for %v", c)
		assert.Equal(c.h, h, "hour for %v", c)
		assert.Equal(c.mi, mi, "minute for %v", c)
		assert.InDelta(c.s, s, 1e-6, "sec for %v", c)
	}
}

func TestGPSTimeLeapYearRule(t *testing.T) {
	assert := assert.New(t)
	assert.True(isLeapYear(2000))
	assert.False(isLeapYear(2100))
	assert.True(isLeapYear(2400))
	assert.True(isLeapYear(2024))
	assert.False(isLeapYear(2023))
}

func TestGPSTimeLeapYearProp(t *testing.T) {
	assert := assert.New(t)
	extra, leap := leapYearProp(2000)
	assert.Equal(0, extra)
	assert.True(leap)

	extra, leap = leapYearProp(2100)
	assert.Equal(0, extra)
	assert.False(leap)

	extra, leap = leapYearProp(2400)
	assert.Equal(3, extra)
	assert.True(leap)
}

func TestGPSTimeSubAndAdd(t *testing.T) {
	assert := assert.New(t)
	a := NewGPSTime(100, 10)
	b := a.Add(3600)
	assert.InDelta(3600.0, b.Sub(a), 1e-9)
	assert.True(b.After(a))
	assert.True(a.Before(b))
}

// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.2
//

package gorinex

import (
	"math"
	"time"
)

// GPS time expressed as week number and seconds of week
type GTime struct {
	Week int
	Sec  float64
}

var gpsEpoch = time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC)

// Calendar time (read as GPS time, no leap seconds applied) to GTime
func NewGTime(dt time.Time) *GTime {
	t := dt.Unix()
	t -= gpsEpoch.Unix() // Elapsed seconds since 1980/1/6 00:00:00
	return &GTime{
		Week: int(t / SECS_PER_WEEK),
		Sec:  float64(t%SECS_PER_WEEK) + float64(dt.Nanosecond())/1000000000,
	}
}

func (p *GTime) ToTime() time.Time {
	i := int64(math.Trunc(p.Sec))
	t := int64(SECS_PER_WEEK*p.Week) + i + gpsEpoch.Unix()
	n := int64((p.Sec - float64(i)) * 1e9)
	return time.Unix(t, n).UTC()
}

// ------------------------------------
// Modified Julian Day
// ------------------------------------

// Midnight (UTC) of the given MJD
func MJDToTime(mjd int) time.Time {
	return time.Unix(int64(mjd-MJD_UNIX0)*SECS_PER_DAY, 0).UTC()
}

// MJD of the day containing t
func TimeToMJD(t time.Time) int {
	return int(math.Floor(float64(t.Unix())/SECS_PER_DAY)) + MJD_UNIX0
}

// Calendar date and day of year for the given MJD
func MJDToDate(mjd int) (year, month, mday, yday int) {
	t := MJDToTime(mjd)
	return t.Year(), int(t.Month()), t.Day(), t.YearDay()
}

// Full (untruncated) GPS week containing the given MJD
func GPSWeekFromMJD(mjd int) int {
	return int(math.Floor(float64(mjd-MJD_GPS0) / 7))
}

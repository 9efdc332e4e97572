// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.6
//

package gorinex

// Reconstruct the full week of a leap second schedule from its 8-bit truncated value.
// The truncated and full week numbers never differ by more than 127 weeks (IS-GPS-200 20.3.3.5.2.4).
func ScheduledLeapWeek(wnlsf, nominalWeek int) int {
	w := (nominalWeek &^ 0xFF) | (wnlsf & 0xFF)
	for nominalWeek-w > 127 {
		w += 256
	}
	for nominalWeek-w < -127 {
		w -= 256
	}
	return w
}

// MJD on which the scheduled leap second takes effect
func ScheduledLeapMJD(utc UTCModel, mjd int) int {
	w := ScheduledLeapWeek(utc.WNLSF, GPSWeekFromMJD(mjd))
	return MJD_GPS0 + 7*w + utc.DN
}

// Leap seconds in effect on the given MJD: dtLSF once the schedule date is reached, dtLS before it.
func ResolveLeapSeconds(utc UTCModel, mjd int) int {
	if mjd >= ScheduledLeapMJD(utc, mjd) {
		return utc.DtLSF
	}
	return utc.DtLS
}

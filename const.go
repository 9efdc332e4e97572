// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.2
//

package gorinex

const (
	PI = 3.1415926535897932 // Pi
	C  = 299792458.0        // Speed of light in vacuum [m/s]

	MJD_GPS0        = 44244 // MJD of GPS week 0 (1980/1/6)
	MJD_ROLLOVER1   = 51412 // MJD of GPS week 1024 (1999/8/22)
	MJD_UNIX0       = 40587 // MJD of 1970/1/1
	SECS_PER_DAY    = 86400
	SECS_PER_WEEK   = 604800
	GPS_WEEK_MODULO = 1024

	APP_NAME = "gorinex"
)

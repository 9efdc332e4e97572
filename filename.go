// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

package gorinex

import (
	"fmt"
	"regexp"
)

// Station, "DDD0.YY" and file type of a daily RINEX 2 file name pattern such as "SITEDDD0.YYo"
var fileNamePattern = regexp.MustCompile(`(\w{4})[Dd]{3}(0\.)[Yy]{2}([nNoO])`)

// Daily RINEX 2 file name for the given MJD from a pattern such as "KAOSDDD0.YYn".
// DDD is replaced by the day of year and YY by the two digit year.
// Returns an empty string if the pattern does not match.
func MakeFileName(pattern string, mjd int) string {
	m := fileNamePattern.FindStringSubmatch(pattern)
	if m == nil {
		return ""
	}
	year, _, _, yday := MJDToDate(mjd)
	return fmt.Sprintf("%s%03d%s%02d%s", m[1], yday, m[2], year%100, m[3])
}

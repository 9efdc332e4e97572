// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.6
//

package gorinex

// Full GPS week for a week number truncated modulo 1024, anchored on the target day.
// GPS week 1024 began on MJD 51412 and week 2048 on MJD 58580.
func FullGPSWeek(truncated, mjd int) int {
	w := truncated
	for tmjd := mjd; tmjd >= MJD_ROLLOVER1; tmjd -= 7 * GPS_WEEK_MODULO {
		w += GPS_WEEK_MODULO
	}
	return w
}

// Repairs week numbers of a time ordered ephemeris sequence
type WeekRolloverCorrector interface {
	// Corrected week for the next record of the sequence
	Correct(week int, toc float64) int
}

// Backward jump of Toc, within an unchanged week, that is taken as an unflagged week rollover
const rolloverTocGap = -2 * SECS_PER_DAY

type gapRolloverCorrector struct {
	started   bool
	lastWeek  int
	lastToc   float64
	rollovers int
}

// Corrector that detects a week rollover from Toc going backwards by more than
// two days while the week number stays the same. The extra week is applied to
// all following records until the week number itself advances.
func NewGapRolloverCorrector() WeekRolloverCorrector {
	return &gapRolloverCorrector{}
}

func (g *gapRolloverCorrector) Correct(week int, toc float64) int {
	if !g.started {
		g.lastWeek = week
		g.lastToc = toc
		g.started = true
	}
	if week == g.lastWeek && toc-g.lastToc < rolloverTocGap {
		g.rollovers = 1
	} else if week == g.lastWeek+1 {
		g.rollovers = 0
	}
	g.lastWeek = week
	g.lastToc = toc
	return week + g.rollovers
}

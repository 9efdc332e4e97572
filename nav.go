// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.11
//

package gorinex

import (
	"fmt"
	"time"
)

// Ephemeris records held in an EphemerisStore are keyed by satellite and Toe
type Ephemeris interface {
	SatID() int
	RefTime() float64
}

// GPS broadcast ephemeris (one satellite, one issue). Angles in radians.
type GPSEphemeris struct {
	SVN    int
	TEphem float64 // Transmission time of message, seconds of week
	Flags  int

	// Clock (subframe 1)
	IODC   int
	Toc    float64 // Clock data reference time, seconds of week
	URA    int     // User range accuracy index
	Health int
	Week   int     // Week number, modulo 1024
	Tgd    float64 // Group delay differential [s]
	Af0    float64
	Af1    float64
	Af2    float64

	// Orbit (subframes 2 and 3)
	Toe      float64 // Ephemeris reference time, seconds of week
	IODE     int
	SqrtA    float64
	Ecc      float64
	M0       float64
	Omega0   float64
	I0       float64
	Omega    float64
	DeltaN   float64
	OmegaDot float64
	Idot     float64
	Crc      float64
	Crs      float64
	Cuc      float64
	Cus      float64
	Cic      float64
	Cis      float64

	Accuracy float64 // SV accuracy [m] as read from RINEX
}

func (e *GPSEphemeris) SatID() int       { return e.SVN }
func (e *GPSEphemeris) RefTime() float64 { return e.Toe }

func (e *GPSEphemeris) String() string {
	str := ""
	str += fmt.Sprintf("### Nav. for G%02d\n", e.SVN)
	str += fmt.Sprintf("    Toc: %v (week %d)\n", e.Toc, e.Week)
	str += fmt.Sprintf("    Toe: %v\n", e.Toe)
	str += fmt.Sprintf("   IODE: %v\n", e.IODE)
	str += fmt.Sprintf("   IODC: %v\n", e.IODC)
	str += fmt.Sprintf("    Af0: %v\n", e.Af0)
	str += fmt.Sprintf("    Af1: %v\n", e.Af1)
	str += fmt.Sprintf("    Af2: %v\n", e.Af2)
	str += fmt.Sprintf("  SqrtA: %v\n", e.SqrtA)
	str += fmt.Sprintf("    Ecc: %v\n", e.Ecc)
	str += fmt.Sprintf("     M0: %v\n", e.M0)
	str += fmt.Sprintf(" Omega0: %v\n", e.Omega0)
	str += fmt.Sprintf("     I0: %v\n", e.I0)
	str += fmt.Sprintf("  Omega: %v\n", e.Omega)
	str += fmt.Sprintf("    URA: %v\n", e.URA)
	str += fmt.Sprintf(" Health: %v\n", e.Health)
	return str
}

// BeiDou broadcast ephemeris. The reference epoch is kept as calendar fields (BDT).
type BeiDouEphemeris struct {
	SVN                             int
	Year, Mon, Mday, Hour, Min, Sec int

	A0, A1, A2 float64 // Clock polynomial
	AODE       float64
	AODC       float64

	Crs      float64
	DeltaN   float64
	M0       float64
	Cuc      float64
	Ecc      float64
	Cus      float64
	SqrtA    float64
	Toe      float64
	Cic      float64
	Omega0   float64
	Cis      float64
	I0       float64
	Crc      float64
	Omega    float64
	OmegaDot float64
	Idot     float64
	WN       int // BDT week
	URAI     float64
	SatH1    float64
	Tgd1     float64
	Tgd2     float64
	TxE      float64 // Transmission time of message
}

func (e *BeiDouEphemeris) SatID() int       { return e.SVN }
func (e *BeiDouEphemeris) RefTime() float64 { return e.Toe }

// Reference epoch of the clock polynomial
func (e *BeiDouEphemeris) Epoch() time.Time {
	return time.Date(e.Year, time.Month(e.Mon), e.Mday, e.Hour, e.Min, e.Sec, 0, time.UTC)
}

// Klobuchar-style ionosphere coefficients
type IonoModel struct {
	Alpha [4]float64
	Beta  [4]float64
}

// GPS to UTC conversion parameters
type UTCModel struct {
	A0    float64
	A1    float64
	Tot   int // Reference time of week [s]
	WNt   int // Reference week number
	DtLS  int // Current leap seconds
	DN    int // Day number of the scheduled leap second
	WNLSF int // Week number of the scheduled leap second (truncated)
	DtLSF int // Leap seconds after the scheduled leap second
}

// A message with both leap second counts zero has not been filled by the receiver yet
func (u UTCModel) Valid() bool {
	return !(u.DtLS == 0 && u.DtLSF == 0)
}

// Value that can be set once. The first Lock wins; later values are discarded.
type Latch[T any] struct {
	v      T
	locked bool
}

func (l *Latch[T]) Lock(v T) bool {
	if l.locked {
		return false
	}
	l.v = v
	l.locked = true
	return true
}

func (l *Latch[T]) Locked() bool {
	return l.locked
}

// Value and whether it has been locked. The zero value is returned while unset.
func (l *Latch[T]) Get() (T, bool) {
	return l.v, l.locked
}

// ------------------------------------
// User range accuracy
// ------------------------------------

// URA index -> nominal accuracy [m]
var URA = [16]float64{2.4, 3.4, 4.85, 6.85, 9.65, 13.65, 24.0, 48.0, 96.0, 192.0, 384.0, 768.0, 1536.0, 3072.0, 6144.0, 6144.0}

// Return accuracy in metres for URA index
func URAValue(i int) float64 {
	if i < 0 {
		return URA[0]
	}
	if i >= len(URA) {
		return URA[len(URA)-1]
	}
	return URA[i]
}

// Return URA index for specified value
func URAIndex(x float64) int {
	if x > 0 && x <= 2.4 {
		return 0
	} else if x > 2.4 && x <= 3.4 {
		return 1
	} else if x > 3.4 && x <= 4.85 {
		return 2
	} else if x > 4.85 && x <= 6.85 {
		return 3
	} else if x > 6.85 && x <= 9.65 {
		return 4
	} else if x > 9.65 && x <= 13.65 {
		return 5
	} else if x > 13.65 && x <= 24.0 {
		return 6
	} else if x > 24.0 && x <= 48.0 {
		return 7
	} else if x > 48.0 && x <= 96.0 {
		return 8
	} else if x > 96.0 && x <= 192.0 {
		return 9
	} else if x > 192.0 && x <= 384.0 {
		return 10
	} else if x > 384.0 && x <= 768.0 {
		return 11
	} else if x > 768.0 && x <= 1536.0 {
		return 12
	} else if x > 1536.0 && x <= 3072.0 {
		return 13
	} else if x > 3072.0 && x <= 6144.0 {
		return 14
	} else {
		return 15
	}
}

// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.9
//

package gorinex

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Satellite system. Values are bits so that a receiver's active systems can be
// held in one Constellation.
type Constellation int

const (
	GPS Constellation = 1 << iota
	GLONASS
	Galileo
	BeiDou
	QZSS
	SBAS
	IRNSS
)

var allConstellations = []Constellation{GPS, GLONASS, Galileo, BeiDou, QZSS, SBAS, IRNSS}

// RINEX satellite system identifier
func (c Constellation) Sys() byte {
	switch c {
	case GPS:
		return 'G'
	case GLONASS:
		return 'R'
	case Galileo:
		return 'E'
	case BeiDou:
		return 'C'
	case QZSS:
		return 'J'
	case SBAS:
		return 'S'
	case IRNSS:
		return 'I'
	default:
		return 'M'
	}
}

// Constellation for a RINEX satellite system identifier
func ConstellationFromSys(b byte) (Constellation, bool) {
	for _, c := range allConstellations {
		if c.Sys() == b {
			return c, true
		}
	}
	return 0, false
}

// Number of lines of one navigation message record, header line included
func (c Constellation) NavLines() int {
	switch c {
	case GLONASS, SBAS:
		return 4
	default:
		return 8
	}
}

// Whether the ephemeris record layout is decoded. Other systems are recognised and skipped.
func (c Constellation) Implemented() bool {
	return c == GPS || c == BeiDou
}

// Whether all systems in o are active in c
func (c Constellation) Has(o Constellation) bool {
	return o != 0 && c&o == o
}

func (c Constellation) String() string {
	names := []string{}
	for _, s := range allConstellations {
		if c&s == 0 {
			continue
		}
		switch s {
		case GPS:
			names = append(names, "GPS")
		case GLONASS:
			names = append(names, "GLONASS")
		case Galileo:
			names = append(names, "Galileo")
		case BeiDou:
			names = append(names, "BeiDou")
		case QZSS:
			names = append(names, "QZSS")
		case SBAS:
			names = append(names, "SBAS")
		case IRNSS:
			names = append(names, "IRNSS")
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Accepts "GPS", "BeiDou,GPS", "G" etc.
func (c *Constellation) UnmarshalText(text []byte) error {
	var v Constellation
	for _, a := range strings.Split(string(text), ",") {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		found := false
		for _, s := range allConstellations {
			if strings.EqualFold(a, s.String()) || (len(a) == 1 && a[0] == s.Sys()) || (strings.EqualFold(a, "BDS") && s == BeiDou) {
				v |= s
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown constellation '%s'", a)
		}
	}
	*c = v
	return nil
}

// Observation codes. Values are bits so that the receiver's active codes can be held in one ObsCode.
type ObsCode int

const (
	C1 ObsCode = 1 << iota
	P1
	P2
	L1
	L2
)

var allObsCodes = []ObsCode{C1, P1, P2, L1, L2}

func (o ObsCode) Has(x ObsCode) bool {
	return o&x == x
}

func (o ObsCode) String() string {
	names := []string{}
	for _, c := range allObsCodes {
		if o&c == 0 {
			continue
		}
		switch c {
		case C1:
			names = append(names, "C1")
		case P1:
			names = append(names, "P1")
		case P2:
			names = append(names, "P2")
		case L1:
			names = append(names, "L1")
		case L2:
			names = append(names, "L2")
		}
	}
	return strings.Join(names, ",")
}

func (o *ObsCode) UnmarshalText(text []byte) error {
	var v ObsCode
	for _, a := range strings.Split(string(text), ",") {
		a = strings.ToUpper(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		found := false
		for _, c := range allObsCodes {
			if a == c.String() {
				v |= c
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown observation code '%s'", a)
		}
	}
	*o = v
	return nil
}

// One observable of one satellite
type SVMeasurement struct {
	Constellation Constellation
	SVN           int
	Code          ObsCode
	Meas          float64 // Code: range time [s], phase: cycles
	LLI           int     // Loss of lock indicator
	Signal        int     // Signal strength indicator
}

// Satellite name like "G05"
func (p *SVMeasurement) SatID() string {
	return fmt.Sprintf("%c%02d", p.Constellation.Sys(), p.SVN)
}

const (
	FlagClock    = 0x01 // Receiver clock / epoch data present
	FlagPPS      = 0x02 // 1PPS / TIC data present
	FlagComplete = FlagClock | FlagPPS
)

// Receiver data for one second of the day
type ReceiverMeasurement struct {
	TmGPS     time.Time // GPS calendar time, whole seconds
	FracSecs  float64   // Fractional part of the second
	Flags     uint8
	EpochFlag int
	TIC       float64 // Counter reading of the receiver 1PPS [s]
	Sawtooth  float64 // Receiver 1PPS sawtooth correction [s]
	Meas      []*SVMeasurement
}

// Both clock and 1PPS data present
func (p *ReceiverMeasurement) Eligible() bool {
	return p != nil && p.Flags == FlagComplete
}

// Measurement time rounded to the nearest second of day
func (p *ReceiverMeasurement) TimeOfDay() int {
	t := p.TmGPS
	return int(math.RoundToEven(float64(t.Hour()*3600+t.Minute()*60+t.Second()) + p.FracSecs))
}

// Find the observable of the given satellite and code
func (p *ReceiverMeasurement) Find(c Constellation, svn int, code ObsCode) *SVMeasurement {
	for _, m := range p.Meas {
		if m.Constellation == c && m.SVN == svn && m.Code == code {
			return m
		}
	}
	return nil
}

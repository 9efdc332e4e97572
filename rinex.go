// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

package gorinex

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// RINEX 2.11 specification
// https://files.igs.org/pub/data/format/rinex211.txt
// RINEX 3.03 specification
// https://files.igs.org/pub/data/format/rinex303.pdf
//

// Supported RINEX versions
type RinexVersion int

const (
	V2 RinexVersion = iota // 2.11
	V3                     // 3.03
)

func (v RinexVersion) String() string {
	if v == V2 {
		return "2.11"
	}
	return "3.03"
}

// Accepts "2", "2.11", "3", "3.03"
func (v *RinexVersion) UnmarshalText(text []byte) error {
	switch strings.TrimSpace(string(text)) {
	case "2", "2.11":
		*v = V2
	case "3", "3.03":
		*v = V3
	default:
		return fmt.Errorf("unsupported RINEX version '%s'", string(text))
	}
	return nil
}

// RINEX reader/writer
type Rinex struct {
	Agency   string
	Observer string
	logger   *logrus.Logger
	now      func() time.Time // Wall clock for the PGM / RUN BY / DATE record
}

func NewRinex(logger *logrus.Logger) *Rinex {
	return &Rinex{
		logger: orDiscard(logger),
		now:    time.Now,
	}
}

// Lines of a file with a read cursor
type lineReader struct {
	lines []string
	n     int
}

func (p *lineReader) next() (string, bool) {
	if p.n >= len(p.lines) {
		return "", false
	}
	l := p.lines[p.n]
	p.n++
	return l, true
}

// Line number of the line returned last
func (p *lineReader) lineNo() int {
	return p.n
}

// Read all lines of a file. An over-long line is kept as an empty line.
func readLines(fname string, log *logrus.Entry) (*lineReader, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIO, err.Error())
	}
	defer f.Close()
	lr := &lineReader{}
	err = eachLine(f, func(line string, tooLong bool) {
		if tooLong {
			log.WithField("line", len(lr.lines)+1).Warn("line too long in navigation file")
		}
		lr.lines = append(lr.lines, line)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIO, err.Error())
	}
	return lr, nil
}

// Read a navigation file and add its ephemerides, ionosphere and UTC data of the
// given constellation to the receiver.
func (r *Rinex) ReadNavigationFile(rx *Receiver, c Constellation, fname string) error {
	log := r.logger.WithField("file", fname)

	fi, err := os.Stat(fname)
	if err != nil {
		log.WithError(err).Error("unable to stat the navigation file")
		return fmt.Errorf("%w: %s", ErrIO, err.Error())
	}
	if fi.IsDir() {
		log.Error("navigation file is not a regular file")
		return fmt.Errorf("%w: %s is not a regular file", ErrIO, fname)
	}
	lr, err := readLines(fname, log)
	if err != nil {
		log.WithError(err).Error("unable to read the navigation file")
		return err
	}

	// First, determine the version
	ver := -1.0
	for _, l := range lr.lines {
		if strings.Contains(l, "RINEX VERSION") {
			ver = colFloat(l, 1, 9)
			break
		}
	}
	if ver < 0 {
		log.Error("unable to determine the RINEX version")
		return fmt.Errorf("%w: no RINEX VERSION record in %s", ErrFormat, fname)
	}
	log.WithField("version", ver).Debug("RINEX version")

	switch {
	case ver < 3:
		err = r.readV2NavigationFile(rx, c, lr, log)
	case ver < 4:
		err = r.readV3NavigationFile(rx, c, lr, log)
	default:
		err = fmt.Errorf("%w: unsupported RINEX version %.2f", ErrFormat, ver)
	}
	if err != nil {
		log.WithError(err).Error("failed to read the navigation file")
		return err
	}
	log.WithFields(logrus.Fields{
		"gps":    rx.GPS.Ephemeris.Len(),
		"beidou": rx.BeiDou.Ephemeris.Len(),
	}).Info("navigation file read")
	return nil
}

// Header values gathered for one constellation
type navHeader struct {
	alpha, beta bool
	iono        IonoModel
	utc         UTCModel
	leap        bool
}

func (h *navHeader) parseLeapSeconds(line string) {
	h.utc.DtLS = colInt(line, 1, 6)
	h.utc.DtLSF = colInt(line, 7, 6)
	h.utc.WNLSF = colInt(line, 13, 6)
	h.utc.DN = colInt(line, 19, 6)
	if h.utc.DtLSF == 0 {
		// No schedule given
		h.utc.DtLSF = h.utc.DtLS
	}
	h.leap = true
}

// Lock the header models into the receiver
func (h *navHeader) apply(rx *Receiver, c Constellation) {
	var iono *Latch[IonoModel]
	var utc *Latch[UTCModel]
	switch c {
	case GPS:
		iono, utc = &rx.GPS.Iono, &rx.GPS.UTC
	case BeiDou:
		iono, utc = &rx.BeiDou.Iono, &rx.BeiDou.UTC
	default:
		return
	}
	if h.alpha && h.beta {
		iono.Lock(h.iono)
	}
	if h.leap {
		rx.LeapSecs = h.utc.DtLS
		if h.utc.Valid() {
			utc.Lock(h.utc)
		}
	}
}

func (r *Rinex) readV2NavigationFile(rx *Receiver, c Constellation, lr *lineReader, log *logrus.Entry) error {
	if c != GPS {
		return fmt.Errorf("%w: RINEX 2 navigation data for %s is not supported", ErrFormat, c)
	}

	h := &navHeader{}
	done := false
	for !done {
		line, ok := lr.next()
		if !ok {
			return fmt.Errorf("%w: no END OF HEADER", ErrFormat)
		}
		switch getHeaderLabel(line) {
		case "ION ALPHA":
			for i := range h.iono.Alpha {
				h.iono.Alpha[i] = colFloat(line, 3+12*i, 12)
			}
			h.alpha = true
			log.WithField("alpha", h.iono.Alpha).Trace("read ION ALPHA")
		case "ION BETA":
			for i := range h.iono.Beta {
				h.iono.Beta[i] = colFloat(line, 3+12*i, 12)
			}
			h.beta = true
			log.WithField("beta", h.iono.Beta).Trace("read ION BETA")
		case "DELTA-UTC: A0,A1,T,W":
			h.utc.A0 = colFloat(line, 4, 19)
			h.utc.A1 = colFloat(line, 23, 19)
			h.utc.Tot = colInt(line, 42, 9)
			h.utc.WNt = colInt(line, 51, 9)
		case "LEAP SECONDS":
			h.parseLeapSeconds(line)
			log.WithField("leapsecs", h.utc.DtLS).Trace("read LEAP SECONDS")
		case "END OF HEADER":
			done = true
		}
	}
	h.apply(rx, c)

	for {
		ed, ok := r.getGPSEphemeris(V2, lr, log)
		if !ok {
			break
		}
		if ed != nil {
			r.addGPSEphemeris(rx, ed, log)
		}
	}
	return nil
}

func (r *Rinex) readV3NavigationFile(rx *Receiver, c Constellation, lr *lineReader, log *logrus.Entry) error {
	if !c.Implemented() {
		return fmt.Errorf("%w: %s navigation records are not supported", ErrFormat, c)
	}

	// Header labels differ by constellation
	ionoA, ionoB, timeCorr := "GPSA", "GPSB", "GPUT"
	if c == BeiDou {
		ionoA, ionoB, timeCorr = "BDSA", "BDSB", "BDUT"
	}

	h := &navHeader{}
	done := false
	for !done {
		line, ok := lr.next()
		if !ok {
			return fmt.Errorf("%w: no END OF HEADER", ErrFormat)
		}
		switch getHeaderLabel(line) {
		case "RINEX VERSION / TYPE":
			sys := column(line, 41, 1)
			if sys != "" && sys != " " && sys != "M" {
				if fc, ok := ConstellationFromSys(sys[0]); !ok || fc != c {
					return fmt.Errorf("%w: no data for satellite system %s", ErrFormat, sys)
				}
			}
		case "IONOSPHERIC CORR":
			switch column(line, 1, 4) {
			case ionoA:
				for i := range h.iono.Alpha {
					h.iono.Alpha[i] = colFloat(line, 6+12*i, 12)
				}
				h.alpha = true
			case ionoB:
				for i := range h.iono.Beta {
					h.iono.Beta[i] = colFloat(line, 6+12*i, 12)
				}
				h.beta = true
			}
		case "TIME SYSTEM CORR":
			if column(line, 1, 4) == timeCorr {
				h.utc.A0 = colFloat(line, 6, 17)
				h.utc.A1 = colFloat(line, 23, 16)
				h.utc.Tot = colInt(line, 39, 7)
				h.utc.WNt = colInt(line, 46, 5) // Full week number
			}
		case "LEAP SECONDS":
			h.parseLeapSeconds(line)
			log.WithField("leapsecs", h.utc.DtLS).Trace("read LEAP SECONDS")
		case "END OF HEADER":
			done = true
		}
	}
	h.apply(rx, c)

	for {
		line, ok := lr.next()
		if !ok || isBlank(line) || len(line) < navRecordMinLen {
			break
		}
		sc, ok := ConstellationFromSys(line[0])
		if !ok {
			log.WithFields(logrus.Fields{"line": lr.lineNo(), "sys": string(line[0])}).Warn("unknown satellite system, navigation data skipped")
			break
		}
		if sc != c {
			// Foreign system: skip the rest of its record
			for i := 0; i < sc.NavLines()-1; i++ {
				lr.next()
			}
			continue
		}
		switch c {
		case GPS:
			ed, ok := r.parseGPSEphemeris(V3, line, lr, log)
			if !ok {
				return nil
			}
			r.addGPSEphemeris(rx, ed, log)
		case BeiDou:
			ed, ok := r.parseBeiDouEphemeris(line, lr, log)
			if !ok {
				return nil
			}
			if !rx.BeiDou.Ephemeris.Insert(ed) {
				log.WithFields(logrus.Fields{"svn": ed.SVN, "toe": ed.Toe}).Debug("ephemeris: duplicate")
			}
		}
	}
	return nil
}

func (r *Rinex) addGPSEphemeris(rx *Receiver, ed *GPSEphemeris, log *logrus.Entry) {
	if !rx.GPS.Ephemeris.Insert(ed) {
		log.WithFields(logrus.Fields{"svn": ed.SVN, "toe": ed.Toe}).Debug("ephemeris: duplicate")
	}
}

// Record header lines shorter than this end the data section
const navRecordMinLen = 78

// Read the next GPS record of a RINEX 2 file. ok is false at the end of data.
func (r *Rinex) getGPSEphemeris(ver RinexVersion, lr *lineReader, log *logrus.Entry) (*GPSEphemeris, bool) {
	line, ok := lr.next()
	if !ok || isBlank(line) || len(line) < navRecordMinLen {
		return nil, false
	}
	return r.parseGPSEphemeris(ver, line, lr, log)
}

// Broadcast orbit lines: 4 fields of 19 columns
func getOrbitLines(lr *lineReader, startCol int) ([7][4]float64, bool) {
	var v [7][4]float64
	for i := range v {
		line, ok := lr.next()
		if !ok {
			return v, false
		}
		for k := 0; k < 4; k++ {
			v[i][k] = colFloat(line, startCol+19*k, 19)
		}
	}
	return v, true
}

func (r *Rinex) parseGPSEphemeris(ver RinexVersion, line string, lr *lineReader, log *logrus.Entry) (*GPSEphemeris, bool) {
	ed := &GPSEphemeris{}
	var year, mon, mday, hour, mins int
	var secs float64
	startCol := 5
	if ver == V2 {
		// I2,5I3,F5.1,3D19.12
		startCol = 4
		ed.SVN = colInt(line, 1, 2)
		year = colInt(line, 3, 3)
		mon = colInt(line, 6, 3)
		mday = colInt(line, 9, 3)
		hour = colInt(line, 12, 3)
		mins = colInt(line, 15, 3)
		secs = colFloat(line, 18, 5)
		ed.Af0 = colFloat(line, 23, 19)
		ed.Af1 = colFloat(line, 42, 19)
		ed.Af2 = colFloat(line, 61, 19)
	} else {
		// A1,I2.2,1X,I4,5(1X,I2.2),3D19.12
		ed.SVN = colInt(line, 2, 2)
		year = colInt(line, 5, 4)
		mon = colInt(line, 9, 3)
		mday = colInt(line, 12, 3)
		hour = colInt(line, 15, 3)
		mins = colInt(line, 18, 3)
		secs = colFloat(line, 21, 3)
		ed.Af0 = colFloat(line, 24, 19)
		ed.Af1 = colFloat(line, 43, 19)
		ed.Af2 = colFloat(line, 62, 19)
	}
	log.WithFields(logrus.Fields{"svn": ed.SVN, "hour": hour, "min": mins, "sec": secs}).Trace("ephemeris")

	v, ok := getOrbitLines(lr, startCol)
	if !ok {
		log.WithFields(logrus.Fields{"svn": ed.SVN, "line": lr.lineNo()}).Warn("truncated navigation record")
		return nil, false
	}
	ed.IODE, ed.Crs, ed.DeltaN, ed.M0 = int(v[0][0]), v[0][1], v[0][2], v[0][3]
	ed.Cuc, ed.Ecc, ed.Cus, ed.SqrtA = v[1][0], v[1][1], v[1][2], v[1][3]
	ed.Toe, ed.Cic, ed.Omega0, ed.Cis = v[2][0], v[2][1], v[2][2], v[2][3]
	ed.I0, ed.Crc, ed.Omega, ed.OmegaDot = v[3][0], v[3][1], v[3][2], v[3][3]
	ed.Idot = v[4][0]
	week := int(v[4][2]) // Full week number
	ed.Accuracy, ed.Health, ed.Tgd, ed.IODC = v[5][0], int(v[5][1]), v[5][2], int(v[5][3])
	ed.URA = URAIndex(ed.Accuracy)
	ed.TEphem = v[6][0]

	// Two digit years take the century of the ephemeris week
	if year < 100 {
		wt := gpsEpoch.AddDate(0, 0, 7*week)
		year += (wt.Year() / 100) * 100
	}
	// Calendar fields are GPS time
	t := time.Date(year, time.Month(mon), mday, hour, mins, 0, 0, time.UTC)
	ed.Toc = secs + float64(mins*60+hour*3600+int(t.Weekday())*SECS_PER_DAY)

	ed.Week = week % GPS_WEEK_MODULO
	return ed, true
}

func (r *Rinex) parseBeiDouEphemeris(line string, lr *lineReader, log *logrus.Entry) (*BeiDouEphemeris, bool) {
	ed := &BeiDouEphemeris{
		SVN:  colInt(line, 2, 2),
		Year: colInt(line, 5, 4),
		Mon:  colInt(line, 9, 3),
		Mday: colInt(line, 12, 3),
		Hour: colInt(line, 15, 3),
		Min:  colInt(line, 18, 3),
		Sec:  colInt(line, 21, 3),
		A0:   colFloat(line, 24, 19),
		A1:   colFloat(line, 43, 19),
		A2:   colFloat(line, 62, 19),
	}
	log.WithFields(logrus.Fields{"svn": ed.SVN, "hour": ed.Hour, "min": ed.Min, "sec": ed.Sec}).Trace("ephemeris")

	v, ok := getOrbitLines(lr, 5)
	if !ok {
		log.WithFields(logrus.Fields{"svn": ed.SVN, "line": lr.lineNo()}).Warn("truncated navigation record")
		return nil, false
	}
	ed.AODE, ed.Crs, ed.DeltaN, ed.M0 = v[0][0], v[0][1], v[0][2], v[0][3]
	ed.Cuc, ed.Ecc, ed.Cus, ed.SqrtA = v[1][0], v[1][1], v[1][2], v[1][3]
	ed.Toe, ed.Cic, ed.Omega0, ed.Cis = v[2][0], v[2][1], v[2][2], v[2][3]
	ed.I0, ed.Crc, ed.Omega, ed.OmegaDot = v[3][0], v[3][1], v[3][2], v[3][3]
	ed.Idot, ed.WN = v[4][0], int(v[4][2])
	ed.URAI, ed.SatH1, ed.Tgd1, ed.Tgd2 = v[5][0], v[5][1], v[5][2], v[5][3]
	ed.TxE, ed.AODC = v[6][0], v[6][1]
	return ed, true
}

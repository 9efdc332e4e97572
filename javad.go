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

// Reader of a vendor receiver log for one day
type LogReader interface {
	ReadLog(fname string, mjd int) (LogStats, error)
}

// Summary of one log file
type LogStats struct {
	Lines        int
	Measurements int
	Ephemerides  int
	Skipped      int // Malformed lines and dropped messages
}

// Javad GREIS message ids and payload lengths [bytes]
const (
	msgIono     = "IO"
	msgUTC      = "UO"
	msgGPSEphem = "GE"
	msgRcvTime  = "~~"
	msgEpochEnd = "::"
	lenIono     = 39
	lenUTC      = 24
	lenGPSEphem = 123
	lenRcvTime  = 5
	lenEpochEnd = 1
)

// IO: ionosphere parameters
var ioLayout = struct {
	Tot, Wn                        field
	Alpha0, Alpha1, Alpha2, Alpha3 field
	Beta0, Beta1, Beta2, Beta3     field
}{
	Tot: field{0, U4}, Wn: field{4, U2},
	Alpha0: field{6, F4}, Alpha1: field{10, F4}, Alpha2: field{14, F4}, Alpha3: field{18, F4},
	Beta0: field{22, F4}, Beta1: field{26, F4}, Beta2: field{30, F4}, Beta3: field{34, F4},
}

// UO: GPS UTC parameters
var uoLayout = struct {
	A0, A1, Tot, Wnt, DtLS, DN, WnLSF, DtLSF field
}{
	A0: field{0, F8}, A1: field{8, F4}, Tot: field{12, U4}, Wnt: field{16, U2},
	DtLS: field{18, I1}, DN: field{19, U1}, WnLSF: field{20, U2}, DtLSF: field{22, I1},
}

// GE: GPS ephemeris. Angles and angular rates are in semicircles.
var geLayout = struct {
	SV, Tow, Flags                                 field
	IODC, Toc, URA, Health, Wn, Tgd, Af2, Af1, Af0 field
	Toe, IODE                                      field
	RootA, Ecc, M0, Omega0, Inc0, ArgPer           field
	DeltaN, OmegaDot, IncDot                       field
	Crc, Crs, Cuc, Cus, Cic, Cis                   field
}{
	SV: field{0, U1}, Tow: field{1, U4}, Flags: field{5, U1},
	IODC: field{6, I2}, Toc: field{8, I4}, URA: field{12, I1}, Health: field{13, U1}, Wn: field{14, I2},
	Tgd: field{16, F4}, Af2: field{20, F4}, Af1: field{24, F4}, Af0: field{28, F4},
	Toe: field{32, I4}, IODE: field{36, I2},
	RootA: field{38, F8}, Ecc: field{46, F8}, M0: field{54, F8}, Omega0: field{62, F8}, Inc0: field{70, F8}, ArgPer: field{78, F8},
	DeltaN: field{86, F4}, OmegaDot: field{90, F4}, IncDot: field{94, F4},
	Crc: field{98, F4}, Crs: field{102, F4}, Cuc: field{106, F4}, Cus: field{110, F4}, Cic: field{114, F4}, Cis: field{118, F4},
}

// ~~: receiver time
var rtLayout = struct{ Tod field }{Tod: field{0, U4}}

// Javad receiver log reader. Fills the GPS navigation data of the receiver.
type Javad struct {
	rx     *Receiver
	logger *logrus.Logger
}

func NewJavad(rx *Receiver, logger *logrus.Logger) *Javad {
	rx.Manufacturer = "Javad"
	rx.Constellations |= GPS
	return &Javad{rx: rx, logger: orDiscard(logger)}
}

type parseState int

const (
	stateIdle parseState = iota
	stateCollectingEpoch
)

// Line scanner state
type javadScan struct {
	mjd   int
	state parseState
	epoch *ReceiverMeasurement
	stats LogStats
	meas  []*ReceiverMeasurement
	rxID  bool
}

// Read one day of receiver log. Message level problems are logged and skipped;
// only failure to open the file is returned as an error.
func (j *Javad) ReadLog(fname string, mjd int) (LogStats, error) {
	j.logger.WithField("file", fname).Info("reading receiver log")

	fi, err := os.Stat(fname)
	if err != nil {
		j.logger.WithError(err).Error("unable to stat receiver log")
		return LogStats{}, fmt.Errorf("%w: %s", ErrIO, err.Error())
	}
	if fi.IsDir() {
		j.logger.WithField("file", fname).Error("receiver log is not a regular file")
		return LogStats{}, fmt.Errorf("%w: %s is not a regular file", ErrIO, fname)
	}
	f, err := os.Open(fname)
	if err != nil {
		j.logger.WithError(err).Error("unable to open receiver log")
		return LogStats{}, fmt.Errorf("%w: %s", ErrIO, err.Error())
	}
	defer f.Close()

	sc := &javadScan{mjd: mjd}
	err = eachLine(f, func(line string, tooLong bool) {
		sc.stats.Lines++
		if tooLong {
			j.logger.WithField("line", sc.stats.Lines).Warn("line too long in receiver log")
			sc.stats.Skipped++
			j.resetEpoch(sc)
			return
		}
		j.processLine(sc, line)
	})
	if err != nil {
		// Lines read so far are kept
		j.logger.WithError(err).WithField("line", sc.stats.Lines).Warn("receiver log read stopped")
	}

	j.rx.Measurements = append(j.rx.Measurements, sc.meas...)
	sc.stats.Measurements = len(sc.meas)
	j.logger.WithFields(logrus.Fields{
		"lines":        sc.stats.Lines,
		"measurements": sc.stats.Measurements,
		"ephemerides":  sc.stats.Ephemerides,
		"skipped":      sc.stats.Skipped,
	}).Info("done reading receiver log")
	return sc.stats, nil
}

func (j *Javad) processLine(sc *javadScan, line string) {
	if len(strings.TrimSpace(line)) == 0 {
		return
	}
	switch line[0] {
	case '#', '%':
		return
	case '@':
		if !sc.rxID {
			// The receiver id line is optional
			sc.rxID = true
			j.logger.WithField("id", strings.TrimSpace(line[1:])).Debug("receiver id")
		}
		return
	}

	la := strings.Fields(line)
	if len(la) != 3 {
		j.logger.WithField("line", sc.stats.Lines).Warn("bad data in receiver log")
		sc.stats.Skipped++
		j.resetEpoch(sc)
		return
	}
	msgid, msg := la[0], la[2]

	switch msgid {
	case msgIono:
		j.decodeIono(sc, msg)
	case msgUTC:
		j.decodeUTC(sc, msg)
	case msgGPSEphem:
		j.decodeGPSEphemeris(sc, msg)
	case msgRcvTime:
		j.decodeRcvTime(sc, msg)
	case msgEpochEnd:
		j.decodeEpochEnd(sc, msg)
	}
}

// Check payload length of a recognised message
func (j *Javad) checkSize(sc *javadScan, msgid, msg string, n int) bool {
	if len(msg) != 2*n {
		j.logger.WithFields(logrus.Fields{
			"line":     sc.stats.Lines,
			"msg":      msgid,
			"size":     len(msg) / 2,
			"expected": n,
		}).Warn("bad message size")
		sc.stats.Skipped++
		return false
	}
	return true
}

func (j *Javad) resetEpoch(sc *javadScan) {
	sc.state = stateIdle
	sc.epoch = nil
}

func (j *Javad) decodeIono(sc *javadScan, msg string) {
	if !j.checkSize(sc, msgIono, msg, lenIono) {
		return
	}
	m := newHexMessage(msg)
	l := ioLayout
	iono := IonoModel{
		Alpha: [4]float64{m.Float(l.Alpha0), m.Float(l.Alpha1), m.Float(l.Alpha2), m.Float(l.Alpha3)},
		Beta:  [4]float64{m.Float(l.Beta0), m.Float(l.Beta1), m.Float(l.Beta2), m.Float(l.Beta3)},
	}
	if err := m.Err(); err != nil {
		j.logger.WithError(err).WithField("line", sc.stats.Lines).Warn("bad ionosphere message")
		sc.stats.Skipped++
		return
	}
	if j.rx.GPS.Iono.Lock(iono) {
		j.logger.WithField("a0", iono.Alpha[0]).Debug("ionosphere parameters")
	}
}

func (j *Javad) decodeUTC(sc *javadScan, msg string) {
	if !j.checkSize(sc, msgUTC, msg, lenUTC) {
		return
	}
	m := newHexMessage(msg)
	l := uoLayout
	utc := UTCModel{
		A0:    m.Float(l.A0),
		A1:    m.Float(l.A1),
		Tot:   m.Int(l.Tot),
		WNt:   m.Int(l.Wnt),
		DtLS:  m.Int(l.DtLS),
		DN:    m.Int(l.DN),
		WNLSF: m.Int(l.WnLSF),
		DtLSF: m.Int(l.DtLSF),
	}
	if err := m.Err(); err != nil {
		j.logger.WithError(err).WithField("line", sc.stats.Lines).Warn("bad UTC message")
		sc.stats.Skipped++
		return
	}
	j.logger.WithFields(logrus.Fields{"dtLS": utc.DtLS, "dtLSF": utc.DtLSF}).Debug("UTC parameters")
	if !utc.Valid() || !j.rx.GPS.UTC.Lock(utc) {
		return
	}
	j.rx.LeapSecs = ResolveLeapSeconds(utc, sc.mjd)
	j.logger.WithField("leapsecs", j.rx.LeapSecs).Debug("leap seconds resolved")
}

func (j *Javad) decodeGPSEphemeris(sc *javadScan, msg string) {
	if !j.checkSize(sc, msgGPSEphem, msg, lenGPSEphem) {
		return
	}
	m := newHexMessage(msg)
	l := geLayout
	ed := &GPSEphemeris{
		SVN:      m.Int(l.SV),
		TEphem:   float64(m.Int(l.Tow)),
		Flags:    m.Int(l.Flags),
		IODC:     m.Int(l.IODC),
		Toc:      float64(m.Int(l.Toc)),
		URA:      m.Int(l.URA),
		Health:   m.Int(l.Health),
		Week:     int(uint16(m.Int(l.Wn))) % GPS_WEEK_MODULO,
		Tgd:      m.Float(l.Tgd),
		Af2:      m.Float(l.Af2),
		Af1:      m.Float(l.Af1),
		Af0:      m.Float(l.Af0),
		Toe:      float64(m.Int(l.Toe)),
		IODE:     int(uint8(m.Int(l.IODE))),
		SqrtA:    m.Float(l.RootA),
		Ecc:      m.Float(l.Ecc),
		M0:       m.Semicircles(l.M0),
		Omega0:   m.Semicircles(l.Omega0),
		I0:       m.Semicircles(l.Inc0),
		Omega:    m.Semicircles(l.ArgPer),
		DeltaN:   m.Semicircles(l.DeltaN),
		OmegaDot: m.Semicircles(l.OmegaDot),
		Idot:     m.Semicircles(l.IncDot),
		Crc:      m.Float(l.Crc),
		Crs:      m.Float(l.Crs),
		Cuc:      m.Float(l.Cuc),
		Cus:      m.Float(l.Cus),
		Cic:      m.Float(l.Cic),
		Cis:      m.Float(l.Cis),
	}
	if err := m.Err(); err != nil {
		j.logger.WithError(err).WithField("line", sc.stats.Lines).Warn("bad GPS ephemeris message")
		sc.stats.Skipped++
		return
	}
	ed.Accuracy = URAValue(ed.URA)
	j.logger.WithFields(logrus.Fields{"svn": ed.SVN, "toe": ed.Toe, "iode": ed.IODE}).Trace("ephemeris")
	if !j.rx.GPS.Ephemeris.Insert(ed) {
		j.logger.WithFields(logrus.Fields{"svn": ed.SVN, "toe": ed.Toe}).Debug("ephemeris: duplicate")
		return
	}
	sc.stats.Ephemerides++
}

// Receiver time opens a new epoch
func (j *Javad) decodeRcvTime(sc *javadScan, msg string) {
	if !j.checkSize(sc, msgRcvTime, msg, lenRcvTime) {
		j.resetEpoch(sc)
		return
	}
	m := newHexMessage(msg)
	tod := m.Int(rtLayout.Tod)
	if err := m.Err(); err != nil {
		j.logger.WithError(err).WithField("line", sc.stats.Lines).Warn("bad receiver time message")
		sc.stats.Skipped++
		j.resetEpoch(sc)
		return
	}
	ms := tod % (SECS_PER_DAY * 1000)
	sc.epoch = &ReceiverMeasurement{
		TmGPS:    MJDToTime(sc.mjd).Add(time.Duration(ms/1000) * time.Second),
		FracSecs: float64(ms%1000) / 1000,
		Flags:    FlagClock,
	}
	sc.state = stateCollectingEpoch
}

// Epoch end closes the open epoch
func (j *Javad) decodeEpochEnd(sc *javadScan, msg string) {
	if sc.state != stateCollectingEpoch {
		return
	}
	if !j.checkSize(sc, msgEpochEnd, msg, lenEpochEnd) {
		j.resetEpoch(sc)
		return
	}
	sc.meas = append(sc.meas, sc.epoch)
	j.resetEpoch(sc)
}

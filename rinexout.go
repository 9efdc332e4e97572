// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

package gorinex

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Observation type of an observation file column
type obsType struct {
	code  ObsCode
	label string
}

// Observation types listed in a RINEX 2 header. GLONASS needs C1.
func obsTypesV2(rx *Receiver) []obsType {
	var types []obsType
	codes := rx.Codes
	if rx.Constellations.Has(GLONASS) {
		codes |= C1
	}
	for _, c := range allObsCodes {
		if codes.Has(c) {
			types = append(types, obsType{c, c.String()})
		}
	}
	return types
}

// Observation types of one system in a RINEX 3 header
func obsTypesV3(rx *Receiver, c Constellation) []obsType {
	switch c {
	case GPS:
		var types []obsType
		for _, t := range []obsType{{C1, "C1C"}, {P1, "C1P"}, {P2, "C2P"}, {L1, "L1C"}} {
			if rx.Codes.Has(t.code) {
				types = append(types, t)
			}
		}
		return types
	case BeiDou:
		return []obsType{{C1, "C2X"}}
	case GLONASS:
		return []obsType{{C1, "C1C"}}
	case Galileo:
		return []obsType{{C1, "C1Z"}}
	}
	return nil
}

// RINEX observation file system identifier
func obsFileSys(c Constellation) byte {
	switch c {
	case GPS, GLONASS, Galileo, BeiDou:
		return c.Sys()
	}
	return 'M'
}

// LLI and signal strength flags of an observation. Zero values are written as blanks.
func formatFlags(lli, sn int) string {
	f := []byte("  ")
	if lli > 0 && lli <= 9 {
		f[0] = byte('0' + lli)
	}
	if sn > 0 && sn <= 9 {
		f[1] = byte('0' + sn)
	}
	return string(f)
}

func (r *Rinex) pgmDate(ver RinexVersion) string {
	now := r.now().UTC()
	if ver == V2 {
		return now.Format("02-Jan-06 15:04:05")
	}
	return now.Format("20060102 150405") + " UTC"
}

func (r *Rinex) writePgmRunBy(w io.Writer, ver RinexVersion) {
	fmt.Fprintf(w, "%-20.20s%-20.20s%-20.20s%-20s\n", APP_NAME, r.Agency, r.pgmDate(ver), "PGM / RUN BY / DATE")
}

// Create the output file and run write on it. The file is closed on every path.
func writeFile(fname string, write func(w *bufio.Writer) error) error {
	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrIO, err.Error())
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %s", ErrIO, err.Error())
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s", ErrIO, err.Error())
	}
	return nil
}

// Measurement at second of day curr, or nil
func measAt(meas []*ReceiverMeasurement, curr int) *ReceiverMeasurement {
	if curr < 0 || curr >= len(meas) {
		return nil
	}
	return meas[curr]
}

// Walk the eligible epochs falling on the interval grid and call fn for each.
// fn returns false to stop.
func scheduleEpochs(meas []*ReceiverMeasurement, interval int, fn func(rm *ReceiverMeasurement) bool) {
	obsTime, curr := 0, 0
	for curr < SECS_PER_DAY && curr < len(meas) && obsTime < SECS_PER_DAY {
		rm := measAt(meas, curr)
		if !rm.Eligible() {
			curr++
			continue
		}
		tMeas := rm.TimeOfDay()
		switch {
		case tMeas == obsTime:
			if !fn(rm) {
				return
			}
			curr++
			obsTime += interval
		case tMeas < obsTime:
			curr++
		default:
			obsTime += interval
		}
	}
}

// First epoch that will be written, or nil
func firstEpoch(meas []*ReceiverMeasurement, interval int) *ReceiverMeasurement {
	var first *ReceiverMeasurement
	scheduleEpochs(meas, interval, func(rm *ReceiverMeasurement) bool {
		first = rm
		return false
	})
	return first
}

// Satellite of an epoch
type satKey struct {
	c   Constellation
	svn int
}

func (k satKey) String() string {
	return fmt.Sprintf("%c%02d", k.c.Sys(), k.svn)
}

// Distinct satellites of an epoch in first seen order
func epochSatellites(rm *ReceiverMeasurement) []satKey {
	var sats []satKey
	for _, m := range rm.Meas {
		k := satKey{m.Constellation, m.SVN}
		if !slices.Contains(sats, k) {
			sats = append(sats, k)
		}
	}
	return sats
}

// Write one day of observations at the given interval [s].
// meas is in time order, usually one slot per second of day with nil for missing seconds.
// Only epochs with both clock and 1PPS data are written.
func (r *Rinex) WriteObservationFile(ant *Antenna, cntr *Counter, rx *Receiver, ver RinexVersion, fname string, mjd, interval int, meas []*ReceiverMeasurement, ticEnabled bool) error {
	log := r.logger.WithField("file", fname)
	if interval <= 0 {
		log.WithField("interval", interval).Error("observation interval must be positive")
		return fmt.Errorf("%w: observation interval %d", ErrData, interval)
	}
	if ant == nil {
		ant = &Antenna{}
	}

	nepochs := 0
	err := writeFile(fname, func(w *bufio.Writer) error {
		r.writeObservationHeader(w, ant, cntr, rx, ver, meas, interval, ticEnabled)

		useTIC := 0.0
		if ticEnabled {
			useTIC = 1.0
		}
		scheduleEpochs(meas, interval, func(rm *ReceiverMeasurement) bool {
			ppsTime := useTIC * (rm.TIC + rm.Sawtooth - rx.PPSOffset*1e-9)
			r.writeObservationEpoch(w, rx, ver, rm, ppsTime)
			nepochs++
			return true
		})
		return nil
	})
	if err != nil {
		log.WithError(err).Error("failed to write the observation file")
		return err
	}
	log.WithFields(logrus.Fields{"mjd": mjd, "epochs": nepochs}).Info("observation file written")
	return nil
}

func (r *Rinex) writeObservationHeader(w io.Writer, ant *Antenna, cntr *Counter, rx *Receiver, ver RinexVersion, meas []*ReceiverMeasurement, interval int, ticEnabled bool) {
	fmt.Fprintf(w, "%9s%11s%-20s%c%-19s%-20s\n", ver, "", "O", obsFileSys(rx.Constellations), "", "RINEX VERSION / TYPE")
	r.writePgmRunBy(w, ver)
	if ticEnabled && cntr != nil && cntr.Model != "" {
		fmt.Fprintf(w, "%-60.60s%-20s\n", "1PPS measured with "+cntr.Model, "COMMENT")
	}
	fmt.Fprintf(w, "%-60.60s%-20s\n", ant.MarkerName, "MARKER NAME")
	fmt.Fprintf(w, "%-20.20s%40s%-20s\n", ant.MarkerNumber, "", "MARKER NUMBER")
	fmt.Fprintf(w, "%-20.20s%-40.40s%-20s\n", r.Observer, r.Agency, "OBSERVER / AGENCY")
	fmt.Fprintf(w, "%-20.20s%-20.20s%-20.20s%-20s\n", rx.SerialNumber, rx.Manufacturer+" "+rx.ModelName, rx.Version, "REC # / TYPE / VERS")
	fmt.Fprintf(w, "%-20.20s%-20.20s%20s%-20s\n", ant.AntennaNumber, ant.AntennaType, "", "ANT # / TYPE")
	fmt.Fprintf(w, "%14.4f%14.4f%14.4f%-18s%-20s\n", ant.X, ant.Y, ant.Z, "", "APPROX POSITION XYZ")
	fmt.Fprintf(w, "%14.4f%14.4f%14.4f%-18s%-20s\n", ant.DeltaH, ant.DeltaE, ant.DeltaN, "", "ANTENNA: DELTA H/E/N")

	if ver == V2 {
		types := obsTypesV2(rx)
		s := ""
		for _, t := range types {
			s += fmt.Sprintf("%6s", t.label)
		}
		fmt.Fprintf(w, "%6d%-54s%-20s\n", len(types), s, "# / TYPES OF OBSERV")
	} else {
		for _, c := range []Constellation{GPS, GLONASS, Galileo, BeiDou} {
			if !rx.Constellations.Has(c) {
				continue
			}
			types := obsTypesV3(rx, c)
			s := ""
			for _, t := range types {
				s += " " + t.label
			}
			fmt.Fprintf(w, "%c  %3d%-54s%-20s\n", c.Sys(), len(types), s, "SYS / # / OBS TYPES")
		}
	}
	fmt.Fprintf(w, "%10.3f%50s%-20s\n", float64(interval), "", "INTERVAL")

	if first := firstEpoch(meas, interval); first != nil {
		t := first.TmGPS
		fmt.Fprintf(w, "%6d%6d%6d%6d%6d%13.7f%-5s%3s%-9s%-20s\n",
			t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), float64(t.Second())+first.FracSecs,
			"", "GPS", "", "TIME OF FIRST OBS")
	} else {
		fmt.Fprintf(w, "%43s%-5s%3s%-9s%-20s\n", "", "", "GPS", "", "TIME OF FIRST OBS")
	}
	fmt.Fprintf(w, "%6d%54s%-20s\n", rx.LeapSecs, "", "LEAP SECONDS")
	fmt.Fprintf(w, "%60s%-20s\n", "", "END OF HEADER")
}

// Epoch record and its observation lines
func (r *Rinex) writeObservationEpoch(w io.Writer, rx *Receiver, ver RinexVersion, rm *ReceiverMeasurement, ppsTime float64) {
	t := rm.TmGPS
	sec := float64(t.Second()) + rm.FracSecs
	sats := epochSatellites(rm)

	if ver == V2 {
		fmt.Fprintf(w, " %02d %2d %2d %2d %2d%11.7f  %1d%3d", t.Year()%100, int(t.Month()), t.Day(), t.Hour(), t.Minute(), sec, rm.EpochFlag, len(sats))
		for i, s := range sats {
			fmt.Fprintf(w, "%s", s)
			if (i+1)%12 == 0 && i+1 < len(sats) {
				fmt.Fprintf(w, "\n%32s", "")
			}
		}
		fmt.Fprintf(w, "\n")
	} else {
		fmt.Fprintf(w, "> %4d %02d %02d %02d %02d%11.7f  %1d%3d%6s%15.12f\n", t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), sec, rm.EpochFlag, len(sats), "", 0.0)
	}

	v2types := obsTypesV2(rx)
	for _, s := range sats {
		types := v2types
		if ver == V3 {
			fmt.Fprintf(w, "%s", s)
			types = obsTypesV3(rx, s.c)
		}
		for _, ot := range types {
			if ot.code == L2 {
				// L2 is listed in the header but not recorded
				continue
			}
			m := rm.Find(s.c, s.svn, ot.code)
			if m == nil {
				fmt.Fprintf(w, "%16s", "")
				continue
			}
			v := m.Meas
			if ot.code == C1 || ot.code == P1 || ot.code == P2 {
				v = (m.Meas + ppsTime) * C
			}
			fmt.Fprintf(w, "%14.3f%s", v, formatFlags(m.LLI, m.Signal))
		}
		fmt.Fprintf(w, "\n")
	}
}

// Write the navigation file of one constellation for the given day
func (r *Rinex) WriteNavigationFile(rx *Receiver, c Constellation, ver RinexVersion, fname string, mjd int) error {
	log := r.logger.WithFields(logrus.Fields{"file": fname, "constellation": c})

	var err error
	n := 0
	switch c {
	case GPS:
		n = rx.GPS.Ephemeris.Len()
		err = writeFile(fname, func(w *bufio.Writer) error {
			r.writeGPSNavigation(w, rx, ver, mjd)
			return nil
		})
	case BeiDou:
		if ver != V3 {
			log.WithField("version", ver).Error("BeiDou navigation data needs RINEX 3")
			return fmt.Errorf("%w: BeiDou navigation data needs RINEX 3", ErrFormat)
		}
		n = rx.BeiDou.Ephemeris.Len()
		err = writeFile(fname, func(w *bufio.Writer) error {
			r.writeBeiDouNavigation(w, rx)
			return nil
		})
	default:
		log.Error("navigation data of this constellation is not supported")
		return fmt.Errorf("%w: %s navigation data is not supported", ErrFormat, c)
	}
	if err != nil {
		log.WithError(err).Error("failed to write the navigation file")
		return err
	}
	log.WithField("ephemerides", n).Info("navigation file written")
	return nil
}

func writeOrbitLine(w io.Writer, ver RinexVersion, a, b, c, d float64) {
	indent := "    "
	if ver == V2 {
		indent = "   "
	}
	fmt.Fprintf(w, "%s%19.12e%19.12e%19.12e%19.12e\n", indent, a, b, c, d)
}

func (r *Rinex) writeGPSNavigation(w io.Writer, rx *Receiver, ver RinexVersion, mjd int) {
	iono, _ := rx.GPS.Iono.Get()
	utc, _ := rx.GPS.UTC.Get()
	gpsWeek := GPSWeekFromMJD(mjd)

	if ver == V2 {
		fmt.Fprintf(w, "%9s%11s%1s%-39s%-20s\n", ver, "", "N", "", "RINEX VERSION / TYPE")
		r.writePgmRunBy(w, ver)
		a, b := iono.Alpha, iono.Beta
		fmt.Fprintf(w, "%2s%12.4e%12.4e%12.4e%12.4e%10s%-20s\n", "", a[0], a[1], a[2], a[3], "", "ION ALPHA")
		fmt.Fprintf(w, "%2s%12.4e%12.4e%12.4e%12.4e%10s%-20s\n", "", b[0], b[1], b[2], b[3], "", "ION BETA")
		fmt.Fprintf(w, "%3s%19.12e%19.12e%9d%9d %-20s\n", "", utc.A0, utc.A1, utc.Tot, gpsWeek, "DELTA-UTC: A0,A1,T,W")
	} else {
		fmt.Fprintf(w, "%9s%11s%-20s%-20s%-20s\n", ver, "", "N: GNSS NAV DATA", "G: GPS", "RINEX VERSION / TYPE")
		r.writePgmRunBy(w, ver)
		a, b := iono.Alpha, iono.Beta
		fmt.Fprintf(w, "GPSA %12.4e%12.4e%12.4e%12.4e%7s%-20s\n", a[0], a[1], a[2], a[3], "", "IONOSPHERIC CORR")
		fmt.Fprintf(w, "GPSB %12.4e%12.4e%12.4e%12.4e%7s%-20s\n", b[0], b[1], b[2], b[3], "", "IONOSPHERIC CORR")
		fmt.Fprintf(w, "GPUT %17.10e%16.9e%7d%5d %5s %2d %-20s\n", utc.A0, utc.A1, utc.Tot, gpsWeek, "", 0, "TIME SYSTEM CORR")
	}
	fmt.Fprintf(w, "%6d%54s%-20s\n", rx.LeapSecs, "", "LEAP SECONDS")
	fmt.Fprintf(w, "%60s%-20s\n", "", "END OF HEADER")

	wrc := NewGapRolloverCorrector()
	for _, ed := range rx.GPS.Ephemeris.All() {
		week := wrc.Correct(FullGPSWeek(ed.Week, mjd), ed.Toc)

		// Calendar date of Toc
		tm := (&GTime{Week: week, Sec: ed.Toc}).ToTime()
		tod := int(ed.Toc) % SECS_PER_DAY
		hour, mins, secs := tod/3600, (tod%3600)/60, tod%60

		if ver == V2 {
			fmt.Fprintf(w, "%02d %02d %02d %02d %02d %02d%5.1f%19.12e%19.12e%19.12e\n",
				ed.SVN, tm.Year()%100, int(tm.Month()), tm.Day(), hour, mins, float64(secs), ed.Af0, ed.Af1, ed.Af2)
		} else {
			fmt.Fprintf(w, "G%02d %4d %02d %02d %02d %02d %02d%19.12e%19.12e%19.12e\n",
				ed.SVN, tm.Year(), int(tm.Month()), tm.Day(), hour, mins, secs, ed.Af0, ed.Af1, ed.Af2)
		}
		writeOrbitLine(w, ver, float64(ed.IODE), ed.Crs, ed.DeltaN, ed.M0)
		writeOrbitLine(w, ver, ed.Cuc, ed.Ecc, ed.Cus, ed.SqrtA)
		writeOrbitLine(w, ver, ed.Toe, ed.Cic, ed.Omega0, ed.Cis)
		writeOrbitLine(w, ver, ed.I0, ed.Crc, ed.Omega, ed.OmegaDot)
		writeOrbitLine(w, ver, ed.Idot, 1.0, float64(week), 0.0)
		writeOrbitLine(w, ver, URAValue(ed.URA), float64(ed.Health), ed.Tgd, float64(ed.IODC))
		writeOrbitLine(w, ver, ed.TEphem, 4.0, 0.0, 0.0)
	}
}

// BeiDou records carry their own calendar epoch, so the target day is not needed
func (r *Rinex) writeBeiDouNavigation(w io.Writer, rx *Receiver) {
	iono, _ := rx.BeiDou.Iono.Get()
	utc, hasUTC := rx.BeiDou.UTC.Get()
	ver := V3

	fmt.Fprintf(w, "%9s%11s%-20s%-20s%-20s\n", ver, "", "N: GNSS NAV DATA", "C: BDS", "RINEX VERSION / TYPE")
	r.writePgmRunBy(w, ver)
	a, b := iono.Alpha, iono.Beta
	fmt.Fprintf(w, "BDSA %12.4e%12.4e%12.4e%12.4e%7s%-20s\n", a[0], a[1], a[2], a[3], "", "IONOSPHERIC CORR")
	fmt.Fprintf(w, "BDSB %12.4e%12.4e%12.4e%12.4e%7s%-20s\n", b[0], b[1], b[2], b[3], "", "IONOSPHERIC CORR")
	if hasUTC {
		fmt.Fprintf(w, "BDUT %17.10e%16.9e%7d%5d %5s %2d %-20s\n", utc.A0, utc.A1, utc.Tot, utc.WNt, "", 0, "TIME SYSTEM CORR")
	}
	fmt.Fprintf(w, "%6d%54s%-20s\n", rx.LeapSecs, "", "LEAP SECONDS")
	fmt.Fprintf(w, "%60s%-20s\n", "", "END OF HEADER")

	for _, ed := range rx.BeiDou.Ephemeris.All() {
		tm := ed.Epoch()
		fmt.Fprintf(w, "C%02d %4d %02d %02d %02d %02d %02d%19.12e%19.12e%19.12e\n",
			ed.SVN, tm.Year(), int(tm.Month()), tm.Day(), tm.Hour(), tm.Minute(), tm.Second(), ed.A0, ed.A1, ed.A2)
		writeOrbitLine(w, ver, ed.AODE, ed.Crs, ed.DeltaN, ed.M0)
		writeOrbitLine(w, ver, ed.Cuc, ed.Ecc, ed.Cus, ed.SqrtA)
		writeOrbitLine(w, ver, ed.Toe, ed.Cic, ed.Omega0, ed.Cis)
		writeOrbitLine(w, ver, ed.I0, ed.Crc, ed.Omega, ed.OmegaDot)
		writeOrbitLine(w, ver, ed.Idot, 0.0, float64(ed.WN), 0.0)
		writeOrbitLine(w, ver, ed.URAI, ed.SatH1, ed.Tgd1, ed.Tgd2)
		writeOrbitLine(w, ver, ed.TxE, ed.AODC, 0.0, 0.0)
	}
}

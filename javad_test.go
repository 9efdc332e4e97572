// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

package gorinex

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mjd20240930 = 60583

// Little-endian message payload builder
type payload []byte

func (p payload) u1(off int, v int) { p[off] = byte(v) }
func (p payload) u2(off int, v int) { binary.LittleEndian.PutUint16(p[off:], uint16(v)) }
func (p payload) u4(off int, v int) { binary.LittleEndian.PutUint32(p[off:], uint32(v)) }
func (p payload) f4(off int, v float64) { binary.LittleEndian.PutUint32(p[off:], math.Float32bits(float32(v))) }
func (p payload) f8(off int, v float64) { binary.LittleEndian.PutUint64(p[off:], math.Float64bits(v)) }

func (p payload) line(id string) string {
	return fmt.Sprintf("%s %03X %s", id, len(p), strings.ToUpper(hex.EncodeToString(p)))
}

func ioMessage(a0 float64) string {
	p := make(payload, lenIono)
	p.u4(0, 345600)
	p.u2(4, 286)
	for i, v := range []float64{a0, 1.49e-8, -5.96e-8, -1.19e-7} {
		p.f4(6+4*i, v)
	}
	for i, v := range []float64{8.6e4, 9.83e4, -6.55e4, -5.24e5} {
		p.f4(22+4*i, v)
	}
	return p.line(msgIono)
}

func uoMessage(dtls, dtlsf, wnlsf, dn int) string {
	p := make(payload, lenUTC)
	p.f8(0, 1.86e-9)
	p.f4(8, 8.88e-16)
	p.u4(12, 405504)
	p.u2(16, 2334)
	p.u1(18, dtls)
	p.u1(19, dn)
	p.u2(20, wnlsf)
	p.u1(22, dtlsf)
	return p.line(msgUTC)
}

func geMessage(svn, toe int) string {
	p := make(payload, lenGPSEphem)
	p.u1(0, svn)
	p.u4(1, toe-7200)
	p.u2(6, 300+svn)
	p.u4(8, toe)
	p.u1(12, 1)
	p.u2(14, 2334)
	p.f4(16, -1.1e-8)
	p.f4(28, 1.5e-4)
	p.u4(32, toe)
	p.u2(36, 0x1234) // Only the low byte is kept
	p.f8(38, 5153.6)
	p.f8(46, 0.01)
	p.f8(54, 0.5)
	p.f8(62, -0.25)
	p.f8(70, 0.3)
	p.f8(78, 1.0)
	p.f4(86, 1.5e-9)
	p.f4(90, -2.5e-9)
	p.f4(94, 1e-10)
	p.f4(98, 250.0)
	return p.line(msgGPSEphem)
}

func rtMessage(ms int) string {
	p := make(payload, lenRcvTime)
	p.u4(0, ms)
	return p.line(msgRcvTime)
}

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "rcv.log")
	require.NoError(t, os.WriteFile(fn, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return fn
}

func TestJavad_ReadLog(t *testing.T) {
	logger, _ := test.NewNullLogger()
	rx := NewReceiver()
	j := NewJavad(rx, logger)

	fn := writeLog(t,
		"# comment",
		"@ JAVAD TRE_G3TH 00123",
		ioMessage(1.02e-8),
		uoMessage(18, 18, 1929, 7),
		geMessage(5, 93600),
		geMessage(12, 93600),
		geMessage(5, 93600),
		geMessage(5, 100800),
	)
	stats, err := j.ReadLog(fn, mjd20240930)
	require.NoError(t, err)

	assert.Equal(t, 8, stats.Lines)
	assert.Equal(t, 3, stats.Ephemerides)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, "Javad", rx.Manufacturer)
	assert.Equal(t, 18, rx.LeapSecs)

	iono, ok := rx.GPS.Iono.Get()
	require.True(t, ok)
	assert.InDelta(t, 1.02e-8, iono.Alpha[0], 1e-15)
	assert.InDelta(t, -5.24e5, iono.Beta[3], 1)

	require.Equal(t, 3, rx.GPS.Ephemeris.Len())
	ed := rx.GPS.Ephemeris.All()[0]
	assert.Equal(t, 5, ed.SVN)
	assert.Equal(t, 93600.0, ed.Toe)
	assert.Equal(t, 93600.0, ed.Toc)
	assert.Equal(t, 286, ed.Week)
	assert.Equal(t, 0x34, ed.IODE)
	assert.Equal(t, 305, ed.IODC)
	assert.Equal(t, 1, ed.URA)
	assert.Equal(t, 3.4, ed.Accuracy)
	assert.InDelta(t, 0.5*PI, ed.M0, 1e-12)
	assert.InDelta(t, PI, ed.Omega, 1e-12)
	assert.InDelta(t, 1.5e-9*PI, ed.DeltaN, 1e-15)
	assert.InDelta(t, 5153.6, ed.SqrtA, 1e-9)
	assert.InDelta(t, 250.0, ed.Crc, 1e-6)
}

func TestJavad_MalformedLines(t *testing.T) {
	logger, hook := test.NewNullLogger()
	rx := NewReceiver()
	j := NewJavad(rx, logger)

	fn := writeLog(t,
		"GE 07B",                                   // Wrong field count
		"GE 07B 0102",                              // Wrong size
		"UO 018 "+strings.Repeat("zz", lenUTC),     // Not hex
		"XX 001 00",                                // Unknown message
		geMessage(7, 93600),
	)
	stats, err := j.ReadLog(fn, mjd20240930)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Skipped)
	assert.Equal(t, 1, stats.Ephemerides)
	assert.Equal(t, 1, rx.GPS.Ephemeris.Len())
	assert.False(t, rx.GPS.UTC.Locked())

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 3, warnings)
}

func TestJavad_OverlongLine(t *testing.T) {
	logger, hook := test.NewNullLogger()
	rx := NewReceiver()
	j := NewJavad(rx, logger)

	fn := writeLog(t,
		geMessage(5, 93600),
		"GE 7FF "+strings.Repeat("A", 2*maxLineLen),
		geMessage(6, 93600),
	)
	stats, err := j.ReadLog(fn, mjd20240930)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Lines)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 2, stats.Ephemerides)
	assert.Equal(t, []int{5, 6}, rx.GPS.Ephemeris.Satellites())

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["line"] == 2 {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestJavad_UTCLatch(t *testing.T) {
	rx := NewReceiver()
	j := NewJavad(rx, nil)

	fn := writeLog(t,
		uoMessage(0, 0, 0, 0), // Not filled yet
		uoMessage(17, 18, 1929&0xFF, 7),
		uoMessage(10, 10, 0, 1),
		ioMessage(1e-8),
		ioMessage(9e-8),
	)
	_, err := j.ReadLog(fn, 57754)
	require.NoError(t, err)

	utc, ok := rx.GPS.UTC.Get()
	require.True(t, ok)
	assert.Equal(t, 17, utc.DtLS)
	assert.Equal(t, 18, utc.DtLSF)
	assert.Equal(t, 18, rx.LeapSecs)

	iono, _ := rx.GPS.Iono.Get()
	assert.InDelta(t, 1e-8, iono.Alpha[0], 1e-15)

	// Re-resolve for the day before the leap second
	assert.True(t, rx.UpdateLeapSeconds(57753))
	assert.Equal(t, 17, rx.LeapSecs)
}

func TestJavad_Epochs(t *testing.T) {
	rx := NewReceiver()
	j := NewJavad(rx, nil)

	fn := writeLog(t,
		rtMessage(3723250),
		"::  001 00",
		":: 001 00", // No open epoch
		rtMessage(3724250),
		"GE 07B", // Drops the open epoch
		":: 001 00",
	)
	stats, err := j.ReadLog(fn, mjd20240930)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Measurements)
	require.Len(t, rx.Measurements, 1)
	rm := rx.Measurements[0]
	assert.True(t, rm.TmGPS.Equal(time.Date(2024, 9, 30, 1, 2, 3, 0, time.UTC)))
	assert.Equal(t, 0.25, rm.FracSecs)
	assert.Equal(t, uint8(FlagClock), rm.Flags)
	assert.False(t, rm.Eligible())
}

func TestJavad_ReadLogErrors(t *testing.T) {
	j := NewJavad(NewReceiver(), nil)

	_, err := j.ReadLog(filepath.Join(t.TempDir(), "missing.log"), mjd20240930)
	assert.ErrorIs(t, err, ErrIO)

	_, err = j.ReadLog(t.TempDir(), mjd20240930)
	assert.ErrorIs(t, err, ErrIO)
}

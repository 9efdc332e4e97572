// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

package gorinex

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	ErrIO     = errors.New("i/o error")    // Path missing, unreadable or not a regular file
	ErrFormat = errors.New("format error") // Malformed payload, header or unsupported version
	ErrData   = errors.New("data error")   // Record level size check failed
)

// ------------------------------------
// Logging
// ------------------------------------

// Logger for the given debug level (0: info, 1: debug, 2 or more: trace)
func NewLogger(dbg int) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	switch {
	case dbg >= 2:
		logger.SetLevel(logrus.TraceLevel)
	case dbg == 1:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

func orDiscard(logger *logrus.Logger) *logrus.Logger {
	if logger != nil {
		return logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// ------------------------------------
// Fixed column fields
// ------------------------------------

// Substring at 1-based column start with the given width, clipped to the line
func column(line string, start, width int) string {
	st := start - 1
	if st < 0 || st >= len(line) {
		return ""
	}
	en := st + width
	if en > len(line) {
		en = len(line)
	}
	return line[st:en]
}

// Read real values by absorbing variations in exponential notation within RINEX files
func parseFloat(str string) float64 {
	s := strings.TrimSpace(str)
	if strings.ContainsAny(s, "Dd") {
		s = strings.Replace(s, "D", "E", 1)
		s = strings.Replace(s, "d", "e", 1)
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(str string) int {
	v, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil {
		return int(parseFloat(str))
	}
	return v
}

func colFloat(line string, start, width int) float64 {
	return parseFloat(column(line, start, width))
}

func colInt(line string, start, width int) int {
	return parseInt(column(line, start, width))
}

// Extract HEADER LABEL string from header line
func getHeaderLabel(l string) string {
	if len(l) < 60 {
		return ""
	}
	return strings.TrimSpace(l[60:])
}

// Longest line accepted from a text input
const maxLineLen = 1024 * 1024

// Call fn for each line of rd without its line ending. A line longer than
// maxLineLen is discarded while reading and passed as empty with tooLong set.
func eachLine(rd io.Reader, fn func(line string, tooLong bool)) error {
	br := bufio.NewReader(rd)
	var buf []byte
	tooLong := false
	for {
		frag, err := br.ReadSlice('\n')
		if !tooLong {
			buf = append(buf, frag...)
			if len(buf) > maxLineLen+2 {
				tooLong = true
				buf = buf[:0]
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil && err != io.EOF {
			return err
		}
		if tooLong {
			fn("", true)
		} else if len(buf) > 0 {
			fn(strings.TrimRight(string(buf), "\r\n"), false)
		}
		buf, tooLong = buf[:0], false
		if err == io.EOF {
			return nil
		}
	}
}

// Whether the line contains only white space
func isBlank(l string) bool {
	return strings.TrimSpace(l) == ""
}

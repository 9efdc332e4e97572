// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.4
//

package gorinex

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// Decode a hex-ASCII field of width bytes into its little-endian byte representation.
// The caller reinterprets the bytes as the numeric type of the same width.
func HexToBin(s string, width int) ([]byte, error) {
	if width <= 0 || len(s) != 2*width {
		return nil, fmt.Errorf("%w: hex field length %d, expected %d", ErrFormat, len(s), 2*width)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFormat, err.Error())
	}
	return b, nil
}

// Numeric field types used by the receiver binary messages
type fieldType int

const (
	U1 fieldType = iota
	I1
	U2
	I2
	U4
	I4
	F4
	F8
)

// Width of the field type in bytes
func (t fieldType) Width() int {
	switch t {
	case U1, I1:
		return 1
	case U2, I2:
		return 2
	case U4, I4, F4:
		return 4
	default:
		return 8
	}
}

// Field position inside a message: byte offset and type
type field struct {
	Off  int
	Type fieldType
}

// Hex-encoded binary message. Field reads are sticky on error:
// after the first failure every read returns zero and Err() reports it.
type hexMessage struct {
	payload string
	err     error
}

func newHexMessage(payload string) *hexMessage {
	return &hexMessage{payload: payload}
}

func (m *hexMessage) Err() error {
	return m.err
}

func (m *hexMessage) bytes(f field) []byte {
	if m.err != nil {
		return nil
	}
	w := f.Type.Width()
	st, en := f.Off*2, (f.Off+w)*2
	if f.Off < 0 || en > len(m.payload) {
		m.err = fmt.Errorf("%w: field at offset %d (%d bytes) exceeds message of %d bytes", ErrData, f.Off, w, len(m.payload)/2)
		return nil
	}
	b, err := HexToBin(m.payload[st:en], w)
	if err != nil {
		m.err = err
		return nil
	}
	return b
}

// Read the field as an integer, sign-extending signed types
func (m *hexMessage) Int(f field) int {
	b := m.bytes(f)
	if b == nil {
		return 0
	}
	switch f.Type {
	case U1:
		return int(b[0])
	case I1:
		return int(int8(b[0]))
	case U2:
		return int(binary.LittleEndian.Uint16(b))
	case I2:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case U4:
		return int(binary.LittleEndian.Uint32(b))
	case I4:
		return int(int32(binary.LittleEndian.Uint32(b)))
	case F4:
		return int(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	default:
		return int(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	}
}

// Read the field as a float. Single precision values are widened.
func (m *hexMessage) Float(f field) float64 {
	if f.Type != F4 && f.Type != F8 {
		return float64(m.Int(f))
	}
	b := m.bytes(f)
	if b == nil {
		return 0
	}
	if f.Type == F4 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// Read an angle transmitted in semicircles and convert it to radians
func (m *hexMessage) Semicircles(f field) float64 {
	return m.Float(f) * PI
}

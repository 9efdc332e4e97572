// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

package gorinex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEphemerisStore_Insert(t *testing.T) {
	s := NewEphemerisStore[*GPSEphemeris]()

	assert.True(t, s.Insert(&GPSEphemeris{SVN: 12, Toe: 7200}))
	assert.True(t, s.Insert(&GPSEphemeris{SVN: 5, Toe: 7200}))
	assert.True(t, s.Insert(&GPSEphemeris{SVN: 12, Toe: 14400}))
	// Same satellite and Toe
	assert.False(t, s.Insert(&GPSEphemeris{SVN: 12, Toe: 7200, IODE: 99}))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []int{5, 12}, s.Satellites())

	// Arrival order is kept
	all := s.All()
	assert.Equal(t, 12, all[0].SVN)
	assert.Equal(t, 5, all[1].SVN)
	assert.Equal(t, 0, all[0].IODE)

	sv12 := s.BySatellite(12)
	if assert.Len(t, sv12, 2) {
		assert.Equal(t, 7200.0, sv12[0].Toe)
		assert.Equal(t, 14400.0, sv12[1].Toe)
	}
	assert.Empty(t, s.BySatellite(1))
	assert.Contains(t, s.String(), "ephemerides: 3")
}

func TestEphemerisStore_AppendDoesNotAlias(t *testing.T) {
	s := NewEphemerisStore[*GPSEphemeris]()
	for _, toe := range []float64{0, 7200, 14400} {
		require.True(t, s.Insert(&GPSEphemeris{SVN: 5, Toe: toe}))
	}

	mine := &GPSEphemeris{SVN: 30}
	all := append(s.All(), mine)
	sv5 := append(s.BySatellite(5), mine)
	require.True(t, s.Insert(&GPSEphemeris{SVN: 5, Toe: 21600}))

	assert.Same(t, mine, all[3])
	assert.Same(t, mine, sv5[3])
	assert.Equal(t, 21600.0, s.All()[3].Toe)
	assert.Equal(t, 21600.0, s.BySatellite(5)[3].Toe)
	assert.Equal(t, 4, s.Len())
}

func TestEphemerisStore_BeiDou(t *testing.T) {
	s := NewEphemerisStore[*BeiDouEphemeris]()

	assert.True(t, s.Insert(&BeiDouEphemeris{SVN: 3, Toe: 3600}))
	assert.False(t, s.Insert(&BeiDouEphemeris{SVN: 3, Toe: 3600}))
	assert.True(t, s.Insert(&BeiDouEphemeris{SVN: 30, Toe: 3600}))
	assert.Equal(t, 2, s.Len())
}

func TestLatch(t *testing.T) {
	var l Latch[IonoModel]

	v, ok := l.Get()
	assert.False(t, ok)
	assert.Equal(t, IonoModel{}, v)

	first := IonoModel{Alpha: [4]float64{1, 2, 3, 4}}
	assert.True(t, l.Lock(first))
	assert.False(t, l.Lock(IonoModel{Alpha: [4]float64{9, 9, 9, 9}}))
	assert.True(t, l.Locked())

	v, ok = l.Get()
	assert.True(t, ok)
	assert.Equal(t, first, v)
}

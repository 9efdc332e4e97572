// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

package gorinex

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/slices"
)

// Ephemerides of one constellation for one processing run.
// Records are kept in arrival order and indexed by satellite; (satellite, Toe) is unique.
type EphemerisStore[E Ephemeris] struct {
	list  []E
	bySat map[int][]E
}

func NewEphemerisStore[E Ephemeris]() *EphemerisStore[E] {
	return &EphemerisStore[E]{
		list:  make([]E, 0),
		bySat: map[int][]E{},
	}
}

// Add a record. Returns false, and stores nothing, if the satellite already has a record with the same Toe.
func (s *EphemerisStore[E]) Insert(e E) bool {
	if slices.ContainsFunc(s.bySat[e.SatID()], func(x E) bool { return x.RefTime() == e.RefTime() }) {
		return false
	}
	s.list = append(s.list, e)
	s.bySat[e.SatID()] = append(s.bySat[e.SatID()], e)
	return true
}

// All records in arrival order. Appending to the result never writes into the store.
func (s *EphemerisStore[E]) All() []E {
	return slices.Clip(s.list)
}

// Records of one satellite in arrival order
func (s *EphemerisStore[E]) BySatellite(id int) []E {
	return slices.Clip(s.bySat[id])
}

func (s *EphemerisStore[E]) Len() int {
	return len(s.list)
}

// Satellite ids present in the store, ascending
func (s *EphemerisStore[E]) Satellites() []int {
	ids := make([]int, 0, len(s.bySat))
	for k := range s.bySat {
		ids = append(ids, k)
	}
	sort.Ints(ids)
	return ids
}

// Display store overview
func (s *EphemerisStore[E]) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ephemerides: %d\n", s.Len()))
	for _, id := range s.Satellites() {
		a := s.bySat[id]
		sb.WriteString(fmt.Sprintf("\t%02d: toe %.0f - %.0f (%d)\n", id, a[0].RefTime(), a[len(a)-1].RefTime(), len(a)))
	}
	return sb.String()
}

// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.12
//

package gorinex

// Antenna and marker description used in observation file headers
type Antenna struct {
	MarkerName    string  `yaml:"marker_name"`
	MarkerNumber  string  `yaml:"marker_number"`
	AntennaNumber string  `yaml:"antenna_number"`
	AntennaType   string  `yaml:"antenna_type"`
	X             float64 `yaml:"x"` // Approximate position, ECEF [m]
	Y             float64 `yaml:"y"`
	Z             float64 `yaml:"z"`
	DeltaH        float64 `yaml:"delta_h"` // Antenna delta H/E/N [m]
	DeltaE        float64 `yaml:"delta_e"`
	DeltaN        float64 `yaml:"delta_n"`
}

// Time interval counter measuring the receiver 1PPS
type Counter struct {
	Model string `yaml:"model"`
	Port  string `yaml:"port"`
}

// Navigation data of one constellation
type GNSSNav[E Ephemeris] struct {
	Ephemeris *EphemerisStore[E]
	Iono      Latch[IonoModel]
	UTC       Latch[UTCModel]
}

func newGNSSNav[E Ephemeris]() GNSSNav[E] {
	return GNSSNav[E]{Ephemeris: NewEphemerisStore[E]()}
}

// Receiver configuration and the navigation data gathered in one run
type Receiver struct {
	Manufacturer   string
	ModelName      string
	SerialNumber   string
	Version        string
	Constellations Constellation
	Codes          ObsCode
	PPSOffset      float64 // Receiver 1PPS offset [ns]

	LeapSecs     int
	GPS          GNSSNav[*GPSEphemeris]
	BeiDou       GNSSNav[*BeiDouEphemeris]
	Measurements []*ReceiverMeasurement
}

func NewReceiver() *Receiver {
	return &Receiver{
		Constellations: GPS,
		Codes:          C1,
		GPS:            newGNSSNav[*GPSEphemeris](),
		BeiDou:         newGNSSNav[*BeiDouEphemeris](),
	}
}

// Re-resolve the leap seconds for a new target day from the locked GPS UTC model.
// Returns false if no UTC model has been locked.
func (rx *Receiver) UpdateLeapSeconds(mjd int) bool {
	utc, ok := rx.GPS.UTC.Get()
	if !ok {
		return false
	}
	rx.LeapSecs = ResolveLeapSeconds(utc, mjd)
	return true
}

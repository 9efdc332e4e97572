// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

package gorinex

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Keplerian elements shared by the GPS and BeiDou broadcast ephemerides
type kepler struct {
	toe, sqrtA, ecc, m0, deltaN       float64
	omega0, omegaDot, i0, idot, omega float64
	crc, crs, cuc, cus, cic, cis      float64
	dOMGe, mue                        float64
	toeRot                            float64 // Toe used for the earth rotation term
}

// Seconds from t0 to t within one week, wrapped to +-half a week
func weekDiff(t, t0 float64) float64 {
	d := t - t0
	if d > SECS_PER_WEEK/2 {
		d -= SECS_PER_WEEK
	} else if d < -SECS_PER_WEEK/2 {
		d += SECS_PER_WEEK
	}
	return d
}

// Position in the orbital plane and the inclination at tk
func (k *kepler) plane(tk float64) (xk, yk, ik float64) {
	n := math.Sqrt(k.mue)/k.sqrtA/k.sqrtA/k.sqrtA + k.deltaN
	mk := k.m0 + n*tk
	ek := mk
	for i := 0; i < 10; i++ {
		ek = mk + k.ecc*math.Sin(ek)
	}
	rk := k.sqrtA * k.sqrtA * (1 - k.ecc*math.Cos(ek))
	vk := math.Atan2(math.Sqrt(1-k.ecc*k.ecc)*math.Sin(ek), math.Cos(ek)-k.ecc)
	pk := vk + k.omega
	duk := k.cus*math.Sin(2*pk) + k.cuc*math.Cos(2*pk)
	drk := k.crs*math.Sin(2*pk) + k.crc*math.Cos(2*pk)
	dik := k.cis*math.Sin(2*pk) + k.cic*math.Cos(2*pk)
	uk := pk + duk
	rk = rk + drk
	ik = k.i0 + dik + k.idot*tk
	return rk * math.Cos(uk), rk * math.Sin(uk), ik
}

// ECEF position at tow, seconds of week, for a signal with the given pseudorange [m]
func (k *kepler) pos(tow, psr float64) r3.Vec {
	tk0 := weekDiff(tow, k.toe)
	tk := tk0 - psr/C
	xk, yk, ik := k.plane(tk)
	omk := k.omega0 + (k.omegaDot-k.dOMGe)*tk0 - k.dOMGe*k.toeRot // Including Sagnac effect
	return r3.Vec{
		X: xk*math.Cos(omk) - yk*math.Sin(omk)*math.Cos(ik),
		Y: xk*math.Sin(omk) + yk*math.Cos(omk)*math.Cos(ik),
		Z: yk * math.Sin(ik),
	}
}

func (e *GPSEphemeris) kepler() *kepler {
	return &kepler{
		toe: e.Toe, sqrtA: e.SqrtA, ecc: e.Ecc, m0: e.M0, deltaN: e.DeltaN,
		omega0: e.Omega0, omegaDot: e.OmegaDot, i0: e.I0, idot: e.Idot, omega: e.Omega,
		crc: e.Crc, crs: e.Crs, cuc: e.Cuc, cus: e.Cus, cic: e.Cic, cis: e.Cis,
		dOMGe:  7.2921151467e-5, // Earth rotation angular velocity [rad/s]
		mue:    3.986005e14,     // Earth gravitational constant [m^3/s^2]
		toeRot: e.Toe,
	}
}

// Satellite position (ECEF) at GPS time of week tow from pseudorange psr [m]
func (e *GPSEphemeris) SatPos(tow, psr float64) r3.Vec {
	return e.kepler().pos(tow, psr)
}

// Satellite clock bias [s] at GPS time of week tow
func (e *GPSEphemeris) ClockBias(tow float64) float64 {
	dt := weekDiff(tow, e.Toc)
	return e.Af0 + e.Af1*dt + e.Af2*dt*dt
}

// Geostationary satellites use a different rotation
func (e *BeiDouEphemeris) geo() bool {
	return e.SVN <= 5 || e.SVN >= 59
}

// Satellite position (ECEF) at BDT time of week tow from pseudorange psr [m]
func (e *BeiDouEphemeris) SatPos(tow, psr float64) r3.Vec {
	k := &kepler{
		toe: e.Toe, sqrtA: e.SqrtA, ecc: e.Ecc, m0: e.M0, deltaN: e.DeltaN,
		omega0: e.Omega0, omegaDot: e.OmegaDot, i0: e.I0, idot: e.Idot, omega: e.Omega,
		crc: e.Crc, crs: e.Crs, cuc: e.Cuc, cus: e.Cus, cic: e.Cic, cis: e.Cis,
		dOMGe:  7.292115e-5,
		mue:    3.986004418e14,
		toeRot: e.Toe - 14, // BDT - GPST
	}
	if !e.geo() {
		return k.pos(tow, psr)
	}
	tk0 := weekDiff(tow, k.toe)
	xk, yk, ik := k.plane(tk0 - psr/C)
	omk := k.omega0 + k.omegaDot*tk0 - k.dOMGe*k.toeRot
	g := r3.Vec{
		X: xk*math.Cos(omk) - yk*math.Sin(omk)*math.Cos(ik),
		Y: xk*math.Sin(omk) + yk*math.Cos(omk)*math.Cos(ik),
		Z: yk * math.Sin(ik),
	}
	sino, coso := math.Sin(k.dOMGe*tk0), math.Cos(k.dOMGe*tk0)
	cos5, sin5 := math.Cos(-5*PI/180), math.Sin(-5*PI/180)
	return r3.Vec{
		X: g.X*coso + g.Y*sino*cos5 + g.Z*sino*sin5,
		Y: -g.X*sino + g.Y*coso*cos5 + g.Z*coso*sin5,
		Z: -g.Y*sin5 + g.Z*cos5,
	}
}

// Geometric range [m] between a satellite and a receiver position
func Range(sat, rcv r3.Vec) float64 {
	return r3.Norm(r3.Sub(sat, rcv))
}

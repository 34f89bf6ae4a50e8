// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"time"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/geonet_beacon/internal/geonet"
)

const metersPerSecondPerKnot = 1852.0 / 3600.0

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time       string    `json:"time"`        // e.g. "12:34:56.0000"
	Date       string    `json:"date"`        // e.g. "06/12/25"
	At         time.Time `json:"at"`          // UTC instant of the fix
	Latitude   float64   `json:"lat"`         // decimal degrees
	Longitude  float64   `json:"lon"`         // decimal degrees
	SpeedKnots float64   `json:"speed_knots"` // speed over ground
	CourseDeg  float64   `json:"course_deg"`  // course over ground
	Validity   string    `json:"validity"`    // "A" (valid) / "V" (void)
	HDOP       float64   `json:"hdop"`        // from GGA, 0 if unknown
	Satellites int64     `json:"satellites"`  // from GGA
}

func (f Fix) Valid() bool {
	return f.Validity == nmea.ValidRMC
}

// PositionVector converts the fix into the long position vector carried in
// SHB headers. The accuracy flag is set for valid fixes whose HDOP is known
// and at most maxHDOP.
func (f Fix) PositionVector(addr geonet.Address, maxHDOP float64) geonet.LongPositionVector {
	return geonet.LongPositionVector{
		Address:          addr,
		Timestamp:        geonet.TimestampFromTime(f.At),
		Latitude:         geonet.LatLonFromDegrees(f.Latitude),
		Longitude:        geonet.LatLonFromDegrees(f.Longitude),
		Speed:            geonet.SpeedFromMetersPerSecond(f.SpeedKnots * metersPerSecondPerKnot),
		PositionAccuracy: f.Valid() && f.HDOP > 0 && f.HDOP <= maxHDOP,
		Heading:          geonet.HeadingFromDegrees(f.CourseDeg),
	}
}

// Tracker accumulates RMC and GGA sentences into one Fix.
type Tracker struct {
	current Fix

	// Now is used when the RMC sentence carries no usable date/time.
	Now func() time.Time
}

// Apply merges one sentence. It returns the updated fix and true when an
// RMC sentence completed it; other sentence types only refine the state.
func (t *Tracker) Apply(sentence nmea.Sentence) (Fix, bool) {
	switch sentence.DataType() {
	case nmea.TypeRMC:
		m := sentence.(nmea.RMC)
		t.current.Time = m.Time.String()
		t.current.Date = m.Date.String()
		t.current.At = t.instant(m.Date, m.Time)
		t.current.Latitude = m.Latitude
		t.current.Longitude = m.Longitude
		t.current.SpeedKnots = m.Speed
		t.current.CourseDeg = m.Course
		t.current.Validity = m.Validity
		return t.current, true
	case nmea.TypeGGA:
		m := sentence.(nmea.GGA)
		t.current.HDOP = m.HDOP
		t.current.Satellites = m.NumSatellites
		if m.FixQuality == nmea.Invalid {
			t.current.HDOP = 0
		}
	}
	return t.current, false
}

func (t *Tracker) instant(d nmea.Date, tm nmea.Time) time.Time {
	if d.Valid && tm.Valid {
		return time.Date(2000+d.YY, time.Month(d.MM), d.DD,
			tm.Hour, tm.Minute, tm.Second, tm.Millisecond*int(time.Millisecond), time.UTC)
	}
	if t.Now != nil {
		return t.Now().UTC()
	}
	return time.Now().UTC()
}

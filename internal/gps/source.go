// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
)

// Source is anything that can provide GPS fixes over time.
type Source interface {
	Next() (Fix, error)
}

// Reader turns a stream of NMEA lines into fixes, one per RMC sentence.
type Reader struct {
	reader  *bufio.Reader
	tracker Tracker
}

func NewReader(r io.Reader) *Reader {
	return &Reader{reader: bufio.NewReader(r)}
}

// Next blocks until the next RMC sentence. Unparseable lines are skipped;
// io.EOF is returned when the stream ends.
func (r *Reader) Next() (Fix, error) {
	for {
		line, err := r.reader.ReadString('\n')
		line = strings.TrimSpace(line)

		// NMEA sentences usually start with '$'
		if strings.HasPrefix(line, "$") {
			if sentence, perr := nmea.Parse(line); perr == nil {
				if fix, done := r.tracker.Apply(sentence); done {
					return fix, nil
				}
			}
		}
		if err != nil {
			return Fix{}, err
		}
	}
}

// SerialSource reads fixes from a GPS receiver on a serial port.
type SerialSource struct {
	*Reader
	port      io.ReadWriteCloser
	closeOnce sync.Once
	closeErr  error
}

func newSerialSource(port io.ReadWriteCloser) *SerialSource {
	return &SerialSource{Reader: NewReader(port), port: port}
}

// OpenSerial opens the GPS UART, e.g. /dev/serial0, /dev/ttyAMA0 or /dev/ttyUSB0.
func OpenSerial(portName string, baudRate int) (*SerialSource, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open GPS serial port %s: %w", portName, err)
	}
	return newSerialSource(port), nil
}

// Close closes the port, which also unblocks a pending Next. It is safe to
// call more than once and from another goroutine.
func (s *SerialSource) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.port.Close()
	})
	return s.closeErr
}

type mockSource struct {
	start    time.Time
	lat, lon float64
	radiusM  float64
	speedMps float64
	hdop     float64
	now      func() time.Time
}

// NewMockSource creates a mock GPS source driving a circle of 100 m radius
// around the given point at 10 m/s.
func NewMockSource(lat, lon float64) Source {
	return &mockSource{
		start:    time.Now(),
		lat:      lat,
		lon:      lon,
		radiusM:  100,
		speedMps: 10,
		hdop:     0.9,
		now:      time.Now,
	}
}

func (m *mockSource) Next() (Fix, error) {
	now := m.now().UTC()
	elapsed := now.Sub(m.start).Seconds()
	angle := elapsed * m.speedMps / m.radiusM

	const metersPerDegree = 111_320.0
	dLat := m.radiusM * math.Sin(angle) / metersPerDegree
	dLon := m.radiusM * math.Cos(angle) / (metersPerDegree * math.Cos(m.lat*math.Pi/180))

	// Counter-clockwise travel: course is the tangent direction.
	course := math.Mod(360-angle*180/math.Pi, 360)
	if course < 0 {
		course += 360
	}

	return Fix{
		Time:       now.Format("15:04:05.0000"),
		Date:       now.Format("02/01/06"),
		At:         now,
		Latitude:   m.lat + dLat,
		Longitude:  m.lon + dLon,
		SpeedKnots: m.speedMps / metersPerSecondPerKnot,
		CourseDeg:  course,
		Validity:   nmea.ValidRMC,
		HDOP:       m.hdop,
		Satellites: 9,
	}, nil
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/geonet_beacon/internal/config"
	"github.com/relabs-tech/geonet_beacon/internal/geonet"
	"github.com/relabs-tech/geonet_beacon/internal/metrics"
	"github.com/relabs-tech/geonet_beacon/internal/neighbors"
	"github.com/relabs-tech/geonet_beacon/internal/transport"
)

const (
	screenW    = 128
	screenH    = 64
	lineHeight = 13
)

// fixedAddrBus routes every transaction to one device address, so two
// panels strapped to different addresses can share the bus.
type fixedAddrBus struct {
	i2c.Bus
	addr uint16
}

func (b *fixedAddrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

// screen is a blank 128x64 frame with a text drawer.
type screen struct {
	img    *image1bit.VerticalLSB
	drawer *font.Drawer
}

func newScreen() *screen {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, screenW, screenH))
	return &screen{
		img: img,
		drawer: &font.Drawer{
			Dst:  img,
			Src:  &image.Uniform{image1bit.On},
			Face: basicfont.Face7x13,
		},
	}
}

// line draws text on row n, counting from 1.
func (s *screen) line(n int, text string) {
	s.drawer.Dot = fixed.P(0, n*lineHeight)
	s.drawer.DrawString(text)
}

// renderNeighbors lists the neighbor count and the most recently heard
// stations.
func renderNeighbors(entries []neighbors.Entry, now time.Time) *image1bit.VerticalLSB {
	s := newScreen()
	if len(entries) == 0 {
		s.line(2, "GeoNet SHB")
		s.line(3, "Waiting...")
		return s.img
	}

	s.line(1, fmt.Sprintf("Neighbors: %d", len(entries)))

	latest := append([]neighbors.Entry(nil), entries...)
	sort.SliceStable(latest, func(i, j int) bool {
		return latest[i].LastSeen.After(latest[j].LastSeen)
	})
	for i, e := range latest {
		if i == 3 {
			break
		}
		mid := e.Header.SourcePV.Address.MID()
		age := now.Sub(e.LastSeen).Seconds()
		s.line(i+2, fmt.Sprintf("%02x%02x%02x %4.1fs", mid[3], mid[4], mid[5], age))
	}
	return s.img
}

// renderLink summarizes the link metrics neighbors report: mean CBR on
// both hops and the highest tx power heard.
func renderLink(entries []neighbors.Entry) *image1bit.VerticalLSB {
	s := newScreen()

	var n int
	var sum0, sum1 float64
	var maxTx uint8
	for _, e := range entries {
		if !e.Header.HasLinkMetrics() {
			continue
		}
		n++
		sum0 += e.Header.CBRHop0
		sum1 += e.Header.CBRHop1
		maxTx = max(maxTx, e.Header.TxPower)
	}

	if n == 0 {
		s.line(2, "Link metrics")
		s.line(3, "Waiting...")
		return s.img
	}

	s.line(1, fmt.Sprintf("CBR0: %5.1f%%", 100*sum0/float64(n)))
	s.line(2, fmt.Sprintf("CBR1: %5.1f%%", 100*sum1/float64(n)))
	s.line(3, fmt.Sprintf("TxP max: %2d/%d", maxTx, geonet.TxPowerMax))
	s.line(4, fmt.Sprintf("from %d nbr", n))
	return s.img
}

func renderSplash() *image1bit.VerticalLSB {
	s := newScreen()
	s.drawer.Dot = fixed.P(10, 26)
	s.drawer.DrawString("GeoNet SHB")
	s.drawer.Dot = fixed.P(5, 43)
	s.drawer.DrawString("Listening...")
	return s.img
}

func openPanel(bus i2c.Bus, addr uint16) (*ssd1306.Dev, error) {
	dev, err := ssd1306.NewI2C(&fixedAddrBus{Bus: bus, addr: addr}, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize display at 0x%02X: %w", addr, err)
	}
	return dev, nil
}

// RunDisplay shows the neighbor table on the left panel and the reported
// link metrics on the right panel.
func RunDisplay(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.BeaconMetrics) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	left, err := openPanel(bus, cfg.DisplayLeftI2CAddr)
	if err != nil {
		return err
	}
	right, err := openPanel(bus, cfg.DisplayRightI2CAddr)
	if err != nil {
		return err
	}
	logger.Info("displays initialized", "left", fmt.Sprintf("0x%02X", cfg.DisplayLeftI2CAddr), "right", fmt.Sprintf("0x%02X", cfg.DisplayRightI2CAddr))

	for _, dev := range []*ssd1306.Dev{left, right} {
		if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
			logger.Warn("error showing splash", "error", err)
		}
	}

	tbus, err := transport.Connect(cfg, "display", logger)
	if err != nil {
		return err
	}
	defer tbus.Close()

	table := neighbors.NewTable()
	rx := &Receiver{Table: table, Metrics: m, Logger: logger}
	if err := tbus.Subscribe(cfg.TopicBeacon, rx.Handle); err != nil {
		return err
	}

	ticker := time.NewTicker(cfg.DisplayInterval())
	defer ticker.Stop()

	logger.Info("starting display update loop", "interval", cfg.DisplayInterval())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			table.Prune(cfg.NeighborMaxAge())
			entries := table.Snapshot()

			if err := left.Draw(left.Bounds(), renderNeighbors(entries, time.Now()), image.Point{}); err != nil {
				logger.Warn("error updating left display", "error", err)
			}
			if err := right.Draw(right.Bounds(), renderLink(entries), image.Point{}); err != nil {
				logger.Warn("error updating right display", "error", err)
			}
		}
	}
}

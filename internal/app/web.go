// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/geonet_beacon/internal/config"
	"github.com/relabs-tech/geonet_beacon/internal/geonet"
	"github.com/relabs-tech/geonet_beacon/internal/metrics"
	"github.com/relabs-tech/geonet_beacon/internal/neighbors"
	"github.com/relabs-tech/geonet_beacon/internal/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const wsSendQueue = 16

// Hub fans neighbor updates out to websocket clients. Slow clients drop
// messages rather than block the receiver.
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	logger  *slog.Logger
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{clients: map[*wsClient]struct{}{}, logger: logger}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends e as JSON to every connected client.
func (h *Hub) Broadcast(e neighbors.Entry) {
	msg, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("marshal neighbor entry", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeHTTP upgrades the connection and streams entries until the client
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, wsSendQueue)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "remote", r.RemoteAddr)

	go func() {
		for msg := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
		conn.Close()
	}()

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", "error", err)
			}
			break
		}
	}
	h.remove(c)
}

// WebServer serves the neighbor table over HTTP.
type WebServer struct {
	Table    *neighbors.Table
	Hub      *Hub
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger

	// StaticDir, if set, is served at /.
	StaticDir string
}

func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/neighbors", s.handleNeighbors)
	mux.HandleFunc("GET /api/neighbors/{addr}", s.handleNeighbor)
	mux.Handle("/ws", s.Hub)
	if s.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	if s.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.StaticDir)))
	}
	return mux
}

func (s *WebServer) handleNeighbors(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.Table.Snapshot())
}

func (s *WebServer) handleNeighbor(w http.ResponseWriter, r *http.Request) {
	addr, err := geonet.ParseAddress(r.PathValue("addr"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	e, ok := s.Table.Get(addr)
	if !ok {
		http.Error(w, "unknown neighbor", http.StatusNotFound)
		return
	}
	s.writeJSON(w, e)
}

func (s *WebServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("json encode error", "error", err)
	}
}

// RunWeb subscribes to beacons and serves the neighbor table, a websocket
// feed of updates and Prometheus metrics.
func RunWeb(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.BeaconMetrics) error {
	bus, err := transport.Connect(cfg, "web", logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	table := neighbors.NewTable()
	hub := NewHub(logger)
	rx := &Receiver{Table: table, Metrics: m, Logger: logger, OnEntry: hub.Broadcast}
	if err := bus.Subscribe(cfg.TopicBeacon, rx.Handle); err != nil {
		return err
	}
	logger.Info("web subscribed", "topic", cfg.TopicBeacon)

	ws := &WebServer{
		Table:     table,
		Hub:       hub,
		Gatherer:  prometheus.DefaultGatherer,
		Logger:    logger,
		StaticDir: "web",
	}
	return ws.Serve(ctx, fmt.Sprintf(":%d", cfg.WebServerPort), cfg.NeighborMaxAge(), m)
}

// Serve listens on addr until ctx is done, pruning neighbors older than
// maxAge in the background. The background loop stops on every return
// path, including a failed listen.
func (s *WebServer) Serve(ctx context.Context, addr string, maxAge time.Duration, m *metrics.BeaconMetrics) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(maxAge / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
				defer stop()
				_ = srv.Shutdown(shutdownCtx)
				return
			case <-ticker.C:
				if n := s.Table.Prune(maxAge); n > 0 {
					s.Logger.Debug("pruned neighbors", "removed", n)
					m.SetNeighbors(s.Table.Len())
				}
			}
		}
	}()

	s.Logger.Info("web server listening", "addr", addr)
	err := srv.ListenAndServe()
	cancel()
	wg.Wait()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

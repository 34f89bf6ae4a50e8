// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import "sync"

// MemoryBus delivers messages synchronously inside the process. Topics are
// matched exactly.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: map[string][]Handler{}}
}

func (b *MemoryBus) Publish(topic string, payload []byte) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[topic]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		cp := make([]byte, len(payload))
		copy(cp, payload)
		h(cp)
	}
	return nil
}

func (b *MemoryBus) Subscribe(topic string, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
	return nil
}

func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}

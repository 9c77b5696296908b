package middleware

import (
	"sync"
	"time"
)

type clientInfo struct {
	reset time.Time
	count int64
}

// memoryWindow counts hits per key in fixed windows.
type memoryWindow struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
}

func newMemoryWindow() *memoryWindow {
	return &memoryWindow{clients: make(map[string]*clientInfo)}
}

func (m *memoryWindow) incr(key string, window time.Duration, now time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ci, ok := m.clients[key]
	if !ok || !now.Before(ci.reset) {
		m.clients[key] = &clientInfo{reset: now.Add(window), count: 1}
		return 1
	}
	ci.count++
	return ci.count
}

func (m *memoryWindow) prune(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, ci := range m.clients {
		if !now.Before(ci.reset) {
			delete(m.clients, k)
			n++
		}
	}
	return n
}

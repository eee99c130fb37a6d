// Package network tracks whether mutations are currently allowed. The
// connectivity signal comes from a flag file or is forced by config.
package network

import (
	"sync"
)

// Monitor holds the current connectivity state and notifies listeners on
// every transition. It is safe for concurrent use.
type Monitor struct {
	mu        sync.Mutex
	online    bool
	listeners map[int]func(online bool)
	order     []int
	nextID    int

	// dispatch serializes notification so listeners see transitions in order.
	dispatch sync.Mutex
}

// NewMonitor creates a Monitor with the given initial state.
func NewMonitor(online bool) *Monitor {
	return &Monitor{
		online:    online,
		listeners: make(map[int]func(bool)),
	}
}

// IsOnline reports the current connectivity state.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set records a connectivity signal. Listeners run only when the state
// actually changes; repeated identical signals are dropped. Listeners must
// not call Set.
func (m *Monitor) Set(online bool) {
	m.dispatch.Lock()
	defer m.dispatch.Unlock()

	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	fns := make([]func(bool), 0, len(m.order))
	for _, id := range m.order {
		fns = append(fns, m.listeners[id])
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}

// Subscribe registers fn for transitions and returns a function that
// removes it. Listeners are called in subscription order.
func (m *Monitor) Subscribe(fn func(online bool)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.order = append(m.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.listeners, id)
			for i, v := range m.order {
				if v == id {
					m.order = append(m.order[:i:i], m.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Badge returns the status label for a connectivity state.
func Badge(online bool) string {
	if online {
		return "Online"
	}
	return "Offline"
}

// Package shutdown coordinates the end of an interactive session: signals
// cancel the session context and registered cleanups release resources.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"

	"thingsish/internal/utils"
)

// CleanupFunc releases one resource. ctx carries the cleanup deadline.
type CleanupFunc func(ctx context.Context) error

type cleanupEntry struct {
	name string
	fn   CleanupFunc
}

// Manager cancels a session context on Shutdown and runs cleanups on Wait.
type Manager struct {
	mu       sync.Mutex
	cleanups []cleanupEntry
	stopped  bool
	waited   bool
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once
}

// NewManager creates a manager whose context is derived from parent.
func NewManager(parent context.Context) *Manager {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Manager{ctx: ctx, cancel: cancel}
}

// RegisterCleanup adds a cleanup. Cleanups run last registered first.
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanupEntry{name: name, fn: fn})
}

// Shutdown cancels the session context. Only the first call has effect.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		m.mu.Lock()
		m.stopped = true
		m.mu.Unlock()
		m.cancel()
	})
}

// HandleSignals calls Shutdown when one of sigs arrives. The returned stop
// function detaches the handler.
func (m *Manager) HandleSignals(sigs ...os.Signal) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-ch:
			utils.Debugf("Received %s, shutting down", sig)
			m.Shutdown()
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}

// Wait runs every cleanup once, in reverse registration order, and cancels
// the session context. It returns ctx.Err() if ctx expires first, otherwise
// the joined cleanup errors.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	if m.waited {
		m.mu.Unlock()
		return nil
	}
	m.waited = true
	cleanups := make([]cleanupEntry, len(m.cleanups))
	copy(cleanups, m.cleanups)
	m.mu.Unlock()

	m.Shutdown()

	done := make(chan error, 1)
	go func() {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i].fn(ctx); err != nil {
				utils.Warnf("Cleanup %s failed: %v", cleanups[i].name, err)
				errs = append(errs, err)
			}
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsShutdown reports whether Shutdown has been called.
func (m *Manager) IsShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// Context is cancelled on Shutdown or when the parent is cancelled.
func (m *Manager) Context() context.Context {
	return m.ctx
}

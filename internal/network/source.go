package network

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"thingsish/internal/config"
	"thingsish/internal/utils"
	"thingsish/internal/watcher"
)

// OfflineFlagged reports whether the offline flag file exists.
func OfflineFlagged(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SetOffline creates the flag file when offline is true and removes it
// otherwise. Both directions are idempotent.
func SetOffline(path string, offline bool) error {
	if !offline {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove offline flag: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return fmt.Errorf("failed to write offline flag: %w", err)
	}
	return nil
}

// StatusFile feeds a Monitor from the presence of a flag file. The file
// existing means offline.
type StatusFile struct {
	path    string
	monitor *Monitor
	w       *watcher.Watcher
}

// WatchStatusFile sets monitor from the flag file at path and keeps it in
// sync until Close. The parent directory is created if missing.
func WatchStatusFile(path string, debounce time.Duration, monitor *Monitor) (*StatusFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	s := &StatusFile{path: path, monitor: monitor}
	w, err := watcher.New(&watcher.Config{
		Paths:            []string{path},
		DebounceDuration: debounce,
		OnChange:         s.refresh,
		OnError: func(err error) {
			utils.Warnf("network: watching %s: %v", path, err)
		},
	})
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return nil, err
	}
	s.w = w

	// Read after the watch is in place so no change is missed.
	s.refresh()
	return s, nil
}

func (s *StatusFile) refresh() {
	online := !OfflineFlagged(s.path)
	utils.Debugf("network: %s flag=%s", Badge(online), s.path)
	s.monitor.Set(online)
}

// Close stops watching. The monitor keeps its last state.
func (s *StatusFile) Close() error {
	s.w.Stop()
	return nil
}

// nopCloser is returned for forced modes, which have nothing to watch.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Closer releases a connectivity source.
type Closer interface {
	Close() error
}

// FromConfig builds a Monitor according to network.mode. In auto mode the
// flag file drives the signal; online and offline are fixed for the session.
func FromConfig(cfg *config.Config) (*Monitor, Closer, error) {
	switch cfg.Network.Mode {
	case config.NetworkOnline:
		return NewMonitor(true), nopCloser{}, nil
	case config.NetworkOffline:
		return NewMonitor(false), nopCloser{}, nil
	case config.NetworkAuto, "":
		path := cfg.Network.StatusFile
		m := NewMonitor(!OfflineFlagged(path))
		src, err := WatchStatusFile(path, cfg.GetNetworkDebounce(), m)
		if err != nil {
			return nil, nil, err
		}
		return m, src, nil
	default:
		return nil, nil, fmt.Errorf("invalid network.mode: %q", cfg.Network.Mode)
	}
}

// Snapshot reports the state a fresh session would start in without
// starting a watcher.
func Snapshot(cfg *config.Config) bool {
	switch cfg.Network.Mode {
	case config.NetworkOnline:
		return true
	case config.NetworkOffline:
		return false
	default:
		return !OfflineFlagged(cfg.Network.StatusFile)
	}
}

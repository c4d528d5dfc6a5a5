// Package session owns the lifetime of the single device connection shared by
// all tool calls. At any instant either no handle exists or exactly one does,
// and that one is what every caller receives.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/spance/android-operator/operator"
	"github.com/spance/android-operator/operator/definitions"
	"github.com/spance/android-operator/operator/faults"
)

type Manager struct {
	driver operator.Driver
	serial string

	// mu guards handle mutation: connect, staleness teardown, replace.
	// Concurrent Acquire callers during an in-flight connect block here and
	// then observe the same handle (or the same failure class).
	mu     sync.Mutex
	handle atomic.Pointer[definitions.Handle]

	// cmdMu is the device-command critical section. It is deliberately
	// separate from mu so a reconnect never blocks a cheap cache read and a
	// long-running command never blocks Acquire.
	cmdMu sync.Mutex
}

func NewManager(driver operator.Driver, serial string) *Manager {
	return &Manager{driver: driver, serial: serial}
}

// Acquire returns the cached handle, connecting lazily on first use. A stale
// handle is torn down and replaced with exactly one reconnect attempt; if
// that fails the call fails, it never loops.
func (m *Manager) Acquire(ctx context.Context) (*definitions.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h := m.handle.Load(); h != nil {
		if m.driver.Alive(ctx, h) {
			return h, nil
		}
		log.Warn().Str("serial", h.Serial).Msg("cached device handle is stale, reconnecting")
		_ = m.driver.Disconnect(ctx, h)
		m.handle.Store(nil)
	}

	h, err := m.driver.Connect(ctx, m.serial)
	if err != nil {
		return nil, faults.Wrap(faults.NoDevice, err, "no reachable device")
	}
	m.handle.Store(h)
	log.Info().Str("serial", h.Serial).Msg("device session established")
	return h, nil
}

// Cached reports the current handle without touching the connect path. Nil
// means no session exists yet.
func (m *Manager) Cached() *definitions.Handle {
	return m.handle.Load()
}

// WithDevice acquires the session and runs fn under the device-command lock.
// The device only executes one command at a time in practice, so every
// handler's device interaction goes through here; validation and bookkeeping
// stay outside the lock.
func (m *Manager) WithDevice(ctx context.Context, fn func(h *definitions.Handle) error) error {
	h, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()
	return fn(h)
}

// Close tears down the session if one exists. Safe to call repeatedly.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h := m.handle.Load(); h != nil {
		_ = m.driver.Disconnect(ctx, h)
		m.handle.Store(nil)
		log.Info().Str("serial", h.Serial).Msg("device session closed")
	}
}

// Package interrupt carries operator overrides from the UI to the running
// route. The engine polls it between steps; nothing is ever preempted.
package interrupt

import (
	"context"
	"log/slog"
	"sync"
)

// Signal is an operator override.
type Signal int

const (
	None            Signal = iota
	Soft                   // F7, consumed without effect
	Pause                  // F8, toggles pause
	Resume                 // Leaves pause
	RestartTeleport        // F9, teleport again then restart the route steps
	Restart                // F10, restart the route steps
)

func (s Signal) String() string {
	switch s {
	case None:
		return "none"
	case Soft:
		return "soft"
	case Pause:
		return "pause"
	case Resume:
		return "resume"
	case RestartTeleport:
		return "restart-teleport"
	case Restart:
		return "restart"
	default:
		return "unknown"
	}
}

// Hard reports whether the signal restarts the current route.
func (s Signal) Hard() bool {
	return s == RestartTeleport || s == Restart
}

// queueSize bounds the pending signals; extra presses are dropped.
const queueSize = 8

// Monitor queues signals sent from the UI goroutine for the engine goroutine.
type Monitor struct {
	log *slog.Logger
	ch  chan Signal

	mu     sync.Mutex
	dev    bool
	paused bool
}

// NewMonitor creates an idle monitor.
func NewMonitor(log *slog.Logger) *Monitor {
	return &Monitor{log: log, ch: make(chan Signal, queueSize)}
}

// SetDev enables the restart signals, which are developer tools.
func (m *Monitor) SetDev(dev bool) {
	m.mu.Lock()
	m.dev = dev
	m.mu.Unlock()
}

// Send queues a signal without blocking. It reports false when the queue is
// full.
func (m *Monitor) Send(s Signal) bool {
	select {
	case m.ch <- s:
		return true
	default:
		m.log.Warn("override queue full, signal dropped", "signal", s)
		return false
	}
}

// Paused reports whether the engine is held at its next check.
func (m *Monitor) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Reset drops queued signals and leaves pause, for a new session.
func (m *Monitor) Reset() {
	m.mu.Lock()
	m.paused = false
	m.mu.Unlock()
	for {
		select {
		case <-m.ch:
		default:
			return
		}
	}
}

// Check drains the queued signals. It returns at once unless paused, in
// which case it blocks until resumed, restarted or ctx is done. The result
// is a hard signal when one was honoured, Soft when only soft signals were
// seen and None otherwise. Hard signals outside dev mode are consumed as
// soft ones.
func (m *Monitor) Check(ctx context.Context) Signal {
	result := None
	for {
		var s Signal
		if m.Paused() {
			select {
			case s = <-m.ch:
			case <-ctx.Done():
				return result
			}
		} else {
			select {
			case s = <-m.ch:
			default:
				return result
			}
		}

		m.mu.Lock()
		dev := m.dev
		switch {
		case s == Pause:
			m.paused = !m.paused
		case s == Resume:
			m.paused = false
		case s.Hard() && dev:
			m.paused = false
		}
		paused := m.paused
		m.mu.Unlock()

		switch {
		case s == Pause || s == Resume:
			if paused {
				m.log.InfoContext(ctx, "paused, waiting for resume")
			} else {
				m.log.InfoContext(ctx, "resumed")
			}
		case s.Hard() && dev:
			m.log.InfoContext(ctx, "restart requested", "signal", s)
			return s
		case s.Hard():
			m.log.InfoContext(ctx, "restart ignored outside dev mode", "signal", s)
			result = Soft
		default:
			m.log.DebugContext(ctx, "soft signal consumed", "signal", s)
			result = Soft
		}
	}
}

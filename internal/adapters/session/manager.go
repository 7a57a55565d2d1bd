// Copyright 2025.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
	"github.com/Qingbolan/Print-SoC/internal/core/ports"
)

// transport is an established, authenticated connection. The real
// implementation lives in transport.go; tests substitute fakes through
// the Manager's connect field.
type transport interface {
	ports.RemoteClient
	Ping() error
	Close() error
}

type connectFunc func(domain.ConnectionConfig) (transport, error)

// Manager owns the single process-wide session. Other components never
// hold the transport directly; access is brokered through Run, which
// re-validates the session and silently reconnects once before handing
// control to the caller's operation. The guard covers only handle
// bookkeeping, never a remote call.
type Manager struct {
	mu           sync.Mutex
	tr           transport
	cfg          *domain.ConnectionConfig
	lastActivity time.Time
	connect      connectFunc
	logger       *zap.SugaredLogger
}

func NewManager(logger *zap.SugaredLogger) *Manager {
	return &Manager{
		connect: dialSSH,
		logger:  logger,
	}
}

// Connect establishes and authenticates a new session, replacing any
// existing one, and stores the config for later reconnection.
func (m *Manager) Connect(cfg domain.ConnectionConfig) (string, error) {
	tr, err := m.connect(cfg)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	old := m.tr
	m.tr = tr
	stored := cfg
	m.cfg = &stored
	m.lastActivity = time.Now()
	m.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	m.logger.Infow("session established", "target", cfg.Redacted())
	return fmt.Sprintf("Connected to %s@%s:%d", cfg.Username, cfg.Host, cfg.Port), nil
}

// Disconnect drops the session. Fails if none exists.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	tr := m.tr
	m.tr = nil
	m.mu.Unlock()

	if tr == nil {
		return &domain.ConnectionError{Reason: "no active session"}
	}
	if err := tr.Close(); err != nil {
		m.logger.Warnw("error closing session", "error", err)
	}
	m.logger.Infow("session closed")
	return nil
}

// Connected reports whether a session is currently held. Non-blocking:
// contention on the guard degrades to "not connected".
func (m *Manager) Connected() bool {
	if !m.mu.TryLock() {
		return false
	}
	defer m.mu.Unlock()
	return m.tr != nil
}

// Run validates the session and invokes op with it. When no session
// exists yet, a supplied cfg establishes the initial one. A failed probe
// triggers exactly one reconnection from the stored config; a second
// failure surfaces so the caller can reconnect explicitly instead of
// stalling on a dead network.
func (m *Manager) Run(cfg *domain.ConnectionConfig, op func(ports.RemoteClient) error) error {
	tr, err := m.ensureValid(cfg)
	if err != nil {
		return err
	}
	if err := op(tr); err != nil {
		return err
	}
	m.mu.Lock()
	m.lastActivity = time.Now()
	m.mu.Unlock()
	return nil
}

// ensureValid is two-phase: the health probe runs with no lock held, and
// any replacement transport is committed under a fresh acquisition.
func (m *Manager) ensureValid(override *domain.ConnectionConfig) (transport, error) {
	m.mu.Lock()
	tr := m.tr
	stored := m.cfg
	m.mu.Unlock()

	if tr == nil {
		cfg := stored
		if cfg == nil {
			cfg = override
		}
		if cfg == nil {
			return nil, &domain.ConnectionError{Reason: "not connected; run connect first"}
		}
		return m.replace(*cfg, nil)
	}

	if err := tr.Ping(); err == nil {
		m.mu.Lock()
		m.lastActivity = time.Now()
		m.mu.Unlock()
		return tr, nil
	}

	m.logger.Warnw("session probe failed, attempting one reconnect")
	if stored == nil {
		// A live transport implies a stored config; defensive only.
		return nil, &domain.ConnectionError{Reason: "session lost and no stored config; reconnect explicitly"}
	}
	return m.replace(*stored, tr)
}

// replace establishes a new transport with no lock held and commits it.
// stale, if any, is discarded regardless of the outcome.
func (m *Manager) replace(cfg domain.ConnectionConfig, stale transport) (transport, error) {
	if stale != nil {
		_ = stale.Close()
	}

	tr, err := m.connect(cfg)
	if err != nil {
		m.mu.Lock()
		if m.tr == stale {
			m.tr = nil
		}
		m.mu.Unlock()
		return nil, &domain.ConnectionError{
			Reason: "session lost and reconnect failed; reconnect explicitly",
			Err:    err,
		}
	}

	m.mu.Lock()
	m.tr = tr
	stored := cfg
	m.cfg = &stored
	m.lastActivity = time.Now()
	m.mu.Unlock()

	m.logger.Infow("session re-established", "target", cfg.Redacted())
	return tr, nil
}

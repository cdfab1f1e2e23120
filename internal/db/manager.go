package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"factory-assistant/internal/store"
)

var ErrUnavailable = errors.New("document store unavailable")

// Opener establishes a fresh document store handle.
type Opener func(ctx context.Context) (store.DocumentStore, error)

type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

// Manager owns the shared store handle and its availability. Callers get the handle
// through Store, which reacquires it when a previous failure marked it unavailable.
type Manager struct {
	open      Opener
	startup   RetryPolicy
	reconnect RetryPolicy
	log       zerolog.Logger

	mu        sync.Mutex
	current   store.DocumentStore
	available bool
	lastErr   error
}

func NewManager(open Opener, startup, reconnect RetryPolicy, log zerolog.Logger) *Manager {
	return &Manager{
		open:      open,
		startup:   startup,
		reconnect: reconnect,
		log:       log,
	}
}

// Connect performs the startup acquisition. On failure the manager stays degraded and
// the error is returned for logging only.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquire(ctx, m.startup)
}

func (m *Manager) Store(ctx context.Context) (store.DocumentStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.available && m.current != nil {
		return m.current, nil
	}
	if err := m.acquire(ctx, m.reconnect); err != nil {
		return nil, err
	}
	return m.current, nil
}

func (m *Manager) MarkUnavailable(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.available {
		m.log.Warn().Err(err).Msg("document store marked unavailable")
	}
	m.available = false
	m.lastErr = err
}

func (m *Manager) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.available = false
	return closeStore(m.current)
}

// acquire must be called with mu held.
func (m *Manager) acquire(ctx context.Context, policy RetryPolicy) error {
	attempts := policy.Attempts
	if attempts == 0 {
		attempts = 1
	}

	var acquired store.DocumentStore
	err := retry.Do(
		func() error {
			candidate, err := m.open(ctx)
			if err != nil {
				return err
			}
			if err := candidate.Ping(ctx); err != nil {
				_ = closeStore(candidate)
				return err
			}
			collections, err := candidate.ListCollections(ctx)
			if err != nil {
				_ = closeStore(candidate)
				return err
			}
			m.log.Info().Strs("collections", collections).Msg("document store connected")
			acquired = candidate
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(policy.Delay),
		retry.MaxDelay(policy.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			m.log.Warn().Err(err).Uint("attempt", n+1).Uint("max_attempts", attempts).Msg("document store connection failed")
		}),
	)
	if err != nil {
		m.available = false
		m.lastErr = err
		m.log.Error().Err(err).Msg("document store unavailable, running degraded")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if m.current != nil && m.current != acquired {
		_ = closeStore(m.current)
	}
	m.current = acquired
	m.available = true
	m.lastErr = nil
	return nil
}

func closeStore(s store.DocumentStore) error {
	if closer, ok := s.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factory-assistant/internal/store"
)

type flakyOpener struct {
	failures int
	calls    int
	store    *store.Memory
}

func (f *flakyOpener) open(ctx context.Context) (store.DocumentStore, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection refused")
	}
	return f.store, nil
}

func fastPolicy(attempts uint) RetryPolicy {
	return RetryPolicy{Attempts: attempts, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestManagerConnectRetriesWithBackoff(t *testing.T) {
	opener := &flakyOpener{failures: 2, store: store.NewMemory()}
	m := NewManager(opener.open, fastPolicy(5), fastPolicy(1), zerolog.Nop())

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, 3, opener.calls)
	assert.True(t, m.Available())

	got, err := m.Store(context.Background())
	require.NoError(t, err)
	assert.Same(t, opener.store, got)
	assert.Equal(t, 3, opener.calls)
}

func TestManagerDegradesAfterBoundedAttempts(t *testing.T) {
	opener := &flakyOpener{failures: 100, store: store.NewMemory()}
	m := NewManager(opener.open, fastPolicy(3), fastPolicy(1), zerolog.Nop())

	err := m.Connect(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, opener.calls)
	assert.False(t, m.Available())
	assert.Error(t, m.LastError())

	_, err = m.Store(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 4, opener.calls)
}

func TestManagerReacquiresAfterMarkUnavailable(t *testing.T) {
	opener := &flakyOpener{store: store.NewMemory()}
	m := NewManager(opener.open, fastPolicy(1), fastPolicy(2), zerolog.Nop())
	require.NoError(t, m.Connect(context.Background()))

	m.MarkUnavailable(errors.New("query failed"))
	assert.False(t, m.Available())

	opener.failures = opener.calls + 1
	got, err := m.Store(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.True(t, m.Available())
	assert.Equal(t, 3, opener.calls)
}

package conversation

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/edgard/carebot/internal/responder"
)

func newTestManager(t *testing.T) (*Manager, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	m := NewManager(responder.NewDefault(), Config{TypingDelay: testDelay, Clock: clock})
	t.Cleanup(func() { m.Close() })
	return m, clock
}

func TestManager_CreateGetDispose(t *testing.T) {
	m, _ := newTestManager(t)

	s := m.Create()
	require.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	require.Same(t, s, got)

	require.NoError(t, m.Dispose(s.ID()))
	require.True(t, s.Disposed())
	require.Equal(t, 0, m.Len())

	_, err = m.Get(s.ID())
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.ErrorIs(t, m.Dispose(s.ID()), ErrSessionNotFound)
}

func TestManager_GetOrCreate(t *testing.T) {
	m, _ := newTestManager(t)

	s, created := m.GetOrCreate("tg:42")
	require.True(t, created)
	require.Equal(t, "tg:42", s.ID())

	again, created := m.GetOrCreate("tg:42")
	require.False(t, created)
	require.Same(t, s, again)
	require.Equal(t, 1, m.Len())
}

func TestManager_SweepIdle(t *testing.T) {
	m, clock := newTestManager(t)

	stale := m.Create()
	busy := m.Create()
	clock.Advance(10 * time.Minute)

	_, err := busy.Submit("đặt lịch", responder.Anonymous())
	require.NoError(t, err)

	require.Equal(t, 1, m.SweepIdle(5*time.Minute))
	require.True(t, stale.Disposed())
	require.False(t, busy.Disposed())

	clock.Advance(testDelay)
	waitLen(t, busy, 3)

	clock.Advance(10 * time.Minute)
	require.Equal(t, 1, m.SweepIdle(5*time.Minute))
	require.True(t, busy.Disposed())
	require.Equal(t, 0, m.Len())
}

func TestManager_SweepSkipsPendingReplies(t *testing.T) {
	m, clock := newTestManager(t)

	s := m.Create()
	_, err := s.Submit("cảm ơn", responder.Anonymous())
	require.NoError(t, err)

	require.Equal(t, 0, m.SweepIdle(-time.Hour))
	require.False(t, s.Disposed())

	clock.Advance(testDelay)
	waitLen(t, s, 3)
}

func TestManager_Close(t *testing.T) {
	m, _ := newTestManager(t)

	a := m.Create()
	b := m.Create()
	_, err := b.Submit("quyên góp", responder.Anonymous())
	require.NoError(t, err)

	require.Equal(t, 2, m.Close())
	require.True(t, a.Disposed())
	require.True(t, b.Disposed())
	require.Equal(t, 0, m.Len())
}

func TestManager_SweepSparesTouchedSessions(t *testing.T) {
	m, clock := newTestManager(t)

	watched := m.Create()
	updates, unsubscribe := watched.Subscribe()
	defer unsubscribe()
	idle := m.Create()

	clock.Advance(31 * time.Minute)
	watched.Touch()

	require.Equal(t, 1, m.SweepIdle(30*time.Minute))
	require.True(t, idle.Disposed())
	require.False(t, watched.Disposed())

	_, err := watched.Submit("bác sĩ", responder.Anonymous())
	require.NoError(t, err)
	msg := <-updates
	require.Equal(t, AuthorUser, msg.Author)

	clock.Advance(testDelay)
	waitLen(t, watched, 3)

	// A subscription alone does not count as activity.
	clock.Advance(31 * time.Minute)
	require.Equal(t, 1, m.SweepIdle(30*time.Minute))
	require.True(t, watched.Disposed())
}

func TestSession_TouchAfterDispose(t *testing.T) {
	m, clock := newTestManager(t)

	s := m.Create()
	before := s.LastActivity()
	s.Dispose()
	clock.Advance(time.Minute)
	s.Touch()
	require.Equal(t, before, s.LastActivity())
}

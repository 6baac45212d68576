package session

import (
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func TestKeyBeforeSet(t *testing.T) {
	m := NewManager(clock.NewTestClock(testStart))
	require.False(t, m.Active())
	_, err := m.Key()
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestKeyLifetime(t *testing.T) {
	clk := clock.NewTestClock(testStart)
	m := NewManager(clk)

	m.Set([]byte("credential"))
	key, err := m.Key()
	require.NoError(t, err)
	require.Equal(t, []byte("credential"), key)

	// Still valid one instant before expiry.
	clk.SetTime(testStart.Add(DefaultTimeout - time.Nanosecond))
	require.True(t, m.Active())

	// Expired exactly at the deadline, checked at call time.
	clk.SetTime(testStart.Add(DefaultTimeout))
	_, err = m.Key()
	require.ErrorIs(t, err, ErrSessionExpired)
	require.False(t, m.Active())
}

func TestSetRestartsExpiry(t *testing.T) {
	clk := clock.NewTestClock(testStart)
	m := NewManager(clk)

	m.Set([]byte("first"))
	clk.SetTime(testStart.Add(100 * time.Second))

	// Re-establishing replaces the key and re-arms the full timeout.
	m.Set([]byte("second"))
	clk.SetTime(testStart.Add(100*time.Second + DefaultTimeout - time.Second))
	key, err := m.Key()
	require.NoError(t, err)
	require.Equal(t, []byte("second"), key)
}

func TestUseDoesNotSlideExpiry(t *testing.T) {
	clk := clock.NewTestClock(testStart)
	m := NewManager(clk)
	m.Set([]byte("credential"))

	// Heavy use half-way through the window must not extend it.
	clk.SetTime(testStart.Add(DefaultTimeout / 2))
	for i := 0; i < 5; i++ {
		_, err := m.Key()
		require.NoError(t, err)
	}
	clk.SetTime(testStart.Add(DefaultTimeout))
	_, err := m.Key()
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestClear(t *testing.T) {
	clk := clock.NewTestClock(testStart)
	m := NewManager(clk)
	m.Set([]byte("credential"))
	m.Clear()
	_, err := m.Key()
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestKeyReturnsCopy(t *testing.T) {
	clk := clock.NewTestClock(testStart)
	m := NewManagerTimeout(clk, time.Minute)

	src := []byte("credential")
	m.Set(src)
	src[0] = 'X'

	key, err := m.Key()
	require.NoError(t, err)
	require.Equal(t, []byte("credential"), key)

	// Mutating the returned copy does not affect later reads.
	key[0] = 'Y'
	again, err := m.Key()
	require.NoError(t, err)
	require.Equal(t, []byte("credential"), again)
}

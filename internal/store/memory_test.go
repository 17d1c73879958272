package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type change struct {
	key   string
	value []byte
}

func recordChanges(t *testing.T, s Store, key string) (<-chan change, func()) {
	t.Helper()
	ch := make(chan change, 16)
	cancel := s.OnExternalChange(key, func(k string, v []byte) {
		ch <- change{key: k, value: v}
	})
	return ch, cancel
}

func expectChange(t *testing.T, ch <-chan change, timeout time.Duration) change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(timeout):
		t.Fatal("timed out waiting for change notification")
		return change{}
	}
}

func expectNoChange(t *testing.T, ch <-chan change, wait time.Duration) {
	t.Helper()
	select {
	case c := <-ch:
		t.Fatalf("unexpected change notification for %q: %s", c.key, c.value)
	case <-time.After(wait):
	}
}

func TestMemoryStore_ReadAbsent(t *testing.T) {
	s := NewHub().Context()
	v, ok, err := s.Read("windows")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, v)
}

func TestMemoryStore_WriteVisibleToAllContexts(t *testing.T) {
	hub := NewHub()
	a, b := hub.Context(), hub.Context()

	require.NoError(t, a.Write("windows", []byte(`[]`)))

	for _, s := range []*MemoryStore{a, b} {
		v, ok, err := s.Read("windows")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, `[]`, string(v))
	}
}

func TestMemoryStore_NotifiesOnlyOtherContexts(t *testing.T) {
	hub := NewHub()
	a, b := hub.Context(), hub.Context()

	aChanges, cancelA := recordChanges(t, a, "windows")
	defer cancelA()
	bChanges, cancelB := recordChanges(t, b, "windows")
	defer cancelB()

	require.NoError(t, a.Write("windows", []byte(`["from a"]`)))

	c := expectChange(t, bChanges, time.Second)
	require.Equal(t, "windows", c.key)
	require.Equal(t, `["from a"]`, string(c.value))
	expectNoChange(t, aChanges, 50*time.Millisecond)
}

func TestMemoryStore_IgnoresOtherKeys(t *testing.T) {
	hub := NewHub()
	a, b := hub.Context(), hub.Context()

	bChanges, cancel := recordChanges(t, b, "windows")
	defer cancel()

	require.NoError(t, a.Write("cameraState", []byte(`{}`)))
	expectNoChange(t, bChanges, 50*time.Millisecond)
}

func TestMemoryStore_CancelStopsNotifications(t *testing.T) {
	hub := NewHub()
	a, b := hub.Context(), hub.Context()

	bChanges, cancel := recordChanges(t, b, "windows")
	cancel()
	cancel() // idempotent

	require.NoError(t, a.Write("windows", []byte(`[]`)))
	expectNoChange(t, bChanges, 50*time.Millisecond)
}

func TestMemoryStore_ClearNotifiesRemoval(t *testing.T) {
	hub := NewHub()
	a, b := hub.Context(), hub.Context()
	require.NoError(t, a.Write("windows", []byte(`[]`)))

	bChanges, cancel := recordChanges(t, b, "windows")
	defer cancel()

	require.NoError(t, a.Clear())
	c := expectChange(t, bChanges, time.Second)
	require.Nil(t, c.value)
	require.Empty(t, hub.Keys())

	_, ok, err := b.Read("windows")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewHub().Context()
	buf := []byte(`[1]`)
	require.NoError(t, s.Write("k", buf))
	buf[1] = '9'

	v, _, err := s.Read("k")
	require.NoError(t, err)
	require.Equal(t, `[1]`, string(v))

	v[1] = '7'
	again, _, _ := s.Read("k")
	require.Equal(t, `[1]`, string(again))
}

func TestMemoryStore_FailWrites(t *testing.T) {
	hub := NewHub()
	s := hub.Context()
	quota := errors.New("quota exceeded")

	hub.FailWrites(quota)
	require.ErrorIs(t, s.Write("k", []byte(`x`)), quota)
	_, ok, _ := s.Read("k")
	require.False(t, ok)

	hub.FailWrites(nil)
	require.NoError(t, s.Write("k", []byte(`x`)))
}

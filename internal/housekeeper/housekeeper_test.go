package housekeeper_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
	"github.com/dantte-lp/dataexchange-broker/internal/housekeeper"
)

type fakeSnapshotter struct {
	calls int
}

func (f *fakeSnapshotter) Snapshot(_ context.Context) []session.Snapshot {
	f.calls++
	return []session.Snapshot{{
		ID:     session.ID{ClientID: "x"},
		Status: session.StatusActive,
		Flags:  map[int]int{1: 0},
	}}
}

func TestHousekeeperTicksAndStopsCleanly(t *testing.T) {
	fake := &fakeSnapshotter{}
	hk := housekeeper.New(fake, slog.New(slog.DiscardHandler), time.Second)
	hk.Start()

	require.Eventually(t, func() bool {
		return fake.calls >= 2
	}, 3*time.Second, 10*time.Millisecond)

	hk.Stop()
	callsAtStop := fake.calls
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, callsAtStop, fake.calls, "housekeeper must not tick after Stop")

	recent := hk.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, session.StatusActive, recent[0][0].Status)
}

func TestHousekeeperClampsInterval(t *testing.T) {
	fake := &fakeSnapshotter{}
	hk := housekeeper.New(fake, slog.New(slog.DiscardHandler), time.Millisecond)
	require.NotNil(t, hk)
	hk.Start()
	time.Sleep(100 * time.Millisecond)
	hk.Stop()
	assert.Zero(t, fake.calls, "a 1ms interval is clamped up to 1s, so no tick fires within 100ms")
}

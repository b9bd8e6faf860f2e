package playback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchparty/server/internal/domain"
)

func TestBootstrapSeeksToMostRecentParticipant(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newFakeStore()
	player := newFakePlayer(0)

	var notices []string
	e := newTestEngine(store, player, clock, &Config{
		Notify: func(message string) { notices = append(notices, message) },
	})

	store.setTime("other1", domain.ParticipantTime{
		CurrentTime: 120,
		LastActive:  domain.TimestampAt(clock.now().Add(-10 * time.Second)),
	})
	store.setTime("other2", domain.ParticipantTime{
		CurrentTime: 300,
		LastActive:  domain.TimestampAt(clock.now().Add(-5 * time.Minute)),
	})
	store.setTime("me", domain.ParticipantTime{
		CurrentTime: 999,
		LastActive:  domain.TimestampAt(clock.now()),
	})

	e.Bootstrap(ctx)

	_, _, seeks := player.counts()
	require.Len(t, seeks, 1)
	assert.InDelta(t, 130.5, seeks[0], 1e-9, "their time plus report age plus startup buffer")
	assert.Len(t, notices, 1)

	// the new position is written back so later joiners can sync with us
	require.Len(t, store.timeWrites, 1)
	assert.InDelta(t, 130.5, store.timeWrites[0].CurrentTime, 1e-9)

	// once per lifetime, even if a fresher report shows up
	store.setTime("other2", domain.ParticipantTime{
		CurrentTime: 500,
		LastActive:  domain.TimestampAt(clock.now()),
	})
	e.Bootstrap(ctx)
	_, _, seeks = player.counts()
	assert.Len(t, seeks, 1)
}

func TestBootstrapRetriesWhileDirectoryEmpty(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newFakeStore()
	player := newFakePlayer(0)
	e := newTestEngine(store, player, clock, nil)

	e.Bootstrap(ctx)
	assert.False(t, e.synced, "an empty directory means nothing is known yet")

	store.setTime("other", domain.ParticipantTime{
		CurrentTime: 60,
		LastActive:  domain.TimestampAt(clock.now().Add(-2 * time.Second)),
	})

	e.Bootstrap(ctx)
	assert.True(t, e.synced)

	_, _, seeks := player.counts()
	require.Len(t, seeks, 1)
	assert.InDelta(t, 62.5, seeks[0], 1e-9)
}

func TestBootstrapAloneInSession(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newFakeStore()
	player := newFakePlayer(0)
	e := newTestEngine(store, player, clock, nil)

	store.setTime("me", domain.ParticipantTime{
		CurrentTime: 40,
		LastActive:  domain.TimestampAt(clock.now()),
	})

	e.Bootstrap(ctx)

	assert.True(t, e.synced)
	_, _, seeks := player.counts()
	assert.Empty(t, seeks, "own entry is not a sync source")
}

func TestBootstrapInvalidReportedTime(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newFakeStore()
	player := newFakePlayer(0)
	e := newTestEngine(store, player, clock, nil)

	store.setTime("other", domain.ParticipantTime{
		CurrentTime: 0,
		LastActive:  domain.TimestampAt(clock.now()),
	})

	e.Bootstrap(ctx)

	assert.True(t, e.synced, "a useless report still settles the question")
	_, _, seeks := player.counts()
	assert.Empty(t, seeks)
}

func TestBootstrapWaitsForPlayer(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newFakeStore()
	player := newFakePlayer(0)
	player.ready = false
	e := newTestEngine(store, player, clock, nil)

	store.setTime("other", domain.ParticipantTime{
		CurrentTime: 60,
		LastActive:  domain.TimestampAt(clock.now()),
	})

	e.Bootstrap(ctx)
	assert.False(t, e.synced)

	player.mu.Lock()
	player.ready = true
	player.mu.Unlock()

	e.Bootstrap(ctx)
	assert.True(t, e.synced)
	_, _, seeks := player.counts()
	require.Len(t, seeks, 1)
	assert.InDelta(t, 60.5, seeks[0], 1e-9)
}

func TestBootstrapClockSkewClampedToZero(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newFakeStore()
	player := newFakePlayer(0)
	e := newTestEngine(store, player, clock, nil)

	// a report stamped in the future must not subtract playback time
	store.setTime("other", domain.ParticipantTime{
		CurrentTime: 60,
		LastActive:  domain.TimestampAt(clock.now().Add(10 * time.Second)),
	})

	e.Bootstrap(ctx)

	_, _, seeks := player.counts()
	require.Len(t, seeks, 1)
	assert.InDelta(t, 60.5, seeks[0], 1e-9)
}

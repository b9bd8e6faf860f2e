package playback

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionredis "github.com/watchparty/server/internal/repository/session/redis"
)

// Two engines sharing one session log through the redis repository: a local
// action on one side must converge the player on the other, and never echo
// back to its own player.
func TestEnginesConvergeOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	repo := sessionredis.NewRepo(rc, time.Hour)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	playerA := newFakePlayer(42)
	engineA := NewEngine(repo, repo, playerA, logger, &Config{
		SessionId: "s1",
		UserId:    "a",
	})

	playerB := newFakePlayer(0)
	engineB := NewEngine(repo, repo, playerB, logger, &Config{
		SessionId: "s1",
		UserId:    "b",
		// keep the corrective play prompt inside the test window
		SeekSettleDelay: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runA := make(chan error, 1)
	runB := make(chan error, 1)
	go func() { runA <- engineA.Run(ctx) }()
	go func() { runB <- engineB.Run(ctx) }()

	// let both subscriptions attach before publishing
	time.Sleep(100 * time.Millisecond)

	// A starts playing at 42s; B is far behind, so it must seek then play
	engineA.OnPlayerStateChange(ctx, true)

	require.Eventually(t, func() bool {
		plays, _, _ := playerB.counts()
		return plays == 1
	}, 3*time.Second, 10*time.Millisecond, "B never applied A's play event")

	_, _, seeksB := playerB.counts()
	require.Len(t, seeksB, 1)
	assert.InDelta(t, 42, seeksB[0], 1.0, "B converges on A's reported position")

	playsA, _, seeksA := playerA.counts()
	assert.Zero(t, playsA, "A must not apply its own event")
	assert.Empty(t, seeksA)

	// the other direction: B pauses, A's player follows
	engineB.OnPlayerStateChange(ctx, false)

	require.Eventually(t, func() bool {
		_, pauses, _ := playerA.counts()
		return pauses == 1
	}, 3*time.Second, 10*time.Millisecond, "A never applied B's pause event")

	_, pausesB, _ := playerB.counts()
	assert.Zero(t, pausesB, "B must not apply its own event")

	cancel()
	require.NoError(t, <-runA)
	require.NoError(t, <-runB)
}

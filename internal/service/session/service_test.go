package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/connection/inmemory"
	sessionrepo "github.com/watchparty/server/internal/repository/session"
	sessionredis "github.com/watchparty/server/internal/repository/session/redis"
)

func newTestService(t *testing.T) (*service, iSessionRepo) {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	sessionRepo := sessionredis.NewRepo(rc, time.Hour)
	connRepo := inmemory.NewRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(sessionRepo, connRepo, logger, &Config{
		EventTTL:        time.Minute,
		InactiveTimeout: 30 * time.Second,
	})

	return svc, sessionRepo
}

func TestCreateAndJoinSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, &CreateSessionParams{
		Username:       "alice",
		InitialVideoId: "video-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.SessionId)
	assert.NotEmpty(t, created.ParticipantId)
	assert.NotEmpty(t, created.AuthToken)

	isModerator, err := svc.IsModerator(ctx, created.SessionId, created.ParticipantId)
	require.NoError(t, err)
	assert.True(t, isModerator, "the creator moderates the session")

	joined, err := svc.JoinSession(ctx, &JoinSessionParams{
		Username:  "bob",
		SessionId: created.SessionId,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, joined.JoinedParticipant.Id)
	assert.NotEmpty(t, joined.AuthToken)
	assert.False(t, joined.JoinedParticipant.IsModerator)
	assert.True(t, joined.JoinedParticipant.IsActive)
	assert.Equal(t, "video-1", joined.State.VideoId)
	assert.Equal(t, domain.ScreenLobby, joined.State.Screen)
	assert.Len(t, joined.State.Participants, 2)
}

func TestJoinSessionNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.JoinSession(context.Background(), &JoinSessionParams{
		Username:  "bob",
		SessionId: "no-such-session",
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestJoinSessionReconnect(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, &CreateSessionParams{Username: "alice"})
	require.NoError(t, err)

	joined, err := svc.JoinSession(ctx, &JoinSessionParams{
		Username:  "bob",
		SessionId: created.SessionId,
	})
	require.NoError(t, err)

	// rejoining with the issued token keeps the identity
	rejoined, err := svc.JoinSession(ctx, &JoinSessionParams{
		Username:  "bob",
		AuthToken: joined.AuthToken,
		SessionId: created.SessionId,
	})
	require.NoError(t, err)
	assert.Equal(t, joined.JoinedParticipant.Id, rejoined.JoinedParticipant.Id)
	assert.Equal(t, joined.AuthToken, rejoined.AuthToken)
	assert.Len(t, rejoined.State.Participants, 2)
}

func TestPublishEvent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, &CreateSessionParams{
		Username:       "alice",
		InitialVideoId: "video-1",
	})
	require.NoError(t, err)

	resp, err := svc.PublishEvent(ctx, &PublishEventParams{
		Event: domain.VideoEvent{
			Type:        domain.EventPlay,
			CurrentTime: 42,
		},
		SenderId:  created.ParticipantId,
		SessionId: created.SessionId,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Event.Id, "the log assigns an id")
	assert.Equal(t, created.ParticipantId, resp.Event.UserId)
	assert.False(t, resp.Event.Timestamp.IsZero(), "a missing timestamp is filled with now")

	state, err := svc.GetSessionState(ctx, created.SessionId)
	require.NoError(t, err)
	require.Len(t, state.Events, 1)
	assert.Equal(t, domain.EventPlay, state.Events[0].Type)
	assert.Equal(t, domain.ScreenVideo, state.Screen, "a playback event moves the session to the video screen")

	reported, ok := state.ParticipantTimes[created.ParticipantId]
	require.True(t, ok)
	assert.InDelta(t, 42, reported.CurrentTime, 1e-9)
}

func TestPublishEventRejectsVideoChange(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, &CreateSessionParams{Username: "alice"})
	require.NoError(t, err)

	_, err = svc.PublishEvent(ctx, &PublishEventParams{
		Event: domain.VideoEvent{
			Type:    domain.EventVideoChange,
			VideoId: "video-2",
		},
		SenderId:  created.ParticipantId,
		SessionId: created.SessionId,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestPublishEventCleansUpOldEvents(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, &CreateSessionParams{Username: "alice"})
	require.NoError(t, err)

	// an event well past the retention window
	_, err = repo.AddEvent(ctx, &sessionrepo.AddEventParams{
		Event: domain.VideoEvent{
			Type:        domain.EventPlay,
			Timestamp:   domain.TimestampAt(time.Now().Add(-2 * time.Minute)),
			UserId:      created.ParticipantId,
			CurrentTime: 10,
		},
		SessionId: created.SessionId,
	})
	require.NoError(t, err)

	_, err = svc.PublishEvent(ctx, &PublishEventParams{
		Event: domain.VideoEvent{
			Type:        domain.EventPause,
			CurrentTime: 20,
		},
		SenderId:  created.ParticipantId,
		SessionId: created.SessionId,
	})
	require.NoError(t, err)

	state, err := svc.GetSessionState(ctx, created.SessionId)
	require.NoError(t, err)
	require.Len(t, state.Events, 1)
	assert.Equal(t, domain.EventPause, state.Events[0].Type)
}

func TestChangeVideoModeratorOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, &CreateSessionParams{
		Username:       "alice",
		InitialVideoId: "video-1",
	})
	require.NoError(t, err)

	joined, err := svc.JoinSession(ctx, &JoinSessionParams{
		Username:  "bob",
		SessionId: created.SessionId,
	})
	require.NoError(t, err)

	_, err = svc.ChangeVideo(ctx, &ChangeVideoParams{
		VideoId:   "video-2",
		SenderId:  joined.JoinedParticipant.Id,
		SessionId: created.SessionId,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	state, err := svc.GetSessionState(ctx, created.SessionId)
	require.NoError(t, err)
	assert.Equal(t, "video-1", state.VideoId, "a denied change must not leave partial writes")
	assert.Empty(t, state.Events)

	resp, err := svc.ChangeVideo(ctx, &ChangeVideoParams{
		VideoId:   "video-2",
		SenderId:  created.ParticipantId,
		SessionId: created.SessionId,
	})
	require.NoError(t, err)
	assert.Equal(t, "video-2", resp.VideoId)
	assert.Equal(t, domain.EventVideoChange, resp.Event.Type)

	state, err = svc.GetSessionState(ctx, created.SessionId)
	require.NoError(t, err)
	assert.Equal(t, "video-2", state.VideoId)
	assert.Equal(t, domain.ScreenVideo, state.Screen)
	require.Len(t, state.Events, 1)
	assert.Equal(t, "video-2", state.Events[0].VideoId)
}

func TestClearVideo(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, &CreateSessionParams{
		Username:       "alice",
		InitialVideoId: "video-1",
	})
	require.NoError(t, err)

	resp, err := svc.ClearVideo(ctx, &ClearVideoParams{
		SenderId:  created.ParticipantId,
		SessionId: created.SessionId,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EventVideoChange, resp.Event.Type)
	assert.Empty(t, resp.Event.VideoId, "an empty video id signals the clear")

	state, err := svc.GetSessionState(ctx, created.SessionId)
	require.NoError(t, err)
	assert.Empty(t, state.VideoId)
	assert.Equal(t, domain.ScreenSearch, state.Screen)
}

func TestUpdateParticipantTimeMarksInactive(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, &CreateSessionParams{Username: "alice"})
	require.NoError(t, err)

	joined, err := svc.JoinSession(ctx, &JoinSessionParams{
		Username:  "bob",
		SessionId: created.SessionId,
	})
	require.NoError(t, err)

	// alice's last report is well past the inactivity timeout
	err = repo.UpdateParticipantTime(ctx, &sessionrepo.UpdateParticipantTimeParams{
		ParticipantId: created.ParticipantId,
		SessionId:     created.SessionId,
		Time: domain.ParticipantTime{
			CurrentTime: 15,
			LastActive:  domain.TimestampAt(time.Now().Add(-2 * time.Minute)),
		},
	})
	require.NoError(t, err)

	resp, err := svc.UpdateParticipantTime(ctx, &UpdateParticipantTimeParams{
		CurrentTime: 99,
		SenderId:    joined.JoinedParticipant.Id,
		SessionId:   created.SessionId,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Times, 2)

	state, err := svc.GetSessionState(ctx, created.SessionId)
	require.NoError(t, err)
	for _, participant := range state.Participants {
		switch participant.Id {
		case created.ParticipantId:
			assert.False(t, participant.IsActive, "stale participants are marked inactive")
		case joined.JoinedParticipant.Id:
			assert.True(t, participant.IsActive)
		}
	}
}

func TestDisconnectParticipant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, &CreateSessionParams{Username: "alice"})
	require.NoError(t, err)

	joined, err := svc.JoinSession(ctx, &JoinSessionParams{
		Username:  "bob",
		SessionId: created.SessionId,
	})
	require.NoError(t, err)

	_, err = svc.UpdateParticipantTime(ctx, &UpdateParticipantTimeParams{
		CurrentTime: 50,
		SenderId:    joined.JoinedParticipant.Id,
		SessionId:   created.SessionId,
	})
	require.NoError(t, err)

	resp, err := svc.DisconnectParticipant(ctx, &DisconnectParticipantParams{
		ParticipantId: joined.JoinedParticipant.Id,
		SessionId:     created.SessionId,
	})
	require.NoError(t, err)
	require.Len(t, resp.Participants, 2)

	state, err := svc.GetSessionState(ctx, created.SessionId)
	require.NoError(t, err)
	_, hasTime := state.ParticipantTimes[joined.JoinedParticipant.Id]
	assert.False(t, hasTime, "a departed participant must not remain a bootstrap source")

	for _, participant := range state.Participants {
		if participant.Id == joined.JoinedParticipant.Id {
			assert.False(t, participant.IsActive)
		}
	}
}

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/session"
)

type PublishEventParams struct {
	Event     domain.VideoEvent
	SenderId  string
	SessionId string
}

type PublishEventResponse struct {
	Event domain.VideoEvent
	Conns []*websocket.Conn
}

// PublishEvent appends a playback event to the session log. video_change
// must go through ChangeVideo so the moderator check happens before the
// publish, never after.
func (s service) PublishEvent(ctx context.Context, params *PublishEventParams) (PublishEventResponse, error) {
	if params.Event.Type == domain.EventVideoChange {
		return PublishEventResponse{}, ErrPermissionDenied
	}

	event := params.Event.Normalized(time.Now())
	event.UserId = params.SenderId

	added, err := s.sessionRepo.AddEvent(ctx, &session.AddEventParams{
		Event:     event,
		SessionId: params.SessionId,
	})
	if err != nil {
		return PublishEventResponse{}, fmt.Errorf("failed to add event: %w", err)
	}

	switch event.Type {
	case domain.EventPlay, domain.EventPause, domain.EventSeek:
		if err := s.sessionRepo.UpdateParticipantTime(ctx, &session.UpdateParticipantTimeParams{
			ParticipantId: params.SenderId,
			SessionId:     params.SessionId,
			Time: domain.ParticipantTime{
				CurrentTime: event.CurrentTime,
				LastActive:  event.Timestamp,
			},
		}); err != nil {
			s.logger.InfoContext(ctx, "failed to update participant time", "error", err)
		}

		// a playback event means the session is watching
		if err := s.sessionRepo.SetScreen(ctx, params.SessionId, domain.ScreenVideo); err != nil {
			s.logger.InfoContext(ctx, "failed to set screen", "error", err)
		}
	}

	s.cleanupOldEvents(ctx, params.SessionId)

	conns, err := s.getConnsBySessionId(ctx, params.SessionId)
	if err != nil {
		return PublishEventResponse{}, fmt.Errorf("failed to get conns by session id: %w", err)
	}

	return PublishEventResponse{
		Event: added,
		Conns: conns,
	}, nil
}

// cleanupOldEvents trims the log best-effort; a failed or racing sweep is
// harmless since deletion is idempotent and convergence reads the full set.
func (s service) cleanupOldEvents(ctx context.Context, sessionId string) {
	removed, err := s.sessionRepo.RemoveEventsBefore(ctx, sessionId, time.Now().Add(-s.eventTTL))
	if err != nil {
		s.logger.InfoContext(ctx, "failed to cleanup old events", "error", err)
		return
	}

	if removed > 0 {
		s.logger.DebugContext(ctx, "cleaned up old events", "removed", removed)
	}
}

type UpdateParticipantTimeParams struct {
	CurrentTime float64
	SenderId    string
	SessionId   string
}

type UpdateParticipantTimeResponse struct {
	Times map[string]domain.ParticipantTime
	Conns []*websocket.Conn
}

func (s service) UpdateParticipantTime(ctx context.Context, params *UpdateParticipantTimeParams) (UpdateParticipantTimeResponse, error) {
	if err := s.sessionRepo.UpdateParticipantTime(ctx, &session.UpdateParticipantTimeParams{
		ParticipantId: params.SenderId,
		SessionId:     params.SessionId,
		Time: domain.ParticipantTime{
			CurrentTime: params.CurrentTime,
			LastActive:  domain.TimestampAt(time.Now()),
		},
	}); err != nil {
		return UpdateParticipantTimeResponse{}, fmt.Errorf("failed to update participant time: %w", err)
	}

	if err := s.MarkInactiveParticipants(ctx, params.SessionId); err != nil {
		s.logger.InfoContext(ctx, "failed to mark inactive participants", "error", err)
	}

	times, err := s.sessionRepo.GetParticipantTimes(ctx, params.SessionId)
	if err != nil {
		return UpdateParticipantTimeResponse{}, fmt.Errorf("failed to get participant times: %w", err)
	}

	conns, err := s.getConnsBySessionId(ctx, params.SessionId)
	if err != nil {
		return UpdateParticipantTimeResponse{}, fmt.Errorf("failed to get conns by session id: %w", err)
	}

	return UpdateParticipantTimeResponse{
		Times: times,
		Conns: conns,
	}, nil
}

// MarkInactiveParticipants flags participants whose last position report is
// older than the inactivity timeout. Best-effort presence, not membership.
func (s service) MarkInactiveParticipants(ctx context.Context, sessionId string) error {
	times, err := s.sessionRepo.GetParticipantTimes(ctx, sessionId)
	if err != nil {
		return fmt.Errorf("failed to get participant times: %w", err)
	}

	cutoff := time.Now().Add(-s.inactiveTimeout)
	for participantId, t := range times {
		if t.LastActive.Time().After(cutoff) {
			continue
		}

		if err := s.sessionRepo.UpdateParticipantIsActive(ctx, &session.UpdateParticipantIsActiveParams{
			ParticipantId: participantId,
			IsActive:      false,
			SessionId:     sessionId,
		}); err != nil {
			s.logger.InfoContext(ctx, "failed to mark participant inactive",
				"participant_id", participantId,
				"error", err,
			)
		}
	}

	return nil
}

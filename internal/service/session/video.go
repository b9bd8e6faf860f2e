package session

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/session"
)

type ChangeVideoParams struct {
	VideoId   string
	SenderId  string
	SessionId string
}

type ChangeVideoResponse struct {
	Event   domain.VideoEvent
	VideoId string
	Conns   []*websocket.Conn
}

// ChangeVideo switches the session's authoritative video. Only the
// moderator may do this; the check runs before anything is written.
func (s service) ChangeVideo(ctx context.Context, params *ChangeVideoParams) (ChangeVideoResponse, error) {
	if err := s.checkIfModerator(ctx, params.SessionId, params.SenderId); err != nil {
		return ChangeVideoResponse{}, err
	}

	if err := s.sessionRepo.SetVideoId(ctx, params.SessionId, params.VideoId); err != nil {
		return ChangeVideoResponse{}, fmt.Errorf("failed to set video id: %w", err)
	}

	event, err := s.sessionRepo.AddEvent(ctx, &session.AddEventParams{
		Event: domain.VideoEvent{
			Type:      domain.EventVideoChange,
			Timestamp: domain.TimestampAt(time.Now()),
			UserId:    params.SenderId,
			VideoId:   params.VideoId,
		},
		SessionId: params.SessionId,
	})
	if err != nil {
		return ChangeVideoResponse{}, fmt.Errorf("failed to add event: %w", err)
	}

	if err := s.sessionRepo.SetScreen(ctx, params.SessionId, domain.ScreenVideo); err != nil {
		s.logger.InfoContext(ctx, "failed to set screen", "error", err)
	}

	conns, err := s.getConnsBySessionId(ctx, params.SessionId)
	if err != nil {
		return ChangeVideoResponse{}, fmt.Errorf("failed to get conns by session id: %w", err)
	}

	return ChangeVideoResponse{
		Event:   event,
		VideoId: params.VideoId,
		Conns:   conns,
	}, nil
}

type ClearVideoParams struct {
	SenderId  string
	SessionId string
}

type ClearVideoResponse struct {
	Event domain.VideoEvent
	Conns []*websocket.Conn
}

// ClearVideo drops the current video and sends the session back to search.
// An empty video id in the change event means "video cleared" to clients.
func (s service) ClearVideo(ctx context.Context, params *ClearVideoParams) (ClearVideoResponse, error) {
	if err := s.checkIfModerator(ctx, params.SessionId, params.SenderId); err != nil {
		return ClearVideoResponse{}, err
	}

	if err := s.sessionRepo.SetScreen(ctx, params.SessionId, domain.ScreenSearch); err != nil {
		return ClearVideoResponse{}, fmt.Errorf("failed to set screen: %w", err)
	}

	if err := s.sessionRepo.SetVideoId(ctx, params.SessionId, ""); err != nil {
		return ClearVideoResponse{}, fmt.Errorf("failed to set video id: %w", err)
	}

	event, err := s.sessionRepo.AddEvent(ctx, &session.AddEventParams{
		Event: domain.VideoEvent{
			Type:      domain.EventVideoChange,
			Timestamp: domain.TimestampAt(time.Now()),
			UserId:    params.SenderId,
			VideoId:   "",
		},
		SessionId: params.SessionId,
	})
	if err != nil {
		return ClearVideoResponse{}, fmt.Errorf("failed to add event: %w", err)
	}

	conns, err := s.getConnsBySessionId(ctx, params.SessionId)
	if err != nil {
		return ClearVideoResponse{}, fmt.Errorf("failed to get conns by session id: %w", err)
	}

	return ClearVideoResponse{
		Event: event,
		Conns: conns,
	}, nil
}

type UpdateScreenParams struct {
	Screen    domain.Screen
	SenderId  string
	SessionId string
}

type UpdateScreenResponse struct {
	Screen domain.Screen
	Conns  []*websocket.Conn
}

func (s service) UpdateScreen(ctx context.Context, params *UpdateScreenParams) (UpdateScreenResponse, error) {
	if err := s.sessionRepo.SetScreen(ctx, params.SessionId, params.Screen); err != nil {
		return UpdateScreenResponse{}, fmt.Errorf("failed to set screen: %w", err)
	}

	conns, err := s.getConnsBySessionId(ctx, params.SessionId)
	if err != nil {
		return UpdateScreenResponse{}, fmt.Errorf("failed to get conns by session id: %w", err)
	}

	return UpdateScreenResponse{
		Screen: params.Screen,
		Conns:  conns,
	}, nil
}

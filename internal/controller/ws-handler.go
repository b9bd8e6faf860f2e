package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/domain"
	sessionservice "github.com/watchparty/server/internal/service/session"
)

type EmptyInput struct{}

func (c *controller) handleAlive(_ context.Context, _ *websocket.Conn, _ EmptyInput) error {
	return nil
}

type PublishEventInput struct {
	Type        string   `json:"type" validate:"required,oneof=play pause seek popup"`
	CurrentTime float64  `json:"current_time"`
	SeekTime    *float64 `json:"seek_time"`
	UserName    string   `json:"user_name"`
	Emoji       string   `json:"emoji" validate:"omitempty,oneof=like dislike heart heart-broken laugh sad angry"`
}

func (c *controller) handlePublishEvent(ctx context.Context, _ *websocket.Conn, input PublishEventInput) error {
	sessionId := c.getSessionIdFromCtx(ctx)
	participantId := c.getParticipantIdFromCtx(ctx)

	publishResp, err := c.sessionService.PublishEvent(ctx, &sessionservice.PublishEventParams{
		Event: domain.VideoEvent{
			Type:        domain.EventType(input.Type),
			CurrentTime: input.CurrentTime,
			SeekTime:    input.SeekTime,
			UserName:    input.UserName,
			Emoji:       domain.Emoji(input.Emoji),
		},
		SenderId:  participantId,
		SessionId: sessionId,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := c.broadcast(publishResp.Conns, &Output{
		Type: "EVENT_PUBLISHED",
		Payload: map[string]any{
			"event": publishResp.Event,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast event published: %w", err)
	}

	return nil
}

type UpdateTimeInput struct {
	CurrentTime float64 `json:"current_time"`
}

func (c *controller) handleUpdateTime(ctx context.Context, _ *websocket.Conn, input UpdateTimeInput) error {
	sessionId := c.getSessionIdFromCtx(ctx)
	participantId := c.getParticipantIdFromCtx(ctx)

	updateResp, err := c.sessionService.UpdateParticipantTime(ctx, &sessionservice.UpdateParticipantTimeParams{
		CurrentTime: input.CurrentTime,
		SenderId:    participantId,
		SessionId:   sessionId,
	})
	if err != nil {
		return fmt.Errorf("failed to update participant time: %w", err)
	}

	if err := c.broadcast(updateResp.Conns, &Output{
		Type: "TIMES_UPDATED",
		Payload: map[string]any{
			"participant_times": updateResp.Times,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast times updated: %w", err)
	}

	return nil
}

type ChangeVideoInput struct {
	VideoId string `json:"video_id" validate:"required"`
}

func (c *controller) handleChangeVideo(ctx context.Context, _ *websocket.Conn, input ChangeVideoInput) error {
	sessionId := c.getSessionIdFromCtx(ctx)
	participantId := c.getParticipantIdFromCtx(ctx)

	changeResp, err := c.sessionService.ChangeVideo(ctx, &sessionservice.ChangeVideoParams{
		VideoId:   input.VideoId,
		SenderId:  participantId,
		SessionId: sessionId,
	})
	if err != nil {
		if errors.Is(err, sessionservice.ErrPermissionDenied) {
			return sessionservice.ErrPermissionDenied
		}

		return fmt.Errorf("failed to change video: %w", err)
	}

	if err := c.broadcast(changeResp.Conns, &Output{
		Type: "VIDEO_CHANGED",
		Payload: map[string]any{
			"video_id": changeResp.VideoId,
			"event":    changeResp.Event,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast video changed: %w", err)
	}

	return nil
}

func (c *controller) handleClearVideo(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	sessionId := c.getSessionIdFromCtx(ctx)
	participantId := c.getParticipantIdFromCtx(ctx)

	clearResp, err := c.sessionService.ClearVideo(ctx, &sessionservice.ClearVideoParams{
		SenderId:  participantId,
		SessionId: sessionId,
	})
	if err != nil {
		if errors.Is(err, sessionservice.ErrPermissionDenied) {
			return sessionservice.ErrPermissionDenied
		}

		return fmt.Errorf("failed to clear video: %w", err)
	}

	if err := c.broadcast(clearResp.Conns, &Output{
		Type: "VIDEO_CHANGED",
		Payload: map[string]any{
			"video_id": "",
			"event":    clearResp.Event,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast video changed: %w", err)
	}

	return nil
}

type UpdateScreenInput struct {
	Screen string `json:"screen" validate:"required,oneof=lobby search video chat"`
}

func (c *controller) handleUpdateScreen(ctx context.Context, _ *websocket.Conn, input UpdateScreenInput) error {
	sessionId := c.getSessionIdFromCtx(ctx)
	participantId := c.getParticipantIdFromCtx(ctx)

	updateResp, err := c.sessionService.UpdateScreen(ctx, &sessionservice.UpdateScreenParams{
		Screen:    domain.Screen(input.Screen),
		SenderId:  participantId,
		SessionId: sessionId,
	})
	if err != nil {
		return fmt.Errorf("failed to update screen: %w", err)
	}

	if err := c.broadcast(updateResp.Conns, &Output{
		Type: "SCREEN_CHANGED",
		Payload: map[string]any{
			"screen": updateResp.Screen,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast screen changed: %w", err)
	}

	return nil
}

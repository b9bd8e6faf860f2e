package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	sessionservice "github.com/watchparty/server/internal/service/session"
)

func (c *controller) getQueryParam(r *http.Request, key string) (string, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return "", fmt.Errorf("%s was not provided", key)
	}

	return value, nil
}

func (c *controller) createSession(w http.ResponseWriter, r *http.Request) {
	username, err := c.getQueryParam(r, "username")
	if err != nil {
		c.logger.DebugContext(r.Context(), "failed to get query param", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	initialVideoId := r.URL.Query().Get("video-id")

	createResp, err := c.sessionService.CreateSession(r.Context(), &sessionservice.CreateSessionParams{
		Username:       username,
		InitialVideoId: initialVideoId,
	})
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to create session", "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	defer c.disconnect(r.Context(), createResp.ParticipantId, createResp.SessionId)

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	if err := c.sessionService.ConnectParticipant(r.Context(), &sessionservice.ConnectParticipantParams{
		Conn:          conn,
		ParticipantId: createResp.ParticipantId,
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to connect participant", "error", err)
		return
	}

	state, err := c.sessionService.GetSessionState(r.Context(), createResp.SessionId)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to get session state", "error", err)
		return
	}

	if err := conn.WriteJSON(&Output{
		Type: "JOINED_SESSION",
		Payload: map[string]any{
			"auth_token":     createResp.AuthToken,
			"participant_id": createResp.ParticipantId,
			"session_state":  state,
		},
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write json", "error", err)
		return
	}

	ctx := context.WithValue(r.Context(), sessionIdCtxKey, createResp.SessionId)
	ctx = context.WithValue(ctx, participantIdCtxKey, createResp.ParticipantId)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(r.Context(), "connection closed", "error", err)
	}
}

func (c *controller) joinSession(w http.ResponseWriter, r *http.Request) {
	sessionId := chi.URLParam(r, "session-id")
	if sessionId == "" {
		c.logger.DebugContext(r.Context(), "empty session id")
		http.Error(w, "empty session id", http.StatusBadRequest)
		return
	}

	username, err := c.getQueryParam(r, "username")
	if err != nil {
		c.logger.DebugContext(r.Context(), "failed to get query param", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	authToken := r.URL.Query().Get("auth-token")

	joinResp, err := c.sessionService.JoinSession(r.Context(), &sessionservice.JoinSessionParams{
		Username:  username,
		AuthToken: authToken,
		SessionId: sessionId,
	})
	if err != nil {
		if errors.Is(err, sessionservice.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		c.logger.WarnContext(r.Context(), "failed to join session", "error", err)
		http.Error(w, "failed to join session", http.StatusInternalServerError)
		return
	}
	defer c.disconnect(r.Context(), joinResp.JoinedParticipant.Id, sessionId)

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	if err := c.sessionService.ConnectParticipant(r.Context(), &sessionservice.ConnectParticipantParams{
		Conn:          conn,
		ParticipantId: joinResp.JoinedParticipant.Id,
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to connect participant", "error", err)
		return
	}

	if err := conn.WriteJSON(&Output{
		Type: "JOINED_SESSION",
		Payload: map[string]any{
			"auth_token":     joinResp.AuthToken,
			"participant_id": joinResp.JoinedParticipant.Id,
			"session_state":  joinResp.State,
		},
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write json", "error", err)
		return
	}

	if err := c.broadcast(joinResp.Conns, &Output{
		Type: "MEMBER_JOINED",
		Payload: map[string]any{
			"joined_participant": joinResp.JoinedParticipant,
		},
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to broadcast", "error", err)
	}

	ctx := context.WithValue(r.Context(), sessionIdCtxKey, sessionId)
	ctx = context.WithValue(ctx, participantIdCtxKey, joinResp.JoinedParticipant.Id)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(r.Context(), "connection closed", "error", err)
	}
}

func (c *controller) disconnect(ctx context.Context, participantId, sessionId string) {
	disconnectResp, err := c.sessionService.DisconnectParticipant(ctx, &sessionservice.DisconnectParticipantParams{
		ParticipantId: participantId,
		SessionId:     sessionId,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect participant", "error", err)
		return
	}

	if err := c.broadcast(disconnectResp.Conns, &Output{
		Type: "MEMBER_LEFT",
		Payload: map[string]any{
			"participant_id": participantId,
			"participants":   disconnectResp.Participants,
		},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to broadcast", "error", err)
	}
}

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/session"
)

const authTokenLength = 32

type CreateSessionParams struct {
	Username       string
	InitialVideoId string
}

type CreateSessionResponse struct {
	SessionId     string
	ParticipantId string
	AuthToken     string
}

func (s service) CreateSession(ctx context.Context, params *CreateSessionParams) (CreateSessionResponse, error) {
	sessionId := uuid.NewString()
	participantId := uuid.NewString()

	if err := s.sessionRepo.SetSession(ctx, &session.SetSessionParams{
		SessionId:   sessionId,
		ModeratorId: participantId,
		Screen:      domain.ScreenLobby,
		VideoId:     params.InitialVideoId,
	}); err != nil {
		return CreateSessionResponse{}, fmt.Errorf("failed to set session: %w", err)
	}

	if err := s.sessionRepo.SetParticipant(ctx, &session.SetParticipantParams{
		ParticipantId: participantId,
		Username:      params.Username,
		IsActive:      true,
		SessionId:     sessionId,
	}); err != nil {
		return CreateSessionResponse{}, fmt.Errorf("failed to set participant: %w", err)
	}

	authToken := s.generator.GenerateRandomString(authTokenLength)
	if err := s.sessionRepo.SetAuthToken(ctx, &session.SetAuthTokenParams{
		AuthToken:     authToken,
		ParticipantId: participantId,
	}); err != nil {
		return CreateSessionResponse{}, fmt.Errorf("failed to set auth token: %w", err)
	}

	return CreateSessionResponse{
		SessionId:     sessionId,
		ParticipantId: participantId,
		AuthToken:     authToken,
	}, nil
}

type JoinSessionParams struct {
	Username  string
	AuthToken string
	SessionId string
}

type JoinSessionResponse struct {
	JoinedParticipant domain.Participant
	AuthToken         string
	State             domain.SessionState
	Conns             []*websocket.Conn
}

func (s service) JoinSession(ctx context.Context, params *JoinSessionParams) (JoinSessionResponse, error) {
	state, err := s.sessionRepo.GetSession(ctx, params.SessionId)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return JoinSessionResponse{}, ErrSessionNotFound
		}

		return JoinSessionResponse{}, fmt.Errorf("failed to get session: %w", err)
	}

	participantId := ""
	authToken := params.AuthToken
	if authToken != "" {
		// reconnect of a known participant
		participantId, err = s.sessionRepo.GetParticipantIdByAuthToken(ctx, authToken)
		if err != nil && !errors.Is(err, session.ErrTokenNotFound) {
			return JoinSessionResponse{}, fmt.Errorf("failed to get participant id by auth token: %w", err)
		}
	}
	if participantId == "" {
		participantId = uuid.NewString()
		authToken = s.generator.GenerateRandomString(authTokenLength)
		if err := s.sessionRepo.SetAuthToken(ctx, &session.SetAuthTokenParams{
			AuthToken:     authToken,
			ParticipantId: participantId,
		}); err != nil {
			return JoinSessionResponse{}, fmt.Errorf("failed to set auth token: %w", err)
		}
	}

	if err := s.sessionRepo.SetParticipant(ctx, &session.SetParticipantParams{
		ParticipantId: participantId,
		Username:      params.Username,
		IsActive:      true,
		SessionId:     params.SessionId,
	}); err != nil {
		return JoinSessionResponse{}, fmt.Errorf("failed to set participant: %w", err)
	}

	sessionState, err := s.GetSessionState(ctx, params.SessionId)
	if err != nil {
		return JoinSessionResponse{}, fmt.Errorf("failed to get session state: %w", err)
	}

	conns, err := s.getConnsBySessionId(ctx, params.SessionId)
	if err != nil {
		return JoinSessionResponse{}, fmt.Errorf("failed to get conns by session id: %w", err)
	}

	return JoinSessionResponse{
		JoinedParticipant: domain.Participant{
			Id:          participantId,
			Username:    params.Username,
			IsModerator: participantId == state.ModeratorId,
			IsActive:    true,
		},
		AuthToken: authToken,
		State:     sessionState,
		Conns:     conns,
	}, nil
}

type ConnectParticipantParams struct {
	Conn          *websocket.Conn
	ParticipantId string
}

func (s service) ConnectParticipant(ctx context.Context, params *ConnectParticipantParams) error {
	if err := s.connRepo.Add(params.Conn, params.ParticipantId); err != nil {
		s.logger.InfoContext(ctx, "failed to connect participant", "error", err)
		return err
	}

	return nil
}

type DisconnectParticipantParams struct {
	ParticipantId string
	SessionId     string
}

type DisconnectParticipantResponse struct {
	Participants []domain.Participant
	Conns        []*websocket.Conn
}

// DisconnectParticipant marks the participant inactive and drops their
// position entry so late joiners never bootstrap from someone who left.
// The session itself is reaped by key expiry, which keeps auth-token
// reconnects working in the meantime.
func (s service) DisconnectParticipant(ctx context.Context, params *DisconnectParticipantParams) (DisconnectParticipantResponse, error) {
	if _, err := s.connRepo.RemoveByParticipantId(params.ParticipantId); err != nil {
		s.logger.InfoContext(ctx, "failed to remove conn", "error", err)
	}

	if err := s.sessionRepo.UpdateParticipantIsActive(ctx, &session.UpdateParticipantIsActiveParams{
		ParticipantId: params.ParticipantId,
		IsActive:      false,
		SessionId:     params.SessionId,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to update participant", "error", err)
	}

	if err := s.sessionRepo.RemoveParticipantTime(ctx, &session.RemoveParticipantTimeParams{
		ParticipantId: params.ParticipantId,
		SessionId:     params.SessionId,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to remove participant time", "error", err)
	}

	participants, err := s.getParticipants(ctx, params.SessionId)
	if err != nil {
		return DisconnectParticipantResponse{}, fmt.Errorf("failed to get participants: %w", err)
	}

	conns, err := s.getConnsBySessionId(ctx, params.SessionId)
	if err != nil {
		return DisconnectParticipantResponse{}, fmt.Errorf("failed to get conns by session id: %w", err)
	}

	return DisconnectParticipantResponse{
		Participants: participants,
		Conns:        conns,
	}, nil
}

func (s service) GetSessionState(ctx context.Context, sessionId string) (domain.SessionState, error) {
	state, err := s.sessionRepo.GetSession(ctx, sessionId)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return domain.SessionState{}, ErrSessionNotFound
		}

		return domain.SessionState{}, fmt.Errorf("failed to get session: %w", err)
	}

	events, err := s.sessionRepo.GetEvents(ctx, sessionId)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("failed to get events: %w", err)
	}

	times, err := s.sessionRepo.GetParticipantTimes(ctx, sessionId)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("failed to get participant times: %w", err)
	}

	participants, err := s.getParticipants(ctx, sessionId)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("failed to get participants: %w", err)
	}

	return domain.SessionState{
		SessionId:        sessionId,
		Screen:           domain.Screen(state.Screen),
		VideoId:          state.VideoId,
		Events:           events,
		ParticipantTimes: times,
		Participants:     participants,
	}, nil
}

// IsModerator reports whether the participant holds the session's exclusive
// video-change permission.
func (s service) IsModerator(ctx context.Context, sessionId, participantId string) (bool, error) {
	moderatorId, err := s.sessionRepo.GetModeratorId(ctx, sessionId)
	if err != nil {
		return false, fmt.Errorf("failed to get moderator id: %w", err)
	}

	return moderatorId == participantId, nil
}

func (s service) checkIfModerator(ctx context.Context, sessionId, participantId string) error {
	isModerator, err := s.IsModerator(ctx, sessionId, participantId)
	if err != nil {
		return err
	}
	if !isModerator {
		return ErrPermissionDenied
	}

	return nil
}

func (s service) getParticipants(ctx context.Context, sessionId string) ([]domain.Participant, error) {
	participantIds, err := s.sessionRepo.GetParticipantIds(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	moderatorId, err := s.sessionRepo.GetModeratorId(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	participants := make([]domain.Participant, 0, len(participantIds))
	for _, participantId := range participantIds {
		participant, err := s.sessionRepo.GetParticipant(ctx, &session.GetParticipantParams{
			ParticipantId: participantId,
			SessionId:     sessionId,
		})
		if err != nil {
			return nil, err
		}

		participants = append(participants, domain.Participant{
			Id:          participantId,
			Username:    participant.Username,
			IsModerator: participantId == moderatorId,
			IsActive:    participant.IsActive,
		})
	}

	return participants, nil
}

func (s service) getConnsBySessionId(ctx context.Context, sessionId string) ([]*websocket.Conn, error) {
	participantIds, err := s.sessionRepo.GetParticipantIds(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	conns := make([]*websocket.Conn, 0, len(participantIds))
	for _, participantId := range participantIds {
		conn, err := s.connRepo.GetConn(participantId)
		if err != nil {
			// participant without a live conn is fine
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

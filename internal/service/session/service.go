package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/session"
	"github.com/watchparty/server/pkg/randstr"
)

var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrSessionNotFound     = errors.New("session not found")
	ErrParticipantNotFound = errors.New("participant not found")
)

type iSessionRepo interface {
	// session
	SetSession(context.Context, *session.SetSessionParams) error
	GetSession(ctx context.Context, sessionId string) (session.Session, error)
	SetVideoId(ctx context.Context, sessionId, videoId string) error
	GetVideoId(ctx context.Context, sessionId string) (string, error)
	SetScreen(ctx context.Context, sessionId string, screen domain.Screen) error
	GetModeratorId(ctx context.Context, sessionId string) (string, error)
	RemoveSession(ctx context.Context, sessionId string) error
	// participant
	SetParticipant(context.Context, *session.SetParticipantParams) error
	GetParticipant(context.Context, *session.GetParticipantParams) (session.Participant, error)
	GetParticipantIds(ctx context.Context, sessionId string) ([]string, error)
	UpdateParticipantIsActive(context.Context, *session.UpdateParticipantIsActiveParams) error
	RemoveParticipant(context.Context, *session.RemoveParticipantParams) error
	// event log
	AddEvent(context.Context, *session.AddEventParams) (domain.VideoEvent, error)
	GetEvents(ctx context.Context, sessionId string) ([]domain.VideoEvent, error)
	RemoveEventsBefore(ctx context.Context, sessionId string, before time.Time) (int64, error)
	// participant time
	UpdateParticipantTime(context.Context, *session.UpdateParticipantTimeParams) error
	GetParticipantTimes(ctx context.Context, sessionId string) (map[string]domain.ParticipantTime, error)
	RemoveParticipantTime(context.Context, *session.RemoveParticipantTimeParams) error
	// auth token
	SetAuthToken(context.Context, *session.SetAuthTokenParams) error
	GetParticipantIdByAuthToken(ctx context.Context, authToken string) (string, error)
}

type iConnRepo interface {
	Add(conn *websocket.Conn, participantId string) error
	RemoveByConn(conn *websocket.Conn) error
	RemoveByParticipantId(participantId string) (*websocket.Conn, error)
	GetConn(participantId string) (*websocket.Conn, error)
	GetParticipantId(conn *websocket.Conn) (string, error)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	// EventTTL bounds event log growth; the sweep is advisory, convergence
	// does not depend on it.
	EventTTL time.Duration
	// InactiveTimeout is how stale a participant's lastActive may be before
	// the presence sweep marks them inactive.
	InactiveTimeout time.Duration
}

type service struct {
	sessionRepo     iSessionRepo
	connRepo        iConnRepo
	generator       iGenerator
	logger          *slog.Logger
	eventTTL        time.Duration
	inactiveTimeout time.Duration
}

func NewService(sessionRepo iSessionRepo, connRepo iConnRepo, logger *slog.Logger, cfg *Config) *service {
	s := service{
		sessionRepo:     sessionRepo,
		connRepo:        connRepo,
		logger:          logger,
		eventTTL:        cfg.EventTTL,
		inactiveTimeout: cfg.InactiveTimeout,
	}

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	s.generator = randstr.New(letterBytes)

	return &s
}

package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/domain"
	sessionservice "github.com/watchparty/server/internal/service/session"
	"github.com/watchparty/server/pkg/validator"
	"github.com/watchparty/server/pkg/wsrouter"
)

type iSessionService interface {
	CreateSession(context.Context, *sessionservice.CreateSessionParams) (sessionservice.CreateSessionResponse, error)
	JoinSession(context.Context, *sessionservice.JoinSessionParams) (sessionservice.JoinSessionResponse, error)
	ConnectParticipant(context.Context, *sessionservice.ConnectParticipantParams) error
	DisconnectParticipant(context.Context, *sessionservice.DisconnectParticipantParams) (sessionservice.DisconnectParticipantResponse, error)
	GetSessionState(ctx context.Context, sessionId string) (domain.SessionState, error)
	PublishEvent(context.Context, *sessionservice.PublishEventParams) (sessionservice.PublishEventResponse, error)
	UpdateParticipantTime(context.Context, *sessionservice.UpdateParticipantTimeParams) (sessionservice.UpdateParticipantTimeResponse, error)
	ChangeVideo(context.Context, *sessionservice.ChangeVideoParams) (sessionservice.ChangeVideoResponse, error)
	ClearVideo(context.Context, *sessionservice.ClearVideoParams) (sessionservice.ClearVideoResponse, error)
	UpdateScreen(context.Context, *sessionservice.UpdateScreenParams) (sessionservice.UpdateScreenResponse, error)
}

type controller struct {
	sessionService iSessionService
	upgrader       websocket.Upgrader
	validate       *validator.Validator
	logger         *slog.Logger
	wsmux          *wsrouter.WSRouter
}

func NewController(sessionService iSessionService, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		sessionService: sessionService,
		validate:       validator.NewValidator(),
		logger:         logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}

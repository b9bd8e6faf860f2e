package session

import "github.com/watchparty/server/internal/domain"

type SetSessionParams struct {
	SessionId   string
	ModeratorId string
	Screen      domain.Screen
	VideoId     string
}

type SetParticipantParams struct {
	ParticipantId string
	Username      string
	IsActive      bool
	SessionId     string
}

type RemoveParticipantParams struct {
	ParticipantId string
	SessionId     string
}

type UpdateParticipantIsActiveParams struct {
	ParticipantId string
	IsActive      bool
	SessionId     string
}

type GetParticipantParams struct {
	ParticipantId string
	SessionId     string
}

type AddEventParams struct {
	Event     domain.VideoEvent
	SessionId string
}

type UpdateParticipantTimeParams struct {
	ParticipantId string
	Time          domain.ParticipantTime
	SessionId     string
}

type RemoveParticipantTimeParams struct {
	ParticipantId string
	SessionId     string
}

type SetAuthTokenParams struct {
	AuthToken     string
	ParticipantId string
}

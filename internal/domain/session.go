package domain

// Screen is the UI surface the session is collectively on.
type Screen string

const (
	ScreenLobby  Screen = "lobby"
	ScreenSearch Screen = "search"
	ScreenVideo  Screen = "video"
	ScreenChat   Screen = "chat"
)

// ParticipantTime is a participant's last self-reported playback position.
// It feeds the late-joiner bootstrap and presence sweeps only; moment-to-moment
// convergence is event-driven.
type ParticipantTime struct {
	CurrentTime float64   `json:"current_time"`
	LastActive  Timestamp `json:"last_active"`
}

type Participant struct {
	Id          string `json:"id"`
	Username    string `json:"username"`
	IsModerator bool   `json:"is_moderator"`
	IsActive    bool   `json:"is_active"`
}

// SessionState is the realtime session snapshot sent to a joining client.
type SessionState struct {
	SessionId        string                     `json:"session_id"`
	Screen           Screen                     `json:"screen"`
	VideoId          string                     `json:"video_id"`
	Events           []VideoEvent               `json:"events"`
	ParticipantTimes map[string]ParticipantTime `json:"participant_times"`
	Participants     []Participant              `json:"participants"`
}

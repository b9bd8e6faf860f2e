package domain

import "time"

type EventType string

const (
	EventPlay        EventType = "play"
	EventPause       EventType = "pause"
	EventSeek        EventType = "seek"
	EventVideoChange EventType = "video_change"
	EventPopup       EventType = "popup"
)

type Emoji string

const (
	EmojiLike        Emoji = "like"
	EmojiDislike     Emoji = "dislike"
	EmojiHeart       Emoji = "heart"
	EmojiHeartBroken Emoji = "heart-broken"
	EmojiLaugh       Emoji = "laugh"
	EmojiSad         Emoji = "sad"
	EmojiAngry       Emoji = "angry"
)

// VideoEvent is a single entry of the per-session playback event log.
// Events are immutable once published; the log assigns Id when it is empty.
// Which of the optional fields are meaningful depends on Type.
type VideoEvent struct {
	Id        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp Timestamp `json:"timestamp"`
	UserId    string    `json:"user_id"`
	// play, pause, seek
	CurrentTime float64 `json:"current_time,omitempty"`
	// seek only; falls back to CurrentTime when absent
	SeekTime *float64 `json:"seek_time,omitempty"`
	// video_change only; empty means the video was cleared
	VideoId string `json:"video_id,omitempty"`
	// popup only
	UserName string `json:"user_name,omitempty"`
	Emoji    Emoji  `json:"emoji,omitempty"`
}

// Normalized returns the event with a usable timestamp: a missing or
// unparseable timestamp is replaced with now, so every inbound event is
// comparable. A malformed timestamp is a fallback case, not an error.
func (e VideoEvent) Normalized(now time.Time) VideoEvent {
	if e.Timestamp.IsZero() {
		e.Timestamp = TimestampAt(now)
	}
	return e
}

// SeekTarget is the position a seek event asks for.
func (e VideoEvent) SeekTarget() float64 {
	if e.SeekTime != nil {
		return *e.SeekTime
	}
	return e.CurrentTime
}

package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoEventNormalized(t *testing.T) {
	now := time.Unix(1700000000, 0)

	missing := VideoEvent{Type: EventPlay}
	assert.Equal(t, TimestampAt(now), missing.Normalized(now).Timestamp)

	stamped := VideoEvent{Type: EventPlay, Timestamp: TimestampFromMillis(42000)}
	assert.Equal(t, stamped.Timestamp, stamped.Normalized(now).Timestamp)
}

func TestVideoEventSeekTarget(t *testing.T) {
	seekTime := 120.5
	withSeek := VideoEvent{Type: EventSeek, CurrentTime: 100, SeekTime: &seekTime}
	assert.InDelta(t, 120.5, withSeek.SeekTarget(), 1e-9)

	withoutSeek := VideoEvent{Type: EventSeek, CurrentTime: 100}
	assert.InDelta(t, 100, withoutSeek.SeekTarget(), 1e-9)
}

func TestVideoEventDecodeMalformedTimestamp(t *testing.T) {
	// a bad timestamp shape must not fail event delivery
	data := `{"id":"e1","type":"seek","timestamp":"yesterday","user_id":"u1","current_time":30,"seek_time":45}`

	var event VideoEvent
	require.NoError(t, json.Unmarshal([]byte(data), &event))
	assert.True(t, event.Timestamp.IsZero())
	assert.Equal(t, EventSeek, event.Type)
	require.NotNil(t, event.SeekTime)
	assert.InDelta(t, 45, *event.SeekTime, 1e-9)
}

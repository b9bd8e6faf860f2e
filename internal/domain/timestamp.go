package domain

import (
	"encoding/json"
	"time"
)

// Timestamp is the logical event time used for ordering and clock
// compensation. On the wire it is either an object with seconds and
// nanoseconds or a raw epoch-milliseconds number; anything else decodes
// to the zero value so a malformed timestamp never fails event delivery.
type Timestamp struct {
	Seconds     int64 `json:"seconds" redis:"seconds"`
	Nanoseconds int64 `json:"nanoseconds" redis:"nanoseconds"`
}

func TimestampAt(t time.Time) Timestamp {
	return Timestamp{
		Seconds:     t.Unix(),
		Nanoseconds: int64(t.Nanosecond()),
	}
}

func TimestampFromMillis(ms int64) Timestamp {
	return Timestamp{
		Seconds:     ms / 1000,
		Nanoseconds: (ms % 1000) * int64(time.Millisecond),
	}
}

func (t Timestamp) Millis() int64 {
	return t.Seconds*1000 + t.Nanoseconds/int64(time.Millisecond)
}

func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, t.Nanoseconds)
}

func (t Timestamp) IsZero() bool {
	return t.Seconds == 0 && t.Nanoseconds == 0
}

type timestampObject struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

// UnmarshalJSON accepts the two known timestamp shapes and falls back to
// the zero value on anything unknown. It never returns an error.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var obj timestampObject
	if err := json.Unmarshal(data, &obj); err == nil {
		*t = Timestamp{Seconds: obj.Seconds, Nanoseconds: obj.Nanoseconds}
		return nil
	}

	var ms int64
	if err := json.Unmarshal(data, &ms); err == nil {
		*t = TimestampFromMillis(ms)
		return nil
	}

	*t = Timestamp{}
	return nil
}

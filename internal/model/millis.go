package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Millis is a timestamp the service sends either as epoch milliseconds or as a
// formatted date string.
type Millis struct {
	time.Time
}

var millisLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// UnmarshalJSON decodes epoch milliseconds or one of the known layouts.
func (m *Millis) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		m.Time = time.Time{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			m.Time = time.UnixMilli(n)
			return nil
		}
		for _, layout := range millisLayouts {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				m.Time = t
				return nil
			}
		}
		return &time.ParseError{Value: s, Message: ": unknown timestamp format"}
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	m.Time = time.UnixMilli(n)
	return nil
}

// MarshalJSON emits epoch milliseconds.
func (m Millis) MarshalJSON() ([]byte, error) {
	if m.IsZero() {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, m.UnixMilli(), 10), nil
}

// MarshalYAML emits an RFC 3339 string.
func (m Millis) MarshalYAML() (any, error) {
	if m.IsZero() {
		return nil, nil
	}
	return m.Format(time.RFC3339), nil
}

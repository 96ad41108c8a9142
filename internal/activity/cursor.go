package activity

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"parkwatch-backend/internal/model"
	"parkwatch-backend/internal/store"
)

// EncodeCursor produces the opaque pagination token pointing just past the
// given event. Passing it as "before" to FetchRecent returns strictly older
// events.
func EncodeCursor(event model.ActivityEvent) string {
	raw := fmt.Sprintf("%d:%d", event.OccurredAt.UnixNano(), event.Seq)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (*store.EventCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}

	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor: %q", raw)
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	seq, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor seq: %w", err)
	}

	return &store.EventCursor{OccurredAt: time.Unix(0, nanos).UTC(), Seq: seq}, nil
}

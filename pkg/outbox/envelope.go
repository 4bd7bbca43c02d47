package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/retrostore/retrostore-backend/pkg/enums"
)

// CurrentEnvelopeVersion is written when a DomainEvent leaves Version unset.
const CurrentEnvelopeVersion = 1

// Actor is the user whose request produced the event.
type Actor struct {
	UserID uuid.UUID      `json:"userId"`
	Role   enums.UserRole `json:"role,omitempty"`
}

// Envelope wraps event data in outbox_events.payload. Consumers key
// deduplication on EventID, not on the outbox row ID.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *Actor          `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

var errEmptyData = errors.New("envelope data is empty")

// newEnvelope marshals event.Data and fills the envelope defaults.
func newEnvelope(event DomainEvent, now time.Time) (Envelope, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s data: %w", event.EventType, err)
	}
	if isEmpty(data) {
		return Envelope{}, errEmptyData
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}
	version := event.Version
	if version <= 0 {
		version = CurrentEnvelopeVersion
	}
	return Envelope{
		Version:    version,
		EventID:    uuid.NewString(),
		OccurredAt: occurred.UTC(),
		Actor:      event.Actor,
		Data:       data,
	}, nil
}

// DecodeEnvelope parses a stored payload and checks the fields every
// consumer relies on.
func DecodeEnvelope(raw json.RawMessage) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	switch {
	case env.Version <= 0:
		return Envelope{}, fmt.Errorf("envelope version %d is invalid", env.Version)
	case env.EventID == "":
		return Envelope{}, errors.New("envelope eventId is missing")
	case isEmpty(env.Data):
		return Envelope{}, errEmptyData
	}
	return env, nil
}

func isEmpty(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

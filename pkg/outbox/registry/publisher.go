package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/retrostore/retrostore-backend/pkg/config"
	"github.com/retrostore/retrostore-backend/pkg/db/models"
	"github.com/retrostore/retrostore-backend/pkg/enums"
	"github.com/retrostore/retrostore-backend/pkg/outbox"
	"github.com/retrostore/retrostore-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate, topic and current
// schema decoder.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	Version       int
	Decoder       Decoder
}

// ResolvedEvent is an outbox row after its envelope and data were decoded.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.Envelope
	Payload    any
}

// ErrUnknownEvent marks rows whose event type has no descriptor.
var ErrUnknownEvent = errors.New("unsupported event type")

// EventRegistry routes event types to topics and decoders.
type EventRegistry struct {
	entries  map[enums.OutboxEventType]EventDescriptor
	decoders *DecoderRegistry
}

// NonRetryableError tells the publisher that retrying the row cannot help.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// NewEventRegistry wires order_created to the orders topic and
// rating_submitted to the ratings topic.
func NewEventRegistry(cfg config.OutboxConfig) (*EventRegistry, error) {
	if strings.TrimSpace(cfg.OrdersTopic) == "" {
		return nil, fmt.Errorf("orders topic is required")
	}
	if strings.TrimSpace(cfg.RatingsTopic) == "" {
		return nil, fmt.Errorf("ratings topic is required")
	}

	reg := &EventRegistry{
		entries:  make(map[enums.OutboxEventType]EventDescriptor),
		decoders: NewDecoderRegistry(),
	}
	for _, desc := range []EventDescriptor{
		{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			Topic:         cfg.OrdersTopic,
			Version:       1,
			Decoder:       JSONDecoder[payloads.OrderCreatedEvent](),
		},
		{
			EventType:     enums.EventRatingSubmitted,
			AggregateType: enums.AggregateProduct,
			Topic:         cfg.RatingsTopic,
			Version:       1,
			Decoder:       JSONDecoder[payloads.RatingSubmittedEvent](),
		},
	} {
		if err := reg.register(desc); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) error {
	if _, dup := r.entries[desc.EventType]; dup {
		return fmt.Errorf("event %s registered twice", desc.EventType)
	}
	if err := r.decoders.Register(desc.EventType, desc.Version, desc.Decoder); err != nil {
		return err
	}
	r.entries[desc.EventType] = desc
	return nil
}

// Describe returns the descriptor for eventType.
func (r *EventRegistry) Describe(eventType enums.OutboxEventType) (EventDescriptor, bool) {
	desc, ok := r.entries[eventType]
	return desc, ok
}

// Topics lists every distinct topic, in no particular order.
func (r *EventRegistry) Topics() []string {
	seen := map[string]struct{}{}
	topics := []string{}
	for _, desc := range r.entries {
		if _, ok := seen[desc.Topic]; ok {
			continue
		}
		seen[desc.Topic] = struct{}{}
		topics = append(topics, desc.Topic)
	}
	return topics
}

// Resolve checks the row against its descriptor and decodes the payload.
// Every failure is a NonRetryableError.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("%w %s", ErrUnknownEvent, event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(errors.New("missing aggregate_id"))
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("%s: %w", event.EventType, err))
	}
	payload, err := r.decoders.Decode(event.EventType, envelope.Version, envelope.Data)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

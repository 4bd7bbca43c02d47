package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/retrostore/retrostore-backend/pkg/enums"
)

// Decoder turns envelope data into a typed event.
type Decoder func(data json.RawMessage) (any, error)

// JSONDecoder decodes into a fresh *T and rejects fields T does not declare,
// so a payload written under a newer schema is never silently truncated.
func JSONDecoder[T any]() Decoder {
	return func(data json.RawMessage) (any, error) {
		out := new(T)
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

type schema struct {
	eventType enums.OutboxEventType
	version   int
}

func (s schema) String() string { return fmt.Sprintf("%s@v%d", s.eventType, s.version) }

// DecoderRegistry holds one decoder per event type and schema version.
type DecoderRegistry struct {
	mu       sync.RWMutex
	decoders map[schema]Decoder
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: make(map[schema]Decoder)}
}

// Register fails on a nil decoder, a version below 1 or a schema that is
// already registered.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder Decoder) error {
	key := schema{eventType: eventType, version: version}
	if decoder == nil {
		return fmt.Errorf("nil decoder for %s", key)
	}
	if version < 1 {
		return fmt.Errorf("invalid schema version for %s", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.decoders[key]; ok {
		return fmt.Errorf("decoder already registered for %s", key)
	}
	r.decoders[key] = decoder
	return nil
}

func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, data json.RawMessage) (any, error) {
	key := schema{eventType: eventType, version: version}
	r.mu.RLock()
	decoder, ok := r.decoders[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("decoder not registered for %s", key)
	}
	return decoder(data)
}

// Versions lists the schema versions known for eventType in ascending order.
func (r *DecoderRegistry) Versions(eventType enums.OutboxEventType) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []int
	for key := range r.decoders {
		if key.eventType == eventType {
			out = append(out, key.version)
		}
	}
	sort.Ints(out)
	return out
}

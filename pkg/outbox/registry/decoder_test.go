package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retrostore/retrostore-backend/pkg/enums"
	"github.com/retrostore/retrostore-backend/pkg/outbox/payloads"
)

func TestDecoderRegistryVersions(t *testing.T) {
	reg := NewDecoderRegistry()
	require.NoError(t, reg.Register(enums.EventRatingSubmitted, 2, JSONDecoder[payloads.RatingSubmittedEvent]()))
	require.NoError(t, reg.Register(enums.EventRatingSubmitted, 1, JSONDecoder[payloads.RatingSubmittedEvent]()))
	require.Equal(t, []int{1, 2}, reg.Versions(enums.EventRatingSubmitted))
	require.Empty(t, reg.Versions(enums.EventOrderCreated))

	out, err := reg.Decode(enums.EventRatingSubmitted, 1, json.RawMessage(`{"score":4,"rating_count":2}`))
	require.NoError(t, err)
	event, ok := out.(*payloads.RatingSubmittedEvent)
	require.True(t, ok)
	require.Equal(t, 4, event.Score)
	require.Equal(t, 2, event.RatingCount)

	_, err = reg.Decode(enums.EventRatingSubmitted, 3, json.RawMessage(`{}`))
	require.ErrorContains(t, err, "rating_submitted@v3")
}

func TestDecoderRegistryRejectsBadRegistrations(t *testing.T) {
	reg := NewDecoderRegistry()
	dec := JSONDecoder[payloads.OrderCreatedEvent]()
	require.Error(t, reg.Register(enums.EventOrderCreated, 1, nil))
	require.Error(t, reg.Register(enums.EventOrderCreated, 0, dec))
	require.NoError(t, reg.Register(enums.EventOrderCreated, 1, dec))
	require.Error(t, reg.Register(enums.EventOrderCreated, 1, dec))
}

func TestJSONDecoderRejectsUnknownFields(t *testing.T) {
	dec := JSONDecoder[payloads.RatingSubmittedEvent]()
	_, err := dec(json.RawMessage(`{"score":5,"stars":5}`))
	require.Error(t, err)
}

package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/retrostore/retrostore-backend/pkg/enums"
)

func TestNewEnvelopeDefaults(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	env, err := newEnvelope(DomainEvent{
		EventType: enums.EventOrderCreated,
		Data:      map[string]string{"order_id": "abc"},
	}, now)
	require.NoError(t, err)
	require.Equal(t, CurrentEnvelopeVersion, env.Version)
	require.Equal(t, time.UTC, env.OccurredAt.Location())
	require.True(t, env.OccurredAt.Equal(now))
	_, err = uuid.Parse(env.EventID)
	require.NoError(t, err)

	_, err = newEnvelope(DomainEvent{EventType: enums.EventOrderCreated}, now)
	require.ErrorIs(t, err, errEmptyData)
}

func TestDecodeEnvelope(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "valid", raw: `{"version":1,"eventId":"e1","data":{"a":1}}`},
		{name: "not json", raw: `{`, wantErr: true},
		{name: "zero version", raw: `{"version":0,"eventId":"e1","data":{}}`, wantErr: true},
		{name: "missing id", raw: `{"version":1,"data":{}}`, wantErr: true},
		{name: "null data", raw: `{"version":1,"eventId":"e1","data":null}`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := DecodeEnvelope(json.RawMessage(tc.raw))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "e1", env.EventID)
		})
	}
}

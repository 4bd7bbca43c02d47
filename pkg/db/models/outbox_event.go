package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/retrostore/retrostore-backend/pkg/enums"
)

// OutboxEvent is one row of outbox_events. Rows are inserted inside the
// order or rating transaction and later drained by the outbox publisher.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null"`
	// Payload holds the JSON envelope, not the bare event data.
	Payload      json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	PublishedAt  *time.Time      `gorm:"column:published_at"`
	AttemptCount int             `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string         `gorm:"column:last_error"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }

// Pending is true until the publisher (or the DLQ path) stamps published_at.
func (e OutboxEvent) Pending() bool { return e.PublishedAt == nil }

// Age is how long the row has waited since it was written.
func (e OutboxEvent) Age(now time.Time) time.Duration {
	if e.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(e.CreatedAt)
}

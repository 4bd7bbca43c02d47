package outbox

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/retrostore/retrostore-backend/pkg/db/dbtest"
	"github.com/retrostore/retrostore-backend/pkg/db/models"
	"github.com/retrostore/retrostore-backend/pkg/enums"
	pkgerrors "github.com/retrostore/retrostore-backend/pkg/errors"
)

func TestEmitWritesEnvelope(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)
	productID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventRatingSubmitted,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Actor:         &Actor{UserID: uuid.New(), Role: enums.UserRoleUser},
			Data:          map[string]int{"score": 4},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, productID, rows[0].AggregateID)
	require.Nil(t, rows[0].PublishedAt)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	require.Equal(t, 1, envelope.Version)
	require.NotEmpty(t, envelope.EventID)
	require.JSONEq(t, `{"score":4}`, string(envelope.Data))
}

func TestEmitRollsBackWithCaller(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          struct{}{},
		}); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})
	require.ErrorIs(t, err, gorm.ErrInvalidData)

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestEmitValidation(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)
	ctx := context.Background()

	require.Error(t, svc.Emit(ctx, nil, DomainEvent{}))
	require.Error(t, svc.Emit(ctx, conn, DomainEvent{
		EventType:     "nope",
		AggregateType: enums.AggregateOrder,
	}))
	require.Error(t, svc.Emit(ctx, conn, DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: "nope",
	}))
}

func TestRepositoryLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	first := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	require.NoError(t, repo.Insert(conn, first))
	require.NoError(t, repo.Insert(conn, second))

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.MarkPublishedTx(conn, first.ID))
	require.NoError(t, repo.MarkTerminalTx(conn, second.ID, gorm.ErrInvalidData, 3))

	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Empty(t, rows)

	pending, err := repo.CountPending(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, pending)

	deleted, err := repo.DeletePublishedBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)
}

func TestDLQRepositoryTruncatesMessage(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewDLQRepository(conn)
	eventID := uuid.New()
	long := strings.Repeat("x", maxDLQErrorLen+10)

	require.NoError(t, repo.InsertTx(conn, models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &long,
		FailedAt:      time.Now().UTC(),
	}))

	found, err := repo.FindByEventID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, *found.ErrorMessage, maxDLQErrorLen)

	missing, err := repo.FindByEventID(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestDLQReplayRequeuesReplayableEntries(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	dlq := NewDLQRepository(conn)
	repo := NewRepository(conn)

	source := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1,"eventId":"e-1","data":{}}`),
		AttemptCount:  5,
	}
	require.NoError(t, dlq.InsertTx(conn, models.DeadLetter(source, enums.OutboxDLQReasonMaxAttempts, gorm.ErrInvalidDB, time.Now().UTC())))

	newID, err := dlq.Replay(ctx, source.ID, false)
	require.NoError(t, err)
	require.NotEqual(t, source.ID, newID)

	var requeued models.OutboxEvent
	require.NoError(t, conn.First(&requeued, "id = ?", newID).Error)
	require.Zero(t, requeued.AttemptCount)
	require.True(t, requeued.Pending())
	require.JSONEq(t, string(source.Payload), string(requeued.Payload))

	gone, err := dlq.FindByEventID(ctx, source.ID)
	require.NoError(t, err)
	require.Nil(t, gone)

	pending, err := repo.CountPending(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, pending)

	_, err = dlq.Replay(ctx, source.ID, false)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDLQReplayRefusesStructuralFailuresUnlessForced(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	dlq := NewDLQRepository(conn)

	source := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventRatingSubmitted,
		AggregateType: enums.AggregateProduct,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	require.NoError(t, dlq.InsertTx(conn, models.DeadLetter(source, enums.OutboxDLQReasonNonRetryable, nil, time.Now().UTC())))

	_, err := dlq.Replay(ctx, source.ID, false)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	rows, err := dlq.List(ctx, enums.OutboxDLQReasonNonRetryable, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Nil(t, rows[0].ErrorMessage)

	_, err = dlq.Replay(ctx, source.ID, true)
	require.NoError(t, err)
}

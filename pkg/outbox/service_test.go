package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/payments-service/pkg/db/dbtest"
	"github.com/angelmondragon/payments-service/pkg/db/models"
	"github.com/angelmondragon/payments-service/pkg/enums"
	"github.com/angelmondragon/payments-service/pkg/logger"
)

func TestEmitWritesEnvelopeInTransaction(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, logger.Nop())
	occurred := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventPaymentCompleted,
			AggregateType: enums.AggregatePayment,
			AggregateID:   "42",
			Data:          map[string]any{"payment_id": 42},
			OccurredAt:    occurred,
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.NotEqual(t, uuid.Nil, row.ID)
	assert.Equal(t, "42", row.AggregateID)
	assert.Nil(t, row.PublishedAt)

	var env PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &env))
	assert.Equal(t, row.ID.String(), env.EventID)
	assert.Equal(t, 1, env.Version)
	assert.True(t, env.OccurredAt.Equal(occurred))
	assert.JSONEq(t, `{"payment_id":42}`, string(env.Data))
}

func TestEmitRolledBackWithTransaction(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(NewRepository(client.DB()), nil)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   "9",
			Data:          struct{}{},
		}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitRejectsInvalidEvents(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(NewRepository(client.DB()), nil)
	ctx := context.Background()

	assert.Error(t, svc.Emit(ctx, nil, DomainEvent{EventType: enums.EventPaymentFailed, AggregateID: "1"}))
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := svc.Emit(ctx, tx, DomainEvent{EventType: "payment_lost", AggregateID: "1"}); err == nil {
			return errors.New("expected unknown event type to fail")
		}
		if err := svc.Emit(ctx, tx, DomainEvent{EventType: enums.EventPaymentFailed, AggregateID: " "}); err == nil {
			return errors.New("expected blank aggregate id to fail")
		}
		return nil
	})
	assert.NoError(t, err)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute)
	ids := make([]uuid.UUID, 3)
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		for i := range ids {
			ids[i] = uuid.New()
			if err := repo.Insert(tx, models.OutboxEvent{
				ID:            ids[i],
				EventType:     enums.EventPaymentCompleted,
				AggregateType: enums.AggregatePayment,
				AggregateID:   "1",
				Payload:       json.RawMessage(`{}`),
				CreatedAt:     base.Add(time.Duration(i) * time.Second),
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		if err != nil {
			return err
		}
		require.Len(t, rows, 3)
		assert.Equal(t, ids[0], rows[0].ID)

		if err := repo.MarkPublishedTx(tx, ids[0]); err != nil {
			return err
		}
		if err := repo.MarkFailedTx(tx, ids[1], errors.New("unavailable")); err != nil {
			return err
		}
		return repo.MarkTerminalTx(tx, ids[2], errors.New("bad payload"), 3)
	}))

	var failed models.OutboxEvent
	require.NoError(t, client.DB().Where("id = ?", ids[1]).First(&failed).Error)
	assert.Equal(t, 1, failed.AttemptCount)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "unavailable", *failed.LastError)

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		if err != nil {
			return err
		}
		require.Len(t, rows, 1)
		assert.Equal(t, ids[1], rows[0].ID)
		return nil
	}))
}

func TestDLQRepositoryInsertAndFind(t *testing.T) {
	client := dbtest.Open(t)
	dlq := NewDLQRepository(client.DB())
	eventID := uuid.New()
	long := make([]byte, maxErrorLen+50)
	for i := range long {
		long[i] = 'x'
	}
	msg := string(long)

	require.NoError(t, client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return dlq.InsertTx(tx, models.OutboxDLQ{
			EventID:       eventID,
			EventType:     enums.EventPaymentRefunded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   "3",
			Payload:       json.RawMessage(`{}`),
			ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
			ErrorMessage:  &msg,
			FailedAt:      time.Now().UTC(),
		})
	}))

	found, err := dlq.FindByEventID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.ErrorMessage)
	assert.Len(t, *found.ErrorMessage, maxErrorLen)

	missing, err := dlq.FindByEventID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryDeletePublishedBefore(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	old := now.Add(-40 * 24 * time.Hour)
	published := old.Add(time.Minute)

	rows := []models.OutboxEvent{
		{ID: uuid.New(), CreatedAt: old, PublishedAt: &published},
		{ID: uuid.New(), CreatedAt: old, AttemptCount: 5},
		{ID: uuid.New(), CreatedAt: old, AttemptCount: 1},
		{ID: uuid.New(), CreatedAt: now, PublishedAt: &published},
	}
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		for _, row := range rows {
			row.EventType = enums.EventPaymentCompleted
			row.AggregateType = enums.AggregatePayment
			row.AggregateID = "9"
			row.Payload = json.RawMessage(`{}`)
			if err := repo.Insert(tx, row); err != nil {
				return err
			}
		}
		return nil
	}))

	var deleted int64
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := repo.DeletePublishedBefore(ctx, tx, now.Add(-30*24*time.Hour), 5)
		deleted = n
		return err
	}))
	assert.EqualValues(t, 2, deleted)

	var remaining []models.OutboxEvent
	require.NoError(t, client.DB().Order("created_at ASC").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	ids := []uuid.UUID{remaining[0].ID, remaining[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{rows[2].ID, rows[3].ID}, ids)
}

func TestDLQRepositoryDeleteFailedBefore(t *testing.T) {
	client := dbtest.Open(t)
	dlq := NewDLQRepository(client.DB())
	ctx := context.Background()
	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		for _, failedAt := range []time.Time{cutoff.Add(-time.Hour), cutoff.Add(time.Hour)} {
			if err := dlq.InsertTx(tx, models.OutboxDLQ{
				EventID:       uuid.New(),
				EventType:     enums.EventPaymentFailed,
				AggregateType: enums.AggregatePayment,
				AggregateID:   "5",
				Payload:       json.RawMessage(`{}`),
				ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
				FailedAt:      failedAt,
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	var deleted int64
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := dlq.DeleteFailedBefore(ctx, tx, cutoff)
		deleted = n
		return err
	}))
	assert.EqualValues(t, 1, deleted)

	var count int64
	require.NoError(t, client.DB().Model(&models.OutboxDLQ{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// Package outbox implements the transactional outbox for billing events:
// the event row is written in the same database transaction as the invoice,
// and a relay loop publishes pending rows to kafka afterwards.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Record struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"event_id"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at"`
}

// Execer is satisfied by both *pgxpool.Pool and pgx.Tx so Insert can join
// the caller's transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ Execer = (*pgxpool.Pool)(nil)
var _ Execer = (pgx.Tx)(nil)

func Insert(ctx context.Context, db Execer, eventID, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `INSERT INTO outbox(event_id, topic, key, payload) VALUES ($1, $2, $3, $4)`, eventID, topic, key, data)
	return err
}

func MarkSent(ctx context.Context, pool *pgxpool.Pool, id int64) error {
	_, err := pool.Exec(ctx, `UPDATE outbox SET sent_at=now() WHERE id=$1`, id)
	return err
}

func FetchPending(ctx context.Context, pool *pgxpool.Pool, limit int) ([]Record, error) {
	rows, err := pool.Query(ctx, `SELECT id, event_id, topic, key, payload, created_at, sent_at FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &rec.Payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PublishFunc sends one pending record to the broker.
type PublishFunc func(ctx context.Context, rec Record) error

// Relay drains pending records on a fixed interval until ctx is cancelled.
// A record that fails to publish stays pending and is retried next tick.
func Relay(ctx context.Context, pool *pgxpool.Pool, interval time.Duration, publish PublishFunc, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		recs, err := FetchPending(ctx, pool, 100)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("outbox fetch failed", zap.Error(err))
			continue
		}
		for _, rec := range recs {
			if err := publish(ctx, rec); err != nil {
				logger.Warn("outbox publish failed", zap.Int64("outbox_id", rec.ID), zap.Error(err))
				break
			}
			if err := MarkSent(ctx, pool, rec.ID); err != nil {
				logger.Warn("outbox mark-sent failed", zap.Int64("outbox_id", rec.ID), zap.Error(err))
				break
			}
		}
	}
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"plant-cold-alerts/internal/alerts"
	"plant-cold-alerts/internal/forecast"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	createSchemaSQL = `CREATE TABLE IF NOT EXISTS current_alerts (
        id               BIGSERIAL PRIMARY KEY,
        threshold        DOUBLE PRECISION NOT NULL,
        start_date       TIMESTAMPTZ NOT NULL,
        end_date         TIMESTAMPTZ NOT NULL,
        min_temp         DOUBLE PRECISION NOT NULL,
        min_temp_date    TIMESTAMPTZ NOT NULL,
        created_at       TIMESTAMPTZ NOT NULL,
        last_notified_at TIMESTAMPTZ
    );
    CREATE INDEX IF NOT EXISTS idx_current_alerts_threshold
        ON current_alerts (threshold, start_date);

    CREATE TABLE IF NOT EXISTS notification_history (
        id       BIGSERIAL PRIMARY KEY,
        alert_id BIGINT,
        message  TEXT NOT NULL,
        channels TEXT[] NOT NULL,
        sent_at  TIMESTAMPTZ NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_notification_history_alert
        ON notification_history (alert_id, sent_at DESC);

    CREATE TABLE IF NOT EXISTS forecast_cache (
        id            INT PRIMARY KEY,
        forecast_data JSONB NOT NULL,
        fetched_at    TIMESTAMPTZ NOT NULL
    );`

	listCurrentAlertsSQL = `SELECT
        id, threshold, start_date, end_date, min_temp, min_temp_date, created_at, last_notified_at
    FROM current_alerts
    ORDER BY threshold DESC, start_date;`

	insertAlertSQL = `INSERT INTO current_alerts (
        threshold, start_date, end_date, min_temp, min_temp_date, created_at, last_notified_at
    ) VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id;`

	updateAlertSQL = `UPDATE current_alerts
    SET start_date = $2, end_date = $3, min_temp = $4, min_temp_date = $5
    WHERE id = $1;`

	setLastNotifiedSQL = `UPDATE current_alerts SET last_notified_at = $2 WHERE id = $1;`

	deleteAlertSQL = `DELETE FROM current_alerts WHERE id = $1;`

	insertNotificationSQL = `INSERT INTO notification_history (alert_id, message, channels, sent_at)
    VALUES ($1,$2,$3,$4)
    RETURNING id;`

	listNotificationsSQL = `SELECT id, alert_id, message, channels, sent_at
    FROM notification_history
    ORDER BY sent_at DESC
    LIMIT $1;`

	upsertForecastCacheSQL = `INSERT INTO forecast_cache (id, forecast_data, fetched_at)
    VALUES (1, $1, $2)
    ON CONFLICT (id) DO UPDATE
    SET forecast_data = EXCLUDED.forecast_data,
        fetched_at    = EXCLUDED.fetched_at;`

	getForecastCacheSQL = `SELECT forecast_data, fetched_at FROM forecast_cache WHERE id = 1;`
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same statements can
// run inside or outside the per-run transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AlertStore defines the per-run alert persistence operations.
type AlertStore interface {
	ListCurrentAlerts(ctx context.Context) ([]alerts.Alert, error)
	InsertAlert(ctx context.Context, alert alerts.Alert) (int64, error)
	UpdateAlert(ctx context.Context, alert alerts.Alert) error
	DeleteAlert(ctx context.Context, id int64) error
	SetLastNotified(ctx context.Context, id int64, when time.Time) error
	RecordNotification(ctx context.Context, rec NotificationRecord) (int64, error)
	UpsertForecastCache(ctx context.Context, entry ForecastCacheEntry) error
	GetForecastCache(ctx context.Context) (*ForecastCacheEntry, error)
}

// AlertTx is the transactional store surface handed to one run.
type AlertTx interface {
	AlertStore
	Commit(ctx context.Context) error
	Rollback(ctx context.Context)
}

// Store aggregates access to alerts, notification history, and the forecast cache.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// InitSchema creates the tables and indexes if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, createSchemaSQL); execErr != nil {
		return fmt.Errorf("init schema: %w", execErr)
	}
	return nil
}

// Begin opens the single transaction that wraps all reads and writes of one run, so
// a crash mid-run leaves either the old or the new alert state across thresholds.
func (s *Store) Begin(ctx context.Context) (AlertTx, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// ListCurrentAlerts returns every tracked alert outside a transaction.
func (s *Store) ListCurrentAlerts(ctx context.Context) ([]alerts.Alert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	return listCurrentAlerts(ctx, pool)
}

// ListNotifications returns the most recent notification history entries.
func (s *Store) ListNotifications(ctx context.Context, limit int) ([]NotificationRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listNotificationsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list notifications: %w", queryErr)
	}
	defer rows.Close()

	records := make([]NotificationRecord, 0, limit)
	for rows.Next() {
		var rec NotificationRecord
		if err := rows.Scan(&rec.ID, &rec.AlertID, &rec.Message, &rec.Channels, &rec.SentAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetForecastCache returns the cached forecast snapshot, or nil when absent.
func (s *Store) GetForecastCache(ctx context.Context) (*ForecastCacheEntry, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	return getForecastCache(ctx, pool)
}

// Tx bundles the per-run store operations inside one transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit finalises the run's writes.
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback discards the run's writes. Safe to call after Commit.
func (t *Tx) Rollback(ctx context.Context) {
	_ = t.tx.Rollback(ctx)
}

// ListCurrentAlerts returns every tracked alert within the transaction.
func (t *Tx) ListCurrentAlerts(ctx context.Context) ([]alerts.Alert, error) {
	return listCurrentAlerts(ctx, t.tx)
}

// InsertAlert persists a new alert and returns its identifier.
func (t *Tx) InsertAlert(ctx context.Context, alert alerts.Alert) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, insertAlertSQL,
		alert.Threshold,
		alert.Start,
		alert.End,
		alert.MinTemp,
		alert.MinTempAt,
		alert.CreatedAt,
		alert.LastNotifiedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert alert: %w", err)
	}
	return id, nil
}

// UpdateAlert rewrites the period fields of an existing alert.
func (t *Tx) UpdateAlert(ctx context.Context, alert alerts.Alert) error {
	tag, err := t.tx.Exec(ctx, updateAlertSQL,
		alert.ID,
		alert.Start,
		alert.End,
		alert.MinTemp,
		alert.MinTempAt,
	)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetLastNotified records the notify decision timestamp on an alert.
func (t *Tx) SetLastNotified(ctx context.Context, id int64, when time.Time) error {
	if _, err := t.tx.Exec(ctx, setLastNotifiedSQL, id, when); err != nil {
		return fmt.Errorf("set last notified: %w", err)
	}
	return nil
}

// DeleteAlert removes an alert from the store.
func (t *Tx) DeleteAlert(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, deleteAlertSQL, id); err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	return nil
}

// RecordNotification appends an entry to the notification audit log.
func (t *Tx) RecordNotification(ctx context.Context, rec NotificationRecord) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, insertNotificationSQL,
		rec.AlertID,
		rec.Message,
		rec.Channels,
		rec.SentAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("record notification: %w", err)
	}
	return id, nil
}

// UpsertForecastCache overwrites the single logical cache row.
func (t *Tx) UpsertForecastCache(ctx context.Context, entry ForecastCacheEntry) error {
	payload, err := json.Marshal(entry.Samples)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}
	if _, err := t.tx.Exec(ctx, upsertForecastCacheSQL, payload, entry.FetchedAt); err != nil {
		return fmt.Errorf("upsert forecast cache: %w", err)
	}
	return nil
}

// GetForecastCache returns the cached forecast snapshot, or nil when absent.
func (t *Tx) GetForecastCache(ctx context.Context) (*ForecastCacheEntry, error) {
	return getForecastCache(ctx, t.tx)
}

func listCurrentAlerts(ctx context.Context, q querier) ([]alerts.Alert, error) {
	rows, err := q.Query(ctx, listCurrentAlertsSQL)
	if err != nil {
		return nil, fmt.Errorf("list current alerts: %w", err)
	}
	defer rows.Close()

	result := make([]alerts.Alert, 0, 2)
	for rows.Next() {
		var a alerts.Alert
		if err := rows.Scan(
			&a.ID,
			&a.Threshold,
			&a.Start,
			&a.End,
			&a.MinTemp,
			&a.MinTempAt,
			&a.CreatedAt,
			&a.LastNotifiedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func getForecastCache(ctx context.Context, q querier) (*ForecastCacheEntry, error) {
	var payload []byte
	var fetchedAt time.Time
	err := q.QueryRow(ctx, getForecastCacheSQL).Scan(&payload, &fetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get forecast cache: %w", err)
	}

	var samples []forecast.Sample
	if err := json.Unmarshal(payload, &samples); err != nil {
		return nil, fmt.Errorf("decode forecast cache: %w", err)
	}
	return &ForecastCacheEntry{Samples: samples, FetchedAt: fetchedAt}, nil
}

var _ AlertTx = (*Tx)(nil)

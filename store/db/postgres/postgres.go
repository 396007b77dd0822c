package postgres

import (
	"context"
	"database/sql"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/eventbot/internal/profile"
	"github.com/hrygo/eventbot/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

const schema = `
CREATE TABLE IF NOT EXISTS event (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	type TEXT NOT NULL,
	note TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	recurring TEXT NOT NULL DEFAULT '',
	reminder_type TEXT NOT NULL DEFAULT '',
	reminded BOOLEAN NOT NULL DEFAULT FALSE,
	last_reminded_date TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS bot_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	last_update_id BIGINT NOT NULL DEFAULT 0
);
`

// NewDB opens the PostgreSQL connection and bootstraps the schema.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// Single-principal bot: a small pool is plenty.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "failed to bootstrap schema")
	}

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) LoadEvents(ctx context.Context) ([]*store.Event, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, type, note, date, time, recurring, reminder_type, reminded, last_reminded_date, created_at
		FROM event
		ORDER BY seq ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query events")
	}
	defer rows.Close()

	list := make([]*store.Event, 0)
	for rows.Next() {
		var event store.Event
		if err := rows.Scan(
			&event.ID,
			&event.Type,
			&event.Note,
			&event.Date,
			&event.Time,
			&event.Recurring,
			&event.ReminderType,
			&event.Reminded,
			&event.LastRemindedDate,
			&event.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan event")
		}
		list = append(list, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate events")
	}
	return list, nil
}

func (d *DB) ReplaceEvents(ctx context.Context, events []*store.Event) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM event`); err != nil {
		return errors.Wrap(err, "failed to clear events")
	}
	for _, event := range events {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO event (id, type, note, date, time, recurring, reminder_type, reminded, last_reminded_date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			event.ID, event.Type, event.Note, event.Date, event.Time,
			event.Recurring, event.ReminderType, event.Reminded, event.LastRemindedDate, event.CreatedAt,
		); err != nil {
			return errors.Wrapf(err, "failed to insert event %s", event.ID)
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit events")
}

func (d *DB) LoadBotState(ctx context.Context) (*store.BotState, error) {
	state := &store.BotState{}
	err := d.db.QueryRowContext(ctx, `SELECT last_update_id FROM bot_state WHERE id = 1`).Scan(&state.LastUpdateID)
	if err == sql.ErrNoRows {
		return state, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query bot state")
	}
	return state, nil
}

func (d *DB) SaveBotState(ctx context.Context, state *store.BotState) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO bot_state (id, last_update_id) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET last_update_id = EXCLUDED.last_update_id`,
		state.LastUpdateID)
	return errors.Wrap(err, "failed to save bot state")
}

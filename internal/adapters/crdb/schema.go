package crdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS reservations (
	id UUID PRIMARY KEY,
	user_id BIGINT NOT NULL,
	guest_id BIGINT NOT NULL,
	room_id BIGINT NOT NULL,
	check_in DATE NOT NULL,
	check_out DATE NOT NULL,
	checked_in BOOL NOT NULL DEFAULT false,
	checked_out BOOL NOT NULL DEFAULT false,
	cancelled BOOL NOT NULL DEFAULT false,
	payment_status TEXT NOT NULL CHECK (payment_status IN ('pending', 'paid', 'cancelled')),
	amount FLOAT8 NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	INDEX reservations_room_idx (room_id, check_in)
);
CREATE TABLE IF NOT EXISTS guests (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	document TEXT NOT NULL UNIQUE,
	email TEXT,
	phone TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS outbox (
	id UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id UUID NOT NULL,
	event_type TEXT NOT NULL,
	payload_json BYTES NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at TIMESTAMPTZ,
	status TEXT NOT NULL CHECK (status IN ('NEW', 'PUBLISHED', 'FAILED')),
	dedupe_key TEXT NOT NULL
);
`

// Migrate creates the schema when it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

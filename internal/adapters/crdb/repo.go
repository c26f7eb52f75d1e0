package crdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"innkeeper/internal/domain"
)

const (
	serializationFailureCode = "40001"
	uniqueViolationCode      = "23505"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return mapTxError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapTxError(err)
	}
	return nil
}

func mapTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == serializationFailureCode {
		return domain.ErrTxConflict
	}
	return err
}

const reservationColumns = `id, user_id, guest_id, room_id, check_in, check_out,
	checked_in, checked_out, cancelled, payment_status, amount, created_at`

// Save runs the overlap scan and the insert in one SERIALIZABLE transaction.
// Of two racing saves for intersecting periods on a room the database aborts
// one with a retry error, surfaced as ErrTxConflict; an overlap visible at
// scan time is ErrRoomConflict.
func (r *Repository) Save(ctx context.Context, res *domain.Reservation) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		var conflicting int
		err := tx.QueryRow(ctx, `
			SELECT count(*) FROM reservations
			WHERE room_id = $1 AND NOT cancelled
			  AND check_in < $3 AND $2 < check_out
		`, res.RoomID, res.CheckIn, res.CheckOut).Scan(&conflicting)
		if err != nil {
			return err
		}
		if conflicting > 0 {
			return domain.ErrRoomConflict
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO reservations (`+reservationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, res.ID, res.UserID, res.GuestID, res.RoomID, res.CheckIn, res.CheckOut,
			res.CheckedIn, res.CheckedOut, res.Cancelled, res.PaymentStatus, res.Amount, res.CreatedAt)
		if err != nil {
			return err
		}

		// Stage the created event with the insert so the outbox publisher
		// cannot see an event for a rolled-back reservation.
		payload, err := json.Marshal(map[string]interface{}{
			"reservation_id": res.ID,
			"room_id":        res.RoomID,
			"check_in":       res.CheckIn.Format(domain.DateLayout),
			"check_out":      res.CheckOut.Format(domain.DateLayout),
		})
		if err != nil {
			return err
		}
		return r.InsertOutbox(ctx, tx, newReservationEvent(res.ID, "reservation.created", payload))
	})
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+` FROM reservations WHERE id = $1
	`, id)
	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Mark(errors.Newf("reservation %s", id), domain.ErrNotFound)
	}
	return res, err
}

func (r *Repository) Update(ctx context.Context, res *domain.Reservation) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE reservations
		SET checked_in = $2, checked_out = $3, cancelled = $4,
		    payment_status = $5, amount = $6
		WHERE id = $1
	`, res.ID, res.CheckedIn, res.CheckedOut, res.Cancelled, res.PaymentStatus, res.Amount)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return errors.Mark(errors.Newf("reservation %s", res.ID), domain.ErrNotFound)
	}
	return nil
}

func (r *Repository) FindAll(ctx context.Context) ([]domain.Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+` FROM reservations ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func (r *Repository) FindConflicts(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID uuid.UUID) ([]domain.Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+` FROM reservations
		WHERE room_id = $1 AND NOT cancelled AND id != $4
		  AND check_in < $3 AND $2 < check_out
	`, roomID, checkIn, checkOut, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(&res.ID, &res.UserID, &res.GuestID, &res.RoomID, &res.CheckIn, &res.CheckOut,
		&res.CheckedIn, &res.CheckedOut, &res.Cancelled, &res.PaymentStatus, &res.Amount, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func scanReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

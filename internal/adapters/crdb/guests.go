package crdb

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"innkeeper/internal/domain"
)

type GuestRepository struct {
	pool *pgxpool.Pool
}

func NewGuestRepository(pool *pgxpool.Pool) *GuestRepository {
	return &GuestRepository{pool: pool}
}

// Save relies on the unique index on guests.document: the insert is the
// atomic duplicate check.
func (g *GuestRepository) Save(ctx context.Context, guest *domain.Guest) error {
	if guest.ID == uuid.Nil {
		guest.ID = uuid.New()
	}
	_, err := g.pool.Exec(ctx, `
		INSERT INTO guests (id, name, document, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, guest.ID, guest.Name, guest.Document, guest.Email, guest.Phone, guest.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return domain.ErrDuplicateDocument
	}
	return err
}

func (g *GuestRepository) FindByDocument(ctx context.Context, document string) (*domain.Guest, error) {
	var guest domain.Guest
	err := g.pool.QueryRow(ctx, `
		SELECT id, name, document, email, phone, created_at
		FROM guests WHERE document = $1
	`, domain.NormalizeDocument(document)).Scan(
		&guest.ID, &guest.Name, &guest.Document, &guest.Email, &guest.Phone, &guest.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Mark(errors.Newf("guest with document %s", document), domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

func (g *GuestRepository) FindAll(ctx context.Context) ([]domain.Guest, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT id, name, document, email, phone, created_at
		FROM guests ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Guest
	for rows.Next() {
		var guest domain.Guest
		if err := rows.Scan(&guest.ID, &guest.Name, &guest.Document, &guest.Email, &guest.Phone, &guest.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, guest)
	}
	return out, rows.Err()
}

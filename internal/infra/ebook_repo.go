package infra

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Vovarama1992/flipbook/internal/ports"
)

type ebookRepo struct {
	db *sql.DB
}

func NewEbookRepo(db *sql.DB) ports.EbookRepo {
	return &ebookRepo{db: db}
}

func (r *ebookRepo) Insert(ctx context.Context, e *ports.Ebook) (*ports.Ebook, error) {
	out := *e
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	if out.PageLocators == nil {
		out.PageLocators = []string{}
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO ebooks (id, title, user_id, type, file_path, pages, orientation, is_public, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`,
		out.ID,
		out.Title,
		out.OwnerID,
		out.Type,
		out.SourceLocator,
		pq.Array(out.PageLocators),
		out.Orientation,
		out.IsPublic,
		out.CreatedAt,
	).Scan(&out.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (r *ebookRepo) GetByID(ctx context.Context, id string) (*ports.Ebook, error) {
	// колонка uuid: мусорный id = не найдено, а не 500
	if _, err := uuid.Parse(id); err != nil {
		return nil, ports.ErrNotFound
	}

	var e ports.Ebook
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, user_id, type, file_path, pages, orientation, is_public, created_at
		FROM ebooks
		WHERE id = $1 AND is_public
	`, id).Scan(
		&e.ID,
		&e.Title,
		&e.OwnerID,
		&e.Type,
		&e.SourceLocator,
		pq.Array(&e.PageLocators),
		&e.Orientation,
		&e.IsPublic,
		&e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &e, nil
}

func (r *ebookRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ebooks`).Scan(&n)
	return n, err
}

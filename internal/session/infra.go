package session

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type infra struct {
	db *sql.DB
}

func NewInfra(db *sql.DB) Infra {
	return &infra{db: db}
}

func (r *infra) CreateUser(ctx context.Context, email, passwordHash, role string) (*User, error) {
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`, u.ID, u.Email, u.PasswordHash, u.Role).Scan(&u.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *infra) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, `WHERE email = $1`, email)
}

func (r *infra) GetUserByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}
	return r.getUser(ctx, `WHERE id = $1`, id)
}

func (r *infra) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, created_at
		FROM users
		`+where, arg).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *infra) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *infra) CreateSession(ctx context.Context, tokenID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token_id, user_id, created_at)
		VALUES ($1, $2, NOW())
	`, tokenID, userID)
	return err
}

func (r *infra) GetSessionUser(ctx context.Context, tokenID string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM sessions WHERE token_id = $1`,
		tokenID,
	).Scan(&userID)

	if err == sql.ErrNoRows {
		return "", ErrSessionNotFound
	}
	return userID, err
}

func (r *infra) DeleteSession(ctx context.Context, tokenID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_id = $1`, tokenID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

package session

import (
	"context"
	"errors"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Infra: работа с БД
type Infra interface {
	CreateUser(ctx context.Context, email, passwordHash, role string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	CountUsers(ctx context.Context) (int64, error)

	CreateSession(ctx context.Context, tokenID, userID string) error
	GetSessionUser(ctx context.Context, tokenID string) (userID string, err error)
	DeleteSession(ctx context.Context, tokenID string) error
}

// Service: бизнес-операции
type Service interface {
	SignUp(ctx context.Context, email, password string) (token string, s *Session, err error)
	SignIn(ctx context.Context, email, password string) (token string, s *Session, err error)
	SignOut(ctx context.Context, token string) error
	Current(ctx context.Context, token string) (*Session, error)
	CountUsers(ctx context.Context) (int64, error)
}

package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/xid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type service struct {
	repo   Infra
	secret string
	cost   int
}

func NewService(repo Infra, secret string) Service {
	return &service{
		repo:   repo,
		secret: secret,
		cost:   bcrypt.DefaultCost,
	}
}

func (s *service) SignUp(ctx context.Context, email, password string) (string, *Session, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return "", nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return "", nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.CreateUser(ctx, email, string(hash), RoleUser)
	if err != nil {
		return "", nil, err
	}

	return s.open(ctx, u)
}

func (s *service) SignIn(ctx context.Context, email, password string) (string, *Session, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	return s.open(ctx, u)
}

// SignOut revokes the token; later Current calls with it fail.
func (s *service) SignOut(ctx context.Context, token string) error {
	tokenID, ok := s.verify(token)
	if !ok {
		return ErrUnauthorized
	}
	err := s.repo.DeleteSession(ctx, tokenID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	return err
}

func (s *service) Current(ctx context.Context, token string) (*Session, error) {
	tokenID, ok := s.verify(token)
	if !ok {
		return nil, ErrUnauthorized
	}

	userID, err := s.repo.GetSessionUser(ctx, tokenID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	return &Session{UserID: u.ID, Email: u.Email, Role: u.Role, TokenID: tokenID}, nil
}

func (s *service) CountUsers(ctx context.Context) (int64, error) {
	return s.repo.CountUsers(ctx)
}

func (s *service) open(ctx context.Context, u *User) (string, *Session, error) {
	tokenID := xid.New().String()
	if err := s.repo.CreateSession(ctx, tokenID, u.ID); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}
	return tokenID + "." + s.sign(tokenID),
		&Session{UserID: u.ID, Email: u.Email, Role: u.Role, TokenID: tokenID},
		nil
}

// token = <id>.<hmac(id)>
func (s *service) verify(token string) (string, bool) {
	id, sig, ok := strings.Cut(token, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(id))) {
		return "", false
	}
	return id, true
}

func (s *service) sign(msg string) string {
	h := hmac.New(sha256.New, []byte(s.secret))
	h.Write([]byte(msg))
	return hex.EncodeToString(h.Sum(nil))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package session

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memInfra struct {
	mu       sync.Mutex
	users    map[string]*User
	sessions map[string]string
	seq      int
}

func newMemInfra() *memInfra {
	return &memInfra{users: map[string]*User{}, sessions: map[string]string{}}
}

func (m *memInfra) CreateUser(_ context.Context, email, hash, role string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, ErrEmailTaken
		}
	}
	m.seq++
	u := &User{ID: "u" + strconv.Itoa(m.seq), Email: email, PasswordHash: hash, Role: role, CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memInfra) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memInfra) GetUserByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (m *memInfra) CountUsers(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *memInfra) CreateSession(_ context.Context, tokenID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[tokenID] = userID
	return nil
}

func (m *memInfra) GetSessionUser(_ context.Context, tokenID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.sessions[tokenID]; ok {
		return id, nil
	}
	return "", ErrSessionNotFound
}

func (m *memInfra) DeleteSession(_ context.Context, tokenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[tokenID]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, tokenID)
	return nil
}

func newTestService(repo Infra) Service {
	return &service{repo: repo, secret: "test-secret", cost: bcrypt.MinCost}
}

func TestService_SignUpSignInLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newMemInfra()
	svc := newTestService(repo)

	token, s, err := svc.SignUp(ctx, "  Reader@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", s.Email)
	assert.Equal(t, RoleUser, s.Role)
	assert.False(t, s.IsAdmin())

	cur, err := svc.Current(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, s.UserID, cur.UserID)

	token2, _, err := svc.SignIn(ctx, "reader@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)

	require.NoError(t, svc.SignOut(ctx, token))
	_, err = svc.Current(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// the other session survives
	_, err = svc.Current(ctx, token2)
	require.NoError(t, err)

	n, err := svc.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestService_SignUpValidation(t *testing.T) {
	svc := newTestService(newMemInfra())
	ctx := context.Background()

	_, _, err := svc.SignUp(ctx, "no-at-sign", "secret1")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, _, err = svc.SignUp(ctx, "a@b.c", "123")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, _, err = svc.SignUp(ctx, "a@b.c", "123456")
	require.NoError(t, err)
	_, _, err = svc.SignUp(ctx, "A@B.C", "123456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_SignInWrongPassword(t *testing.T) {
	svc := newTestService(newMemInfra())
	ctx := context.Background()

	_, _, err := svc.SignUp(ctx, "a@b.c", "right-one")
	require.NoError(t, err)

	_, _, err = svc.SignIn(ctx, "a@b.c", "wrong-one")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.SignIn(ctx, "nobody@b.c", "right-one")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_TamperedToken(t *testing.T) {
	svc := newTestService(newMemInfra())
	ctx := context.Background()

	token, _, err := svc.SignUp(ctx, "a@b.c", "secret1")
	require.NoError(t, err)

	for _, bad := range []string{"", "nodot", token + "x", "abc." + token[len(token)-64:]} {
		_, err := svc.Current(ctx, bad)
		assert.ErrorIs(t, err, ErrUnauthorized, bad)
	}

	other := &service{repo: newMemInfra(), secret: "another", cost: bcrypt.MinCost}
	_, err = other.Current(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestService_AdminRole(t *testing.T) {
	repo := newMemInfra()
	svc := newTestService(repo)
	ctx := context.Background()

	token, s, err := svc.SignUp(ctx, "boss@b.c", "secret1")
	require.NoError(t, err)
	repo.users[s.UserID].Role = RoleAdmin

	cur, err := svc.Current(ctx, token)
	require.NoError(t, err)
	assert.True(t, cur.IsAdmin())
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	s := &Session{UserID: "u1"}
	got, ok := FromContext(WithSession(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)

	var nilSession *Session
	assert.False(t, nilSession.IsAdmin())
}

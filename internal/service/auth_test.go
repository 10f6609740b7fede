package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rifadigital/rifa-api/internal/domain"
)

type memoryUserRepository struct {
	mu      sync.Mutex
	nextID  uint
	byEmail map[string]domain.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{
		nextID:  1,
		byEmail: make(map[string]domain.User),
	}
}

func (m *memoryUserRepository) Create(_ context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[user.Email]; ok {
		return domain.User{}, ErrUserEmailExists
	}

	user.ID = m.nextID
	m.nextID++
	m.byEmail[user.Email] = user

	return user, nil
}

func (m *memoryUserRepository) FindByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byEmail[email]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}

	return user, nil
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a bcrypt hash, not the password", func(t *testing.T) {
		repo := newMemoryUserRepository()
		svc := NewAuthService(repo)

		created, err := svc.Signup(ctx, domain.User{
			Email:    "ana@example.com",
			Password: "hunter2hunter2",
			Name:     "Ana",
		})
		require.NoError(t, err)

		assert.NotEqual(t, "hunter2hunter2", created.Password)
		err = bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("hunter2hunter2"))
		assert.NoError(t, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := newMemoryUserRepository()
		svc := NewAuthService(repo)

		_, err := svc.Signup(ctx, domain.User{Email: "ana@example.com", Password: "hunter2hunter2"})
		require.NoError(t, err)

		_, err = svc.Signup(ctx, domain.User{Email: "ana@example.com", Password: "different-pass1"})
		require.ErrorIs(t, err, ErrUserEmailExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	repo := newMemoryUserRepository()
	svc := NewAuthService(repo)

	created, err := svc.Signup(ctx, domain.User{
		Email:    "ana@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	t.Run("happy path", func(t *testing.T) {
		user, err := svc.Login(ctx, "ana@example.com", "hunter2hunter2")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "ana@example.com", "not-the-password1")
		require.ErrorIs(t, err, ErrWrongPassword)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "hunter2hunter2")
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}

package account_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/eatgreet/eatgreet/modules/account"
)

type fakeStore struct {
	mu      sync.Mutex
	byEmail map[string]*account.Account
	byID    map[string]*account.Account
	finds   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byEmail: make(map[string]*account.Account),
		byID:    make(map[string]*account.Account),
	}
}

func (s *fakeStore) Create(_ context.Context, acc *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[acc.Email]; exists {
		return account.ErrEmailTaken
	}
	if acc.ID.IsZero() {
		acc.ID = bson.NewObjectID()
	}
	acc.CreatedAt = time.Now().UTC()
	acc.UpdatedAt = acc.CreatedAt
	s.byEmail[acc.Email] = acc
	s.byID[acc.ID.Hex()] = acc
	return nil
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.byEmail[email]; ok {
		return acc, nil
	}
	return nil, account.ErrNotFound
}

func (s *fakeStore) FindByID(_ context.Context, id bson.ObjectID) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	if acc, ok := s.byID[id.Hex()]; ok {
		return acc, nil
	}
	return nil, account.ErrNotFound
}

func (s *fakeStore) findCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finds
}

func newTestService(t *testing.T, store account.Store) *account.Service {
	t.Helper()
	svc, err := account.NewService(account.Config{
		JWTSigningKey: "test-signing-key",
		TokenTTL:      time.Hour,
	}, store, nil)
	require.NoError(t, err)
	return svc
}

func TestServiceRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates account with hashed password", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		svc := newTestService(t, store)

		acc, err := svc.Register(context.Background(), account.RegisterInput{
			Name:           "Maria",
			Email:          "Maria@Cestro.Example",
			Password:       "sup3rsecret",
			RestaurantName: "Cestro Kitchen",
		})
		require.NoError(t, err)

		assert.False(t, acc.ID.IsZero())
		assert.Equal(t, "maria@cestro.example", acc.Email)
		assert.Equal(t, account.RoleAdmin, acc.Role)
		assert.NotEqual(t, "sup3rsecret", acc.PasswordHash)
		assert.NotEmpty(t, acc.PasswordHash)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		svc := newTestService(t, store)

		in := account.RegisterInput{
			Name:           "Maria",
			Email:          "maria@cestro.example",
			Password:       "sup3rsecret",
			RestaurantName: "Cestro Kitchen",
		}
		_, err := svc.Register(context.Background(), in)
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, account.ErrEmailTaken)
	})

	t.Run("rejects short password", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, newFakeStore())
		_, err := svc.Register(context.Background(), account.RegisterInput{
			Name:           "Maria",
			Email:          "maria@cestro.example",
			Password:       "short",
			RestaurantName: "Cestro Kitchen",
		})
		assert.Error(t, err)
	})
}

func TestServiceLogin(t *testing.T) {
	t.Parallel()

	register := func(t *testing.T) (*account.Service, *fakeStore) {
		t.Helper()
		store := newFakeStore()
		svc := newTestService(t, store)
		_, err := svc.Register(context.Background(), account.RegisterInput{
			Name:           "Maria",
			Email:          "maria@cestro.example",
			Password:       "sup3rsecret",
			RestaurantName: "Cestro Kitchen",
			Role:           account.RoleStaff,
		})
		require.NoError(t, err)
		return svc, store
	}

	t.Run("issues token carrying role and restaurant", func(t *testing.T) {
		t.Parallel()

		svc, _ := register(t)
		acc, token, err := svc.Login(context.Background(), "maria@cestro.example", "sup3rsecret")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := svc.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, acc.ID.Hex(), claims.Subject)
		assert.Equal(t, account.RoleStaff, claims.Role)
		assert.Equal(t, "Cestro Kitchen", claims.RestaurantName)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		t.Parallel()

		svc, _ := register(t)
		_, _, err := svc.Login(context.Background(), "maria@cestro.example", "wrong-password")
		assert.ErrorIs(t, err, account.ErrInvalidCredentials)
	})

	t.Run("unknown email reads as invalid credentials", func(t *testing.T) {
		t.Parallel()

		svc, _ := register(t)
		_, _, err := svc.Login(context.Background(), "nobody@cestro.example", "sup3rsecret")
		assert.ErrorIs(t, err, account.ErrInvalidCredentials)
	})
}

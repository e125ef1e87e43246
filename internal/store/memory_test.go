package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	runUserStoreContract(t, func(t *testing.T) UserStore { return NewMemoryStore() })
}

func TestMemoryStore_Concurrency(t *testing.T) {
	runConcurrencyContract(t, func(t *testing.T) UserStore { return NewMemoryStore() })
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u, err := s.Create(ctx, NewUser{Username: "alice", Email: "alice@x.com", Password: "p"})
	require.NoError(t, err)
	u.Password = "tampered"

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "p", got.Password)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FindByUsername(ctx, "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNotFound)
}

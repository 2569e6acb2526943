package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpdesk/employee-portal/internal/domain"
)

func TestMemoryAccountRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()

	account := &domain.Account{UID: "u1", Email: "ana@x.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, account))
	assert.False(t, account.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.UID)

	byEmail.Email = "ana@y.com"
	byEmail.DisplayName = "Ana"
	require.NoError(t, repo.Update(ctx, byEmail))

	_, err = repo.GetByEmail(ctx, "ana@x.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	byID, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ana@y.com", byID.Email)
	assert.Equal(t, "Ana", byID.DisplayName)

	require.NoError(t, repo.Delete(ctx, "u1"))
	assert.ErrorIs(t, repo.Delete(ctx, "u1"), ErrAccountNotFound)
	_, err = repo.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMemoryAccountRepositoryEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()
	require.NoError(t, repo.Create(ctx, &domain.Account{UID: "u1", Email: "ana@x.com"}))
	require.NoError(t, repo.Create(ctx, &domain.Account{UID: "u2", Email: "bea@x.com"}))

	assert.ErrorIs(t, repo.Create(ctx, &domain.Account{UID: "u3", Email: "ana@x.com"}), ErrEmailTaken)
	assert.ErrorIs(t, repo.Update(ctx, &domain.Account{UID: "u2", Email: "ana@x.com"}), ErrEmailTaken)
	assert.ErrorIs(t, repo.Update(ctx, &domain.Account{UID: "missing", Email: "c@x.com"}), ErrAccountNotFound)

	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

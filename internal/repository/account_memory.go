package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/corpdesk/employee-portal/internal/domain"
)

type memoryAccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.Account
	byEmail map[string]string
}

// NewMemoryAccountRepository keeps accounts in process memory. It backs local
// development when no Postgres DSN is configured, and tests.
func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccountRepository{
		byID:    make(map[string]domain.Account),
		byEmail: make(map[string]string),
	}
}

func (r *memoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[account.Email]; taken {
		return ErrEmailTaken
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.byID[account.UID] = *account
	r.byEmail[account.Email] = account.UID
	return nil
}

func (r *memoryAccountRepository) Update(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[account.UID]
	if !ok {
		return ErrAccountNotFound
	}
	if owner, taken := r.byEmail[account.Email]; taken && owner != account.UID {
		return ErrEmailTaken
	}
	delete(r.byEmail, current.Email)
	account.CreatedAt = current.CreatedAt
	account.UpdatedAt = time.Now().UTC()
	r.byID[account.UID] = *account
	r.byEmail[account.Email] = account.UID
	return nil
}

func (r *memoryAccountRepository) Delete(_ context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[uid]
	if !ok {
		return ErrAccountNotFound
	}
	delete(r.byID, uid)
	delete(r.byEmail, current.Email)
	return nil
}

func (r *memoryAccountRepository) GetByID(_ context.Context, uid string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[uid]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func (r *memoryAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uid, ok := r.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	account := r.byID[uid]
	return &account, nil
}

func (r *memoryAccountRepository) List(_ context.Context) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(r.byID))
	for _, account := range r.byID {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

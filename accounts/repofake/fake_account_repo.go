package repofake

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-graph-mail/accounts"
	apperrors "github.com/jrsteele09/go-graph-mail/internal/errors"
)

var _ accounts.Repo = (*FakeAccountRepo)(nil)

// FakeAccountRepo is an in-memory account store. Records are copied on the
// way in and out so callers never share state with the store.
type FakeAccountRepo struct {
	accounts map[string]accounts.Account
	emailIDs map[string]string // email to account id
	lock     sync.RWMutex

	// NowTimeFunc stamps CreatedAt/UpdatedAt. Tests may override it.
	NowTimeFunc func() time.Time
}

func NewFakeAccountRepo() *FakeAccountRepo {
	return &FakeAccountRepo{
		accounts:    make(map[string]accounts.Account),
		emailIDs:    make(map[string]string),
		NowTimeFunc: time.Now,
	}
}

func (r *FakeAccountRepo) GetByID(_ context.Context, id string) (*accounts.Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}
	return &a, nil
}

func (r *FakeAccountRepo) GetByEmail(_ context.Context, email string) (*accounts.Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	id, ok := r.emailIDs[email]
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}
	a := r.accounts[id]
	return &a, nil
}

func (r *FakeAccountRepo) Save(_ context.Context, account *accounts.Account) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	now := r.NowTimeFunc()
	if account.ID == "" {
		if _, exists := r.emailIDs[account.Email]; exists {
			return apperrors.ErrDuplicateAccount
		}
		account.ID = uuid.New().String()
		account.CreatedAt = now
	} else {
		existing, ok := r.accounts[account.ID]
		if !ok {
			return apperrors.ErrAccountNotFound
		}
		if ownerID, taken := r.emailIDs[account.Email]; taken && ownerID != account.ID {
			return apperrors.ErrDuplicateAccount
		}
		delete(r.emailIDs, existing.Email)
	}
	account.UpdatedAt = now

	r.accounts[account.ID] = *account
	r.emailIDs[account.Email] = account.ID
	return nil
}

// Len returns the number of stored accounts.
func (r *FakeAccountRepo) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.accounts)
}

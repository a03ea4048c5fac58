package accounts

import "context"

// Repo persists one Account per identity key (email).
type Repo interface {
	// GetByID returns errors.ErrAccountNotFound when no account has the id.
	GetByID(ctx context.Context, id string) (*Account, error)
	// GetByEmail returns errors.ErrAccountNotFound when no account has the email.
	GetByEmail(ctx context.Context, email string) (*Account, error)
	// Save creates the account when ID is empty (assigning ID and timestamps)
	// and overwrites the stored record otherwise. Creating a second account
	// for an existing email fails with errors.ErrDuplicateAccount.
	Save(ctx context.Context, account *Account) error
}

// Package pgrepo stores accounts in PostgreSQL through GORM.
package pgrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-graph-mail/accounts"
	apperrors "github.com/jrsteele09/go-graph-mail/internal/errors"
	"github.com/jrsteele09/go-graph-mail/internal/secrets"
	"github.com/jrsteele09/go-graph-mail/internal/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ accounts.Repo = (*Repo)(nil)

// accountRow is the persisted shape. Provider tokens hold ciphertext when an
// encryption key is configured.
type accountRow struct {
	ID           string     `gorm:"column:id;primaryKey"`
	Email        string     `gorm:"column:email"`
	DisplayName  string     `gorm:"column:display_name"`
	AccessToken  string     `gorm:"column:access_token"`
	RefreshToken *string    `gorm:"column:refresh_token"`
	ExpiresAt    *time.Time `gorm:"column:expires_at"`
	IsTemporary  bool       `gorm:"column:is_temporary"`
	LastLogin    *time.Time `gorm:"column:last_login"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (accountRow) TableName() string {
	return "accounts"
}

type Repo struct {
	db     *gorm.DB
	cipher *secrets.Cipher
}

// Open connects to PostgreSQL. GORM's own logger is kept at warn level;
// the repository logs through zerolog.
func Open(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func New(db *gorm.DB, cipher *secrets.Cipher) *Repo {
	return &Repo{db: db, cipher: cipher}
}

func (r *Repo) GetByID(ctx context.Context, id string) (*accounts.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrAccountNotFound
	}
	return r.first(ctx, "id = ?", id)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *Repo) Save(ctx context.Context, account *accounts.Account) error {
	row, err := r.toRow(account)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	row.UpdatedAt = now

	if account.ID == "" {
		row.ID = uuid.New().String()
		row.CreatedAt = now
		if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
			if isUniqueViolation(err) {
				return apperrors.ErrDuplicateAccount
			}
			return fmt.Errorf("failed to create account: %w", err)
		}
		account.ID = row.ID
		account.CreatedAt = row.CreatedAt
		account.UpdatedAt = row.UpdatedAt
		return nil
	}

	result := r.db.WithContext(ctx).Model(&accountRow{}).
		Where("id = ?", account.ID).
		Updates(map[string]interface{}{
			"email":         row.Email,
			"display_name":  row.DisplayName,
			"access_token":  row.AccessToken,
			"refresh_token": row.RefreshToken,
			"expires_at":    row.ExpiresAt,
			"is_temporary":  row.IsTemporary,
			"last_login":    row.LastLogin,
			"updated_at":    row.UpdatedAt,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return apperrors.ErrDuplicateAccount
		}
		return fmt.Errorf("failed to update account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}
	account.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Repo) first(ctx context.Context, query string, arg string) (*accounts.Account, error) {
	var row accountRow
	if err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return r.fromRow(&row)
}

func (r *Repo) toRow(a *accounts.Account) (*accountRow, error) {
	accessToken, err := r.cipher.Encrypt(a.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	row := &accountRow{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		AccessToken: accessToken,
		ExpiresAt:   a.ExpiresAt,
		IsTemporary: a.IsTemporary,
		LastLogin:   utils.TimePtrIfSet(a.LastLogin),
		CreatedAt:   a.CreatedAt,
	}
	if a.RefreshToken != "" {
		refreshToken, err := r.cipher.Encrypt(a.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		row.RefreshToken = &refreshToken
	}
	return row, nil
}

func (r *Repo) fromRow(row *accountRow) (*accounts.Account, error) {
	accessToken, err := r.cipher.Decrypt(row.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	a := &accounts.Account{
		ID:          row.ID,
		Email:       row.Email,
		DisplayName: row.DisplayName,
		AccessToken: accessToken,
		ExpiresAt:   row.ExpiresAt,
		IsTemporary: row.IsTemporary,
		LastLogin:   utils.Value(row.LastLogin),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.RefreshToken != nil {
		if a.RefreshToken, err = r.cipher.Decrypt(*row.RefreshToken); err != nil {
			return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
		}
	}
	return a, nil
}

// isUniqueViolation matches SQLSTATE 23505 without importing the driver's error type.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}

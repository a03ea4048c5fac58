package pgrepo

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-graph-mail/accounts"
	"github.com/jrsteele09/go-graph-mail/internal/secrets"
	"github.com/stretchr/testify/require"
)

func TestRowMappingEncryptsTokens(t *testing.T) {
	cipher, err := secrets.NewCipher("test-key")
	require.NoError(t, err)
	r := New(nil, cipher)

	expiry := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	in := &accounts.Account{
		ID:           "3f1b8c1e-5d2a-4c7e-9a55-0d6c2f1e9b11",
		Email:        "jane@example.com",
		DisplayName:  "Jane",
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    &expiry,
		LastLogin:    expiry,
	}

	row, err := r.toRow(in)
	require.NoError(t, err)
	require.NotEqual(t, "access", row.AccessToken)
	require.NotNil(t, row.RefreshToken)
	require.NotEqual(t, "refresh", *row.RefreshToken)
	require.NotNil(t, row.LastLogin)

	out, err := r.fromRow(row)
	require.NoError(t, err)
	require.Equal(t, in.AccessToken, out.AccessToken)
	require.Equal(t, in.RefreshToken, out.RefreshToken)
	require.Equal(t, in.Email, out.Email)
	require.Equal(t, expiry, *out.ExpiresAt)
	require.Equal(t, expiry, out.LastLogin)
}

func TestRowMappingWithoutOptionalFields(t *testing.T) {
	cipher, err := secrets.NewCipher("")
	require.NoError(t, err)
	r := New(nil, cipher)

	row, err := r.toRow(&accounts.Account{Email: "jane@example.com", AccessToken: "access"})
	require.NoError(t, err)
	require.Equal(t, "access", row.AccessToken)
	require.Nil(t, row.RefreshToken)
	require.Nil(t, row.LastLogin)

	out, err := r.fromRow(row)
	require.NoError(t, err)
	require.Empty(t, out.RefreshToken)
	require.True(t, out.LastLogin.IsZero())
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

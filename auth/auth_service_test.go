package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-graph-mail/accounts"
	"github.com/jrsteele09/go-graph-mail/accounts/repofake"
	"github.com/jrsteele09/go-graph-mail/auth"
	"github.com/jrsteele09/go-graph-mail/graph"
	"github.com/jrsteele09/go-graph-mail/identity"
	apperrors "github.com/jrsteele09/go-graph-mail/internal/errors"
	"github.com/jrsteele09/go-graph-mail/token"
	"github.com/stretchr/testify/require"
)

const (
	secretStr     = "a-session-signing-secret"
	testCode      = "M.C507_BAY.2.U.auth-code"
	testUserEmail = "john.doe@example.com"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

type fakeExchanger struct {
	tokens *identity.Tokens
	err    error
	codes  []string
}

func (f *fakeExchanger) Exchange(_ context.Context, code string) (*identity.Tokens, error) {
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	t := *f.tokens
	return &t, nil
}

// fakeProfiles fails the first failures calls, then returns profile.
type fakeProfiles struct {
	profile  *graph.Profile
	failures int
	calls    int
	tokens   []string
}

func (f *fakeProfiles) Me(_ context.Context, accessToken string) (*graph.Profile, error) {
	f.calls++
	f.tokens = append(f.tokens, accessToken)
	if f.calls <= f.failures {
		return nil, &graph.APIError{StatusCode: 503, Code: "ServiceUnavailable"}
	}
	p := *f.profile
	return &p, nil
}

// testFixture holds all test dependencies
type testFixture struct {
	repo      *repofake.FakeAccountRepo
	exchanger *fakeExchanger
	profiles  *fakeProfiles
	sessions  *token.Manager
	sleeps    []time.Duration
	service   *auth.Service
}

func newFixture(t *testing.T, opts ...auth.ServiceOption) *testFixture {
	t.Helper()
	signer, err := token.NewHMACSigner(secretStr)
	require.NoError(t, err)

	f := &testFixture{
		repo: repofake.NewFakeAccountRepo(),
		exchanger: &fakeExchanger{tokens: &identity.Tokens{
			AccessToken:  "provider-access-1",
			RefreshToken: "provider-refresh-1",
			ExpiresIn:    3600,
			Expiry:       fixedNow.Add(time.Hour),
			Scope:        "Mail.Read Mail.Send",
		}},
		profiles: &fakeProfiles{profile: &graph.Profile{ID: "p1", DisplayName: "John Doe", Mail: testUserEmail}},
		sessions: token.NewManager(signer, token.WithNowFunc(func() time.Time { return fixedNow })),
	}
	f.repo.NowTimeFunc = func() time.Time { return fixedNow }

	options := append([]auth.ServiceOption{
		auth.WithNowTime(func() time.Time { return fixedNow }),
		auth.WithSleep(func(_ context.Context, d time.Duration) error {
			f.sleeps = append(f.sleeps, d)
			return nil
		}),
	}, opts...)
	f.service, err = auth.NewService(f.repo, f.exchanger, f.profiles, f.sessions, options...)
	require.NoError(t, err)
	return f
}

func TestNewService_RequiresDependencies(t *testing.T) {
	signer, err := token.NewHMACSigner(secretStr)
	require.NoError(t, err)
	sessions := token.NewManager(signer)

	_, err = auth.NewService(nil, &fakeExchanger{}, &fakeProfiles{}, sessions)
	require.Error(t, err)
	_, err = auth.NewService(repofake.NewFakeAccountRepo(), nil, &fakeProfiles{}, sessions)
	require.Error(t, err)
	_, err = auth.NewService(repofake.NewFakeAccountRepo(), &fakeExchanger{}, nil, sessions)
	require.Error(t, err)
	_, err = auth.NewService(repofake.NewFakeAccountRepo(), &fakeExchanger{}, &fakeProfiles{}, nil)
	require.Error(t, err)
}

func TestCompleteLogin_CreatesAccount(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.CompleteLogin(t.Context(), testCode)
	require.NoError(t, err)
	require.Equal(t, []string{testCode}, f.exchanger.codes)
	require.Equal(t, []string{"provider-access-1"}, f.profiles.tokens)

	acct := result.Account
	require.NotEmpty(t, acct.ID)
	require.Equal(t, testUserEmail, acct.Email)
	require.Equal(t, "John Doe", acct.DisplayName)
	require.Equal(t, "provider-access-1", acct.AccessToken)
	require.Equal(t, "provider-refresh-1", acct.RefreshToken)
	require.NotNil(t, acct.ExpiresAt)
	require.False(t, acct.IsTemporary)
	require.Equal(t, fixedNow, acct.LastLogin)
	require.Equal(t, 1, f.repo.Len())

	claims, err := f.sessions.Verify(result.SessionToken)
	require.NoError(t, err)
	require.Equal(t, acct.ID, claims.UserID)
	require.Equal(t, testUserEmail, claims.Email)
	require.Equal(t, "John Doe", claims.DisplayName)
	require.False(t, claims.IsTemporary)
	require.Equal(t, fixedNow.Add(7*24*time.Hour), claims.ExpiresAt.Time.UTC())
}

func TestCompleteLogin_UpsertIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first, err := f.service.CompleteLogin(t.Context(), testCode)
	require.NoError(t, err)

	f.exchanger.tokens = &identity.Tokens{AccessToken: "provider-access-2", RefreshToken: "provider-refresh-2", Expiry: fixedNow.Add(2 * time.Hour)}
	f.profiles.profile = &graph.Profile{DisplayName: "Johnny", Mail: testUserEmail}

	second, err := f.service.CompleteLogin(t.Context(), "second-code")
	require.NoError(t, err)
	require.Equal(t, 1, f.repo.Len())
	require.Equal(t, first.Account.ID, second.Account.ID)

	stored, err := f.repo.GetByEmail(t.Context(), testUserEmail)
	require.NoError(t, err)
	require.Equal(t, "provider-access-2", stored.AccessToken)
	require.Equal(t, "provider-refresh-2", stored.RefreshToken)
	require.Equal(t, "Johnny", stored.DisplayName)
	require.Equal(t, fixedNow.Add(2*time.Hour), *stored.ExpiresAt)
}

func TestCompleteLogin_KeepsDisplayNameWhenProfileOmitsIt(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.CompleteLogin(t.Context(), testCode)
	require.NoError(t, err)

	f.profiles.profile = &graph.Profile{Mail: testUserEmail}
	result, err := f.service.CompleteLogin(t.Context(), testCode)
	require.NoError(t, err)
	require.Equal(t, "John Doe", result.Account.DisplayName)
}

func TestCompleteLogin_PrincipalNameFallback(t *testing.T) {
	f := newFixture(t)
	f.profiles.profile = &graph.Profile{DisplayName: "Jane", UserPrincipalName: "jane@contoso.onmicrosoft.com"}

	result, err := f.service.CompleteLogin(t.Context(), testCode)
	require.NoError(t, err)
	require.Equal(t, "jane@contoso.onmicrosoft.com", result.Account.Email)
}

func TestCompleteLogin_NoIdentity(t *testing.T) {
	f := newFixture(t)
	f.profiles.profile = &graph.Profile{DisplayName: "Nobody"}

	_, err := f.service.CompleteLogin(t.Context(), testCode)
	require.ErrorIs(t, err, apperrors.ErrIdentityUnknown)
	require.Zero(t, f.repo.Len())
}

func TestCompleteLogin_ProfileRecoversOnRetry(t *testing.T) {
	f := newFixture(t)
	f.profiles.failures = 2

	result, err := f.service.CompleteLogin(t.Context(), testCode)
	require.NoError(t, err)
	require.Equal(t, 3, f.profiles.calls)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, f.sleeps)
	require.False(t, result.Account.IsTemporary)
	require.Equal(t, testUserEmail, result.Account.Email)
}

func TestCompleteLogin_TemporaryAccountFallback(t *testing.T) {
	f := newFixture(t)
	f.profiles.failures = 3

	result, err := f.service.CompleteLogin(t.Context(), testCode)
	require.NoError(t, err)
	require.Equal(t, 3, f.profiles.calls)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, f.sleeps)

	acct := result.Account
	require.True(t, acct.IsTemporary)
	require.Equal(t, accounts.TemporaryEmail(fixedNow), acct.Email)
	require.True(t, strings.HasSuffix(acct.Email, "@temporary.com"))
	require.Equal(t, "User", acct.DisplayName)
	require.Equal(t, "provider-access-1", acct.AccessToken)
	require.Equal(t, 1, f.repo.Len())

	claims, err := f.sessions.Verify(result.SessionToken)
	require.NoError(t, err)
	require.True(t, claims.IsTemporary)

	resolved, _, err := f.service.ResolveSession(t.Context(), result.SessionToken)
	require.NoError(t, err)
	require.Equal(t, acct.ID, resolved.ID)
}

func TestCompleteLogin_FallbackDisabled(t *testing.T) {
	f := newFixture(t, auth.WithTemporaryAccountFallback(false))
	f.profiles.failures = 3

	_, err := f.service.CompleteLogin(t.Context(), testCode)
	require.ErrorIs(t, err, apperrors.ErrProfileUnavailable)

	var loginErr *auth.LoginError
	require.ErrorAs(t, err, &loginErr)
	require.Equal(t, auth.StageTokensExchanged, loginErr.Stage)
	require.Zero(t, f.repo.Len())
}

func TestCompleteLogin_CustomRetries(t *testing.T) {
	f := newFixture(t, auth.WithProfileRetries(0, 0))
	f.profiles.failures = 1

	result, err := f.service.CompleteLogin(t.Context(), testCode)
	require.NoError(t, err)
	require.Equal(t, 1, f.profiles.calls)
	require.Empty(t, f.sleeps)
	require.True(t, result.Account.IsTemporary)
}

func TestCompleteLogin_CancelledDuringBackoff(t *testing.T) {
	f := newFixture(t, auth.WithSleep(func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}))
	f.profiles.failures = 3

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := f.service.CompleteLogin(ctx, testCode)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, f.repo.Len())
}

func TestCompleteLogin_ExchangeFailure(t *testing.T) {
	f := newFixture(t)
	f.exchanger.err = errors.Join(apperrors.ErrTokenExchange, errors.New("AADSTS70008: code expired"))

	_, err := f.service.CompleteLogin(t.Context(), testCode)
	require.ErrorIs(t, err, apperrors.ErrTokenExchange)
	require.Contains(t, err.Error(), "AADSTS70008")
	require.Zero(t, f.profiles.calls)
	require.Zero(t, f.repo.Len())
}

func TestCompleteLogin_MissingCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CompleteLogin(t.Context(), "  ")
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.Empty(t, f.exchanger.codes)
}

func TestResolveSession(t *testing.T) {
	f := newFixture(t)
	result, err := f.service.CompleteLogin(t.Context(), testCode)
	require.NoError(t, err)

	t.Run("valid token resolves to its account", func(t *testing.T) {
		acct, claims, err := f.service.ResolveSession(t.Context(), result.SessionToken)
		require.NoError(t, err)
		require.Equal(t, result.Account.ID, acct.ID)
		require.Equal(t, testUserEmail, claims.Email)
	})

	t.Run("missing token", func(t *testing.T) {
		_, _, err := f.service.ResolveSession(t.Context(), "")
		require.ErrorIs(t, err, apperrors.ErrMissingToken)
	})

	t.Run("token from another key", func(t *testing.T) {
		signer, err := token.NewHMACSigner("a-different-signing-secret")
		require.NoError(t, err)
		other, err := token.NewManager(signer).Issue(token.Subject{UserID: result.Account.ID, Email: testUserEmail})
		require.NoError(t, err)

		_, _, err = f.service.ResolveSession(t.Context(), other)
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		signer, err := token.NewHMACSigner(secretStr)
		require.NoError(t, err)
		old := token.NewManager(signer, token.WithNowFunc(func() time.Time { return fixedNow.Add(-8 * 24 * time.Hour) }))
		expired, err := old.Issue(token.Subject{UserID: result.Account.ID, Email: testUserEmail})
		require.NoError(t, err)

		_, _, err = f.service.ResolveSession(t.Context(), expired)
		require.ErrorIs(t, err, apperrors.ErrTokenExpired)
	})

	t.Run("unknown account", func(t *testing.T) {
		orphan, err := f.sessions.Issue(token.Subject{UserID: "8f14e45f-ceea-467f-a8f5-0b8f5d6c1a2b", Email: testUserEmail})
		require.NoError(t, err)

		_, _, err = f.service.ResolveSession(t.Context(), orphan)
		require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	})

	t.Run("email mismatch", func(t *testing.T) {
		forged, err := f.sessions.Issue(token.Subject{UserID: result.Account.ID, Email: "someone.else@example.com"})
		require.NoError(t, err)

		_, _, err = f.service.ResolveSession(t.Context(), forged)
		require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	})
}

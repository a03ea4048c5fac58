package auth

import (
	"context"
	"strings"
	"time"

	"github.com/jrsteele09/go-graph-mail/accounts"
	"github.com/jrsteele09/go-graph-mail/graph"
	"github.com/jrsteele09/go-graph-mail/identity"
	apperrors "github.com/jrsteele09/go-graph-mail/internal/errors"
	"github.com/jrsteele09/go-graph-mail/internal/metrics"
	"github.com/jrsteele09/go-graph-mail/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultProfileRetries = 2
	DefaultRetryBackoff   = time.Second
)

// TokenExchanger trades an authorization code for provider tokens.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (*identity.Tokens, error)
}

// ProfileFetcher reads the signed-in user's profile from the provider.
type ProfileFetcher interface {
	Me(ctx context.Context, accessToken string) (*graph.Profile, error)
}

// LoginResult is a completed login.
type LoginResult struct {
	Account      *accounts.Account
	SessionToken string
}

// Service completes OAuth logins and resolves session tokens to accounts.
type Service struct {
	accounts  accounts.Repo
	exchanger TokenExchanger
	profiles  ProfileFetcher
	sessions  *token.Manager

	profileRetries    int
	retryBackoff      time.Duration
	temporaryFallback bool

	nowTime func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithSleep replaces the wait between profile attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ServiceOption {
	return func(s *Service) {
		s.sleep = sleep
	}
}

// WithProfileRetries sets how many times a failed profile fetch is retried and
// the base delay, which grows linearly with the attempt number.
func WithProfileRetries(retries int, backoff time.Duration) ServiceOption {
	return func(s *Service) {
		if retries >= 0 {
			s.profileRetries = retries
		}
		if backoff >= 0 {
			s.retryBackoff = backoff
		}
	}
}

// WithTemporaryAccountFallback decides whether a login whose profile could not
// be read still succeeds with a placeholder account.
func WithTemporaryAccountFallback(enabled bool) ServiceOption {
	return func(s *Service) {
		s.temporaryFallback = enabled
	}
}

func NewService(repo accounts.Repo, exchanger TokenExchanger, profiles ProfileFetcher, sessions *token.Manager, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[NewService] accounts repo is required")
	}
	if exchanger == nil {
		return nil, errors.New("[NewService] token exchanger is required")
	}
	if profiles == nil {
		return nil, errors.New("[NewService] profile fetcher is required")
	}
	if sessions == nil {
		return nil, errors.New("[NewService] session token manager is required")
	}

	s := &Service{
		accounts:          repo,
		exchanger:         exchanger,
		profiles:          profiles,
		sessions:          sessions,
		profileRetries:    DefaultProfileRetries,
		retryBackoff:      DefaultRetryBackoff,
		temporaryFallback: true,
		nowTime:           time.Now,
		sleep:             sleepContext,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// CompleteLogin runs the callback for an authorization code: exchange the
// code, read the profile, upsert the account and issue a session token.
func (s *Service) CompleteLogin(ctx context.Context, code string) (*LoginResult, error) {
	result, err := s.completeLogin(ctx, code)
	switch {
	case err != nil:
		metrics.ObserveLogin(metrics.LoginFailed)
	case result.Account.IsTemporary:
		metrics.ObserveLogin(metrics.LoginTemporary)
	default:
		metrics.ObserveLogin(metrics.LoginSuccess)
	}
	return result, err
}

func (s *Service) completeLogin(ctx context.Context, code string) (*LoginResult, error) {
	logger := zerolog.Ctx(ctx)

	if strings.TrimSpace(code) == "" {
		return nil, failedAt(StageReceived, errors.Wrap(apperrors.ErrValidation, "no authorization code received from Microsoft"))
	}

	tokens, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		logger.Error().Err(err).Msg("token exchange failed")
		return nil, failedAt(StageCodeValidated, err)
	}
	logger.Debug().
		Bool("refreshToken", tokens.RefreshToken != "").
		Int64("expiresIn", tokens.ExpiresIn).
		Str("scope", tokens.Scope).
		Msg("provider tokens received")

	creds := accounts.Credentials{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt(),
	}

	var acct *accounts.Account
	profile, err := s.fetchProfile(ctx, tokens.AccessToken)
	switch {
	case err == nil:
		acct, err = s.upsert(ctx, profile, creds)
		if err != nil {
			return nil, failedAt(StageProfileFetched, err)
		}
	case ctx.Err() != nil:
		return nil, failedAt(StageTokensExchanged, ctx.Err())
	case !s.temporaryFallback:
		return nil, failedAt(StageTokensExchanged, errors.Wrap(apperrors.ErrProfileUnavailable, err.Error()))
	default:
		logger.Warn().Err(err).Msg("profile unavailable, creating temporary account")
		acct, err = s.createTemporary(ctx, creds)
		if err != nil {
			return nil, failedAt(StageProfileFallback, err)
		}
	}

	sessionToken, err := s.sessions.Issue(token.Subject{
		UserID:      acct.ID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
		IsTemporary: acct.IsTemporary,
	})
	if err != nil {
		return nil, failedAt(StageAccountUpserted, errors.Wrap(err, "issuing session token"))
	}

	logger.Info().
		Str("account", acct.Email).
		Bool("temporary", acct.IsTemporary).
		Msg("login complete")
	return &LoginResult{Account: acct, SessionToken: sessionToken}, nil
}

// fetchProfile tries once plus the configured retries, waiting
// backoff*attempt between tries.
func (s *Service) fetchProfile(ctx context.Context, accessToken string) (*graph.Profile, error) {
	logger := zerolog.Ctx(ctx)
	for attempt := 1; ; attempt++ {
		profile, err := s.profiles.Me(ctx, accessToken)
		if err == nil {
			return profile, nil
		}
		logger.Warn().Err(err).Int("attempt", attempt).Msg("profile fetch failed")
		if attempt > s.profileRetries {
			return nil, err
		}
		if err := s.sleep(ctx, time.Duration(attempt)*s.retryBackoff); err != nil {
			return nil, err
		}
	}
}

func (s *Service) upsert(ctx context.Context, profile *graph.Profile, creds accounts.Credentials) (*accounts.Account, error) {
	email := profile.Identity()
	if email == "" {
		return nil, apperrors.ErrIdentityUnknown
	}

	acct, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrAccountNotFound):
		acct = &accounts.Account{Email: email}
	case err != nil:
		return nil, errors.Wrap(err, "looking up account")
	}

	acct.ApplyLogin(creds, profile.DisplayName, s.nowTime())
	acct.IsTemporary = false
	err = s.accounts.Save(ctx, acct)
	if errors.Is(err, apperrors.ErrDuplicateAccount) {
		// Created by a concurrent login for the same identity.
		if acct, err = s.accounts.GetByEmail(ctx, email); err != nil {
			return nil, errors.Wrap(err, "looking up account")
		}
		acct.ApplyLogin(creds, profile.DisplayName, s.nowTime())
		acct.IsTemporary = false
		err = s.accounts.Save(ctx, acct)
	}
	if err != nil {
		return nil, errors.Wrap(err, "saving account")
	}
	return acct, nil
}

func (s *Service) createTemporary(ctx context.Context, creds accounts.Credentials) (*accounts.Account, error) {
	now := s.nowTime()
	acct := &accounts.Account{
		Email:       accounts.TemporaryEmail(now),
		IsTemporary: true,
	}
	acct.ApplyLogin(creds, accounts.DefaultDisplayName, now)
	if err := s.accounts.Save(ctx, acct); err != nil {
		return nil, errors.Wrap(err, "saving temporary account")
	}
	return acct, nil
}

// ResolveSession verifies a session token and loads the account it was issued
// for. The account must still carry the email embedded in the token.
func (s *Service) ResolveSession(ctx context.Context, rawToken string) (*accounts.Account, *token.SessionClaims, error) {
	claims, err := s.sessions.Verify(rawToken)
	if err != nil {
		return nil, nil, err
	}
	acct, err := s.accounts.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !strings.EqualFold(acct.Email, claims.Email) {
		return nil, nil, apperrors.ErrAccountNotFound
	}
	return acct, claims, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

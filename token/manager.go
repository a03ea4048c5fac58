package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-graph-mail/internal/errors"
	"github.com/pkg/errors"
)

// DefaultValidity is how long a session token stays valid.
const DefaultValidity = 7 * 24 * time.Hour

// SessionClaims is the payload of an application session token. The field
// names are part of the contract with the browser client.
type SessionClaims struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IsTemporary bool   `json:"isTemporary"`
	jwt.RegisteredClaims
}

// Subject is what a session token is issued for.
type Subject struct {
	UserID      string
	Email       string
	DisplayName string
	IsTemporary bool
}

// Manager issues and verifies stateless session tokens. Nothing is stored
// server side: validity is signature plus expiry.
type Manager struct {
	signer   Signer
	validity time.Duration
	nowFunc  func() time.Time
}

type ManagerOption func(*Manager)

func WithValidity(validity time.Duration) ManagerOption {
	return func(m *Manager) {
		if validity > 0 {
			m.validity = validity
		}
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func NewManager(signer Signer, opts ...ManagerOption) *Manager {
	m := &Manager{
		signer:   signer,
		validity: DefaultValidity,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue signs a session token for subject.
func (m *Manager) Issue(subject Subject) (string, error) {
	if subject.UserID == "" || subject.Email == "" {
		return "", errors.New("session subject requires a user id and email")
	}
	now := m.nowFunc()
	claims := SessionClaims{
		UserID:      subject.UserID,
		Email:       subject.Email,
		DisplayName: subject.DisplayName,
		IsTemporary: subject.IsTemporary,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.validity)),
			ID:        uuid.New().String(),
		},
	}
	return m.signer.Sign(claims)
}

// Verify checks signature, algorithm and expiry. Failures wrap
// ErrTokenExpired or ErrInvalidToken.
func (m *Manager) Verify(raw string) (*SessionClaims, error) {
	if raw == "" {
		return nil, apperrors.ErrMissingToken
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, m.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Wrap(apperrors.ErrTokenExpired, err.Error())
		}
		return nil, errors.Wrap(apperrors.ErrInvalidToken, err.Error())
	}
	if !parsed.Valid || claims.UserID == "" || claims.Email == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// Validity returns how long issued tokens last.
func (m *Manager) Validity() time.Duration {
	return m.validity
}

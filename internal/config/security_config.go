package config

import "time"

type SecurityConfig interface {
	GetJWTSecret() string
	GetSessionTokenValidity() time.Duration
	GetTokenEncryptionKey() string
	GetEnableRateLimiting() bool
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetJWTSecret is the HMAC key for application session tokens.
func (Security) GetJWTSecret() string {
	return GetEnv("JWT_SECRET", "")
}

func (Security) GetSessionTokenValidity() time.Duration {
	return GetEnvDuration("SESSION_TOKEN_TTL", 7*24*time.Hour) // 7 days
}

// GetTokenEncryptionKey protects stored provider tokens. Empty disables encryption.
func (Security) GetTokenEncryptionKey() string {
	return GetEnv("TOKEN_ENCRYPTION_KEY", "")
}

func (s Security) GetEnableRateLimiting() bool {
	return s.GetRateLimitRPS() > 0
}

// GetRateLimitRPS applies to the /auth endpoints. 0 disables limiting.
func (Security) GetRateLimitRPS() float64 {
	return float64(GetEnvInt("RATE_LIMIT_RPS", 0))
}

func (Security) GetRateLimitBurst() int {
	return GetEnvPositiveInt("RATE_LIMIT_BURST", 10)
}

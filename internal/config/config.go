package config

import "github.com/joho/godotenv"

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	MailConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetFrontendURL() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
	Mail
	Store
}

// New loads a .env file when one is present and returns the environment
// backed configuration.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}

package config

import (
	"strings"
	"time"
)

type MailConfig interface {
	GetGraphBaseURL() string
	GetGraphTimeout() time.Duration
	GetAttachmentSendTimeout() time.Duration
	GetMaxAttachmentSize() int64
	GetMaxAttachmentCount() int
	GetDefaultPageSize() int
	GetMaxPageSize() int
	GetBundlePreviewLength() int
}

type StoreConfig interface {
	GetDatabaseURL() string
}

type Mail struct{}

var _ MailConfig = Mail{}

func (Mail) GetGraphBaseURL() string {
	return strings.TrimSuffix(GetEnv("GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0"), "/")
}

func (Mail) GetGraphTimeout() time.Duration {
	return 10 * time.Second
}

// GetAttachmentSendTimeout bounds sends that carry inline attachments.
func (Mail) GetAttachmentSendTimeout() time.Duration {
	return 60 * time.Second
}

// GetMaxAttachmentSize is the per-file upload limit in bytes.
func (Mail) GetMaxAttachmentSize() int64 {
	return int64(GetEnvPositiveInt("MAX_ATTACHMENT_SIZE_MB", 10)) * 1024 * 1024
}

func (Mail) GetMaxAttachmentCount() int {
	return GetEnvPositiveInt("MAX_ATTACHMENT_COUNT", 10)
}

func (Mail) GetDefaultPageSize() int {
	return 20
}

// GetMaxPageSize matches the largest $top the provider accepts.
func (Mail) GetMaxPageSize() int {
	return 1000
}

func (Mail) GetBundlePreviewLength() int {
	return 1000
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}

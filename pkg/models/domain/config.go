package domain

import (
	"fmt"
	"time"
)

// Settings is the immutable run configuration. It is loaded once and passed
// by value to the components that need it.
type Settings struct {
	Upstream     UpstreamSettings
	Pipeline     PipelineSettings
	Storage      StorageSettings
	Server       ServerSettings
	Notification SMTPConfig
}

type UpstreamSettings struct {
	BaseURL           string
	Timeout           time.Duration
	RetryMax          int
	RequestsPerSecond float64
}

type PipelineSettings struct {
	Framework          string
	OnlyMatchingAssets bool
	MaxPages           int
	MinViolations      int
	OwnerMode          OwnerMode
	Concurrency        int
}

type StorageSettings struct {
	DbPath        string
	EncryptionKey string
	Profile       string
}

type ServerSettings struct {
	Host string
	Port string
}

// SMTPConfig describes the mail relay used for owner notifications.
type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	From      string
	TestEmail string
}

// Configured reports whether the relay has credentials.
func (c SMTPConfig) Configured() bool {
	return c.User != "" && c.Password != ""
}

func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ConfigProfile struct {
	Name    string
	BaseURL string
}

func (c ConfigProfile) String() string {
	if c.BaseURL == "" {
		return c.Name
	}
	return fmt.Sprintf("%s@%s", c.Name, c.BaseURL)
}

package domain

import "time"

type Credentials struct {
	AccessKey string
	SecretKey string
}

func (c Credentials) Empty() bool {
	return c.AccessKey == "" || c.SecretKey == ""
}

// Token is an upstream bearer token. ExpiresIn is relative to CreatedAt.
type Token struct {
	AccessToken string
	ExpiresIn   time.Duration
	CreatedAt   time.Time
}

func (t Token) ExpiresAt() time.Time {
	return t.CreatedAt.Add(t.ExpiresIn)
}

func (t Token) Expired(now time.Time) bool {
	if t.AccessToken == "" || t.ExpiresIn <= 0 {
		return true
	}
	return !now.Before(t.ExpiresAt())
}

type TokenStatus struct {
	Valid     bool
	ExpiresAt time.Time
}

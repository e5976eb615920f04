package store

import "time"

// TokenRecord is the persisted, encrypted form of an upstream token.
type TokenRecord struct {
	Profile   string
	Payload   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenPayload is the plaintext sealed into TokenRecord.Payload.
type TokenPayload struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresAt"`
	CreatedAt   int64  `json:"createdAt"`
}

package models

import "time"

// AuthCode is a one-time admin authentication code.
//
// The hyphen-stripped code string itself is the primary key; a 36^20
// keyspace makes collisions negligible. The record is deleted on first
// verification rather than flagged, so Used normally never reads true;
// it is kept for records written by older deployments.
type AuthCode struct {
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expiresAt"` // epoch milliseconds
	CreatedAt int64  `json:"createdAt"` // epoch milliseconds
	Used      bool   `json:"used"`
}

// Expired reports whether the code is past its expiry at the given time.
func (c *AuthCode) Expired(now time.Time) bool {
	return now.UnixMilli() > c.ExpiresAt
}

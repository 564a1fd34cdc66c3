package types

// Session mirrors what the main Bau-Structura web app writes to Redis under
// session:<userID> when a user logs in. This service only reads it.
type Session struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role,omitempty"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

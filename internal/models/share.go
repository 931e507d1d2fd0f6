package models

// Share is a stored calculation input reachable through a short code.
type Share struct {
	// Code is the short identifier used in links (8 characters).
	// Filled in by the store when empty.
	Code string `json:"code"`

	// Title is a human-readable label, e.g. "Split with Aoi, Ren".
	Title string `json:"title"`

	// Payload is the JSON-encoded calculation input.
	Payload []byte `json:"payload"`

	// CreatedAt is the Unix timestamp when the share was stored.
	CreatedAt int64 `json:"createdAt"`

	// ExpiresAt is the Unix timestamp after which the share is gone.
	// Zero means it never expires.
	ExpiresAt int64 `json:"expiresAt"`
}

// Expired reports whether the share is past its expiry at the given Unix time.
func (s *Share) Expired(now int64) bool {
	return s.ExpiresAt != 0 && now >= s.ExpiresAt
}

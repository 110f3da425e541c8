package domain

import "time"

// APIKey is a row of the hashed key registry. The plaintext key is never
// stored; KeyHash is its hex SHA-256 digest.
type APIKey struct {
	KeyHash    string
	TenantID   string
	TenantName string
	Active     bool
	CreatedAt  time.Time
}

// StaticKey is a legacy plaintext credential bound to a single tenant.
type StaticKey struct {
	TenantID string
	APIKey   string
}

// Principal is the identity an authorizer resolved a credential to.
type Principal struct {
	TenantID string
}

func (p Principal) IsZero() bool {
	return p.TenantID == ""
}

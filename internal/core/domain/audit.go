package domain

import "time"

const (
	AuditKeyCreated     = "key.created"
	AuditKeyReactivated = "key.reactivated"
	AuditKeyRevoked     = "key.revoked"
	AuditDataUpserted   = "data.upserted"
)

type AuditEvent struct {
	TenantID string
	Action   string
	Actor    string
	Detail   string
	At       time.Time
}

type AuditFilter struct {
	TenantID string
	Action   string
	Limit    int
}

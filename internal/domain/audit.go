package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEntry records an administrative action or mirrored webhook event
type AuditEntry struct {
	ID         uuid.UUID `json:"id"`
	ActorID    uuid.UUID `json:"actor_id,omitempty"`
	TenantID   uuid.UUID `json:"tenant_id,omitempty"`
	Action     string    `json:"action"`
	ObjectType string    `json:"object_type"`
	ObjectID   string    `json:"object_id"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditRepository defines the interface for audit log storage
type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]AuditEntry, error)
}

// MoneybirdCredential stores OAuth tokens for the Moneybird
// integration. Token values are AES-GCM encrypted at rest.
type MoneybirdCredential struct {
	ID                    uuid.UUID `json:"id"`
	AccessTokenEncrypted  []byte    `json:"-"`
	RefreshTokenEncrypted []byte    `json:"-"`
	ExpiresAt             time.Time `json:"expires_at"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// MoneybirdCredentialRepository stores the single credential row
type MoneybirdCredentialRepository interface {
	Upsert(ctx context.Context, cred *MoneybirdCredential) error
	Get(ctx context.Context) (*MoneybirdCredential, error)
}

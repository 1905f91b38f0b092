package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitegrid/portal/internal/domain"
)

// AuditRepository handles audit log storage
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record inserts an audit entry
func (r *AuditRepository) Record(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
		INSERT INTO audit_log (id, actor_id, tenant_id, action, object_type, object_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	actorID := uuidOrNil(entry.ActorID)
	tenantID := uuidOrNil(entry.TenantID)

	_, err := r.db.Pool.Exec(ctx, query,
		entry.ID,
		actorID,
		tenantID,
		entry.Action,
		entry.ObjectType,
		entry.ObjectID,
		entry.Detail,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}

// ListByTenant retrieves recent audit entries for a tenant
func (r *AuditRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.AuditEntry, error) {
	query := `
		SELECT id, COALESCE(actor_id, '00000000-0000-0000-0000-000000000000'),
		       COALESCE(tenant_id, '00000000-0000-0000-0000-000000000000'),
		       action, object_type, object_id, detail, created_at
		FROM audit_log
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ActorID,
			&entry.TenantID,
			&entry.Action,
			&entry.ObjectType,
			&entry.ObjectID,
			&entry.Detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func uuidOrNil(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

// MoneybirdCredentialRepository stores the single OAuth credential row
type MoneybirdCredentialRepository struct {
	db *DB
}

// NewMoneybirdCredentialRepository creates a new credential repository
func NewMoneybirdCredentialRepository(db *DB) *MoneybirdCredentialRepository {
	return &MoneybirdCredentialRepository{db: db}
}

// Upsert stores or replaces the credential row
func (r *MoneybirdCredentialRepository) Upsert(ctx context.Context, cred *domain.MoneybirdCredential) error {
	query := `
		INSERT INTO moneybird_credentials (id, access_token_encrypted, refresh_token_encrypted, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET access_token_encrypted = $2,
		    refresh_token_encrypted = $3,
		    expires_at = $4,
		    updated_at = $6
	`

	_, err := r.db.Pool.Exec(ctx, query,
		cred.ID,
		cred.AccessTokenEncrypted,
		cred.RefreshTokenEncrypted,
		cred.ExpiresAt,
		cred.CreatedAt,
		cred.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert moneybird credential: %w", err)
	}

	return nil
}

// Get retrieves the most recently updated credential row
func (r *MoneybirdCredentialRepository) Get(ctx context.Context) (*domain.MoneybirdCredential, error) {
	query := `
		SELECT id, access_token_encrypted, refresh_token_encrypted, expires_at, created_at, updated_at
		FROM moneybird_credentials
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var cred domain.MoneybirdCredential
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&cred.ID,
		&cred.AccessTokenEncrypted,
		&cred.RefreshTokenEncrypted,
		&cred.ExpiresAt,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get moneybird credential: %w", err)
	}

	return &cred, nil
}

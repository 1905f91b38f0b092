package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sitegrid/portal/internal/billing/moneybird"
	"github.com/sitegrid/portal/internal/domain"
	"github.com/sitegrid/portal/internal/repository/redis"
	"github.com/sitegrid/portal/internal/security"
)

// MoneybirdService owns the Moneybird authorization state and the
// contact sync. It implements moneybird.TokenSource so the API client
// can pull and refresh tokens without knowing where they live.
type MoneybirdService struct {
	oauth      *moneybird.OAuth
	credRepo   domain.MoneybirdCredentialRepository
	tenantRepo domain.TenantRepository
	states     *redis.OAuthStateStore
	encryptor  *security.Encryptor

	// refreshMu serializes refreshes so concurrent 401s do not burn
	// the single-use refresh token twice.
	refreshMu sync.Mutex
}

// NewMoneybirdService creates a new Moneybird service
func NewMoneybirdService(
	oauth *moneybird.OAuth,
	credRepo domain.MoneybirdCredentialRepository,
	tenantRepo domain.TenantRepository,
	states *redis.OAuthStateStore,
	encryptor *security.Encryptor,
) *MoneybirdService {
	return &MoneybirdService{
		oauth:      oauth,
		credRepo:   credRepo,
		tenantRepo: tenantRepo,
		states:     states,
		encryptor:  encryptor,
	}
}

// ConnectURL issues a single-use state nonce for the user and returns
// the Moneybird authorization redirect URL.
func (s *MoneybirdService) ConnectURL(ctx context.Context, userID uuid.UUID) (string, error) {
	state, err := s.states.Issue(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to issue state: %w", err)
	}
	return s.oauth.AuthorizeURL(state), nil
}

// HandleCallback completes the authorization-code flow: the state is
// consumed (single use), the code exchanged, and the tokens stored
// encrypted.
func (s *MoneybirdService) HandleCallback(ctx context.Context, state, code string) error {
	if _, err := s.states.Consume(ctx, state); err != nil {
		return fmt.Errorf("invalid oauth state: %w", err)
	}

	tokens, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}

	return s.storeTokens(ctx, tokens)
}

// Connected reports whether a Moneybird authorization exists
func (s *MoneybirdService) Connected(ctx context.Context) (bool, error) {
	cred, err := s.credRepo.Get(ctx)
	if err != nil {
		return false, err
	}
	return cred != nil, nil
}

// AccessToken returns the current decrypted access token
func (s *MoneybirdService) AccessToken(ctx context.Context) (string, error) {
	cred, err := s.credRepo.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	if cred == nil {
		return "", moneybird.ErrNotConnected
	}

	return s.encryptor.DecryptString(cred.AccessTokenEncrypted)
}

// RefreshAccessToken exchanges the stored refresh token for a new pair
// and persists it, returning the new access token.
func (s *MoneybirdService) RefreshAccessToken(ctx context.Context) (string, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	cred, err := s.credRepo.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	if cred == nil {
		return "", moneybird.ErrNotConnected
	}

	refreshToken, err := s.encryptor.DecryptString(cred.RefreshTokenEncrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	tokens, err := s.oauth.Refresh(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh failed: %w", err)
	}

	if err := s.storeTokens(ctx, tokens); err != nil {
		return "", err
	}

	return tokens.AccessToken, nil
}

func (s *MoneybirdService) storeTokens(ctx context.Context, tokens *moneybird.TokenSet) error {
	accessEnc, err := s.encryptor.EncryptString(tokens.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refreshEnc, err := s.encryptor.EncryptString(tokens.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	now := time.Now()
	cred := &domain.MoneybirdCredential{
		ID:                    uuid.New(),
		AccessTokenEncrypted:  accessEnc,
		RefreshTokenEncrypted: refreshEnc,
		ExpiresAt:             tokens.ExpiresAt(now),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	// Replace the existing row rather than stacking a new one
	if existing, err := s.credRepo.Get(ctx); err == nil && existing != nil {
		cred.ID = existing.ID
		cred.CreatedAt = existing.CreatedAt
	}

	if err := s.credRepo.Upsert(ctx, cred); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// SyncContact pushes the tenant's billing details into Moneybird,
// creating a contact on first sync and updating it afterwards. The
// contact id is stored on the tenant.
func (s *MoneybirdService) SyncContact(ctx context.Context, client *moneybird.Client, tenantID uuid.UUID) (*moneybird.Contact, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	if tenant == nil {
		return nil, errors.New("tenant not found")
	}

	contact := moneybird.Contact{
		CompanyName: tenant.Name,
		Email:       tenant.BillingEmail,
		SendMethod:  "Email",
	}

	if tenant.MoneybirdContactID != "" {
		updated, err := client.UpdateContact(ctx, tenant.MoneybirdContactID, contact)
		if err != nil {
			return nil, fmt.Errorf("failed to update contact: %w", err)
		}
		return updated, nil
	}

	created, err := client.CreateContact(ctx, contact)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	if err := s.tenantRepo.SetMoneybirdContactID(ctx, tenantID, created.ID); err != nil {
		// The remote contact exists; the next sync would create a
		// duplicate, so surface the failure.
		log.Error().Err(err).Str("tenant_id", tenantID.String()).Str("contact_id", created.ID).
			Msg("contact created but id not stored")
		return nil, fmt.Errorf("failed to store contact id: %w", err)
	}

	return created, nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/slumberware/slumber/internal/domain"
	"github.com/slumberware/slumber/internal/store"
	"github.com/slumberware/slumber/pkg/cryptox"
	"github.com/slumberware/slumber/pkg/idx"
	"github.com/slumberware/slumber/pkg/jwtx"
	"github.com/slumberware/slumber/pkg/slogx"
	"github.com/slumberware/slumber/pkg/slumbersdk"
)

// Scopes the service can grant. There are no roles or per-client scope sets;
// every anonymous account may hold the full set.
const (
	ScopeSleepRead  = "sleep:read"
	ScopeSleepWrite = "sleep:write"
)

// DefaultScopes are granted when a grant request names no scopes.
var DefaultScopes = []string{ScopeSleepRead, ScopeSleepWrite}

var (
	ErrInvalidScope   = errors.New("invalid_scope")
	ErrInvalidRefresh = errors.New("invalid_refresh_token")
	ErrInvalidGrant   = errors.New("invalid_grant")
)

// TokenService issues and validates the two token kinds: short-lived JWT
// access tokens and opaque rotating refresh tokens.
type TokenService struct {
	KeyManager *jwtx.KeyManager
	Identity   *IdentityService
	Store      store.Store
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ExchangeDevice implements the device grant: resolve the fingerprint to an
// anonymous account (creating it on first use) and issue a token pair.
func (s *TokenService) ExchangeDevice(
	ctx context.Context,
	deviceFingerprint string,
	requestedScopes []string,
) (*domain.TokenPair, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	account, created, err := s.Identity.CreateOrGetAccount(ctx, deviceFingerprint)
	if err != nil {
		if errors.Is(err, ErrInvalidFingerprint) {
			return nil, ErrInvalidGrant
		}
		return nil, err
	}
	if created {
		l.Info("device grant created account", "account_id", account.ID)
	}

	effective := effectiveScopes(requestedScopes)
	if len(effective) == 0 {
		return nil, ErrInvalidScope
	}

	// Each device grant starts a fresh session.
	sessionID := idx.New().String()
	amr := []string{jwtx.AMRDevice}

	accessToken, err := s.signAccess(account.ID, sessionID, effective, amr, now)
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	refresh := domain.RefreshToken{
		ID:        idx.New().String(),
		AccountID: account.ID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		SessionID: sessionID,
		Scopes:    effective,
		AMR:       amr,
		ExpiresAt: now.Add(s.RefreshTTL),
		Revoked:   false,
	}

	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, refresh); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
		Scope:        strings.Join(effective, " "),
	}, nil
}

// ExchangeRefreshToken implements the refresh_token grant with rotation: the
// presented token is revoked and its replacement created in one transaction,
// so the old token is unusable the moment the new pair exists.
func (s *TokenService) ExchangeRefreshToken(
	ctx context.Context,
	refreshOpaque string,
	requestedScopes []string, // Empty means reuse original scopes
) (*domain.TokenPair, error) {
	now := time.Now()

	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	if rt.Revoked {
		// A revoked token arriving here is either a replay after rotation or
		// a stolen credential. Both end every session the account holds.
		if err := s.Store.RefreshTokens().RevokeAllAccountRefreshTokens(ctx, rt.AccountID); err != nil {
			return nil, err
		}
		slogx.FromContext(ctx).Warn("revoked refresh token replayed, account sessions ended",
			"account_id", rt.AccountID, "session_id", rt.SessionID)
		return nil, ErrInvalidRefresh
	}
	if now.After(rt.ExpiresAt) {
		return nil, ErrInvalidRefresh
	}

	// Scope narrowing is allowed; widening beyond the original grant is not.
	base := rt.Scopes
	if len(requestedScopes) > 0 {
		base = intersectScopes(requestedScopes, rt.Scopes)
	}
	effective := intersectScopes(base, DefaultScopes)
	if len(effective) == 0 {
		return nil, ErrInvalidScope
	}

	// Preserve AMR history: append "refresh" to existing authentication methods
	amr := dedupe(append(rt.AMR, jwtx.AMRRefresh))

	accessToken, err := s.signAccess(rt.AccountID, rt.SessionID, effective, amr, now)
	if err != nil {
		return nil, err
	}

	newRefreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	newRT := domain.RefreshToken{
		ID:        idx.New().String(),
		AccountID: rt.AccountID,
		TokenHash: cryptox.FingerprintToken(newRefreshOpaque),
		SessionID: rt.SessionID, // Preserve session ID across refresh
		Scopes:    effective,
		AMR:       amr,
		ExpiresAt: now.Add(s.RefreshTTL),
		Revoked:   false,
	}

	// Atomically: revoke old token and create new one
	if err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, newRT)
	}); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
		Scope:        strings.Join(effective, " "),
	}, nil
}

// RevokeRefreshToken revokes a single refresh token (by its opaque value).
// Unknown tokens are a no-op so callers learn nothing from the response.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, refreshOpaque string) error {
	fp := cryptox.FingerprintToken(refreshOpaque)
	return s.Store.RefreshTokens().RevokeRefreshToken(ctx, fp)
}

// IntrospectToken implements RFC 7662 semantics for access tokens. Any
// verification failure yields active=false with no further detail.
func (s *TokenService) IntrospectToken(ctx context.Context, token string) slumbersdk.IntrospectionResponse {
	claims, err := s.KeyManager.Verifier.Verify(token)
	if err != nil {
		return slumbersdk.IntrospectionResponse{Active: false}
	}

	resp := slumbersdk.IntrospectionResponse{
		Active:    true,
		Scope:     strings.Join(claims.Scopes, " "),
		TokenType: "Bearer",
		Sub:       claims.Subject,
		Aud:       claims.Audience,
		Iss:       claims.Issuer,
		Jti:       claims.ID,
		SessionID: claims.SID,
		AMR:       claims.AMR,
	}
	if claims.ExpiresAt != nil {
		resp.Exp = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		resp.Iat = claims.IssuedAt.Unix()
	}
	if claims.NotBefore != nil {
		resp.Nbf = claims.NotBefore.Unix()
	}
	return resp
}

func (s *TokenService) signAccess(
	accountID string,
	sessionID string,
	scopes []string,
	amr []string,
	now time.Time,
) (string, error) {
	claims := jwtx.NewAccessClaims(
		accountID,   // subject
		sessionID,   // session ID
		scopes,      // scopes
		amr,         // authentication methods
		s.AccessTTL, // token lifetime
		s.Issuer,    // issuer
		s.Audience,  // audience
		now,         // current time
	)
	// Use GetSigner() to distribute signing across multiple keys
	signer := s.KeyManager.GetSigner()
	return signer.Sign(claims)
}

// effectiveScopes intersects the request with what the service may grant.
// An empty request means the full default set.
func effectiveScopes(requested []string) []string {
	if len(requested) == 0 {
		return append([]string(nil), DefaultScopes...)
	}
	return intersectScopes(requested, DefaultScopes)
}

func intersectScopes(a, b []string) []string {
	set := map[string]struct{}{}
	for _, s := range b {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

package jwtx

import (
	"context"
	"fmt"
	"time"

	"github.com/slumberware/slumber/pkg/cryptox"
	"github.com/slumberware/slumber/pkg/idx"
)

// SigningKeyRecord is the stored form of a signing key. Defined here rather
// than in the domain package to keep jwtx free of store dependencies.
type SigningKeyRecord struct {
	ID                  string
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
	RetiredAt           *time.Time
	ExpiresAt           time.Time
}

// KeyStore is the minimal storage interface persistent key management needs.
type KeyStore interface {
	// ListAllSigningKeys returns every signing key, including retired ones
	// still inside their verification grace period.
	ListAllSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)

	// ListActiveSigningKeys returns only keys eligible for signing.
	ListActiveSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)

	// CreateSigningKey stores a new key with encrypted private material.
	CreateSigningKey(ctx context.Context, key SigningKeyRecord) error

	// RetireSigningKey marks a key as no longer eligible for signing while
	// keeping it verifiable until verifyUntil.
	RetireSigningKey(ctx context.Context, kid string, verifyUntil time.Time) error
}

// PersistentKeyManagerOptions configures a KeyManager backed by a KeyStore.
type PersistentKeyManagerOptions struct {
	// Store provides access to the signing_keys table. Required.
	Store KeyStore

	// Algorithm used for newly generated keys. Loaded keys keep their
	// stored algorithm.
	Algorithm string

	// Issuer is the iss claim validated in tokens. Required.
	Issuer string

	// Audience values validated in tokens. Empty means no audience check.
	Audience []string

	// Leeway tolerated for exp/nbf validation. Clamped to MaxLeeway.
	Leeway time.Duration

	// RSABits sets the RSA key size for RS256. Defaults to 4096.
	RSABits int

	// NumKeys is the target number of active signing keys. New keys are
	// generated until the target is met. Defaults to 3.
	NumKeys int

	// GracePeriod is how long retired keys stay verifiable. Defaults to
	// 30 days.
	GracePeriod time.Duration
}

// NewPersistentKeyManager builds a KeyManager from keys stored encrypted in
// the database. Tokens survive restarts, and retired keys keep verifying
// tokens until their grace period lapses.
//
// On startup it loads every stored key for verification, loads active keys
// for signing, and tops up to NumKeys by generating, encrypting and storing
// fresh keys.
func NewPersistentKeyManager(ctx context.Context, opts PersistentKeyManagerOptions) (*KeyManager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("jwtx: Store is required for persistent key manager")
	}
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}

	opts.NumKeys = clampNumKeys(opts.NumKeys)
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 30 * 24 * time.Hour
	}

	allKeys, err := opts.Store.ListAllSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: failed to load keys from database: %w", err)
	}

	activeKeys, err := opts.Store.ListActiveSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: failed to load active keys: %w", err)
	}

	// Every stored key verifies; only active keys sign.
	keyset := NewKeySet()
	for _, keyRecord := range allKeys {
		signer, err := signerFromRecord(keyRecord)
		if err != nil {
			return nil, err
		}
		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: failed to add key %s to keyset: %w", keyRecord.Kid, err)
		}
	}

	now := time.Now().UTC()

	// Keys generated under a previous AUTH_ALGORITHM setting must not sign
	// new tokens. Retire them so they only verify out their grace period.
	activeSigners := make([]Signer, 0, len(activeKeys))
	for _, keyRecord := range activeKeys {
		if keyRecord.Algorithm != opts.Algorithm {
			if err := opts.Store.RetireSigningKey(ctx, keyRecord.Kid, now.Add(opts.GracePeriod)); err != nil {
				return nil, fmt.Errorf("jwtx: failed to retire key %s: %w", keyRecord.Kid, err)
			}
			continue
		}
		signer, err := signerFromRecord(keyRecord)
		if err != nil {
			return nil, err
		}
		activeSigners = append(activeSigners, signer)
	}

	for len(activeSigners) < opts.NumKeys {
		kid, err := generateRandomKeyID()
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate key ID: %w", err)
		}

		pemData, signer, err := generateNewKeyAndSigner(opts.Algorithm, kid, opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate new key: %w", err)
		}

		encryptedKey, err := cryptox.EncryptPrivateKey(pemData)
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to encrypt new key: %w", err)
		}

		keyRecord := SigningKeyRecord{
			ID:                  idx.New().String(),
			Kid:                 kid,
			Algorithm:           opts.Algorithm,
			PrivateKeyEncrypted: encryptedKey,
			CreatedAt:           now,
			RetiredAt:           nil,
			ExpiresAt:           now.Add(opts.GracePeriod), // extended when retired
		}

		if err := opts.Store.CreateSigningKey(ctx, keyRecord); err != nil {
			return nil, fmt.Errorf("jwtx: failed to store new key: %w", err)
		}

		activeSigners = append(activeSigners, signer)
		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: failed to add new key to keyset: %w", err)
		}
	}

	verifier, err := newVerifier(opts.Algorithm, keyset, VerifyOptions{
		Issuer:   opts.Issuer,
		Audience: opts.Audience,
		Leeway:   opts.Leeway,
	})
	if err != nil {
		return nil, err
	}

	return &KeyManager{
		Verifier:  verifier,
		KeySet:    keyset,
		algorithm: opts.Algorithm,
		signers:   activeSigners,
	}, nil
}

func signerFromRecord(rec SigningKeyRecord) (Signer, error) {
	pemData, err := cryptox.DecryptPrivateKey(rec.PrivateKeyEncrypted)
	if err != nil {
		return nil, fmt.Errorf("jwtx: failed to decrypt key %s: %w", rec.Kid, err)
	}

	signer, err := createSignerFromPEM(rec.Algorithm, rec.Kid, pemData)
	if err != nil {
		return nil, fmt.Errorf("jwtx: failed to create signer for key %s: %w", rec.Kid, err)
	}
	return signer, nil
}

// createSignerFromPEM creates a signer from PEM-encoded private key data.
func createSignerFromPEM(algorithm, kid string, pemData []byte) (Signer, error) {
	switch algorithm {
	case AlgorithmRS256:
		return NewSignerRS256(kid, pemData)
	case AlgorithmES256:
		return NewSignerES256(kid, pemData)
	case AlgorithmEdDSA:
		return NewSignerEdDSA(kid, pemData)
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", algorithm)
	}
}

// generateNewKeyAndSigner returns both the PEM data (for storage) and the
// ready-to-use signer.
func generateNewKeyAndSigner(algorithm, kid string, rsaBits int) ([]byte, Signer, error) {
	var pemData []byte
	var err error

	switch algorithm {
	case AlgorithmRS256:
		if rsaBits == 0 {
			rsaBits = 4096
		}
		pemData, err = cryptox.GenerateRSAKey(rsaBits)
	case AlgorithmES256:
		pemData, err = cryptox.GenerateES256Key()
	case AlgorithmEdDSA:
		pemData, err = cryptox.GenerateEd25519Key()
	default:
		return nil, nil, fmt.Errorf("unsupported algorithm %q", algorithm)
	}

	if err != nil {
		return nil, nil, err
	}

	signer, err := createSignerFromPEM(algorithm, kid, pemData)
	if err != nil {
		return nil, nil, err
	}

	return pemData, signer, nil
}

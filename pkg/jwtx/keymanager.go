package jwtx

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/slumberware/slumber/pkg/cryptox"
)

// Supported JWT signing algorithms
const (
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
	AlgorithmEdDSA = "EdDSA"
)

// KeyManager owns the signing and verification keys for a service instance.
// It supports multiple concurrent signing keys; signing operations pick a
// key at random to spread load and avoid a single hot kid.
type KeyManager struct {
	Verifier  Verifier
	KeySet    *KeySet
	algorithm string

	mu      sync.RWMutex
	signers []Signer
}

// KeyManagerOptions configures an ephemeral KeyManager.
type KeyManagerOptions struct {
	// Algorithm selects the signing algorithm: "RS256", "ES256" or "EdDSA".
	Algorithm string

	// Issuer is the iss claim validated in tokens. Required.
	Issuer string

	// Audience values validated in tokens. Empty means no audience check.
	Audience []string

	// Leeway tolerated for exp/nbf validation. Clamped to MaxLeeway.
	Leeway time.Duration

	// RSABits sets the RSA key size for RS256. Defaults to 4096.
	RSABits int

	// NumKeys is how many signing keys to generate. Defaults to 3,
	// clamped to [1, 10].
	NumKeys int
}

// NewEphemeralKeyManager creates a KeyManager whose keys exist only in
// memory. Every token becomes invalid when the service restarts, which is
// acceptable for dev and test deployments.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}

	numKeys := clampNumKeys(opts.NumKeys)
	keyset := NewKeySet()
	signers := make([]Signer, 0, numKeys)

	for i := 0; i < numKeys; i++ {
		kid, err := generateRandomKeyID()
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate key ID: %w", err)
		}

		signer, err := generateSigner(opts.Algorithm, kid, opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate signer %d: %w", i+1, err)
		}

		signers = append(signers, signer)
		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: failed to add signer %d to keyset: %w", i+1, err)
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
		signers:   signers,
	}, nil
}

func clampNumKeys(n int) int {
	if n <= 0 {
		return 3
	}
	if n > 10 {
		return 10
	}
	return n
}

func newVerifier(algorithm string, keyset *KeySet, opts VerifyOptions) (Verifier, error) {
	switch algorithm {
	case AlgorithmRS256:
		return NewCommonRS256(keyset, opts), nil
	case AlgorithmES256:
		return NewCommonES256(keyset, opts), nil
	case AlgorithmEdDSA:
		return NewCommonEdDSA(keyset, opts), nil
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: RS256, ES256, EdDSA)", algorithm)
	}
}

// generateSigner creates a fresh keypair and wraps it in a Signer.
func generateSigner(algorithm, kid string, rsaBits int) (Signer, error) {
	switch algorithm {
	case AlgorithmRS256:
		bits := rsaBits
		if bits == 0 {
			bits = 4096
		}
		pemBytes, err := cryptox.GenerateRSAKey(bits)
		if err != nil {
			return nil, fmt.Errorf("failed to generate RS256 key: %w", err)
		}
		return NewSignerRS256(kid, pemBytes)

	case AlgorithmES256:
		pemBytes, err := cryptox.GenerateES256Key()
		if err != nil {
			return nil, fmt.Errorf("failed to generate ES256 key: %w", err)
		}
		return NewSignerES256(kid, pemBytes)

	case AlgorithmEdDSA:
		pemBytes, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, fmt.Errorf("failed to generate EdDSA key: %w", err)
		}
		return NewSignerEdDSA(kid, pemBytes)

	default:
		return nil, fmt.Errorf("unsupported algorithm %q", algorithm)
	}
}

// Algorithm returns the signing algorithm in use.
func (km *KeyManager) Algorithm() string {
	return km.algorithm
}

// IsReady reports whether valid keys are loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}

// GetSigner returns a randomly selected signer. With a single key it always
// returns that key.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	default:
		return km.signers[rand.IntN(len(km.signers))]
	}
}

// NumSigners returns the number of active signing keys.
func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// Signers returns a copy of the active signing keys.
func (km *KeyManager) Signers() []Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	signers := make([]Signer, len(km.signers))
	copy(signers, km.signers)
	return signers
}

// generateRandomKeyID creates a random key identifier with 128 bits of
// entropy.
func generateRandomKeyID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("failed to generate random key ID: %w", err)
	}
	return fmt.Sprintf("slumber-%s", token), nil
}

package jwtx_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/slumberware/slumber/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// memKeyStore keeps signing key records in memory so the persistent key
// manager can be exercised without a database.
type memKeyStore struct {
	mu   sync.Mutex
	keys []jwtx.SigningKeyRecord
}

func (m *memKeyStore) ListAllSigningKeys(ctx context.Context) ([]jwtx.SigningKeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]jwtx.SigningKeyRecord(nil), m.keys...), nil
}

func (m *memKeyStore) ListActiveSigningKeys(ctx context.Context) ([]jwtx.SigningKeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var active []jwtx.SigningKeyRecord
	for _, k := range m.keys {
		if k.RetiredAt == nil && k.ExpiresAt.After(now) {
			active = append(active, k)
		}
	}
	return active, nil
}

func (m *memKeyStore) CreateSigningKey(ctx context.Context, key jwtx.SigningKeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return nil
}

func (m *memKeyStore) RetireSigningKey(ctx context.Context, kid string, verifyUntil time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for i := range m.keys {
		if m.keys[i].Kid == kid && m.keys[i].RetiredAt == nil {
			m.keys[i].RetiredAt = &now
			m.keys[i].ExpiresAt = verifyUntil
		}
	}
	return nil
}

func (m *memKeyStore) retiredKids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kids []string
	for _, k := range m.keys {
		if k.RetiredAt != nil {
			kids = append(kids, k.Kid)
		}
	}
	return kids
}

func TestPersistentKeyManagerGeneratesAndReloads(t *testing.T) {
	ctx := context.Background()
	ks := &memKeyStore{}

	first, err := jwtx.NewPersistentKeyManager(ctx, jwtx.PersistentKeyManagerOptions{
		Store:     ks,
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    testIssuer,
		NumKeys:   2,
	})
	require.NoError(t, err)
	require.Equal(t, 2, first.NumSigners())
	require.Len(t, ks.keys, 2)

	token, err := first.GetSigner().Sign(newTestClaims("account-persist", time.Minute, nil))
	require.NoError(t, err)

	// A fresh manager on the same store loads the stored keys rather than
	// generating new ones, so earlier tokens keep verifying.
	second, err := jwtx.NewPersistentKeyManager(ctx, jwtx.PersistentKeyManagerOptions{
		Store:     ks,
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    testIssuer,
		NumKeys:   2,
	})
	require.NoError(t, err)
	require.Equal(t, 2, second.NumSigners())
	require.Len(t, ks.keys, 2)

	claims, err := second.Verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "account-persist", claims.Subject)
}

func TestPersistentKeyManagerRetiresMismatchedAlgorithm(t *testing.T) {
	ctx := context.Background()
	ks := &memKeyStore{}

	es, err := jwtx.NewPersistentKeyManager(ctx, jwtx.PersistentKeyManagerOptions{
		Store:     ks,
		Algorithm: jwtx.AlgorithmES256,
		Issuer:    testIssuer,
		NumKeys:   1,
	})
	require.NoError(t, err)
	oldKid := es.GetSigner().KID()

	grace := 48 * time.Hour
	ed, err := jwtx.NewPersistentKeyManager(ctx, jwtx.PersistentKeyManagerOptions{
		Store:       ks,
		Algorithm:   jwtx.AlgorithmEdDSA,
		Issuer:      testIssuer,
		NumKeys:     1,
		GracePeriod: grace,
	})
	require.NoError(t, err)

	// The ES256 key was retired during the algorithm switch and no longer
	// signs; a fresh EdDSA key took its place.
	require.Equal(t, []string{oldKid}, ks.retiredKids())
	require.Equal(t, 1, ed.NumSigners())
	require.NotEqual(t, oldKid, ed.GetSigner().KID())

	for _, k := range ks.keys {
		if k.Kid != oldKid {
			continue
		}
		require.NotNil(t, k.RetiredAt)
		require.WithinDuration(t, time.Now().Add(grace), k.ExpiresAt, time.Minute)
	}
}

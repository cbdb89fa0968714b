package wallet

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walletstatedb "github.com/Maphikza/xrpl-wallet-custody/internal/database"
	"github.com/Maphikza/xrpl-wallet-custody/lib/addresscodec"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestFromSeedKnownVectors(t *testing.T) {
	tests := []struct {
		name    string
		seed    string
		keyType addresscodec.KeyType
		public  string
		address string
	}{
		{
			name:    "genesis",
			seed:    "snoPBrXtMeMyMHUVTgbuqAfg1SUTb",
			keyType: addresscodec.KeyTypeSecp256k1,
			address: "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
		},
		{
			name:    "secp256k1",
			seed:    "sp5fghtJtpUorTwvof1NpDXAzNwf5",
			keyType: addresscodec.KeyTypeSecp256k1,
			public:  "030D58EB48B4420B1F7B9DF55087E0E29FEF0E8468F9A6825B01CA2C361042D435",
			address: "rU6K7V3Po4snVhBBaU29sesqs2qTQJWDw1",
		},
		{
			name:    "ed25519",
			seed:    "sEdSKaCy2JT7JaM7v95H9SxkhP9wS2r",
			keyType: addresscodec.KeyTypeEd25519,
			public:  "ED01FA53FA5A7E77798F882ECE20B1ABC00BB358A9E55A202D0D0676BD0CE37A63",
			address: "rLUEXYuLiQptky37CqLcm9USQpPiz5rkpD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := FromSeed(tt.seed)
			require.NoError(t, err)

			assert.Equal(t, tt.keyType, keys.KeyType)
			assert.Equal(t, tt.address, keys.Address)
			assert.Equal(t, tt.seed, keys.Seed)
			if tt.public != "" {
				assert.Equal(t, tt.public, keys.PublicKey)
			}

			pub, err := publicFromPrivate(keys.PrivateKey, keys.KeyType)
			require.NoError(t, err)
			assert.Equal(t, keys.PublicKey, pub)
		})
	}
}

func TestFromSeedInvalid(t *testing.T) {
	_, err := FromSeed("sNotASeed")
	assert.True(t, errors.Is(err, addresscodec.ErrInvalidSeed))
}

func TestGenerate(t *testing.T) {
	for _, kt := range []addresscodec.KeyType{addresscodec.KeyTypeEd25519, addresscodec.KeyTypeSecp256k1} {
		t.Run(string(kt), func(t *testing.T) {
			a, err := Generate(kt)
			require.NoError(t, err)
			b, err := Generate(kt)
			require.NoError(t, err)

			assert.NotEqual(t, a.Address, b.Address)
			assert.True(t, addresscodec.IsValidClassicAddress(a.Address))

			again, err := FromSeed(a.Seed)
			require.NoError(t, err)
			assert.Equal(t, *a, *again)

			if kt == addresscodec.KeyTypeEd25519 {
				assert.True(t, strings.HasPrefix(a.Seed, "sEd"))
				assert.True(t, strings.HasPrefix(a.PublicKey, "ED"))
				assert.True(t, strings.HasPrefix(a.PrivateKey, "ED"))
			} else {
				assert.True(t, strings.HasPrefix(a.PrivateKey, "00"))
			}
		})
	}
}

func TestFromMnemonic(t *testing.T) {
	keys, err := FromMnemonic(testMnemonic)
	require.NoError(t, err)

	assert.Equal(t, addresscodec.KeyTypeSecp256k1, keys.KeyType)
	assert.Equal(t, testMnemonic, keys.Seed)
	assert.Len(t, keys.PublicKey, 66)
	assert.True(t, addresscodec.IsValidClassicAddress(keys.Address))

	spaced, err := FromMnemonic("  " + strings.ReplaceAll(testMnemonic, " ", "   ") + "\n")
	require.NoError(t, err)
	assert.Equal(t, keys.Address, spaced.Address)

	other, err := FromMnemonicPath(testMnemonic, "m/44'/144'/0'/0/1")
	require.NoError(t, err)
	assert.NotEqual(t, keys.Address, other.Address)

	_, err = FromMnemonic("abandon abandon abandon")
	assert.True(t, errors.Is(err, ErrInvalidMnemonic))

	_, err = FromMnemonicPath(testMnemonic, "m/44'/x")
	assert.Error(t, err)
}

func TestNewMnemonic(t *testing.T) {
	m, err := NewMnemonic()
	require.NoError(t, err)
	assert.Len(t, strings.Fields(m), 24)

	_, err = FromMnemonic(m)
	assert.NoError(t, err)
}

func TestFromKeys(t *testing.T) {
	ed, err := FromSeed("sEdSKaCy2JT7JaM7v95H9SxkhP9wS2r")
	require.NoError(t, err)
	k1, err := FromSeed("sp5fghtJtpUorTwvof1NpDXAzNwf5")
	require.NoError(t, err)

	got, err := FromKeys(ed.Address, ed.Seed, strings.ToLower(ed.PrivateKey), ed.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, ed.PrivateKey, got.PrivateKey)

	_, err = FromKeys(k1.Address, "opaque", k1.PrivateKey, k1.PublicKey)
	assert.NoError(t, err)

	tests := []struct {
		name                  string
		addr, seed, priv, pub string
	}{
		{"address of another key", k1.Address, ed.Seed, ed.PrivateKey, ed.PublicKey},
		{"private key of another account", ed.Address, ed.Seed, "ED" + k1.PrivateKey[2:], ed.PublicKey},
		{"seed of another account", k1.Address, ed.Seed, k1.PrivateKey, k1.PublicKey},
		{"wrong private prefix", k1.Address, k1.Seed, "ED" + k1.PrivateKey[2:], k1.PublicKey},
		{"short private key", k1.Address, k1.Seed, k1.PrivateKey[:10], k1.PublicKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromKeys(tt.addr, tt.seed, tt.priv, tt.pub)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrKeyMismatch))
			assert.NotContains(t, err.Error(), tt.priv)
		})
	}
}

func TestKeysRedacted(t *testing.T) {
	keys, err := FromSeed("sEdSKaCy2JT7JaM7v95H9SxkhP9wS2r")
	require.NoError(t, err)

	s := keys.String()
	assert.NotContains(t, s, keys.Seed)
	assert.NotContains(t, s, keys.PrivateKey)
	assert.Contains(t, s, keys.Address)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := walletstatedb.Open(filepath.Join(t.TempDir(), "wallets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewService(store, zerolog.Nop())
}

func TestServiceGenerateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Generate(ctx, "hot", addresscodec.KeyTypeEd25519)
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, "hot", rec.Label)
	assert.False(t, rec.CreatedAt.IsZero())

	byID, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, rec.Address, byID.Address)

	byAddr, err := svc.Get(ctx, rec.Address)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, byAddr.ID)
	assert.Equal(t, rec.PrivateKey, byAddr.PrivateKey)

	_, err = svc.Get(ctx, "not-an-address")
	assert.True(t, errors.Is(err, walletstatedb.ErrNotFound))
	_, err = svc.Get(ctx, "42")
	assert.True(t, errors.Is(err, walletstatedb.ErrNotFound))
}

func TestServiceImport(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec, err := svc.ImportSeed(ctx, "genesis", "snoPBrXtMeMyMHUVTgbuqAfg1SUTb")
	require.NoError(t, err)
	assert.Equal(t, "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", rec.Address)

	_, err = svc.ImportSeed(ctx, "again", "snoPBrXtMeMyMHUVTgbuqAfg1SUTb")
	assert.True(t, errors.Is(err, walletstatedb.ErrDuplicateAddress))

	m, err := svc.ImportMnemonic(ctx, "phrase", testMnemonic)
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, m.Seed)

	keys, err := FromSeed("sEdSKaCy2JT7JaM7v95H9SxkhP9wS2r")
	require.NoError(t, err)
	k, err := svc.ImportKeys(ctx, "keys", keys.Address, keys.Seed, keys.PrivateKey, keys.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, keys.PublicKey, k.PublicKey)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"genesis", "phrase", "keys"}, []string{all[0].Label, all[1].Label, all[2].Label})
}

func TestServiceGenerateMnemonic(t *testing.T) {
	svc := newTestService(t)

	rec, mnemonic, err := svc.GenerateMnemonic(context.Background(), "cold")
	require.NoError(t, err)
	assert.Equal(t, mnemonic, rec.Seed)

	keys, err := FromMnemonic(mnemonic)
	require.NoError(t, err)
	assert.Equal(t, keys.Address, rec.Address)
}

package walletstatedb

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallets", "test.db")
	s, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func testRecord(n int) WalletRecord {
	return WalletRecord{
		Label:      fmt.Sprintf("wallet-%d", n),
		Address:    fmt.Sprintf("rTestAddress%d", n),
		Seed:       fmt.Sprintf("sEdSeed%d", n),
		PrivateKey: fmt.Sprintf("EDPRIVATE%d", n),
		PublicKey:  fmt.Sprintf("EDPUBLIC%d", n),
	}
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	id, err := s.Put(ctx, testRecord(1))
	require.NoError(t, err)
	assert.NotZero(t, id)

	byID, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "rTestAddress1", byID.Address)
	assert.Equal(t, "sEdSeed1", byID.Seed)
	assert.False(t, byID.CreatedAt.IsZero())

	byAddr, err := s.GetByAddress(ctx, "rTestAddress1")
	require.NoError(t, err)
	assert.Equal(t, byID, byAddr)
}

func TestGetByAddressRoundTripsEveryField(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"plain", nil},
		{"passphrase", []Option{WithPassphrase("correct horse")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, _ := newTestStore(t, tt.opts...)

			in := testRecord(9)
			in.CreatedAt = time.Date(2024, 3, 14, 15, 9, 26, 535000000, time.UTC)

			id, err := s.Put(ctx, in)
			require.NoError(t, err)

			got, err := s.GetByAddress(ctx, in.Address)
			require.NoError(t, err)
			assert.Equal(t, id, got.ID)
			assert.Equal(t, in.Label, got.Label)
			assert.Equal(t, in.Address, got.Address)
			assert.Equal(t, in.Seed, got.Seed)
			assert.Equal(t, in.PrivateKey, got.PrivateKey)
			assert.Equal(t, in.PublicKey, got.PublicKey)
			assert.True(t, in.CreatedAt.Equal(got.CreatedAt), "created_at %v, want %v", got.CreatedAt, in.CreatedAt)
		})
	}
}

func TestInsertDuplicateMapsUniqueIndex(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Put(ctx, testRecord(1))
	require.NoError(t, err)

	// a second process that passed its own count check lands here
	row := SQLiteWallet{Label: "racer", Address: "rTestAddress1", Seed: "s", PrivateKey: "p", PublicKey: "k", CreatedAt: time.Now()}
	err = insert(s.db.WithContext(ctx), &row)
	assert.True(t, errors.Is(err, ErrDuplicateAddress))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestPutDuplicateAddress(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Put(ctx, testRecord(1))
	require.NoError(t, err)

	dup := testRecord(1)
	dup.Label = "other"
	_, err = s.Put(ctx, dup)
	assert.True(t, errors.Is(err, ErrDuplicateAddress))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	rec, err := s.GetByAddress(ctx, "rTestAddress1")
	require.NoError(t, err)
	assert.Equal(t, "wallet-1", rec.Label)
}

func TestPutIncompleteRecord(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	rec := testRecord(1)
	rec.PrivateKey = ""
	_, err := s.Put(ctx, rec)
	assert.True(t, errors.Is(err, ErrIncompleteRecord))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.GetByID(ctx, 42)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.GetByAddress(ctx, "rNobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	var ids []uint
	for i := 1; i <= 5; i++ {
		id, err := s.Put(ctx, testRecord(i))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 5)
	for i, rec := range records {
		assert.Equal(t, ids[i], rec.ID)
		assert.Equal(t, fmt.Sprintf("rTestAddress%d", i+1), rec.Address)
	}
}

func TestRecordsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)

	id, err := s.Put(ctx, testRecord(7))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	rec, err := reopened.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "rTestAddress7", rec.Address)
}

func TestEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t, WithPassphrase("correct horse"))

	id, err := s.Put(ctx, testRecord(1))
	require.NoError(t, err)

	var row SQLiteWallet
	require.NoError(t, s.db.First(&row, id).Error)
	assert.True(t, row.Encrypted)
	assert.NotContains(t, row.Seed, "sEdSeed1")
	assert.Len(t, strings.Split(row.PrivateKey, ":"), 3)

	rec, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "sEdSeed1", rec.Seed)
	assert.Equal(t, "EDPRIVATE1", rec.PrivateKey)
	require.NoError(t, s.Close())

	wrong, err := Open(path, WithPassphrase("battery staple"))
	require.NoError(t, err)
	defer wrong.Close()
	_, err = wrong.GetByID(ctx, id)
	assert.True(t, errors.Is(err, ErrDecrypt))

	// public fields are still readable without the passphrase
	none, err := Open(path)
	require.NoError(t, err)
	defer none.Close()
	_, err = none.GetByAddress(ctx, "rTestAddress1")
	assert.True(t, errors.Is(err, ErrDecrypt))
	count, err := none.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestConcurrentPutSameAddress(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Put(ctx, testRecord(1))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, dup int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateAddress):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, dup)
}

func TestRecordRedaction(t *testing.T) {
	rec := testRecord(3)
	assert.NotContains(t, rec.String(), rec.Seed)
	assert.NotContains(t, rec.String(), rec.PrivateKey)
	assert.NotContains(t, fmt.Sprintf("%v %+v %#v", rec, rec, rec), "EDPRIVATE3")
}

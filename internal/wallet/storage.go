package wallet

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	walletstatedb "github.com/Maphikza/xrpl-wallet-custody/internal/database"
	"github.com/Maphikza/xrpl-wallet-custody/lib/addresscodec"
)

// Store is the part of the secret store the service writes through.
type Store interface {
	Put(ctx context.Context, rec walletstatedb.WalletRecord) (uint, error)
	GetByID(ctx context.Context, id uint) (*walletstatedb.WalletRecord, error)
	GetByAddress(ctx context.Context, address string) (*walletstatedb.WalletRecord, error)
	List(ctx context.Context) ([]walletstatedb.WalletRecord, error)
}

// Service creates and imports wallets into a Store.
type Service struct {
	store Store
	log   zerolog.Logger
}

func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{store: store, log: log}
}

// Generate creates a new family seed wallet and stores it.
func (s *Service) Generate(ctx context.Context, label string, keyType addresscodec.KeyType) (*walletstatedb.WalletRecord, error) {
	keys, err := Generate(keyType)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, label, keys, "generated")
}

// GenerateMnemonic creates a new mnemonic wallet and stores it. The
// mnemonic is returned so it can be shown once.
func (s *Service) GenerateMnemonic(ctx context.Context, label string) (*walletstatedb.WalletRecord, string, error) {
	mnemonic, err := NewMnemonic()
	if err != nil {
		return nil, "", err
	}
	keys, err := FromMnemonic(mnemonic)
	if err != nil {
		return nil, "", err
	}
	rec, err := s.save(ctx, label, keys, "generated")
	if err != nil {
		return nil, "", err
	}
	return rec, mnemonic, nil
}

func (s *Service) ImportSeed(ctx context.Context, label, seed string) (*walletstatedb.WalletRecord, error) {
	keys, err := FromSeed(seed)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, label, keys, "imported")
}

func (s *Service) ImportMnemonic(ctx context.Context, label, mnemonic string) (*walletstatedb.WalletRecord, error) {
	keys, err := FromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, label, keys, "imported")
}

// ImportKeys stores a credential set after checking it is consistent.
func (s *Service) ImportKeys(ctx context.Context, label, address, seed, privateKey, publicKey string) (*walletstatedb.WalletRecord, error) {
	keys, err := FromKeys(address, seed, privateKey, publicKey)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, label, keys, "imported")
}

// Get looks a wallet up by store ID or by classic address.
func (s *Service) Get(ctx context.Context, ref string) (*walletstatedb.WalletRecord, error) {
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		return s.store.GetByID(ctx, uint(id))
	}
	if !addresscodec.IsValidClassicAddress(ref) {
		return nil, errors.Wrapf(walletstatedb.ErrNotFound, "%q is neither an ID nor an address", ref)
	}
	return s.store.GetByAddress(ctx, ref)
}

func (s *Service) List(ctx context.Context) ([]walletstatedb.WalletRecord, error) {
	return s.store.List(ctx)
}

func (s *Service) save(ctx context.Context, label string, keys *Keys, how string) (*walletstatedb.WalletRecord, error) {
	rec := keys.Record(label)
	id, err := s.store.Put(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id

	s.log.Info().EmbedObject(rec).Str("key_type", string(keys.KeyType)).Msgf("wallet %s", how)
	return s.store.GetByID(ctx, id)
}

package walletstatedb

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the sqlite-backed secret store. Writes are serialized, reads run
// concurrently.
type Store struct {
	mu         sync.RWMutex
	db         *gorm.DB
	passphrase string
	log        zerolog.Logger
}

type Option func(*Store)

// WithPassphrase encrypts seeds and private keys at rest.
func WithPassphrase(passphrase string) Option {
	return func(s *Store) { s.passphrase = passphrase }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open opens (or creates) the wallet database at dbPath
func Open(dbPath string, opts ...Option) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, errors.Wrap(err, "failed to create directory")
		}
	}

	// Configure GORM to be less verbose
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	}

	db, err := gorm.Open(sqlite.Open(dbPath), config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.AutoMigrate(&SQLiteWallet{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	s := &Store{db: db, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	s.log.Debug().Str("path", dbPath).Bool("encrypted", s.passphrase != "").Msg("wallet store opened")
	return s, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Put stores a new wallet and returns its id. The address must not already
// be present.
func (s *Store) Put(ctx context.Context, rec WalletRecord) (uint, error) {
	if !rec.complete() {
		return 0, ErrIncompleteRecord
	}

	row := SQLiteWallet{
		Label:      rec.Label,
		Address:    rec.Address,
		Seed:       rec.Seed,
		PrivateKey: rec.PrivateKey,
		PublicKey:  rec.PublicKey,
		CreatedAt:  rec.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if s.passphrase != "" {
		if err := s.seal(&row); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, errors.Wrap(tx.Error, "begin transaction")
	}

	var count int64
	if err := tx.Model(&SQLiteWallet{}).Where("address = ?", row.Address).Count(&count).Error; err != nil {
		tx.Rollback()
		return 0, errors.Wrap(err, "check existing address")
	}
	if count > 0 {
		tx.Rollback()
		return 0, errors.Wrapf(ErrDuplicateAddress, "%s", row.Address)
	}

	if err := insert(tx, &row); err != nil {
		tx.Rollback()
		return 0, err
	}

	// Commit the transaction
	if err := tx.Commit().Error; err != nil {
		return 0, errors.Wrap(err, "commit wallet")
	}

	s.log.Info().Uint("id", row.ID).Str("address", row.Address).Msg("wallet stored")
	return row.ID, nil
}

// insert creates row. Another process sharing the file can store the same
// address between the count check and the insert; the unique index then
// catches it.
func insert(tx *gorm.DB, row *SQLiteWallet) error {
	err := tx.Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrapf(ErrDuplicateAddress, "%s", row.Address)
	}
	if err != nil {
		return errors.Wrap(err, "insert wallet")
	}
	return nil
}

// GetByID returns the wallet with the given id
func (s *Store) GetByID(ctx context.Context, id uint) (*WalletRecord, error) {
	return s.first(ctx, "id = ?", id)
}

// GetByAddress returns the wallet holding the given classic address
func (s *Store) GetByAddress(ctx context.Context, address string) (*WalletRecord, error) {
	return s.first(ctx, "address = ?", address)
}

func (s *Store) first(ctx context.Context, query string, arg interface{}) (*WalletRecord, error) {
	s.mu.RLock()
	var row SQLiteWallet
	err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error
	s.mu.RUnlock()

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "%v", arg)
	}
	if err != nil {
		return nil, errors.Wrap(err, "query wallet")
	}
	return s.toRecord(row)
}

// List returns every wallet in insertion order
func (s *Store) List(ctx context.Context) ([]WalletRecord, error) {
	s.mu.RLock()
	var rows []SQLiteWallet
	err := s.db.WithContext(ctx).Order("id").Find(&rows).Error
	s.mu.RUnlock()
	if err != nil {
		return nil, errors.Wrap(err, "list wallets")
	}

	records := make([]WalletRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := s.toRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// Count returns the number of stored wallets
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	if err := s.db.WithContext(ctx).Model(&SQLiteWallet{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "count wallets")
	}
	return count, nil
}

func (s *Store) seal(row *SQLiteWallet) error {
	seed, err := encrypt(row.Seed, s.passphrase)
	if err != nil {
		return errors.Wrap(err, "encrypt seed")
	}
	priv, err := encrypt(row.PrivateKey, s.passphrase)
	if err != nil {
		return errors.Wrap(err, "encrypt private key")
	}
	row.Seed, row.PrivateKey, row.Encrypted = seed, priv, true
	return nil
}

func (s *Store) toRecord(row SQLiteWallet) (*WalletRecord, error) {
	rec := &WalletRecord{
		ID:         row.ID,
		Label:      row.Label,
		Address:    row.Address,
		Seed:       row.Seed,
		PrivateKey: row.PrivateKey,
		PublicKey:  row.PublicKey,
		CreatedAt:  row.CreatedAt,
	}
	if !row.Encrypted {
		return rec, nil
	}

	if s.passphrase == "" {
		return nil, errors.Wrapf(ErrDecrypt, "wallet %d is encrypted and no passphrase is configured", row.ID)
	}
	seed, err := decrypt(row.Seed, s.passphrase)
	if err != nil {
		return nil, errors.Wrapf(ErrDecrypt, "wallet %d", row.ID)
	}
	priv, err := decrypt(row.PrivateKey, s.passphrase)
	if err != nil {
		return nil, errors.Wrapf(ErrDecrypt, "wallet %d", row.ID)
	}
	rec.Seed, rec.PrivateKey = seed, priv
	return rec, nil
}

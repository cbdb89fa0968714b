package walletstatedb

import (
	"time"
)

// SQLiteWallet is one custodied account. Rows are append-only.
type SQLiteWallet struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Label      string `gorm:"index"`
	Address    string `gorm:"uniqueIndex;not null"`
	Seed       string `gorm:"not null"`
	PrivateKey string `gorm:"not null"`
	PublicKey  string `gorm:"not null"`
	Encrypted  bool   // seed and private key hold a scrypt/AES-GCM envelope
	CreatedAt  time.Time
}

func (SQLiteWallet) TableName() string {
	return "xrpl_wallets"
}

// internal/models/ledger.go
package models

import "time"

// LedgerEntry is one row of the postgres-backed ledger contract. Rows are
// only ever inserted or have their status/timestamps advanced; they are
// never deleted. Timestamps are unix seconds, 0 meaning unset, mirroring the
// on-chain layout.
type LedgerEntry struct {
	ID                 uint64 `gorm:"primaryKey;autoIncrement"`
	BusinessName       string `gorm:"size:255;not null"`
	RegistrationNumber string `gorm:"size:32;not null;index"`
	Email              string `gorm:"size:255"`
	PremiseAddress     string `gorm:"type:text"`
	AuditDescription   string `gorm:"type:text"`
	BusinessType       string `gorm:"size:100"`
	BusinessSector     string `gorm:"size:100"`
	DocumentReference  string `gorm:"type:text"`
	ApplicantIdentity  string `gorm:"size:64;not null;index"`
	SubmittedAt        int64  `gorm:"not null;default:0"`
	IssuedAt           int64  `gorm:"not null;default:0"`
	ExpiresAt          int64  `gorm:"not null;default:0"`
	Status             string `gorm:"type:varchar(16);not null;default:'Pending';index"`
	LastTxHash         string `gorm:"size:66"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// LedgerTransaction is the write log of the ledger contract.
type LedgerTransaction struct {
	Hash      string    `gorm:"primaryKey;size:66"`
	Method    string    `gorm:"size:32;not null;index"`
	LicenseID uint64    `gorm:"not null;index"`
	Sender    string    `gorm:"size:64;not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}

// internal/ledger/postgres.go
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/licensechain/internal/database"
	"github.com/javajoker/licensechain/internal/models"
)

// Postgres keeps the license contract's state in an append-only table. It
// applies the same owner and status rules as the on-chain contract so the
// engine cannot tell the two apart.
type Postgres struct {
	db    *gorm.DB
	opts  Options
	nonce atomic.Uint64
}

func NewPostgres(db *gorm.DB, opts Options) *Postgres {
	opts.setDefaults()
	if opts.Address == "" {
		opts.Address = "postgres://ledger_entries"
	}
	return &Postgres{db: db, opts: opts}
}

func (p *Postgres) EnforcesUniqueness() bool {
	return p.opts.EnforceUniqueness
}

func (p *Postgres) ContractAddress() string {
	return p.opts.Address
}

// Count is the highest id issued so far. Ids come from a sequence, so a
// rolled-back submission leaves a gap that readers see as the zero sentinel;
// a row count would stop short of the records after the gap.
func (p *Postgres) Count(ctx context.Context) (uint64, error) {
	var n int64
	err := p.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Select("COALESCE(MAX(id), 0)").Scan(&n).Error
	if err != nil {
		return 0, p.wrap(ctx, err)
	}
	return uint64(n), nil
}

func (p *Postgres) Get(ctx context.Context, id uint64) (RawRecord, error) {
	if id == 0 {
		return zeroRecord(), nil
	}
	var e models.LedgerEntry
	err := p.db.WithContext(ctx).Where("id = ?", id).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zeroRecord(), nil
	}
	if err != nil {
		return nil, p.wrap(ctx, err)
	}
	return entryTuple(&e), nil
}

func (p *Postgres) Submit(ctx context.Context, sender string, args RawSubmission) (Tx, error) {
	fields, err := submissionStrings(args)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(sender) == "" {
		return nil, fmt.Errorf("%w: empty sender", ErrBadSubmission)
	}

	now := p.opts.Now()
	entry := models.LedgerEntry{
		BusinessName:       fields[0],
		RegistrationNumber: fields[1],
		Email:              fields[2],
		PremiseAddress:     fields[3],
		AuditDescription:   fields[4],
		BusinessType:       fields[5],
		BusinessSector:     fields[6],
		DocumentReference:  fields[7],
		ApplicantIdentity:  sender,
		SubmittedAt:        unixOrZero(now),
		Status:             statusPending,
	}

	var hash string
	err = database.WithTransaction(ctx, p.db, func(tx *gorm.DB) error {
		if p.opts.EnforceUniqueness {
			reg := models.NormalizeRegistrationNumber(fields[1])
			// Serializes submissions of the same registration number.
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", reg).Error; err != nil {
				return err
			}
			q := tx.Model(&models.LedgerEntry{}).Where("REPLACE(UPPER(TRIM(registration_number)), '_', '-') = ?", reg)
			if !p.opts.RetireRevoked {
				q = q.Where("status <> ?", statusRevoked)
			}
			var n int64
			if err := q.Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return ErrDuplicateRegistration
			}
		}

		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		hash = txHash(MethodSubmit, entry.ID, sender, p.nonce.Add(1), now)
		return p.logTx(tx, hash, MethodSubmit, entry.ID, sender, &entry)
	})
	if err != nil {
		return nil, p.wrap(ctx, err)
	}

	logrus.WithFields(logrus.Fields{
		"license_id": entry.ID,
		"tx_hash":    hash,
		"sender":     sender,
	}).Info("Ledger submission recorded")

	return &settledTx{receipt: Receipt{TxHash: hash, LicenseID: entry.ID, Method: MethodSubmit}}, nil
}

func (p *Postgres) Approve(ctx context.Context, sender string, id uint64) (Tx, error) {
	return p.transition(ctx, MethodApprove, sender, id, statusPending, statusApproved)
}

func (p *Postgres) Reject(ctx context.Context, sender string, id uint64) (Tx, error) {
	return p.transition(ctx, MethodReject, sender, id, statusPending, statusRejected)
}

func (p *Postgres) Revoke(ctx context.Context, sender string, id uint64) (Tx, error) {
	return p.transition(ctx, MethodRevoke, sender, id, statusApproved, statusRevoked)
}

func (p *Postgres) transition(ctx context.Context, method, sender string, id uint64, from, to string) (Tx, error) {
	if !sameIdentity(sender, p.opts.Administrator) {
		return nil, ErrNotAdministrator
	}

	now := p.opts.Now()
	var hash string
	err := database.WithTransaction(ctx, p.db, func(tx *gorm.DB) error {
		var e models.LedgerEntry
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&e).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownLicense
		}
		if err != nil {
			return err
		}
		if e.Status != from {
			return fmt.Errorf("%w: %s", ErrInvalidState, e.Status)
		}

		e.Status = to
		if to == statusApproved {
			e.IssuedAt = now.Unix()
			e.ExpiresAt = now.Add(p.opts.Validity).Unix()
		}
		hash = txHash(method, id, sender, p.nonce.Add(1), now)
		return p.logTx(tx, hash, method, id, sender, &e)
	})
	if err != nil {
		return nil, p.wrap(ctx, err)
	}

	logrus.WithFields(logrus.Fields{
		"license_id": id,
		"method":     method,
		"tx_hash":    hash,
	}).Info("Ledger transition recorded")

	return &settledTx{receipt: Receipt{TxHash: hash, LicenseID: id, Method: method}}, nil
}

func (p *Postgres) logTx(tx *gorm.DB, hash, method string, id uint64, sender string, e *models.LedgerEntry) error {
	e.LastTxHash = hash
	if err := tx.Save(e).Error; err != nil {
		return err
	}
	return tx.Create(&models.LedgerTransaction{
		Hash:      hash,
		Method:    method,
		LicenseID: id,
		Sender:    sender,
		CreatedAt: time.Now(),
	}).Error
}

// wrap keeps contract reverts and context errors as they are and marks the
// rest as availability failures.
func (p *Postgres) wrap(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrDuplicateRegistration),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrUnknownLicense),
		errors.Is(err, ErrNotAdministrator):
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func entryTuple(e *models.LedgerEntry) RawRecord {
	fields := [SubmissionArity]string{
		e.BusinessName,
		e.RegistrationNumber,
		e.Email,
		e.PremiseAddress,
		e.AuditDescription,
		e.BusinessType,
		e.BusinessSector,
		e.DocumentReference,
	}
	return recordTuple(e.ID, fields, e.ApplicantIdentity, e.SubmittedAt, e.IssuedAt, e.ExpiresAt, e.Status)
}

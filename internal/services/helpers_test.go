package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/javajoker/licensechain/internal/ledger"
	"github.com/javajoker/licensechain/internal/models"
)

const (
	adminAddr     = "0x52908400098527886E0F7030069857D2E4169EE7"
	applicantAddr = "0x8617E340B3D01FA5F11F306F4090FD50E238070D"
	otherAddr     = "0xde709f2102306220921060314715629080e2fb77"
)

type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func application(reg string) *ApplyLicenseRequest {
	return &ApplyLicenseRequest{
		BusinessName:       "Acme Foods",
		RegistrationNumber: reg,
		Email:              "ops@acme.test",
		BusinessType:       "Food Services",
		SubType:            "Cafe",
		DocumentReference:  "ipfs://bafy-doc",
		ApplicantDetails: models.ApplicantDetails{
			OwnerName:   "Asha Rao",
			Designation: models.DesignationProprietor,
			TaxID:       "abcde_1234f",
			Street:      "12 MG Road",
			City:        "Pune",
			State:       "MH",
		},
	}
}

// faultyGateway wraps a working ledger and injects failures on demand.
type faultyGateway struct {
	ledger.Gateway
	gets     atomic.Int64
	getErr   error
	record   ledger.RawRecord
	writeErr error
	waitErr  error
	enforce  bool
}

func (f *faultyGateway) Get(ctx context.Context, id uint64) (ledger.RawRecord, error) {
	f.gets.Add(1)
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.record != nil {
		return f.record, nil
	}
	return f.Gateway.Get(ctx, id)
}

func (f *faultyGateway) Submit(ctx context.Context, sender string, args ledger.RawSubmission) (ledger.Tx, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	return f.lose(f.Gateway.Submit(ctx, sender, args))
}

func (f *faultyGateway) Approve(ctx context.Context, sender string, id uint64) (ledger.Tx, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	return f.lose(f.Gateway.Approve(ctx, sender, id))
}

func (f *faultyGateway) EnforcesUniqueness() bool {
	return f.enforce || f.Gateway.EnforcesUniqueness()
}

func (f *faultyGateway) lose(tx ledger.Tx, err error) (ledger.Tx, error) {
	if err != nil || f.waitErr == nil {
		return tx, err
	}
	return lostTx{Tx: tx, err: f.waitErr}, nil
}

// lostTx is a write the ledger accepted whose confirmation never arrives.
type lostTx struct {
	ledger.Tx
	err error
}

func (t lostTx) Wait(context.Context) (*ledger.Receipt, error) {
	return nil, t.err
}

// gappedGateway reports some ids as never issued, the way a sequence-backed
// ledger does after a rolled-back submission.
type gappedGateway struct {
	ledger.Gateway
	holes map[uint64]bool
}

func (g *gappedGateway) Get(ctx context.Context, id uint64) (ledger.RawRecord, error) {
	if g.holes[id] {
		return g.Gateway.Get(ctx, 0)
	}
	return g.Gateway.Get(ctx, id)
}

// internal/ledger/instrumented.go
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/javajoker/licensechain/internal/metrics"
)

// Instrumented decorates a Gateway with per-call latency metrics.
type Instrumented struct {
	next    Gateway
	metrics *metrics.Metrics
}

func NewInstrumented(next Gateway, m *metrics.Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

func (g *Instrumented) observe(method string, start time.Time, err error) {
	g.metrics.ObserveLedgerCall(method, outcome(err), time.Since(start))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "reverted"
	}
}

func (g *Instrumented) Count(ctx context.Context) (uint64, error) {
	start := time.Now()
	n, err := g.next.Count(ctx)
	g.observe(MethodCount, start, err)
	return n, err
}

func (g *Instrumented) Get(ctx context.Context, id uint64) (RawRecord, error) {
	start := time.Now()
	rec, err := g.next.Get(ctx, id)
	g.observe(MethodGet, start, err)
	return rec, err
}

func (g *Instrumented) Submit(ctx context.Context, sender string, args RawSubmission) (Tx, error) {
	start := time.Now()
	tx, err := g.next.Submit(ctx, sender, args)
	g.observe(MethodSubmit, start, err)
	return tx, err
}

func (g *Instrumented) Approve(ctx context.Context, sender string, id uint64) (Tx, error) {
	start := time.Now()
	tx, err := g.next.Approve(ctx, sender, id)
	g.observe(MethodApprove, start, err)
	return tx, err
}

func (g *Instrumented) Reject(ctx context.Context, sender string, id uint64) (Tx, error) {
	start := time.Now()
	tx, err := g.next.Reject(ctx, sender, id)
	g.observe(MethodReject, start, err)
	return tx, err
}

func (g *Instrumented) Revoke(ctx context.Context, sender string, id uint64) (Tx, error) {
	start := time.Now()
	tx, err := g.next.Revoke(ctx, sender, id)
	g.observe(MethodRevoke, start, err)
	return tx, err
}

func (g *Instrumented) EnforcesUniqueness() bool {
	return g.next.EnforcesUniqueness()
}

func (g *Instrumented) ContractAddress() string {
	return g.next.ContractAddress()
}

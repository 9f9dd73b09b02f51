// internal/services/records.go
package services

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/javajoker/licensechain/internal/codec"
	"github.com/javajoker/licensechain/internal/ledger"
	"github.com/javajoker/licensechain/internal/models"
)

const defaultScanConcurrency = 8

// recordReader fetches and decodes records. It never caches: every call is a
// fresh round trip.
type recordReader struct {
	ledger      ledger.Gateway
	concurrency int
}

func (r recordReader) get(ctx context.Context, id uint64) (*models.LicenseRecord, error) {
	raw, err := r.ledger.Get(ctx, id)
	if err != nil {
		return nil, fromLedger(ledger.MethodGet, id, err)
	}
	return codec.Decode(raw)
}

func (r recordReader) count(ctx context.Context) (uint64, error) {
	n, err := r.ledger.Count(ctx)
	if err != nil {
		return 0, fromLedger(ledger.MethodCount, 0, err)
	}
	return n, nil
}

// all fetches every record concurrently and returns them newest first.
func (r recordReader) all(ctx context.Context) ([]*models.LicenseRecord, error) {
	n, err := r.count(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]*models.LicenseRecord, n)
	g, gctx := errgroup.WithContext(ctx)
	limit := r.concurrency
	if limit <= 0 {
		limit = defaultScanConcurrency
	}
	g.SetLimit(limit)

	for i := uint64(0); i < n; i++ {
		g.Go(func() error {
			rec, err := r.get(gctx, i+1)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*models.LicenseRecord, 0, len(records))
	for _, rec := range records {
		if rec.Exists() {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

package stock

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const defaultMaxParallel = 8

// Lookup fetches the authoritative stock of one product.
type Lookup interface {
	GetStock(ctx context.Context, productID string) (domain.StockSnapshot, error)
}

type Reconciler struct {
	lookup      Lookup
	maxParallel int
	log         *logger.Logger
	metrics     *metrics.Metrics
}

func NewReconciler(lookup Lookup, maxParallel int, log *logger.Logger, m *metrics.Metrics) *Reconciler {
	if maxParallel < 1 {
		maxParallel = defaultMaxParallel
	}
	return &Reconciler{
		lookup:      lookup,
		maxParallel: maxParallel,
		log:         log,
		metrics:     m,
	}
}

// Reconcile fetches fresh stock for every distinct product in lines. A failed
// lookup never fails the pass: its product is left out of the report and its
// lines count as not blocking.
func (r *Reconciler) Reconcile(ctx context.Context, lines []domain.CartLine) Report {
	cart := domain.Cart{Lines: lines}
	ids := cart.ProductIDs()

	var (
		mu        sync.Mutex
		snapshots = make(map[string]domain.StockSnapshot, len(ids))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxParallel)
	for _, id := range ids {
		g.Go(func() error {
			snap, err := r.lookup.GetStock(gctx, id)
			if err != nil {
				r.metrics.StockLookup("failed")
				r.log.Warn(r.log.WithField(gctx, "product_id", id), "stock lookup failed, treating as unknown", err)
				return nil
			}
			snap.ProductID = id
			r.metrics.StockLookup("ok")

			mu.Lock()
			snapshots[id] = snap
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report := Report{lines: cart.Lines, snapshots: snapshots}
	if report.HasBlockingItems() {
		r.log.Info(ctx, fmt.Sprintf("stock reconciliation found %d blocking line(s)", len(report.BlockingLines())))
	}
	return report
}

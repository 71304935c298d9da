package tracklib

import (
	"context"
	"log"
	"time"
)

// ExtractResult is a price observation parsed out of a product page.
type ExtractResult struct {
	Price    Price
	Currency string
	Title    string
	// Source identifies the extractor that produced the result.
	Source string
}

// Extractor resolves a fetched product page into an observed price.
// The daemon's JS extractor engine implements this; tests use inline stubs.
type Extractor interface {
	Extract(ctx context.Context, url string, body []byte) (ExtractResult, error)
}

// RefreshStats summarizes one refresh cycle.
type RefreshStats struct {
	Checked int
	Changed int
	Failed  int
}

// Refresher runs price checks: fetch the product page, extract the price,
// record it through the manager and advance the product's schedule.
type Refresher struct {
	m        *Manager
	fetcher  *Fetcher
	ex       Extractor
	l        *log.Logger
	handlers *RefreshHandlers
}

// NewRefresher builds a refresher. A nil handlers gets no-op defaults;
// errors are always logged through l.
func NewRefresher(m *Manager, fetcher *Fetcher, ex Extractor, l *log.Logger, handlers *RefreshHandlers) *Refresher {
	if fetcher == nil {
		fetcher = NewFetcher(nil, nil)
	}
	if handlers == nil {
		handlers = &RefreshHandlers{}
	}
	handlers.setDefault(l)
	return &Refresher{
		m:        m,
		fetcher:  fetcher,
		ex:       ex,
		l:        l,
		handlers: handlers,
	}
}

// RefreshProduct checks a single product now. A product already being
// refreshed is skipped without error. The returned flag reports whether
// the observed price differs from the previous one.
func (r *Refresher) RefreshProduct(ctx context.Context, hash string) (changed bool, err error) {
	p := r.m.GetProduct(hash)
	if p == nil {
		return false, ErrProductNotFound
	}
	if p.IsRefreshing() {
		return false, nil
	}
	p.setRefreshing(true)
	defer p.setRefreshing(false)

	r.handlers.RefreshStartHandler(hash)

	res, err := r.fetcher.FetchPage(ctx, p.Url, p.Headers)
	if err != nil {
		r.handlers.ErrorHandler(hash, err)
		return false, err
	}
	ext, err := r.ex.Extract(ctx, p.Url, res.Body)
	if err != nil {
		r.handlers.ErrorHandler(hash, err)
		return false, err
	}
	if ext.Price.IsZero() {
		r.handlers.ErrorHandler(hash, ErrPriceMissing)
		return false, ErrPriceMissing
	}

	old := p.CurrentPrice
	now := time.Now()
	fired, err := r.m.RecordPrice(hash, ext.Price, ext.Currency, ext.Source, now)
	if err != nil {
		r.handlers.ErrorHandler(hash, err)
		return false, err
	}

	changed = old != ext.Price
	if changed {
		r.handlers.PriceUpdatedHandler(hash, old, ext.Price, ext.Currency)
	} else {
		r.handlers.PriceUnchangedHandler(hash, ext.Price)
	}
	if fired {
		r.handlers.AlertHandler(hash, old, ext.Price, ext.Currency)
	}

	// Interval schedules advance here; cron schedules are re-armed by
	// the scheduler loop and reconciled at startup.
	if p.CronExpr == "" && p.CheckEvery > 0 {
		if rerr := r.m.Reschedule(hash, now.Add(p.CheckEvery)); rerr != nil {
			r.handlers.ErrorHandler(hash, rerr)
		}
	}
	return changed, nil
}

// RefreshAll checks every due product sequentially, oldest first. With
// force set, all unpaused products are checked regardless of schedule.
// The cycle stops early when ctx is cancelled.
func (r *Refresher) RefreshAll(ctx context.Context, force bool) RefreshStats {
	var products []*Product
	if force {
		products = r.m.GetActiveProducts()
	} else {
		products = r.m.GetDueProducts(time.Now())
	}
	SortProducts(products)

	var stats RefreshStats
	for _, p := range products {
		if ctx.Err() != nil {
			break
		}
		changed, err := r.RefreshProduct(ctx, p.Hash)
		stats.Checked++
		if err != nil {
			stats.Failed++
			continue
		}
		if changed {
			stats.Changed++
		}
	}
	r.handlers.CycleCompleteHandler(stats.Checked, stats.Changed, stats.Failed)
	return stats
}

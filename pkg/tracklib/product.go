// Package tracklib provides core structures and utilities for managing
// tracked products and their price history in the tagwatch application.
package tracklib

import (
	"sync"
	"time"
)

// MaxHistoryPoints caps the per-product price history ring.
// Older points are dropped once the cap is reached.
const MaxHistoryPoints = 500

// CheckState describes where a product sits in the refresh schedule.
type CheckState string

const (
	// CheckStateNone marks products without a schedule (manual refresh only).
	CheckStateNone CheckState = ""
	// CheckStateScheduled marks products with a pending scheduled check.
	CheckStateScheduled CheckState = "scheduled"
	// CheckStateMissed marks products whose scheduled check passed while
	// the daemon was not running.
	CheckStateMissed CheckState = "missed"
)

// PricePoint is a single observed price.
type PricePoint struct {
	// Price is the observed price in minor currency units.
	Price Price `json:"price"`
	// At is the time the price was observed.
	At time.Time `json:"at"`
	// Source identifies the origin of the observation:
	// an extractor id, a feed name, or "fetch".
	Source string `json:"source,omitempty"`
}

// AlertRule is a user-set price alert. Either field may be zero;
// a zero rule never fires.
type AlertRule struct {
	// TargetPrice fires when the price drops to or below this value.
	TargetPrice Price `json:"target_price,omitempty"`
	// DropPercent fires when a single observation drops the price by
	// at least this percentage.
	DropPercent float64 `json:"drop_percent,omitempty"`
	// CreatedAt is the time the rule was set.
	CreatedAt time.Time `json:"created_at"`
	// LastFired is the time the rule last fired, zero if never.
	LastFired time.Time `json:"last_fired,omitempty"`
}

// Matches reports whether a price movement from old to new should fire
// the alert. Target alerts fire only on the crossing observation, so a
// price that stays under the target does not re-fire on every check.
func (r *AlertRule) Matches(old, new Price) bool {
	if r == nil || new.IsZero() {
		return false
	}
	if !r.TargetPrice.IsZero() && new <= r.TargetPrice {
		if old.IsZero() || old > r.TargetPrice {
			return true
		}
	}
	if r.DropPercent > 0 && !old.IsZero() && new < old {
		drop := float64(old-new) / float64(old) * 100
		if drop >= r.DropPercent {
			return true
		}
	}
	return false
}

// Product represents a tracked product with its metadata, price history
// and check schedule.
type Product struct {
	// Hash is the unique identifier of the product.
	Hash string `json:"hash"`
	// Title is the display name of the product.
	Title string `json:"title"`
	// Url is the product page url.
	Url string `json:"url"`
	// Currency is the ISO currency code of observed prices.
	Currency string `json:"currency,omitempty"`
	// Headers used for refresh fetches of this product.
	Headers Headers `json:"headers,omitempty"`
	// DateAdded is the time the product was first tracked.
	DateAdded time.Time `json:"date_added"`
	// LastChecked is the time of the most recent successful price check.
	LastChecked time.Time `json:"last_checked,omitempty"`
	// CurrentPrice is the most recently observed price.
	CurrentPrice Price `json:"current_price,omitempty"`
	// PreviousPrice is the price observed before CurrentPrice.
	PreviousPrice Price `json:"previous_price,omitempty"`
	// History is the capped ring of observed prices, oldest first.
	History []PricePoint `json:"history,omitempty"`
	// Alert is the product's alert rule, nil when unset.
	Alert *AlertRule `json:"alert,omitempty"`
	// CheckEvery is the fixed interval between scheduled checks.
	// Zero means no interval schedule.
	CheckEvery time.Duration `json:"check_every,omitempty"`
	// CronExpr is the cron expression for recurring checks.
	// Empty string means interval-only scheduling.
	CronExpr string `json:"cron_expr,omitempty"`
	// NextCheckAt is the wall-clock time of the next scheduled check.
	NextCheckAt time.Time `json:"next_check_at,omitempty"`
	// CheckState tracks the product's position in the refresh schedule.
	CheckState CheckState `json:"check_state,omitempty"`
	// Paused excludes the product from scheduled checks without
	// discarding its history.
	Paused bool `json:"paused,omitempty"`

	// mu is the manager's mutex, shared so map-level and field-level
	// access serialize together.
	mu *sync.RWMutex
	// refreshMu protects refreshing (value type for GOB serialization).
	refreshMu sync.Mutex
	// refreshing marks an in-flight price fetch for this product.
	refreshing bool
}

// ProductsMap is a map of tracked products indexed by product hash.
type ProductsMap map[string]*Product

type productOpts struct {
	Currency   string
	Headers    Headers
	CheckEvery time.Duration
	CronExpr   string
	Alert      *AlertRule
}

func newProduct(mu *sync.RWMutex, title, url, hash string, opts *productOpts) *Product {
	if opts == nil {
		opts = &productOpts{}
	}
	p := &Product{
		Hash:       hash,
		Title:      title,
		Url:        url,
		Currency:   opts.Currency,
		Headers:    opts.Headers,
		DateAdded:  time.Now(),
		CheckEvery: opts.CheckEvery,
		CronExpr:   opts.CronExpr,
		Alert:      opts.Alert,
		mu:         mu,
	}
	return p
}

// recordPoint appends an observation and rolls Current/PreviousPrice.
// Caller must hold the manager write lock.
func (p *Product) recordPoint(pt PricePoint) {
	if pt.Price != p.CurrentPrice {
		p.PreviousPrice = p.CurrentPrice
	}
	p.CurrentPrice = pt.Price
	p.LastChecked = pt.At
	p.History = append(p.History, pt)
	if len(p.History) > MaxHistoryPoints {
		p.History = p.History[len(p.History)-MaxHistoryPoints:]
	}
}

// setRefreshing marks or clears the in-flight fetch flag.
func (p *Product) setRefreshing(v bool) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()
	p.refreshing = v
}

// IsRefreshing returns true if a price fetch for the product is in flight.
func (p *Product) IsRefreshing() bool {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()
	return p.refreshing
}

// PointsSince returns history points observed at or after since,
// newest last, capped at limit when limit > 0.
func (p *Product) PointsSince(since time.Time, limit int) []PricePoint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var pts []PricePoint
	for _, pt := range p.History {
		if !since.IsZero() && pt.At.Before(since) {
			continue
		}
		pts = append(pts, pt)
	}
	if limit > 0 && len(pts) > limit {
		pts = pts[len(pts)-limit:]
	}
	return pts
}

// Drop returns the difference between the previous and current price.
// Positive values mean the price went down.
func (p *Product) Drop() Price {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.PreviousPrice.IsZero() || p.CurrentPrice.IsZero() {
		return 0
	}
	return p.PreviousPrice - p.CurrentPrice
}

// IsDue reports whether a scheduled check is due at now.
func (p *Product) IsDue(now time.Time) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.Paused || p.NextCheckAt.IsZero() {
		return false
	}
	return !p.NextCheckAt.After(now)
}

package tracklib

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// EventKind classifies product state changes published to subscribers.
type EventKind string

const (
	EventTracked      EventKind = "tracked"
	EventUntracked    EventKind = "untracked"
	EventPriceChanged EventKind = "price_changed"
	EventAlertFired   EventKind = "alert_fired"
)

// ProductEvent is a state-change notification. Events are delivered to
// every subscriber in dispatch order, at least once.
type ProductEvent struct {
	Kind     EventKind
	Hash     string
	Title    string
	Url      string
	OldPrice Price
	NewPrice Price
	Currency string
	At       time.Time
}

// Manager owns the set of tracked products and their durable state.
// All product mutations flow through it so every change is persisted
// and published before the mutating call returns.
type Manager struct {
	// products is the map of tracked products
	products ProductsMap
	f        *os.File
	mu       *sync.RWMutex

	// dispatchMu serializes publishes so subscribers observe events
	// in dispatch order.
	dispatchMu sync.Mutex
	subs       VMap[int, chan ProductEvent]
	nextSub    int
	subIdMu    sync.Mutex
}

// InitManager creates a new manager instance, loading the persisted
// product state. A missing, empty or corrupt state file starts fresh.
func InitManager() (m *Manager, err error) {
	m = &Manager{
		products: make(ProductsMap),
		mu:       new(sync.RWMutex),
		subs:     NewVMap[int, chan ProductEvent](),
	}
	m.f, err = os.OpenFile(
		__PRODUCTS_FILE_NAME,
		os.O_RDWR|os.O_CREATE,
		0644,
	)
	if err != nil {
		m = nil
		return
	}
	// Attempt to decode existing data. If file is empty or corrupt,
	// start fresh with an empty products map.
	if decErr := gob.NewDecoder(m.f).Decode(&m.products); decErr != nil {
		if decErr != io.EOF {
			log.Printf("tracklib: warning: failed to decode products file, starting fresh: %v", decErr)
		}
		m.products = make(ProductsMap)
	}
	m.populateRuntime()
	return
}

// populateRuntime restores unexported fields gob does not carry.
func (m *Manager) populateRuntime() {
	for _, p := range m.products {
		p.mu = m.mu
	}
}

// TrackOpts contains optional parameters for Track.
type TrackOpts struct {
	Title      string
	Currency   string
	Headers    Headers
	CheckEvery time.Duration
	CronExpr   string
	// NextCheckAt overrides the computed first check time. Used for
	// cron schedules where the caller derives the first occurrence.
	NextCheckAt time.Time
	Alert       *AlertRule
}

// Track adds a new tracked product for the given url. The url is
// normalized before duplicate detection; tracking an already-tracked url
// returns the existing product together with ErrProductExists.
func (m *Manager) Track(rawUrl string, opts *TrackOpts) (*Product, error) {
	if opts == nil {
		opts = &TrackOpts{}
	}
	nurl, err := NormalizeURL(rawUrl)
	if err != nil {
		return nil, err
	}
	if existing := m.GetProductByUrl(nurl); existing != nil {
		return existing, ErrProductExists
	}
	title := opts.Title
	if title == "" {
		title = TitleFromURL(nurl)
	}
	p := newProduct(m.mu, title, nurl, newHash(), &productOpts{
		Currency:   opts.Currency,
		Headers:    opts.Headers,
		CheckEvery: opts.CheckEvery,
		CronExpr:   opts.CronExpr,
		Alert:      opts.Alert,
	})
	switch {
	case !opts.NextCheckAt.IsZero():
		p.NextCheckAt = opts.NextCheckAt
		p.CheckState = CheckStateScheduled
	case opts.CheckEvery > 0:
		p.NextCheckAt = time.Now().Add(opts.CheckEvery)
		p.CheckState = CheckStateScheduled
	}
	if err := m.UpdateProduct(p); err != nil {
		return nil, err
	}
	m.publish(ProductEvent{
		Kind:  EventTracked,
		Hash:  p.Hash,
		Title: p.Title,
		Url:   p.Url,
		At:    p.DateAdded,
	})
	return p, nil
}

// persistProducts writes products to disk using a buffer-first approach.
// Caller must hold the write lock. Does NOT call Sync() - caller decides
// if durability is needed.
func (m *Manager) persistProducts() error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m.products); err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	if err := m.f.Truncate(0); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	if _, err := m.f.Seek(0, 0); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	if _, err := m.f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// encode persists products to disk. Called on every product mutation,
// so it does not Sync() for performance reasons.
func (m *Manager) encode() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persistProducts()
}

func (m *Manager) mapProduct(p *Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.Hash] = p
}

// UpdateProduct stores the product in the map and persists the state.
func (m *Manager) UpdateProduct(p *Product) error {
	m.mapProduct(p)
	return m.encode()
}

// GetProducts returns all tracked products.
func (m *Manager) GetProducts() []*Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	products := make([]*Product, len(m.products))
	var i int
	for _, p := range m.products {
		products[i] = p
		i++
	}
	return products
}

// GetActiveProducts returns all products not paused.
func (m *Manager) GetActiveProducts() []*Product {
	var products = []*Product{}
	for _, p := range m.GetProducts() {
		if p.Paused {
			continue
		}
		products = append(products, p)
	}
	return products
}

// GetDueProducts returns active products whose scheduled check time has
// arrived at now.
func (m *Manager) GetDueProducts(now time.Time) []*Product {
	var products = []*Product{}
	for _, p := range m.GetProducts() {
		if !p.IsDue(now) {
			continue
		}
		products = append(products, p)
	}
	return products
}

// GetProduct returns the product with the given hash, nil if not tracked.
func (m *Manager) GetProduct(hash string) (p *Product) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p = m.products[hash]
	if p == nil {
		return
	}
	if p.mu == nil {
		p.mu = m.mu
	}
	return
}

// GetProductByUrl returns the product tracking the given normalized url,
// nil if none.
func (m *Manager) GetProductByUrl(nurl string) *Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.products {
		if p.Url == nurl {
			return p
		}
	}
	return nil
}

// ProductCount returns the number of tracked products.
func (m *Manager) ProductCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products)
}

// AlertCount returns the number of products with an alert rule set.
func (m *Manager) AlertCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int
	for _, p := range m.products {
		if p.Alert != nil {
			n++
		}
	}
	return n
}

// RecordPrice appends a price observation to the product, advances the
// current/previous prices, evaluates the alert rule and persists. The
// returned flag reports whether the alert rule fired on this observation.
func (m *Manager) RecordPrice(hash string, price Price, currency, source string, at time.Time) (fired bool, err error) {
	m.mu.Lock()
	p, found := m.products[hash]
	if !found {
		m.mu.Unlock()
		return false, ErrProductNotFound
	}
	old := p.CurrentPrice
	p.recordPoint(PricePoint{Price: price, At: at, Source: source})
	if currency != "" && p.Currency == "" {
		p.Currency = currency
	}
	fired = p.Alert.Matches(old, price)
	if fired {
		p.Alert.LastFired = at
	}
	ev := ProductEvent{
		Hash:     p.Hash,
		Title:    p.Title,
		Url:      p.Url,
		OldPrice: old,
		NewPrice: price,
		Currency: p.Currency,
		At:       at,
	}
	if err = m.persistProducts(); err != nil {
		m.mu.Unlock()
		return false, err
	}
	m.mu.Unlock()

	if old != price {
		ev.Kind = EventPriceChanged
		m.publish(ev)
	}
	if fired {
		ev.Kind = EventAlertFired
		m.publish(ev)
	}
	return fired, nil
}

// Reschedule sets the product's next scheduled check and persists.
func (m *Manager) Reschedule(hash string, next time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, found := m.products[hash]
	if !found {
		return ErrProductNotFound
	}
	p.NextCheckAt = next
	if next.IsZero() {
		p.CheckState = CheckStateNone
	} else {
		p.CheckState = CheckStateScheduled
	}
	return m.persistProducts()
}

// SetSchedule updates the product's check interval and cron expression.
// next is the precomputed first trigger; zero clears the schedule.
func (m *Manager) SetSchedule(hash string, every time.Duration, cronExpr string, next time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, found := m.products[hash]
	if !found {
		return ErrProductNotFound
	}
	p.CheckEvery = every
	p.CronExpr = cronExpr
	p.NextCheckAt = next
	if next.IsZero() {
		p.CheckState = CheckStateNone
	} else {
		p.CheckState = CheckStateScheduled
	}
	return m.persistProducts()
}

// SetAlert installs an alert rule on the product.
func (m *Manager) SetAlert(hash string, rule *AlertRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, found := m.products[hash]
	if !found {
		return ErrProductNotFound
	}
	if rule != nil && rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now()
	}
	p.Alert = rule
	return m.persistProducts()
}

// ClearAlert removes the product's alert rule.
func (m *Manager) ClearAlert(hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, found := m.products[hash]
	if !found {
		return ErrProductNotFound
	}
	if p.Alert == nil {
		return ErrAlertNotSet
	}
	p.Alert = nil
	return m.persistProducts()
}

// SetPaused pauses or resumes scheduled checks for the product.
func (m *Manager) SetPaused(hash string, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, found := m.products[hash]
	if !found {
		return ErrProductNotFound
	}
	p.Paused = paused
	return m.persistProducts()
}

// Untrack removes the product with the given hash. The write lock is held
// for the whole operation so a concurrent refresh cannot observe a
// half-removed product.
func (m *Manager) Untrack(hash string) error {
	m.mu.Lock()

	p, found := m.products[hash]
	if !found {
		m.mu.Unlock()
		return ErrProductNotFound
	}
	if p.IsRefreshing() {
		m.mu.Unlock()
		return ErrUntrackRefreshing
	}

	delete(m.products, hash)

	if err := m.persistProducts(); err != nil {
		// Restore on error
		m.products[hash] = p
		m.mu.Unlock()
		return fmt.Errorf("untrack persist: %w", err)
	}

	if err := m.f.Sync(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("untrack sync: %w", err)
	}
	m.mu.Unlock()

	m.publish(ProductEvent{
		Kind:  EventUntracked,
		Hash:  p.Hash,
		Title: p.Title,
		Url:   p.Url,
		At:    time.Now(),
	})
	return nil
}

// Subscribe registers a product-event observer and returns its id and
// receive channel. Delivery is blocking once the buffer fills, so events
// are never dropped; slow consumers stall publishers instead.
func (m *Manager) Subscribe(buffer int) (int, <-chan ProductEvent) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan ProductEvent, buffer)
	m.subIdMu.Lock()
	m.nextSub++
	id := m.nextSub
	m.subIdMu.Unlock()
	m.subs.Set(id, ch)
	return id, ch
}

// Unsubscribe removes the observer and closes its channel. It waits for
// any in-flight dispatch so no send can race the close.
func (m *Manager) Unsubscribe(id int) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	ch := m.subs.Get(id)
	if ch == nil {
		return
	}
	m.subs.Delete(id)
	close(ch)
}

// publish delivers the event to every subscriber. Must not be called
// with m.mu held: a subscriber draining its channel may call back into
// the manager.
func (m *Manager) publish(ev ProductEvent) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	m.subs.Range(func(_ int, ch chan ProductEvent) bool {
		ch <- ev
		return true
	})
}

// Close closes the manager safely, ensuring all data is persisted.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.persistProducts(); err != nil {
		// Log but don't fail - still need to close file
		log.Printf("tracklib: warning: failed to persist on close: %v", err)
	}
	if err := m.f.Sync(); err != nil {
		log.Printf("tracklib: warning: failed to sync on close: %v", err)
	}
	return m.f.Close()
}

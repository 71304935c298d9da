package server

import (
	"context"
	"log"
	"sync"

	"github.com/creachadair/jrpc2"

	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// RPCNotifier maintains a set of connected jrpc2 WebSocket servers
// and broadcasts push notifications to all of them.
type RPCNotifier struct {
	mu      sync.RWMutex
	servers map[*jrpc2.Server]struct{}
	log     *log.Logger
}

// NewRPCNotifier creates a new notifier.
func NewRPCNotifier(l *log.Logger) *RPCNotifier {
	return &RPCNotifier{
		servers: make(map[*jrpc2.Server]struct{}),
		log:     l,
	}
}

// Register adds a server to the broadcast set.
func (n *RPCNotifier) Register(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.servers[srv] = struct{}{}
}

// Unregister removes a server from the broadcast set.
func (n *RPCNotifier) Unregister(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.servers, srv)
}

// Broadcast sends a push notification to all registered servers.
// Servers that fail to receive (e.g., disconnected) are unregistered.
func (n *RPCNotifier) Broadcast(method string, params any) {
	n.mu.RLock()
	servers := make([]*jrpc2.Server, 0, len(n.servers))
	for srv := range n.servers {
		servers = append(servers, srv)
	}
	n.mu.RUnlock()

	var failed []*jrpc2.Server
	for _, srv := range servers {
		if err := srv.Notify(context.Background(), method, params); err != nil {
			if n.log != nil {
				n.log.Printf("RPC push failed: %v", err)
			}
			failed = append(failed, srv)
		}
	}

	if len(failed) > 0 {
		n.mu.Lock()
		for _, srv := range failed {
			delete(n.servers, srv)
		}
		n.mu.Unlock()
	}
}

// Count returns the number of registered servers (for testing).
func (n *RPCNotifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.servers)
}

// Notification param types for refresh and alert events.

// RefreshStartedNotification is sent when a product's price check begins.
type RefreshStartedNotification struct {
	ProductId string `json:"productId"`
}

// PriceChangedNotification is sent when a check observes a new price.
type PriceChangedNotification struct {
	ProductId string         `json:"productId"`
	OldPrice  tracklib.Price `json:"oldPrice"`
	NewPrice  tracklib.Price `json:"newPrice"`
	Currency  string         `json:"currency,omitempty"`
}

// AlertFiredNotification is sent when a product's alert rule matches.
type AlertFiredNotification struct {
	ProductId string         `json:"productId"`
	OldPrice  tracklib.Price `json:"oldPrice"`
	NewPrice  tracklib.Price `json:"newPrice"`
	Currency  string         `json:"currency,omitempty"`
	// Badge mirrors the configured alert badge background color so
	// clients can render the alert the way the extension did.
	Badge string `json:"badge,omitempty"`
}

// RefreshErrorNotification is sent when a price check fails.
type RefreshErrorNotification struct {
	ProductId string `json:"productId"`
	Error     string `json:"error"`
}

// CycleCompleteNotification is sent once per finished refresh cycle.
type CycleCompleteNotification struct {
	Checked int `json:"checked"`
	Changed int `json:"changed"`
	Failed  int `json:"failed"`
}

// ProductNotification is sent when a product is tracked or untracked.
type ProductNotification struct {
	ProductId string `json:"productId"`
	Title     string `json:"title,omitempty"`
	Url       string `json:"url,omitempty"`
}

// RetireNoticeNotification is sent when the daemon enters a retirement
// stage that clients should surface to the user.
type RetireNoticeNotification struct {
	Stage string `json:"stage"`
	Url   string `json:"url,omitempty"`
}

// Notification method names pushed over the WebSocket RPC channel.
const (
	NotifyRefreshStarted   = "notify.refreshStarted"
	NotifyPriceChanged     = "notify.priceChanged"
	NotifyAlertFired       = "notify.alertFired"
	NotifyRefreshError     = "notify.refreshError"
	NotifyCycleComplete    = "notify.cycleComplete"
	NotifyRetireNotice     = "notify.retireNotice"
	NotifyProductTracked   = "notify.productTracked"
	NotifyProductUntracked = "notify.productUntracked"
)

package api

import (
	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/server"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// ForwardEvents drains manager product events and pushes each one to
// subscribed socket clients and, when a notifier is given, to WebSocket
// RPC clients. The manager publishes on every recorded price no matter
// what triggered it, so feed imports and scheduled checks reach clients
// through the same path as client-requested refreshes. onAlert, when
// set, is called with the product hash for every fired alert. Returns
// once events is closed.
func ForwardEvents(events <-chan tracklib.ProductEvent, pool *server.Pool, notifier *server.RPCNotifier, badge string, onAlert func(hash string)) {
	broadcast := func(uid string, resp *common.RefreshingResponse) {
		b := server.MakeResult(common.UPDATE_REFRESHING, resp)
		pool.Broadcast(uid, b)
		pool.Broadcast(server.PoolAllProducts, b)
	}
	for ev := range events {
		switch ev.Kind {
		case tracklib.EventPriceChanged:
			broadcast(ev.Hash, &common.RefreshingResponse{
				ProductId: ev.Hash,
				Action:    common.PriceUpdated,
				Price:     ev.NewPrice,
				OldPrice:  ev.OldPrice,
				Currency:  ev.Currency,
			})
			if notifier != nil {
				notifier.Broadcast(server.NotifyPriceChanged, &server.PriceChangedNotification{
					ProductId: ev.Hash,
					OldPrice:  ev.OldPrice,
					NewPrice:  ev.NewPrice,
					Currency:  ev.Currency,
				})
			}
		case tracklib.EventAlertFired:
			broadcast(ev.Hash, &common.RefreshingResponse{
				ProductId: ev.Hash,
				Action:    common.AlertFired,
				Price:     ev.NewPrice,
				OldPrice:  ev.OldPrice,
				Currency:  ev.Currency,
			})
			if notifier != nil {
				notifier.Broadcast(server.NotifyAlertFired, &server.AlertFiredNotification{
					ProductId: ev.Hash,
					OldPrice:  ev.OldPrice,
					NewPrice:  ev.NewPrice,
					Currency:  ev.Currency,
					Badge:     badge,
				})
			}
			if onAlert != nil {
				onAlert(ev.Hash)
			}
		case tracklib.EventTracked:
			if notifier != nil {
				notifier.Broadcast(server.NotifyProductTracked, &server.ProductNotification{
					ProductId: ev.Hash,
					Title:     ev.Title,
					Url:       ev.Url,
				})
			}
		case tracklib.EventUntracked:
			if notifier != nil {
				notifier.Broadcast(server.NotifyProductUntracked, &server.ProductNotification{
					ProductId: ev.Hash,
					Title:     ev.Title,
					Url:       ev.Url,
				})
			}
		}
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/server"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// StreamHandlers builds the refresh lifecycle callbacks that push
// updates to subscribed socket clients and, when a notifier is given,
// to WebSocket RPC clients. Price-changed and alert-fired pushes are
// not wired here: those ride the manager's event stream through
// ForwardEvents, which covers feed imports too, so no observation is
// announced twice.
func StreamHandlers(pool *server.Pool, notifier *server.RPCNotifier) *tracklib.RefreshHandlers {
	broadcast := func(uid string, resp *common.RefreshingResponse) {
		b := server.MakeResult(common.UPDATE_REFRESHING, resp)
		pool.Broadcast(uid, b)
		pool.Broadcast(server.PoolAllProducts, b)
	}
	return &tracklib.RefreshHandlers{
		RefreshStartHandler: func(hash string) {
			broadcast(hash, &common.RefreshingResponse{
				ProductId: hash,
				Action:    common.RefreshStart,
			})
			if notifier != nil {
				notifier.Broadcast(server.NotifyRefreshStarted, &server.RefreshStartedNotification{
					ProductId: hash,
				})
			}
		},
		PriceUnchangedHandler: func(hash string, price tracklib.Price) {
			broadcast(hash, &common.RefreshingResponse{
				ProductId: hash,
				Action:    common.PriceUnchanged,
				Price:     price,
			})
		},
		ErrorHandler: func(hash string, err error) {
			broadcast(hash, &common.RefreshingResponse{
				ProductId: hash,
				Action:    common.PriceError,
				Error:     err.Error(),
			})
			pool.WriteError(hash, server.ErrorTypeWarning, err.Error())
			if notifier != nil {
				notifier.Broadcast(server.NotifyRefreshError, &server.RefreshErrorNotification{
					ProductId: hash,
					Error:     err.Error(),
				})
			}
		},
		CycleCompleteHandler: func(checked, changed, failed int) {
			pool.Broadcast(server.PoolAllProducts, server.MakeResult(common.UPDATE_REFRESHING, &common.RefreshingResponse{
				Action: common.RefreshComplete,
			}))
			if notifier != nil {
				notifier.Broadcast(server.NotifyCycleComplete, &server.CycleCompleteNotification{
					Checked: checked,
					Changed: changed,
					Failed:  failed,
				})
			}
		},
	}
}

func (s *Api) refreshHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.RefreshParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_REFRESH, nil, err
	}
	if s.refresher == nil {
		return common.UPDATE_REFRESH, nil, errors.New("refresher not available")
	}

	if m.ProductId != "" {
		p := s.manager.GetProduct(m.ProductId)
		if p == nil {
			return common.UPDATE_REFRESH, nil, errors.New("product not found")
		}
		pool.AddConnection(p.Hash, sconn)
		go s.refresher.RefreshProduct(context.Background(), p.Hash)
		return common.UPDATE_REFRESH, &common.RefreshResponse{Queued: 1}, nil
	}

	pool.AddConnection(server.PoolAllProducts, sconn)
	var queued int
	if m.Force {
		queued = len(s.manager.GetActiveProducts())
	} else {
		queued = len(s.manager.GetDueProducts(time.Now()))
	}
	go s.refresher.RefreshAll(context.Background(), m.Force)
	return common.UPDATE_REFRESH, &common.RefreshResponse{Queued: queued}, nil
}

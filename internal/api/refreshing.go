package api

import (
	"encoding/json"
	"errors"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/server"
)

// refreshingHandler subscribes the caller to a product's refresh stream
// without triggering a check. Browser clients attach here after reconnecting.
func (s *Api) refreshingHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.InputProductId
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_REFRESHING, nil, err
	}
	if m.ProductId == "" {
		return common.UPDATE_REFRESHING, nil, errors.New("product_id is required")
	}
	if m.ProductId == server.PoolAllProducts {
		pool.AddConnection(server.PoolAllProducts, sconn)
		return common.UPDATE_REFRESHING, nil, nil
	}
	p := s.manager.GetProduct(m.ProductId)
	if p == nil {
		return common.UPDATE_REFRESHING, nil, errors.New("product not found")
	}
	pool.AddConnection(p.Hash, sconn)
	return common.UPDATE_REFRESHING, trackResponse(p), nil
}

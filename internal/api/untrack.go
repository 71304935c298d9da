package api

import (
	"encoding/json"
	"errors"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/server"
)

func (s *Api) untrackHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.UntrackParams
	var err error
	if err = json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_UNTRACK, nil, err
	}
	if m.ProductId == "" {
		return common.UPDATE_UNTRACK, nil, errors.New("product_id is required")
	}
	if err = s.manager.Untrack(m.ProductId); err != nil {
		return common.UPDATE_UNTRACK, nil, err
	}
	if s.scheduler != nil {
		s.scheduler.Remove(m.ProductId)
	}
	pool.RemoveProduct(m.ProductId)
	return common.UPDATE_UNTRACK, nil, nil
}

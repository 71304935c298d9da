package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/server"
)

func (s *Api) historyHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.HistoryParams
	var err error
	if err = json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_HISTORY, nil, err
	}
	if m.ProductId == "" {
		return common.UPDATE_HISTORY, nil, errors.New("product_id is required")
	}
	p := s.manager.GetProduct(m.ProductId)
	if p == nil {
		return common.UPDATE_HISTORY, nil, errors.New("product not found")
	}
	var since time.Time
	if m.Since > 0 {
		since = time.Unix(m.Since, 0)
	}
	return common.UPDATE_HISTORY, &common.HistoryResponse{
		ProductId: p.Hash,
		Points:    p.PointsSince(since, m.Limit),
	}, nil
}

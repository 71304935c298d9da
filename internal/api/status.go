package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/server"
)

// statusHandler reports daemon health. The daemon wires in a status
// source that folds in the retirement stage read from the checkpoint
// store; without one the counts come straight from the manager.
func (s *Api) statusHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	if s.status != nil {
		full, err := s.status(context.Background())
		if err != nil {
			return common.UPDATE_STATUS, nil, err
		}
		return common.UPDATE_STATUS, full, nil
	}
	return common.UPDATE_STATUS, &common.StatusResponse{
		Version:  s.version,
		Uptime:   int64(time.Since(s.started).Seconds()),
		Products: s.manager.ProductCount(),
		Alerts:   s.manager.AlertCount(),
	}, nil
}

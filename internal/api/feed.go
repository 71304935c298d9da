package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/server"
)

// syncFeedHandler pulls the configured merchant price feeds and applies
// matching rows to tracked products. With a name set only that feed runs.
func (s *Api) syncFeedHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.SyncFeedParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_SYNC_FEED, nil, err
	}
	if s.syncer == nil {
		return common.UPDATE_SYNC_FEED, nil, errors.New("no feeds configured")
	}
	sum, err := s.syncer.Sync(context.Background(), m.Name)
	if err != nil {
		return common.UPDATE_SYNC_FEED, nil, err
	}
	return common.UPDATE_SYNC_FEED, &common.SyncFeedResponse{
		Feeds:   sum.Feeds,
		Matched: sum.Matched,
		Updated: sum.Updated,
	}, nil
}

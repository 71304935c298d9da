package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/scheduler"
	"github.com/tagwatch/tagwatch/internal/server"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

func (s *Api) trackHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.TrackParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_TRACK, nil, err
	}
	if m.Url == "" {
		return common.UPDATE_TRACK, nil, errors.New("url is required")
	}

	opts := &tracklib.TrackOpts{
		Title:      m.Title,
		Currency:   m.Currency,
		Headers:    m.Headers,
		CheckEvery: time.Duration(m.CheckEvery) * time.Second,
		CronExpr:   m.CronExpr,
	}
	if m.TargetPrice > 0 || m.DropPercent > 0 {
		opts.Alert = &tracklib.AlertRule{
			TargetPrice: m.TargetPrice,
			DropPercent: m.DropPercent,
		}
	}
	// Cron schedules carry their first occurrence so the stored next
	// check survives a restart without re-deriving it.
	if m.CronExpr != "" {
		next, err := gronx.NextTickAfter(m.CronExpr, time.Now(), false)
		if err != nil {
			return common.UPDATE_TRACK, nil, fmt.Errorf("invalid cron expression: %w", err)
		}
		opts.NextCheckAt = next
	}

	p, err := s.manager.Track(m.Url, opts)
	if err == tracklib.ErrProductExists {
		pool.AddConnection(p.Hash, sconn)
		return common.UPDATE_TRACK, trackResponse(p), nil
	}
	if err != nil {
		return common.UPDATE_TRACK, nil, err
	}

	pool.AddProduct(p.Hash, sconn)
	if s.scheduler != nil && !p.NextCheckAt.IsZero() {
		s.scheduler.Add(scheduler.CheckEvent{
			ProductHash: p.Hash,
			TriggerAt:   p.NextCheckAt,
			CronExpr:    p.CronExpr,
		})
	}
	// First price observation runs detached; the caller gets the result
	// as a refreshing update through the pool.
	if s.refresher != nil {
		go s.refresher.RefreshProduct(context.Background(), p.Hash)
	}
	return common.UPDATE_TRACK, trackResponse(p), nil
}

func trackResponse(p *tracklib.Product) *common.TrackResponse {
	return &common.TrackResponse{
		ProductId: p.Hash,
		Title:     p.Title,
		Url:       p.Url,
		Price:     p.CurrentPrice,
		Currency:  p.Currency,
	}
}

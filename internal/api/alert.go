package api

import (
	"encoding/json"
	"errors"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/server"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

func (s *Api) setAlertHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.SetAlertParams
	var err error
	if err = json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_SET_ALERT, nil, err
	}
	if m.ProductId == "" {
		return common.UPDATE_SET_ALERT, nil, errors.New("product_id is required")
	}
	if m.TargetPrice <= 0 && m.DropPercent <= 0 {
		return common.UPDATE_SET_ALERT, nil, errors.New("alert needs a target price or drop percent")
	}
	rule := &tracklib.AlertRule{
		TargetPrice: m.TargetPrice,
		DropPercent: m.DropPercent,
	}
	if err = s.manager.SetAlert(m.ProductId, rule); err != nil {
		return common.UPDATE_SET_ALERT, nil, err
	}
	return common.UPDATE_SET_ALERT, &common.AlertResponse{
		ProductId: m.ProductId,
		Rule:      rule,
	}, nil
}

func (s *Api) clearAlertHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.ClearAlertParams
	var err error
	if err = json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_CLEAR_ALERT, nil, err
	}
	if m.ProductId == "" {
		return common.UPDATE_CLEAR_ALERT, nil, errors.New("product_id is required")
	}
	if err = s.manager.ClearAlert(m.ProductId); err != nil {
		return common.UPDATE_CLEAR_ALERT, nil, err
	}
	return common.UPDATE_CLEAR_ALERT, &common.AlertResponse{
		ProductId: m.ProductId,
	}, nil
}

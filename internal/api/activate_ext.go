package api

import (
	"encoding/json"
	"errors"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/server"
)

func (s *Api) activateExtHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.InputExtractorId
	var err error
	if err = json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_ACTIVATE_EXT, nil, err
	}
	if m.ExtractorId == "" {
		return common.UPDATE_ACTIVATE_EXT, nil, errors.New("extractor id is required")
	}
	mod, err := s.engine.ActivateModule(m.ExtractorId)
	if err != nil {
		return common.UPDATE_ACTIVATE_EXT, nil, err
	}
	return common.UPDATE_ACTIVATE_EXT, extractorInfo(mod), nil
}

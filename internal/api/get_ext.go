package api

import (
	"encoding/json"
	"errors"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/server"
)

func (s *Api) getExtHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.InputExtractorId
	var err error
	if err = json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_GET_EXT, nil, err
	}
	if m.ExtractorId == "" {
		return common.UPDATE_GET_EXT, nil, errors.New("extractor id is required")
	}
	mod := s.engine.GetModule(m.ExtractorId)
	if mod == nil {
		return common.UPDATE_GET_EXT, nil, errors.New("extractor not found")
	}
	return common.UPDATE_GET_EXT, extractorInfo(mod), nil
}

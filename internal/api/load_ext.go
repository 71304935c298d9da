package api

import (
	"encoding/json"
	"errors"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/server"
)

func (s *Api) loadExtHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.LoadExtractorParams
	var err error
	if err = json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_LOAD_EXT, nil, err
	}
	if m.Path == "" {
		return common.UPDATE_LOAD_EXT, nil, errors.New("extractor path is required")
	}
	mod, err := s.engine.AddModule(m.Path)
	if err != nil {
		return common.UPDATE_LOAD_EXT, nil, err
	}
	return common.UPDATE_LOAD_EXT, extractorInfo(mod), nil
}

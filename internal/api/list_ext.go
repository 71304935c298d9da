package api

import (
	"encoding/json"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/extract"
	"github.com/tagwatch/tagwatch/internal/server"
)

func (s *Api) listExtHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.ListExtractorsParams
	var err error
	if err = json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_LIST_EXT, nil, err
	}
	mods := s.engine.ListModules(!m.All)
	infos := make([]*common.ExtractorInfo, 0, len(mods))
	for _, mod := range mods {
		infos = append(infos, extractorInfo(mod))
	}
	return common.UPDATE_LIST_EXT, infos, nil
}

func extractorInfo(mod *extract.Module) *common.ExtractorInfo {
	return &common.ExtractorInfo{
		ExtractorId: mod.ModuleId,
		Name:        mod.Name,
		Version:     mod.Version,
		Description: mod.Description,
		Matches:     mod.Matches,
		Active:      mod.Activated,
	}
}

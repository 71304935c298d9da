package api

import (
	"encoding/json"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/server"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

func (s *Api) listHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.ListParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_LIST, nil, err
	}
	var products []*tracklib.Product
	switch {
	case m.ShowAll:
		products = s.manager.GetProducts()
	case m.ShowPaused:
		for _, p := range s.manager.GetProducts() {
			if p.Paused {
				products = append(products, p)
			}
		}
	default:
		products = s.manager.GetActiveProducts()
	}
	tracklib.SortProducts(products)
	return common.UPDATE_LIST, &common.ListResponse{
		Products: products,
	}, nil
}

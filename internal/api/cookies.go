package api

import (
	"encoding/json"
	"errors"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/cookies"
	"github.com/tagwatch/tagwatch/internal/server"
)

// importCookiesHandler pulls retailer session cookies out of a browser
// store into the vault so member-only prices show up on refresh.
func (s *Api) importCookiesHandler(sconn *server.SyncConn, pool *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.ImportCookiesParams
	var err error
	if err = json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_IMPORT_COOKIES, nil, err
	}
	if s.vault == nil {
		return common.UPDATE_IMPORT_COOKIES, nil, errors.New("cookie vault not available")
	}
	if len(m.Domains) == 0 {
		return common.UPDATE_IMPORT_COOKIES, nil, errors.New("at least one domain is required")
	}
	sourcePath := m.Browser
	if sourcePath == "" {
		sourcePath = cookies.AutoDetect
	}
	var imported int
	for _, domain := range m.Domains {
		n, source, err := cookies.ImportForDomain(s.vault, sourcePath, domain)
		if err != nil {
			return common.UPDATE_IMPORT_COOKIES, nil, err
		}
		s.log.Printf("Imported %d cookies for %s from %s\n", n, domain, source.Browser)
		imported += n
	}
	return common.UPDATE_IMPORT_COOKIES, &common.ImportCookiesResponse{
		Imported: imported,
	}, nil
}

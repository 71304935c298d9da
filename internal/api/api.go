package api

import (
	"log"
	"time"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/cookies"
	"github.com/tagwatch/tagwatch/internal/extract"
	"github.com/tagwatch/tagwatch/internal/feeds"
	"github.com/tagwatch/tagwatch/internal/scheduler"
	"github.com/tagwatch/tagwatch/internal/server"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

type Api struct {
	log       *log.Logger
	manager   *tracklib.Manager
	refresher *tracklib.Refresher
	engine    *extract.Engine
	scheduler *scheduler.Scheduler
	syncer    *feeds.Syncer
	vault     cookies.Vault
	status    server.StatusFunc
	version   string
	commit    string
	buildType string
	started   time.Time
}

// Opts carries the optional collaborators and build metadata the daemon
// wires in. A nil field disables the handlers that depend on it.
type Opts struct {
	Scheduler *scheduler.Scheduler
	Syncer    *feeds.Syncer
	Vault     cookies.Vault
	Status    server.StatusFunc
	Version   string
	Commit    string
	BuildType string
}

func NewApi(l *log.Logger, m *tracklib.Manager, refresher *tracklib.Refresher, engine *extract.Engine, opts *Opts) (*Api, error) {
	if opts == nil {
		opts = &Opts{}
	}
	return &Api{
		log:       l,
		manager:   m,
		refresher: refresher,
		engine:    engine,
		scheduler: opts.Scheduler,
		syncer:    opts.Syncer,
		vault:     opts.Vault,
		status:    opts.Status,
		version:   opts.Version,
		commit:    opts.Commit,
		buildType: opts.BuildType,
		started:   time.Now(),
	}, nil
}

func (s *Api) RegisterHandlers(server *server.Server) {
	// price tracking API methods
	server.RegisterHandler(common.UPDATE_TRACK, s.trackHandler)
	server.RegisterHandler(common.UPDATE_UNTRACK, s.untrackHandler)
	server.RegisterHandler(common.UPDATE_LIST, s.listHandler)
	server.RegisterHandler(common.UPDATE_HISTORY, s.historyHandler)
	server.RegisterHandler(common.UPDATE_REFRESH, s.refreshHandler)
	server.RegisterHandler(common.UPDATE_REFRESHING, s.refreshingHandler)
	server.RegisterHandler(common.UPDATE_SET_ALERT, s.setAlertHandler)
	server.RegisterHandler(common.UPDATE_CLEAR_ALERT, s.clearAlertHandler)

	// daemon API methods
	server.RegisterHandler(common.UPDATE_STATUS, s.statusHandler)
	server.RegisterHandler(common.UPDATE_VERSION, s.versionHandler)
	server.RegisterHandler(common.UPDATE_IMPORT_COOKIES, s.importCookiesHandler)
	server.RegisterHandler(common.UPDATE_SYNC_FEED, s.syncFeedHandler)

	// extractor API methods
	server.RegisterHandler(common.UPDATE_LOAD_EXT, s.loadExtHandler)
	server.RegisterHandler(common.UPDATE_UNLOAD_EXT, s.unloadExtHandler)
	server.RegisterHandler(common.UPDATE_GET_EXT, s.getExtHandler)
	server.RegisterHandler(common.UPDATE_LIST_EXT, s.listExtHandler)
	server.RegisterHandler(common.UPDATE_ACTIVATE_EXT, s.activateExtHandler)
	server.RegisterHandler(common.UPDATE_DEACTIVATE_EXT, s.deactivateExtHandler)
}

func (s *Api) Close() error {
	return s.manager.Close()
}

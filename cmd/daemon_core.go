package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	stdlog "log"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/browser"
	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/api"
	"github.com/tagwatch/tagwatch/internal/config"
	"github.com/tagwatch/tagwatch/internal/daemon"
	"github.com/tagwatch/tagwatch/internal/extract"
	"github.com/tagwatch/tagwatch/internal/feeds"
	"github.com/tagwatch/tagwatch/internal/nativehost"
	"github.com/tagwatch/tagwatch/internal/retire"
	"github.com/tagwatch/tagwatch/internal/scheduler"
	"github.com/tagwatch/tagwatch/internal/server"
	"github.com/tagwatch/tagwatch/internal/store"
	"github.com/tagwatch/tagwatch/pkg/credman"
	"github.com/tagwatch/tagwatch/pkg/credman/keyring"
	"github.com/tagwatch/tagwatch/pkg/logger"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

const storeFileName = "tagwatch.db"

// DaemonComponents holds all initialized daemon components. This allows
// for unified initialization and cleanup across the foreground daemon
// command and the bare daemon binary.
type DaemonComponents struct {
	Store         *store.Store
	CookieManager *credman.CookieManager
	ExtEngine     *extract.Engine
	Manager       *tracklib.Manager
	Refresher     *tracklib.Refresher
	Scheduler     *scheduler.Scheduler
	Syncer        *feeds.Syncer
	Api           *api.Api
	Server        *server.Server
	Sequence      *daemon.Sequence

	// missed holds products whose scheduled check fell while the daemon
	// was down. Filled by the LoadState hook, drained by the Refresh hook.
	missed []*tracklib.Product

	// eventSub is the manager subscription feeding the product-event
	// forwarder. Zero until the RegisterListeners hook runs.
	eventSub int

	wg        *sync.WaitGroup
	logger    logger.Logger
	stdLogger *stdlog.Logger
}

// Close releases all daemon component resources in reverse order of
// initialization, after waiting for any detached refresh work to finish.
func (c *DaemonComponents) Close() {
	if c.stdLogger != nil {
		c.stdLogger.Println("Shutting down daemon...")
	}
	if c.wg != nil {
		c.wg.Wait()
	}

	// Stop the product-event forwarder before the manager goes away.
	if c.Manager != nil && c.eventSub != 0 {
		c.Manager.Unsubscribe(c.eventSub)
	}

	// Close API (closes manager, flushes product state)
	if c.Api != nil {
		_ = c.Api.Close()
	} else if c.Manager != nil {
		_ = c.Manager.Close()
	}

	if c.ExtEngine != nil {
		_ = c.ExtEngine.Close()
	}

	if c.CookieManager != nil {
		_ = c.CookieManager.Close()
	}

	if c.Store != nil {
		_ = c.Store.Close()
	}

	if c.stdLogger != nil {
		c.stdLogger.Println("Daemon stopped")
	}
}

// initDaemonComponents initializes all daemon components with the provided
// logger and config. The stop callback requests daemon shutdown; the
// retirement uninstaller invokes it once teardown is done.
//
// On error, any partially initialized components are cleaned up before
// returning.
var initDaemonComponents = func(log logger.Logger, cfg *config.Config, stop func()) (*DaemonComponents, error) {
	stdLog := stdlog.Default()

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = tracklib.DataDir
	}

	st, err := store.Open(filepath.Join(dataDir, storeFileName))
	if err != nil {
		log.Error("Checkpoint store initialization failed: %v", err)
		return nil, err
	}

	cm, err := getCookieManagerWithLogger(log)
	if err != nil {
		st.Close()
		return nil, err
	}

	eng, err := extract.NewEngine(stdLog, cm, false)
	if err != nil {
		log.Error("Extractor engine initialization failed: %v", err)
		cm.Close()
		st.Close()
		return nil, err
	}

	// HTTP client with a cookie jar for fetching product pages
	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Error("Cookie jar creation failed: %v", err)
		eng.Close()
		cm.Close()
		st.Close()
		return nil, err
	}
	fetcher := tracklib.NewFetcher(&http.Client{Jar: jar}, nil)

	m, err := tracklib.InitManager()
	if err != nil {
		log.Error("Tracklib manager initialization failed: %v", err)
		eng.Close()
		cm.Close()
		st.Close()
		return nil, err
	}

	retireSched := retire.NewScheduler(st, cfg.InitialNotice(), cfg.FinalNotice(), nil, stdLog)
	started := time.Now()
	statusFn := func(ctx context.Context) (*common.StatusResponse, error) {
		rs, err := retireSched.Status(ctx)
		if err != nil {
			return nil, err
		}
		return &common.StatusResponse{
			Version:           currentBuildArgs.Version,
			Uptime:            int64(time.Since(started).Seconds()),
			Products:          m.ProductCount(),
			Alerts:            m.AlertCount(),
			RetireStage:       string(rs.Stage),
			InitialNoticeDate: rs.InitialNoticeDate,
			FinalNoticeDate:   rs.FinalNoticeDate,
			BadgeBackground:   cfg.BadgeAlertBackground,
		}, nil
	}

	rpcCfg := &server.RPCConfig{
		Secret:    os.Getenv(common.RPCSecretEnv),
		ListenAll: os.Getenv(common.RPCListenAllEnv) != "",
		Version:   currentBuildArgs.Version,
		Commit:    currentBuildArgs.Commit,
		BuildType: currentBuildArgs.BuildType,
		Status:    statusFn,
	}

	// The refresh handlers stream through the server's connection pool,
	// which doesn't exist until the server does; the ConfigureResources
	// hook fills the shared handlers value in before anything refreshes.
	handlers := &tracklib.RefreshHandlers{}
	ref := tracklib.NewRefresher(m, fetcher, eng, stdLog, handlers)
	serv := server.NewServer(stdLog, m, cfg.Port, ref, eng, rpcCfg)

	comps := &DaemonComponents{
		Store:         st,
		CookieManager: cm,
		ExtEngine:     eng,
		Manager:       m,
		Refresher:     ref,
		Server:        serv,
		wg:            &sync.WaitGroup{},
		logger:        log,
		stdLogger:     stdLog,
	}

	// The scheduler fires checks on its own goroutine; each one refreshes
	// detached and, for interval products, pushes the advanced schedule
	// back into the heap. Cron products re-arm inside the scheduler.
	comps.Scheduler = scheduler.New(context.Background(), func(hash string) {
		tracklib.SafeGo(stdLog, nil, "scheduled-refresh", nil, func() {
			_, _ = ref.RefreshProduct(context.Background(), hash)
			p := m.GetProduct(hash)
			if p == nil || p.Paused || p.CronExpr != "" || p.NextCheckAt.IsZero() {
				return
			}
			comps.Scheduler.Add(scheduler.CheckEvent{
				ProductHash: hash,
				TriggerAt:   p.NextCheckAt,
			})
		})
	})

	comps.Syncer = feeds.NewSyncer(m, log, cfg.Feeds, feeds.VaultCredentials{Vault: cm})

	apiSrv, err := api.NewApi(stdLog, m, ref, eng, &api.Opts{
		Scheduler: comps.Scheduler,
		Syncer:    comps.Syncer,
		Vault:     cm,
		Status:    statusFn,
		Version:   currentBuildArgs.Version,
		Commit:    currentBuildArgs.Commit,
		BuildType: currentBuildArgs.BuildType,
	})
	if err != nil {
		log.Error("API initialization failed: %v", err)
		comps.Close()
		return nil, err
	}
	comps.Api = apiSrv

	comps.Sequence = &daemon.Sequence{
		Version:        currentBuildArgs.Version,
		WelcomePageUrl: cfg.WelcomePageUrl,
		RetirePageUrl:  cfg.RetirePageUrl,
		Store:          st,
		Retire:         retireSched,
		Uninstall: (&retire.Uninstaller{
			DataDir:         dataDir,
			RemoveManifests: removeHostManifests,
			StopDaemon:      stop,
			Log:             stdLog,
		}).Uninstall,
		OpenPage: browser.OpenURL,
		Hooks: daemon.Hooks{
			RegisterListeners: func(ctx context.Context) error {
				apiSrv.RegisterHandlers(serv)
				// Bridge the manager's event stream to connected clients.
				// Feed imports record prices without a refresh cycle, so
				// their alerts reach clients only through this path.
				subID, events := m.Subscribe(0)
				comps.eventSub = subID
				tracklib.SafeGo(stdLog, nil, "product-events", nil, func() {
					api.ForwardEvents(events, serv.Pool(), serv.Notifier(), cfg.BadgeAlertBackground, func(hash string) {
						if err := st.RecordEvent(context.Background(), store.EventAlertFired, hash); err != nil {
							stdLog.Printf("daemon: record alert event: %v", err)
						}
					})
				})
				return nil
			},
			ConfigureResources: func(ctx context.Context) error {
				*handlers = *api.StreamHandlers(serv.Pool(), serv.Notifier())
				return nil
			},
			LoadState: func(ctx context.Context) error {
				pm := make(tracklib.ProductsMap)
				for _, p := range m.GetProducts() {
					pm[p.Hash] = p
				}
				missed, future := scheduler.LoadSchedules(pm, time.Now())
				for _, ev := range future {
					comps.Scheduler.Add(ev)
				}
				comps.missed = missed
				return nil
			},
			Migrate: st.Migrate,
			Refresh: func(ctx context.Context) error {
				for _, p := range comps.missed {
					if _, err := ref.RefreshProduct(ctx, p.Hash); err != nil {
						stdLog.Printf("daemon: missed check for %s: %v", p.Hash, err)
					}
				}
				stats := ref.RefreshAll(ctx, false)
				stdLog.Printf("daemon: startup refresh: %d checked, %d changed, %d failed",
					stats.Checked, stats.Changed, stats.Failed)
				detail := fmt.Sprintf("checked=%d changed=%d failed=%d",
					stats.Checked, stats.Changed, stats.Failed)
				if err := st.RecordEvent(ctx, store.EventRefreshCycle, detail); err != nil {
					stdLog.Printf("daemon: record refresh event: %v", err)
				}
				return nil
			},
		},
		Log: stdLog,
		WG:  comps.wg,
	}

	return comps, nil
}

// removeHostManifests sweeps every native messaging host manifest the
// current user has installed, for all supported browsers.
func removeHostManifests() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	var firstErr error
	for _, path := range nativehost.InstalledManifestPaths(home) {
		if err := nativehost.UninstallManifest(path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// getCookieManagerWithLogger initializes the cookie vault. The master key
// comes from the environment when set (headless systems), otherwise from
// the OS keyring, generating a fresh key on first run.
func getCookieManagerWithLogger(log logger.Logger) (*credman.CookieManager, error) {
	cookieFile := filepath.Join(tracklib.ConfigDir, "cookies.vault")

	if keyHex := os.Getenv(common.MasterKeyEnv); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			log.Error("Invalid master key hex: %v", err)
			return nil, err
		}
		cm, err := credman.NewCookieManager(cookieFile, key)
		if err != nil {
			log.Error("Cookie vault initialization failed: %v", err)
			return nil, err
		}
		return cm, nil
	}

	kr := keyring.NewKeyring()
	key, err := kr.GetKey()
	if err != nil {
		key, err = kr.SetKey()
		if err != nil {
			log.Error("Keyring initialization failed: %v", err)
			return nil, err
		}
	}

	cm, err := credman.NewCookieManager(cookieFile, key)
	if err != nil {
		log.Error("Cookie vault initialization failed: %v", err)
		return nil, err
	}
	return cm, nil
}

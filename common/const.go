package common

import "time"

// TCPHost is the loopback host used for the TCP fallback transport.
const TCPHost = "127.0.0.1"

// DefaultTCPPort is the port the daemon listens on when falling back to TCP.
const DefaultTCPPort = 8249

// MaxMessageSize caps a single framed message on every transport.
// Browser native messaging enforces 1MB; the daemon socket uses the
// same limit so a corrupt length prefix cannot trigger a huge allocation.
const MaxMessageSize = 1 << 20

// DefaultDialTimeout bounds client connection attempts to the daemon.
const DefaultDialTimeout = 5 * time.Second

type UpdateType string

const (
	UPDATE_TRACK          UpdateType = "track"
	UPDATE_UNTRACK        UpdateType = "untrack"
	UPDATE_LIST           UpdateType = "list"
	UPDATE_HISTORY        UpdateType = "history"
	UPDATE_REFRESH        UpdateType = "refresh"
	UPDATE_REFRESHING     UpdateType = "refreshing"
	UPDATE_SET_ALERT      UpdateType = "set_alert"
	UPDATE_CLEAR_ALERT    UpdateType = "clear_alert"
	UPDATE_STATUS         UpdateType = "status"
	UPDATE_VERSION        UpdateType = "version"
	UPDATE_IMPORT_COOKIES UpdateType = "import_cookies"
	UPDATE_SYNC_FEED      UpdateType = "sync_feed"
	UPDATE_LOAD_EXT       UpdateType = "load_extractor"
	UPDATE_ACTIVATE_EXT   UpdateType = "activate_extractor"
	UPDATE_DEACTIVATE_EXT UpdateType = "deactivate_extractor"
	UPDATE_UNLOAD_EXT     UpdateType = "unload_extractor"
	UPDATE_GET_EXT        UpdateType = "get_extractor"
	UPDATE_LIST_EXT       UpdateType = "list_extractors"
)

type RefreshAction string

const (
	RefreshStart    RefreshAction = "refresh_start"
	PriceUpdated    RefreshAction = "price_updated"
	PriceUnchanged  RefreshAction = "price_unchanged"
	PriceError      RefreshAction = "price_error"
	AlertFired      RefreshAction = "alert_fired"
	RefreshComplete RefreshAction = "refresh_complete"
	RefreshStopped  RefreshAction = "refresh_stopped"
)

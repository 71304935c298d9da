package common

import "github.com/tagwatch/tagwatch/pkg/tracklib"

type InputProductId struct {
	ProductId string `json:"product_id"`
}

type TrackParams struct {
	Url         string           `json:"url"`
	Title       string           `json:"title,omitempty"`
	Currency    string           `json:"currency,omitempty"`
	Headers     tracklib.Headers `json:"headers,omitempty"`
	CheckEvery  int64            `json:"check_every,omitempty"`
	CronExpr    string           `json:"cron_expr,omitempty"`
	TargetPrice tracklib.Price   `json:"target_price,omitempty"`
	DropPercent float64          `json:"drop_percent,omitempty"`
}

type TrackResponse struct {
	ProductId string         `json:"product_id"`
	Title     string         `json:"title"`
	Url       string         `json:"url"`
	Price     tracklib.Price `json:"price,omitempty"`
	Currency  string         `json:"currency,omitempty"`
}

type UntrackParams struct {
	ProductId string `json:"product_id"`
}

type ListParams struct {
	ShowPaused bool `json:"show_paused"`
	ShowAll    bool `json:"show_all"`
}

type ListResponse struct {
	Products []*tracklib.Product `json:"products"`
}

type HistoryParams struct {
	ProductId string `json:"product_id"`
	Since     int64  `json:"since,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type HistoryResponse struct {
	ProductId string               `json:"product_id"`
	Points    []tracklib.PricePoint `json:"points"`
}

type RefreshParams struct {
	ProductId string `json:"product_id,omitempty"`
	Force     bool   `json:"force,omitempty"`
}

type RefreshResponse struct {
	Queued int `json:"queued"`
}

// RefreshingResponse is streamed to subscribed clients while a refresh
// cycle runs. Action is one of the RefreshAction constants.
type RefreshingResponse struct {
	ProductId string         `json:"product_id"`
	Action    RefreshAction  `json:"action"`
	Price     tracklib.Price `json:"price,omitempty"`
	OldPrice  tracklib.Price `json:"old_price,omitempty"`
	Currency  string         `json:"currency,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type SetAlertParams struct {
	ProductId   string         `json:"product_id"`
	TargetPrice tracklib.Price `json:"target_price,omitempty"`
	DropPercent float64        `json:"drop_percent,omitempty"`
}

type ClearAlertParams struct {
	ProductId string `json:"product_id"`
}

type AlertResponse struct {
	ProductId string              `json:"product_id"`
	Rule      *tracklib.AlertRule `json:"rule,omitempty"`
}

type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildType string `json:"build_type"`
}

// StatusResponse reports daemon health plus the retirement stage derived
// from the persisted notice checkpoints. Checkpoint dates are unix seconds,
// zero when unset.
type StatusResponse struct {
	Version           string `json:"version"`
	Uptime            int64  `json:"uptime"`
	Products          int    `json:"products"`
	Alerts            int    `json:"alerts"`
	RetireStage       string `json:"retire_stage"`
	InitialNoticeDate int64  `json:"initial_notice_date,omitempty"`
	FinalNoticeDate   int64  `json:"final_notice_date,omitempty"`
	BadgeBackground   string `json:"badge_background,omitempty"`
}

type ImportCookiesParams struct {
	Browser string   `json:"browser,omitempty"`
	Domains []string `json:"domains,omitempty"`
}

type ImportCookiesResponse struct {
	Imported int `json:"imported"`
}

type SyncFeedParams struct {
	Name string `json:"name,omitempty"`
}

type SyncFeedResponse struct {
	Feeds   int `json:"feeds"`
	Matched int `json:"matched"`
	Updated int `json:"updated"`
}

type LoadExtractorParams struct {
	Path string `json:"path"`
}

type ListExtractorsParams struct {
	All bool `json:"all"`
}

type InputExtractorId struct {
	ExtractorId string `json:"extractor_id"`
}

type ExtractorInfo struct {
	ExtractorId string   `json:"extractor_id"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Matches     []string `json:"matches,omitempty"`
	Active      bool     `json:"active,omitempty"`
}

package server

import (
	"context"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/extract"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// Custom JSON-RPC error codes for price tracking operations.
const (
	codeProductNotFound = jrpc2.Code(-32001)
	codeRefreshFailed   = jrpc2.Code(-32002)
	codeInvalidParams   = jrpc2.Code(-32602)
	codeInternal        = jrpc2.Code(-32603)
)

// StatusFunc supplies the full system.status payload. The daemon wires
// one in that folds in the retirement stage read from the checkpoint
// store; without it status falls back to manager counts only.
type StatusFunc func(ctx context.Context) (*common.StatusResponse, error)

// RPCConfig holds configuration for the JSON-RPC endpoint.
type RPCConfig struct {
	Secret    string     // Auth token (required -- empty means RPC disabled)
	ListenAll bool       // If true, bind to 0.0.0.0 instead of 127.0.0.1
	Version   string     // Daemon version
	Commit    string     // Git commit
	BuildType string     // Build type
	Status    StatusFunc // Optional provider for system.status
}

// RPCServer manages the JSON-RPC 2.0 bridge and method handlers.
type RPCServer struct {
	bridge    jhttp.Bridge
	methods   handler.Map
	secret    string
	version   string
	commit    string
	buildType string
	manager   *tracklib.Manager
	refresher *tracklib.Refresher
	engine    *extract.Engine
	pool      *Pool
	status    StatusFunc
	started   time.Time
}

// VersionResult is the response for system.getVersion.
type VersionResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"buildType,omitempty"`
}

// StatusResult is the response for system.status.
type StatusResult struct {
	Version           string `json:"version"`
	Uptime            int64  `json:"uptime"`
	Products          int    `json:"products"`
	Alerts            int    `json:"alerts"`
	RetireStage       string `json:"retireStage,omitempty"`
	InitialNoticeDate int64  `json:"initialNoticeDate,omitempty"`
	FinalNoticeDate   int64  `json:"finalNoticeDate,omitempty"`
	BadgeBackground   string `json:"badgeBackground,omitempty"`
}

// TrackParams is the input for price.track.
type TrackParams struct {
	URL         string           `json:"url"`
	Title       string           `json:"title,omitempty"`
	Currency    string           `json:"currency,omitempty"`
	Headers     tracklib.Headers `json:"headers,omitempty"`
	CheckEvery  int64            `json:"checkEvery,omitempty"` // seconds
	CronExpr    string           `json:"cronExpr,omitempty"`
	TargetPrice float64          `json:"targetPrice,omitempty"`
	DropPercent float64          `json:"dropPercent,omitempty"`
}

// TrackResult is the response for price.track.
type TrackResult struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	URL       string `json:"url"`
}

// ProductParam is a common input with just a product id.
type ProductParam struct {
	ProductID string `json:"productId"`
}

// ListParams is the input for price.list.
type ListParams struct {
	All bool `json:"all,omitempty"` // include paused products
}

// ListItem is a single entry in the price.list response.
type ListItem struct {
	ProductID    string  `json:"productId"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	CurrentPrice float64 `json:"currentPrice,omitempty"`
	Currency     string  `json:"currency,omitempty"`
	Paused       bool    `json:"paused,omitempty"`
	HasAlert     bool    `json:"hasAlert,omitempty"`
	LastChecked  int64   `json:"lastChecked,omitempty"`
	NextCheckAt  int64   `json:"nextCheckAt,omitempty"`
}

// ListResult is the response for price.list.
type ListResult struct {
	Products []*ListItem `json:"products"`
}

// HistoryParams is the input for price.history.
type HistoryParams struct {
	ProductID string `json:"productId"`
	Since     int64  `json:"since,omitempty"` // unix seconds
	Limit     int    `json:"limit,omitempty"`
}

// HistoryPoint is one observed price in a price.history response.
type HistoryPoint struct {
	Price  float64 `json:"price"`
	At     int64   `json:"at"`
	Source string  `json:"source,omitempty"`
}

// HistoryResult is the response for price.history.
type HistoryResult struct {
	ProductID string         `json:"productId"`
	Points    []HistoryPoint `json:"points"`
}

// RefreshParams is the input for price.refresh. Without a product id
// the whole due set is refreshed in the background.
type RefreshParams struct {
	ProductID string `json:"productId,omitempty"`
	Force     bool   `json:"force,omitempty"`
}

// RefreshResult is the response for price.refresh.
type RefreshResult struct {
	Queued  int  `json:"queued"`
	Changed bool `json:"changed,omitempty"`
}

// AlertParams is the input for alert.set.
type AlertParams struct {
	ProductID   string  `json:"productId"`
	TargetPrice float64 `json:"targetPrice,omitempty"`
	DropPercent float64 `json:"dropPercent,omitempty"`
}

// ExtractorAddParams is the input for extractor.add.
type ExtractorAddParams struct {
	Path string `json:"path"`
}

// ExtractorParam is a common input with just an extractor id.
type ExtractorParam struct {
	ExtractorID string `json:"extractorId"`
}

// ExtractorListParams is the input for extractor.list.
type ExtractorListParams struct {
	All bool `json:"all,omitempty"` // include deactivated extractors
}

// ExtractorItem describes one loaded extractor module.
type ExtractorItem struct {
	ExtractorID string   `json:"extractorId"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Matches     []string `json:"matches,omitempty"`
	Active      bool     `json:"active"`
}

// ExtractorListResult is the response for extractor.list.
type ExtractorListResult struct {
	Extractors []*ExtractorItem `json:"extractors"`
}

// EmptyResult is a placeholder for methods that return no data.
type EmptyResult struct{}

// NewRPCServer creates a new RPCServer with method handlers and HTTP bridge.
func NewRPCServer(cfg *RPCConfig, m *tracklib.Manager, ref *tracklib.Refresher, eng *extract.Engine, pool *Pool) *RPCServer {
	rs := &RPCServer{
		secret:    cfg.Secret,
		version:   cfg.Version,
		commit:    cfg.Commit,
		buildType: cfg.BuildType,
		manager:   m,
		refresher: ref,
		engine:    eng,
		pool:      pool,
		status:    cfg.Status,
		started:   time.Now(),
	}

	rs.methods = handler.Map{
		"system.getVersion": handler.New(rs.systemGetVersion),
		"system.status":     handler.New(rs.systemStatus),
		"price.track":       handler.New(rs.priceTrack),
		"price.untrack":     handler.New(rs.priceUntrack),
		"price.list":        handler.New(rs.priceList),
		"price.history":     handler.New(rs.priceHistory),
		"price.refresh":     handler.New(rs.priceRefresh),
		"alert.set":         handler.New(rs.alertSet),
		"alert.clear":       handler.New(rs.alertClear),
		"extractor.add":     handler.New(rs.extractorAdd),
		"extractor.remove":  handler.New(rs.extractorRemove),
		"extractor.list":    handler.New(rs.extractorList),
	}

	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*VersionResult, error) {
	return &VersionResult{
		Version:   rs.version,
		Commit:    rs.commit,
		BuildType: rs.buildType,
	}, nil
}

func (rs *RPCServer) systemStatus(ctx context.Context) (*StatusResult, error) {
	res := &StatusResult{
		Version: rs.version,
		Uptime:  int64(time.Since(rs.started).Seconds()),
	}
	if rs.manager != nil {
		res.Products = rs.manager.ProductCount()
		res.Alerts = rs.manager.AlertCount()
	}
	if rs.status != nil {
		full, err := rs.status(ctx)
		if err != nil {
			return nil, &jrpc2.Error{Code: codeInternal, Message: err.Error()}
		}
		res.Products = full.Products
		res.Alerts = full.Alerts
		res.RetireStage = full.RetireStage
		res.InitialNoticeDate = full.InitialNoticeDate
		res.FinalNoticeDate = full.FinalNoticeDate
		res.BadgeBackground = full.BadgeBackground
	}
	return res, nil
}

// priceTrack starts tracking a product page.
func (rs *RPCServer) priceTrack(_ context.Context, p *TrackParams) (*TrackResult, error) {
	if rs.manager == nil {
		return nil, &jrpc2.Error{Code: codeInternal, Message: "daemon not ready"}
	}
	if p.URL == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: url"}
	}

	opts := &tracklib.TrackOpts{
		Title:      p.Title,
		Currency:   p.Currency,
		Headers:    p.Headers,
		CheckEvery: time.Duration(p.CheckEvery) * time.Second,
		CronExpr:   p.CronExpr,
	}
	if p.TargetPrice > 0 || p.DropPercent > 0 {
		opts.Alert = &tracklib.AlertRule{
			TargetPrice: tracklib.PriceFromFloat(p.TargetPrice),
			DropPercent: p.DropPercent,
		}
	}

	prod, err := rs.manager.Track(p.URL, opts)
	if err != nil && err != tracklib.ErrProductExists {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	}
	if rs.pool != nil {
		rs.pool.AddProduct(prod.Hash, nil)
	}
	// First price observation runs in the background; results surface
	// through push notifications.
	if err == nil && rs.refresher != nil {
		go rs.refresher.RefreshProduct(context.Background(), prod.Hash)
	}
	return &TrackResult{
		ProductID: prod.Hash,
		Title:     prod.Title,
		URL:       prod.Url,
	}, nil
}

// priceUntrack stops tracking a product and drops its state.
func (rs *RPCServer) priceUntrack(_ context.Context, p *ProductParam) (*EmptyResult, error) {
	if rs.manager == nil {
		return nil, &jrpc2.Error{Code: codeInternal, Message: "daemon not ready"}
	}
	if err := rs.manager.Untrack(p.ProductID); err != nil {
		return nil, &jrpc2.Error{Code: codeProductNotFound, Message: err.Error()}
	}
	if rs.pool != nil {
		rs.pool.RemoveProduct(p.ProductID)
	}
	return &EmptyResult{}, nil
}

// priceList returns the tracked products, optionally including paused ones.
func (rs *RPCServer) priceList(_ context.Context, p *ListParams) (*ListResult, error) {
	if rs.manager == nil {
		return nil, &jrpc2.Error{Code: codeInternal, Message: "daemon not ready"}
	}
	var products []*tracklib.Product
	if p.All {
		products = rs.manager.GetProducts()
	} else {
		products = rs.manager.GetActiveProducts()
	}
	tracklib.SortProducts(products)

	items := make([]*ListItem, 0, len(products))
	for _, prod := range products {
		item := &ListItem{
			ProductID:    prod.Hash,
			Title:        prod.Title,
			URL:          prod.Url,
			CurrentPrice: prod.CurrentPrice.Float(),
			Currency:     prod.Currency,
			Paused:       prod.Paused,
			HasAlert:     prod.Alert != nil,
		}
		if !prod.LastChecked.IsZero() {
			item.LastChecked = prod.LastChecked.Unix()
		}
		if !prod.NextCheckAt.IsZero() {
			item.NextCheckAt = prod.NextCheckAt.Unix()
		}
		items = append(items, item)
	}
	return &ListResult{Products: items}, nil
}

// priceHistory returns the observed price history of one product.
func (rs *RPCServer) priceHistory(_ context.Context, p *HistoryParams) (*HistoryResult, error) {
	if rs.manager == nil {
		return nil, &jrpc2.Error{Code: codeInternal, Message: "daemon not ready"}
	}
	prod := rs.manager.GetProduct(p.ProductID)
	if prod == nil {
		return nil, &jrpc2.Error{Code: codeProductNotFound, Message: "product not found"}
	}
	var since time.Time
	if p.Since > 0 {
		since = time.Unix(p.Since, 0)
	}
	pts := prod.PointsSince(since, p.Limit)
	points := make([]HistoryPoint, 0, len(pts))
	for _, pt := range pts {
		points = append(points, HistoryPoint{
			Price:  pt.Price.Float(),
			At:     pt.At.Unix(),
			Source: pt.Source,
		})
	}
	return &HistoryResult{ProductID: prod.Hash, Points: points}, nil
}

// priceRefresh checks one product synchronously or kicks off a full
// refresh cycle in the background.
func (rs *RPCServer) priceRefresh(ctx context.Context, p *RefreshParams) (*RefreshResult, error) {
	if rs.manager == nil || rs.refresher == nil {
		return nil, &jrpc2.Error{Code: codeInternal, Message: "daemon not ready"}
	}
	if p.ProductID != "" {
		changed, err := rs.refresher.RefreshProduct(ctx, p.ProductID)
		if err != nil {
			if err == tracklib.ErrProductNotFound {
				return nil, &jrpc2.Error{Code: codeProductNotFound, Message: err.Error()}
			}
			return nil, &jrpc2.Error{Code: codeRefreshFailed, Message: err.Error()}
		}
		return &RefreshResult{Queued: 1, Changed: changed}, nil
	}

	var queued int
	if p.Force {
		queued = len(rs.manager.GetActiveProducts())
	} else {
		queued = len(rs.manager.GetDueProducts(time.Now()))
	}
	go rs.refresher.RefreshAll(context.Background(), p.Force)
	return &RefreshResult{Queued: queued}, nil
}

// alertSet attaches an alert rule to a product.
func (rs *RPCServer) alertSet(_ context.Context, p *AlertParams) (*EmptyResult, error) {
	if rs.manager == nil {
		return nil, &jrpc2.Error{Code: codeInternal, Message: "daemon not ready"}
	}
	if p.TargetPrice <= 0 && p.DropPercent <= 0 {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "alert needs a target price or drop percent"}
	}
	rule := &tracklib.AlertRule{
		TargetPrice: tracklib.PriceFromFloat(p.TargetPrice),
		DropPercent: p.DropPercent,
	}
	if err := rs.manager.SetAlert(p.ProductID, rule); err != nil {
		return nil, &jrpc2.Error{Code: codeProductNotFound, Message: err.Error()}
	}
	return &EmptyResult{}, nil
}

// alertClear removes a product's alert rule.
func (rs *RPCServer) alertClear(_ context.Context, p *ProductParam) (*EmptyResult, error) {
	if rs.manager == nil {
		return nil, &jrpc2.Error{Code: codeInternal, Message: "daemon not ready"}
	}
	if err := rs.manager.ClearAlert(p.ProductID); err != nil {
		return nil, &jrpc2.Error{Code: codeProductNotFound, Message: err.Error()}
	}
	return &EmptyResult{}, nil
}

// extractorAdd installs a JS extractor module from a directory path.
func (rs *RPCServer) extractorAdd(_ context.Context, p *ExtractorAddParams) (*ExtractorItem, error) {
	if rs.engine == nil {
		return nil, &jrpc2.Error{Code: codeInternal, Message: "extractor engine unavailable"}
	}
	if p.Path == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: path"}
	}
	mod, err := rs.engine.AddModule(p.Path)
	if err != nil {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	}
	return extractorItem(mod), nil
}

// extractorRemove uninstalls an extractor module.
func (rs *RPCServer) extractorRemove(_ context.Context, p *ExtractorParam) (*ExtractorItem, error) {
	if rs.engine == nil {
		return nil, &jrpc2.Error{Code: codeInternal, Message: "extractor engine unavailable"}
	}
	mod, err := rs.engine.DeleteModule(p.ExtractorID)
	if err != nil {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	}
	return extractorItem(mod), nil
}

// extractorList returns the loaded extractor modules.
func (rs *RPCServer) extractorList(_ context.Context, p *ExtractorListParams) (*ExtractorListResult, error) {
	if rs.engine == nil {
		return nil, &jrpc2.Error{Code: codeInternal, Message: "extractor engine unavailable"}
	}
	mods := rs.engine.ListModules(!p.All)
	items := make([]*ExtractorItem, 0, len(mods))
	for _, mod := range mods {
		items = append(items, extractorItem(mod))
	}
	return &ExtractorListResult{Extractors: items}, nil
}

func extractorItem(mod *extract.Module) *ExtractorItem {
	return &ExtractorItem{
		ExtractorID: mod.ModuleId,
		Name:        mod.Name,
		Version:     mod.Version,
		Description: mod.Description,
		Matches:     mod.Matches,
		Active:      mod.Activated,
	}
}

// Close shuts down the jrpc2 bridge, releasing internal goroutines.
func (rs *RPCServer) Close() {
	rs.bridge.Close()
}

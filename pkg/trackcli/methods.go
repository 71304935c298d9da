package trackcli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// invoke calls a daemon method and decodes the reply message into T.
func invoke[T any](c *Client, method common.UpdateType, message any) (*T, error) {
	raw, err := c.invoke(method, message)
	if err != nil {
		return nil, err
	}
	v := new(T)
	if raw == nil {
		return v, nil
	}
	if err = json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("failed to read %s: %s", method, err.Error())
	}
	return v, nil
}

// TrackOpts carries the optional fields of a track request.
type TrackOpts struct {
	Title       string
	Currency    string
	Headers     tracklib.Headers
	CheckEvery  time.Duration
	CronExpr    string
	TargetPrice tracklib.Price
	DropPercent float64
}

// Track asks the daemon to start tracking the product page at url.
// Tracking an already tracked url subscribes this client to it and
// returns the existing product.
func (c *Client) Track(url string, opts *TrackOpts) (*common.TrackResponse, error) {
	if opts == nil {
		opts = &TrackOpts{}
	}
	return invoke[common.TrackResponse](c, common.UPDATE_TRACK, &common.TrackParams{
		Url:         url,
		Title:       opts.Title,
		Currency:    opts.Currency,
		Headers:     opts.Headers,
		CheckEvery:  int64(opts.CheckEvery / time.Second),
		CronExpr:    opts.CronExpr,
		TargetPrice: opts.TargetPrice,
		DropPercent: opts.DropPercent,
	})
}

// Untrack removes a tracked product and its price history.
func (c *Client) Untrack(productId string) error {
	_, err := c.invoke(common.UPDATE_UNTRACK, &common.UntrackParams{
		ProductId: productId,
	})
	return err
}

// ListOpts selects which products List returns. Zero value lists
// active products only.
type ListOpts struct {
	ShowPaused bool
	ShowAll    bool
}

// List fetches tracked products from the daemon.
func (c *Client) List(opts *ListOpts) (*common.ListResponse, error) {
	if opts == nil {
		opts = &ListOpts{}
	}
	return invoke[common.ListResponse](c, common.UPDATE_LIST, &common.ListParams{
		ShowPaused: opts.ShowPaused,
		ShowAll:    opts.ShowAll,
	})
}

// HistoryOpts bounds a history request. Zero value returns the full
// recorded history.
type HistoryOpts struct {
	Since time.Time
	Limit int
}

// History fetches the recorded price points of a product.
func (c *Client) History(productId string, opts *HistoryOpts) (*common.HistoryResponse, error) {
	if opts == nil {
		opts = &HistoryOpts{}
	}
	m := &common.HistoryParams{
		ProductId: productId,
		Limit:     opts.Limit,
	}
	if !opts.Since.IsZero() {
		m.Since = opts.Since.Unix()
	}
	return invoke[common.HistoryResponse](c, common.UPDATE_HISTORY, m)
}

// Refresh queues price checks. With a productId only that product is
// checked; with an empty productId the daemon runs a cycle over due
// products, or over every active product when force is set. Progress
// arrives as refreshing updates on Listen.
func (c *Client) Refresh(productId string, force bool) (*common.RefreshResponse, error) {
	return invoke[common.RefreshResponse](c, common.UPDATE_REFRESH, &common.RefreshParams{
		ProductId: productId,
		Force:     force,
	})
}

// AllProducts is the reserved subscription key that follows every
// product's refresh updates plus whole-cycle completion.
const AllProducts = "*"

// Follow subscribes this client to a product's refresh updates without
// queueing a check. Pass AllProducts to follow every product.
func (c *Client) Follow(productId string) (*common.TrackResponse, error) {
	return invoke[common.TrackResponse](c, common.UPDATE_REFRESHING, &common.InputProductId{
		ProductId: productId,
	})
}

// SetAlert arms a price alert on a product. At least one of
// targetPrice and dropPercent must be set.
func (c *Client) SetAlert(productId string, targetPrice tracklib.Price, dropPercent float64) (*common.AlertResponse, error) {
	return invoke[common.AlertResponse](c, common.UPDATE_SET_ALERT, &common.SetAlertParams{
		ProductId:   productId,
		TargetPrice: targetPrice,
		DropPercent: dropPercent,
	})
}

// ClearAlert disarms a product's price alert.
func (c *Client) ClearAlert(productId string) (*common.AlertResponse, error) {
	return invoke[common.AlertResponse](c, common.UPDATE_CLEAR_ALERT, &common.ClearAlertParams{
		ProductId: productId,
	})
}

// Status reports daemon health and the retirement stage.
func (c *Client) Status() (*common.StatusResponse, error) {
	return invoke[common.StatusResponse](c, common.UPDATE_STATUS, nil)
}

// GetDaemonVersion reports the running daemon's build info.
func (c *Client) GetDaemonVersion() (*common.VersionResponse, error) {
	return invoke[common.VersionResponse](c, common.UPDATE_VERSION, nil)
}

// ImportCookies imports browser cookies for the given domains into the
// daemon's cookie vault. An empty browser auto-detects the source.
func (c *Client) ImportCookies(browser string, domains ...string) (*common.ImportCookiesResponse, error) {
	return invoke[common.ImportCookiesResponse](c, common.UPDATE_IMPORT_COOKIES, &common.ImportCookiesParams{
		Browser: browser,
		Domains: domains,
	})
}

// SyncFeed pulls configured price feeds. An empty name syncs all feeds.
func (c *Client) SyncFeed(name string) (*common.SyncFeedResponse, error) {
	return invoke[common.SyncFeedResponse](c, common.UPDATE_SYNC_FEED, &common.SyncFeedParams{
		Name: name,
	})
}

// LoadExtractor loads an extractor bundle from a local path.
func (c *Client) LoadExtractor(path string) (*common.ExtractorInfo, error) {
	return invoke[common.ExtractorInfo](c, common.UPDATE_LOAD_EXT, &common.LoadExtractorParams{
		Path: path,
	})
}

// UnloadExtractor removes a loaded extractor.
func (c *Client) UnloadExtractor(extractorId string) (*common.ExtractorInfo, error) {
	return invoke[common.ExtractorInfo](c, common.UPDATE_UNLOAD_EXT, &common.InputExtractorId{
		ExtractorId: extractorId,
	})
}

// GetExtractor fetches a loaded extractor's info.
func (c *Client) GetExtractor(extractorId string) (*common.ExtractorInfo, error) {
	return invoke[common.ExtractorInfo](c, common.UPDATE_GET_EXT, &common.InputExtractorId{
		ExtractorId: extractorId,
	})
}

// ActivateExtractor enables a deactivated extractor.
func (c *Client) ActivateExtractor(extractorId string) (*common.ExtractorInfo, error) {
	return invoke[common.ExtractorInfo](c, common.UPDATE_ACTIVATE_EXT, &common.InputExtractorId{
		ExtractorId: extractorId,
	})
}

// DeactivateExtractor disables an extractor without removing it.
func (c *Client) DeactivateExtractor(extractorId string) (*common.ExtractorInfo, error) {
	return invoke[common.ExtractorInfo](c, common.UPDATE_DEACTIVATE_EXT, &common.InputExtractorId{
		ExtractorId: extractorId,
	})
}

// ListExtractors lists active extractors, or every loaded extractor
// when all is set.
func (c *Client) ListExtractors(all bool) ([]*common.ExtractorInfo, error) {
	res, err := invoke[[]*common.ExtractorInfo](c, common.UPDATE_LIST_EXT, &common.ListExtractorsParams{
		All: all,
	})
	if err != nil {
		return nil, err
	}
	return *res, nil
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/internal/extract"
	"github.com/tagwatch/tagwatch/internal/server"
	"github.com/tagwatch/tagwatch/pkg/credman/types"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

func discardLog() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubExtractor struct {
	result tracklib.ExtractResult
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, url string, body []byte) (tracklib.ExtractResult, error) {
	return s.result, s.err
}

func testPage(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeTestExtractor(t *testing.T, dir string) string {
	t.Helper()
	modDir := filepath.Join(dir, "mod")
	if err := os.MkdirAll(modDir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	manifest := map[string]any{
		"name":        "Acme Shop",
		"version":     "1.0",
		"description": "acme price extractor",
		"matches":     []string{".*"},
		"entrypoint":  "main.js",
	}
	b, _ := json.Marshal(manifest)
	if err := os.WriteFile(filepath.Join(modDir, "manifest.json"), b, 0644); err != nil {
		t.Fatalf("WriteFile manifest: %v", err)
	}
	main := `function extract(url, body) { return {price: "49.99", currency: "USD", title: "Widget"}; }
`
	if err := os.WriteFile(filepath.Join(modDir, "main.js"), []byte(main), 0644); err != nil {
		t.Fatalf("WriteFile main: %v", err)
	}
	return modDir
}

func newTestApi(t *testing.T) (*Api, *server.Pool, func()) {
	t.Helper()
	base := t.TempDir()
	if err := tracklib.SetConfigDir(base); err != nil {
		t.Fatalf("SetConfigDir: %v", err)
	}
	if err := extract.SetEngineStore(base); err != nil {
		t.Fatalf("SetEngineStore: %v", err)
	}
	m, err := tracklib.InitManager()
	if err != nil {
		t.Fatalf("InitManager: %v", err)
	}
	eng, err := extract.NewEngine(discardLog(), nil, false)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	api, err := NewApi(discardLog(), m, nil, eng, &Opts{
		Version:   "test",
		Commit:    "abc123",
		BuildType: "test",
	})
	if err != nil {
		t.Fatalf("NewApi: %v", err)
	}
	pool := server.NewPool(discardLog())
	cleanup := func() {
		_ = m.Close()
		_ = eng.Close()
		// On Windows, pause for file handle release.
		if runtime.GOOS == "windows" {
			time.Sleep(250 * time.Millisecond)
		}
	}
	return api, pool, cleanup
}

func TestTrackHandler(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	params := common.TrackParams{
		Url:   "https://shop.example/widget?utm_source=ad",
		Title: "Widget",
	}
	body, _ := json.Marshal(params)
	_, msg, err := api.trackHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("trackHandler: %v", err)
	}
	resp := msg.(*common.TrackResponse)
	if resp.ProductId == "" {
		t.Fatalf("expected product id")
	}
	if resp.Url != "https://shop.example/widget" {
		t.Fatalf("expected normalized url, got %q", resp.Url)
	}
	if resp.Title != "Widget" {
		t.Fatalf("unexpected title %q", resp.Title)
	}
	if !pool.HasProduct(resp.ProductId) {
		t.Fatalf("expected product registered in pool")
	}
}

func TestTrackHandlerDuplicate(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	body, _ := json.Marshal(common.TrackParams{Url: "https://shop.example/widget"})
	_, first, err := api.trackHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("trackHandler: %v", err)
	}
	_, second, err := api.trackHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("trackHandler duplicate: %v", err)
	}
	if first.(*common.TrackResponse).ProductId != second.(*common.TrackResponse).ProductId {
		t.Fatalf("expected duplicate track to return the existing product")
	}
	if api.manager.ProductCount() != 1 {
		t.Fatalf("expected one product, got %d", api.manager.ProductCount())
	}
}

func TestTrackHandlerValidation(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	body, _ := json.Marshal(common.TrackParams{})
	if _, _, err := api.trackHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error for missing url")
	}

	body, _ = json.Marshal(common.TrackParams{
		Url:      "https://shop.example/widget",
		CronExpr: "not a cron",
	})
	if _, _, err := api.trackHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error for invalid cron expression")
	}
}

func TestTrackHandlerAlert(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	body, _ := json.Marshal(common.TrackParams{
		Url:         "https://shop.example/widget",
		TargetPrice: 3999,
	})
	_, msg, err := api.trackHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("trackHandler: %v", err)
	}
	p := api.manager.GetProduct(msg.(*common.TrackResponse).ProductId)
	if p == nil || p.Alert == nil {
		t.Fatalf("expected alert rule on tracked product")
	}
	if p.Alert.TargetPrice != 3999 {
		t.Fatalf("unexpected target price %d", p.Alert.TargetPrice)
	}
}

func TestTrackHandlerCronSchedule(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	body, _ := json.Marshal(common.TrackParams{
		Url:      "https://shop.example/widget",
		CronExpr: "0 9 * * *",
	})
	_, msg, err := api.trackHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("trackHandler: %v", err)
	}
	p := api.manager.GetProduct(msg.(*common.TrackResponse).ProductId)
	if p.NextCheckAt.IsZero() {
		t.Fatalf("expected first cron occurrence to be stored")
	}
	if !p.NextCheckAt.After(time.Now()) {
		t.Fatalf("expected next check in the future, got %v", p.NextCheckAt)
	}
}

func TestUntrackHandler(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	body, _ := json.Marshal(common.TrackParams{Url: "https://shop.example/widget"})
	_, msg, err := api.trackHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("trackHandler: %v", err)
	}
	uid := msg.(*common.TrackResponse).ProductId

	body, _ = json.Marshal(common.UntrackParams{ProductId: uid})
	if _, _, err := api.untrackHandler(nil, pool, body); err != nil {
		t.Fatalf("untrackHandler: %v", err)
	}
	if api.manager.GetProduct(uid) != nil {
		t.Fatalf("expected product to be gone")
	}
	if pool.HasProduct(uid) {
		t.Fatalf("expected pool entry to be gone")
	}

	if _, _, err := api.untrackHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error for unknown product")
	}
	body, _ = json.Marshal(common.UntrackParams{})
	if _, _, err := api.untrackHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error for missing product_id")
	}
}

func TestListHandler(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	for _, u := range []string{"https://shop.example/a", "https://shop.example/b"} {
		body, _ := json.Marshal(common.TrackParams{Url: u})
		if _, _, err := api.trackHandler(nil, pool, body); err != nil {
			t.Fatalf("trackHandler: %v", err)
		}
	}
	products := api.manager.GetProducts()
	if err := api.manager.SetPaused(products[0].Hash, true); err != nil {
		t.Fatalf("SetPaused: %v", err)
	}

	body, _ := json.Marshal(common.ListParams{})
	_, msg, err := api.listHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("listHandler: %v", err)
	}
	if len(msg.(*common.ListResponse).Products) != 1 {
		t.Fatalf("expected one active product")
	}

	body, _ = json.Marshal(common.ListParams{ShowAll: true})
	_, msg, err = api.listHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("listHandler: %v", err)
	}
	if len(msg.(*common.ListResponse).Products) != 2 {
		t.Fatalf("expected both products")
	}

	body, _ = json.Marshal(common.ListParams{ShowPaused: true})
	_, msg, err = api.listHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("listHandler: %v", err)
	}
	resp := msg.(*common.ListResponse)
	if len(resp.Products) != 1 || !resp.Products[0].Paused {
		t.Fatalf("expected the paused product only")
	}
}

func TestHistoryHandler(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	body, _ := json.Marshal(common.TrackParams{Url: "https://shop.example/widget"})
	_, msg, err := api.trackHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("trackHandler: %v", err)
	}
	uid := msg.(*common.TrackResponse).ProductId

	base := time.Now().Add(-2 * time.Hour)
	if _, err := api.manager.RecordPrice(uid, 4999, "USD", "fetch", base); err != nil {
		t.Fatalf("RecordPrice: %v", err)
	}
	if _, err := api.manager.RecordPrice(uid, 4599, "USD", "fetch", base.Add(time.Hour)); err != nil {
		t.Fatalf("RecordPrice: %v", err)
	}

	body, _ = json.Marshal(common.HistoryParams{ProductId: uid})
	_, msg, err = api.historyHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("historyHandler: %v", err)
	}
	resp := msg.(*common.HistoryResponse)
	if len(resp.Points) != 2 {
		t.Fatalf("expected two points, got %d", len(resp.Points))
	}

	body, _ = json.Marshal(common.HistoryParams{
		ProductId: uid,
		Since:     base.Add(30 * time.Minute).Unix(),
	})
	_, msg, err = api.historyHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("historyHandler: %v", err)
	}
	resp = msg.(*common.HistoryResponse)
	if len(resp.Points) != 1 || resp.Points[0].Price != 4599 {
		t.Fatalf("expected the newer point only, got %+v", resp.Points)
	}

	body, _ = json.Marshal(common.HistoryParams{ProductId: "missing"})
	if _, _, err := api.historyHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error for unknown product")
	}
}

func TestRefreshHandlerSingleProduct(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	srv := testPage(t, "<html>page</html>")
	p, err := api.manager.Track(srv.URL+"/widget", nil)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	ex := &stubExtractor{result: tracklib.ExtractResult{Price: 4599, Currency: "USD", Source: "stub"}}
	api.refresher = tracklib.NewRefresher(api.manager, tracklib.NewFetcher(srv.Client(), nil), ex, discardLog(), StreamHandlers(pool, nil))

	body, _ := json.Marshal(common.RefreshParams{ProductId: p.Hash})
	_, msg, err := api.refreshHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("refreshHandler: %v", err)
	}
	if msg.(*common.RefreshResponse).Queued != 1 {
		t.Fatalf("expected one queued refresh")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if api.manager.GetProduct(p.Hash).CurrentPrice == 4599 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("refresh did not record the price")
}

func TestRefreshHandlerStreams(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	srv := testPage(t, "<html>page</html>")
	p, err := api.manager.Track(srv.URL+"/widget", nil)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	ex := &stubExtractor{result: tracklib.ExtractResult{Price: 4599, Currency: "USD", Source: "stub"}}
	api.refresher = tracklib.NewRefresher(api.manager, tracklib.NewFetcher(srv.Client(), nil), ex, discardLog(), StreamHandlers(pool, nil))
	startForwarder(t, api.manager, pool, nil)

	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	sconn := server.NewSyncConn(c1)
	client := server.NewSyncConn(c2)

	body, _ := json.Marshal(common.RefreshParams{ProductId: p.Hash})
	if _, _, err := api.refreshHandler(sconn, pool, body); err != nil {
		t.Fatalf("refreshHandler: %v", err)
	}

	var actions []common.RefreshAction
	for len(actions) < 2 {
		_ = c2.SetReadDeadline(time.Now().Add(2 * time.Second))
		frame, err := client.Read()
		if err != nil {
			t.Fatalf("read update: %v", err)
		}
		var resp struct {
			Ok     bool `json:"ok"`
			Update struct {
				Type    common.UpdateType         `json:"type"`
				Message common.RefreshingResponse `json:"message"`
			} `json:"update"`
		}
		if err := json.Unmarshal(frame, &resp); err != nil {
			t.Fatalf("unmarshal update: %v", err)
		}
		if resp.Update.Type != common.UPDATE_REFRESHING {
			t.Fatalf("unexpected update type %s", resp.Update.Type)
		}
		if resp.Update.Message.ProductId != p.Hash {
			t.Fatalf("unexpected product id %s", resp.Update.Message.ProductId)
		}
		actions = append(actions, resp.Update.Message.Action)
	}
	if actions[0] != common.RefreshStart {
		t.Fatalf("expected refresh_start first, got %s", actions[0])
	}
	if actions[1] != common.PriceUpdated {
		t.Fatalf("expected price_updated, got %s", actions[1])
	}
}

func TestRefreshHandlerCycle(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	srv := testPage(t, "<html>page</html>")
	for _, path := range []string{"/a", "/b"} {
		if _, err := api.manager.Track(srv.URL+path, nil); err != nil {
			t.Fatalf("Track: %v", err)
		}
	}
	ex := &stubExtractor{result: tracklib.ExtractResult{Price: 999, Currency: "USD", Source: "stub"}}
	api.refresher = tracklib.NewRefresher(api.manager, tracklib.NewFetcher(srv.Client(), nil), ex, discardLog(), StreamHandlers(pool, nil))

	body, _ := json.Marshal(common.RefreshParams{Force: true})
	_, msg, err := api.refreshHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("refreshHandler: %v", err)
	}
	if msg.(*common.RefreshResponse).Queued != 2 {
		t.Fatalf("expected two queued refreshes, got %d", msg.(*common.RefreshResponse).Queued)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		done := true
		for _, p := range api.manager.GetProducts() {
			if p.CurrentPrice != 999 {
				done = false
			}
		}
		if done {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("cycle did not refresh all products")
}

func TestRefreshHandlerErrors(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	api.refresher = tracklib.NewRefresher(api.manager, nil, &stubExtractor{}, discardLog(), nil)
	body, _ := json.Marshal(common.RefreshParams{ProductId: "missing"})
	if _, _, err := api.refreshHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error for unknown product")
	}

	api.refresher = nil
	body, _ = json.Marshal(common.RefreshParams{})
	if _, _, err := api.refreshHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error without a refresher")
	}
}

func TestRefreshingHandler(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	body, _ := json.Marshal(common.TrackParams{Url: "https://shop.example/widget"})
	_, msg, err := api.trackHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("trackHandler: %v", err)
	}
	uid := msg.(*common.TrackResponse).ProductId

	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	sconn := server.NewSyncConn(c1)

	body, _ = json.Marshal(common.InputProductId{ProductId: uid})
	_, msg, err = api.refreshingHandler(sconn, pool, body)
	if err != nil {
		t.Fatalf("refreshingHandler: %v", err)
	}
	if msg.(*common.TrackResponse).ProductId != uid {
		t.Fatalf("unexpected attach response")
	}

	// The attached connection receives subsequent broadcasts.
	done := make(chan []byte, 1)
	go func() {
		frame, err := server.NewSyncConn(c2).Read()
		if err != nil {
			close(done)
			return
		}
		done <- frame
	}()
	pool.Broadcast(uid, server.MakeResult(common.UPDATE_REFRESHING, &common.RefreshingResponse{
		ProductId: uid,
		Action:    common.RefreshStart,
	}))
	select {
	case frame, ok := <-done:
		if !ok || len(frame) == 0 {
			t.Fatalf("expected broadcast frame")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for broadcast")
	}

	body, _ = json.Marshal(common.InputProductId{ProductId: "missing"})
	if _, _, err := api.refreshingHandler(sconn, pool, body); err == nil {
		t.Fatalf("expected error for unknown product")
	}
}

func TestAlertHandlers(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	body, _ := json.Marshal(common.TrackParams{Url: "https://shop.example/widget"})
	_, msg, err := api.trackHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("trackHandler: %v", err)
	}
	uid := msg.(*common.TrackResponse).ProductId

	body, _ = json.Marshal(common.SetAlertParams{ProductId: uid})
	if _, _, err := api.setAlertHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error for empty alert rule")
	}

	body, _ = json.Marshal(common.SetAlertParams{ProductId: uid, TargetPrice: 2999})
	_, msg, err = api.setAlertHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("setAlertHandler: %v", err)
	}
	if msg.(*common.AlertResponse).Rule.TargetPrice != 2999 {
		t.Fatalf("unexpected alert rule")
	}
	if api.manager.GetProduct(uid).Alert == nil {
		t.Fatalf("expected alert on product")
	}

	body, _ = json.Marshal(common.ClearAlertParams{ProductId: uid})
	if _, _, err := api.clearAlertHandler(nil, pool, body); err != nil {
		t.Fatalf("clearAlertHandler: %v", err)
	}
	if api.manager.GetProduct(uid).Alert != nil {
		t.Fatalf("expected alert to be cleared")
	}
}

func TestStatusHandler(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	body, _ := json.Marshal(common.TrackParams{Url: "https://shop.example/widget", TargetPrice: 100})
	if _, _, err := api.trackHandler(nil, pool, body); err != nil {
		t.Fatalf("trackHandler: %v", err)
	}

	_, msg, err := api.statusHandler(nil, pool, nil)
	if err != nil {
		t.Fatalf("statusHandler: %v", err)
	}
	resp := msg.(*common.StatusResponse)
	if resp.Products != 1 || resp.Alerts != 1 {
		t.Fatalf("unexpected counts: %+v", resp)
	}
	if resp.Version != "test" {
		t.Fatalf("unexpected version %q", resp.Version)
	}
}

func TestStatusHandlerSource(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	api.status = func(ctx context.Context) (*common.StatusResponse, error) {
		return &common.StatusResponse{
			Version:     "test",
			RetireStage: "initial_window",
		}, nil
	}
	_, msg, err := api.statusHandler(nil, pool, nil)
	if err != nil {
		t.Fatalf("statusHandler: %v", err)
	}
	if msg.(*common.StatusResponse).RetireStage != "initial_window" {
		t.Fatalf("expected retire stage from status source")
	}

	api.status = func(ctx context.Context) (*common.StatusResponse, error) {
		return nil, errors.New("store gone")
	}
	if _, _, err := api.statusHandler(nil, pool, nil); err == nil {
		t.Fatalf("expected error from failing status source")
	}
}

func TestVersionHandler(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	_, msg, err := api.versionHandler(nil, pool, nil)
	if err != nil {
		t.Fatalf("versionHandler: %v", err)
	}
	resp := msg.(*common.VersionResponse)
	if resp.Version != "test" || resp.Commit != "abc123" || resp.BuildType != "test" {
		t.Fatalf("unexpected version response: %+v", resp)
	}
}

func TestSyncFeedHandlerNoSyncer(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	body, _ := json.Marshal(common.SyncFeedParams{})
	if _, _, err := api.syncFeedHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error without configured feeds")
	}
}

func TestImportCookiesHandlerValidation(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	body, _ := json.Marshal(common.ImportCookiesParams{Domains: []string{"shop.example"}})
	if _, _, err := api.importCookiesHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error without a vault")
	}

	api.vault = vaultFunc(func(types.Cookie) error { return nil })
	body, _ = json.Marshal(common.ImportCookiesParams{})
	if _, _, err := api.importCookiesHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error without domains")
	}
}

type vaultFunc func(types.Cookie) error

func (f vaultFunc) SetCookie(cookie types.Cookie) error { return f(cookie) }

func TestExtractorHandlers(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	path := writeTestExtractor(t, t.TempDir())
	body, _ := json.Marshal(common.LoadExtractorParams{Path: path})
	_, msg, err := api.loadExtHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("loadExtHandler: %v", err)
	}
	info := msg.(*common.ExtractorInfo)
	if info.ExtractorId == "" {
		t.Fatalf("expected extractor id")
	}
	if !info.Active {
		t.Fatalf("expected loaded extractor to be active")
	}

	body, _ = json.Marshal(common.InputExtractorId{ExtractorId: info.ExtractorId})
	_, msg, err = api.getExtHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("getExtHandler: %v", err)
	}
	if msg.(*common.ExtractorInfo).Name != info.Name {
		t.Fatalf("unexpected extractor info")
	}

	body, _ = json.Marshal(common.ListExtractorsParams{All: true})
	_, msg, err = api.listExtHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("listExtHandler: %v", err)
	}
	if len(msg.([]*common.ExtractorInfo)) != 1 {
		t.Fatalf("expected one extractor in list")
	}

	body, _ = json.Marshal(common.InputExtractorId{ExtractorId: info.ExtractorId})
	if _, _, err := api.deactivateExtHandler(nil, pool, body); err != nil {
		t.Fatalf("deactivateExtHandler: %v", err)
	}

	body, _ = json.Marshal(common.ListExtractorsParams{})
	_, msg, err = api.listExtHandler(nil, pool, body)
	if err != nil {
		t.Fatalf("listExtHandler: %v", err)
	}
	if len(msg.([]*common.ExtractorInfo)) != 0 {
		t.Fatalf("expected no active extractors after deactivation")
	}

	body, _ = json.Marshal(common.InputExtractorId{ExtractorId: info.ExtractorId})
	if _, _, err := api.activateExtHandler(nil, pool, body); err != nil {
		t.Fatalf("activateExtHandler: %v", err)
	}
	if _, _, err := api.unloadExtHandler(nil, pool, body); err != nil {
		t.Fatalf("unloadExtHandler: %v", err)
	}
	if _, _, err := api.getExtHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error for unloaded extractor")
	}
}

func TestExtractorHandlerValidation(t *testing.T) {
	api, pool, cleanup := newTestApi(t)
	defer cleanup()

	body, _ := json.Marshal(common.LoadExtractorParams{})
	if _, _, err := api.loadExtHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error for missing path")
	}
	body, _ = json.Marshal(common.InputExtractorId{})
	if _, _, err := api.getExtHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error for missing extractor id")
	}
	if _, _, err := api.unloadExtHandler(nil, pool, body); err == nil {
		t.Fatalf("expected error for missing extractor id")
	}
}

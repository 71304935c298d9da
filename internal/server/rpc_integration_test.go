package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	cws "github.com/coder/websocket"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

const integrationSecret = "integration-test-secret-42"

// integrationExtractor returns a configurable price so tests can move
// the observed price between refreshes.
type integrationExtractor struct {
	mu     sync.Mutex
	result tracklib.ExtractResult
}

func (e *integrationExtractor) Extract(_ context.Context, _ string, _ []byte) (tracklib.ExtractResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result, nil
}

func (e *integrationExtractor) setPrice(p tracklib.Price) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.result.Price = p
}

// startIntegrationServer starts a WebServer with RPC enabled, backed by a
// real manager, a mock product page server and a refresher whose handlers
// broadcast push notifications. Returns the server URL, product page URL,
// the extractor stub, the manager, and cleanup.
func startIntegrationServer(t *testing.T) (serverURL, pageURL string, ex *integrationExtractor, m *tracklib.Manager, cleanup func()) {
	t.Helper()
	if err := tracklib.SetConfigDir(t.TempDir()); err != nil {
		t.Fatalf("SetConfigDir: %v", err)
	}
	var err error
	m, err = tracklib.InitManager()
	if err != nil {
		t.Fatalf("InitManager: %v", err)
	}

	pageSrv := newPageServer("<html><body>$45.99</body></html>")
	ex = &integrationExtractor{result: tracklib.ExtractResult{
		Price:    tracklib.PriceFromFloat(45.99),
		Currency: "USD",
		Source:   "integration",
	}}

	pool := NewPool(log.New(io.Discard, "", 0))
	rpcCfg := &RPCConfig{
		Secret:    integrationSecret,
		Version:   "1.0.0-test",
		Commit:    "abc123",
		BuildType: "integration",
	}

	l := log.New(io.Discard, "", 0)

	// The notifier is created by NewWebServer, so the handlers capture the
	// server variable and resolve it per event.
	var ws *WebServer
	notify := func(method string, params any) {
		if n := ws.Notifier(); n != nil {
			n.Broadcast(method, params)
		}
	}
	handlers := &tracklib.RefreshHandlers{
		RefreshStartHandler: func(hash string) {
			notify(NotifyRefreshStarted, &RefreshStartedNotification{ProductId: hash})
		},
		PriceUpdatedHandler: func(hash string, old, new tracklib.Price, currency string) {
			notify(NotifyPriceChanged, &PriceChangedNotification{
				ProductId: hash, OldPrice: old, NewPrice: new, Currency: currency,
			})
		},
		AlertHandler: func(hash string, old, new tracklib.Price, currency string) {
			notify(NotifyAlertFired, &AlertFiredNotification{
				ProductId: hash, OldPrice: old, NewPrice: new, Currency: currency,
			})
		},
		ErrorHandler: func(hash string, err error) {
			notify(NotifyRefreshError, &RefreshErrorNotification{ProductId: hash, Error: err.Error()})
		},
		CycleCompleteHandler: func(checked, changed, failed int) {
			notify(NotifyCycleComplete, &CycleCompleteNotification{
				Checked: checked, Changed: changed, Failed: failed,
			})
		},
	}
	ref := tracklib.NewRefresher(m, tracklib.NewFetcher(pageSrv.Client(), nil), ex, l, handlers)

	ws = NewWebServer(l, m, pool, 0, ref, nil, rpcCfg)
	httpSrv := httptest.NewServer(ws.handler())

	cleanup = func() {
		httpSrv.Close()
		if ws.rpc != nil {
			ws.rpc.Close()
		}
		m.Close()
		pageSrv.Close()
	}
	return httpSrv.URL, pageSrv.URL, ex, m, cleanup
}

// rpcPost sends a JSON-RPC request via HTTP POST with auth and returns the response.
func rpcPost(t *testing.T, serverURL, method string, params any) (int, map[string]any) {
	t.Helper()
	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		reqBody["params"] = params
	}
	data, _ := json.Marshal(reqBody)
	req, _ := http.NewRequest("POST", serverURL+"/jsonrpc", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+integrationSecret)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("HTTP request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	var result map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			t.Fatalf("unmarshal: %v (body: %s)", err, string(body))
		}
	}
	return resp.StatusCode, result
}

// rpcPostRaw sends raw bytes to the RPC endpoint with auth.
func rpcPostRaw(t *testing.T, serverURL string, body []byte, authToken string) (int, map[string]any) {
	t.Helper()
	req, _ := http.NewRequest("POST", serverURL+"/jsonrpc", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("HTTP request failed: %v", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	var result map[string]any
	if len(respBody) > 0 {
		_ = json.Unmarshal(respBody, &result)
	}
	return resp.StatusCode, result
}

// wsConnectIntegration connects a WebSocket client with auth to the test server.
func wsConnectIntegration(t *testing.T, serverURL string) *cws.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/jsonrpc/ws"
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, _, err := cws.Dial(ctx, wsURL, &cws.DialOptions{
		HTTPHeader: http.Header{
			"Authorization": []string{"Bearer " + integrationSecret},
		},
	})
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	return conn
}

// waitForPrice polls price.list until the product shows the expected
// current price or the timeout expires.
func waitForPrice(t *testing.T, serverURL, productID string, want float64, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var last float64
	for time.Now().Before(deadline) {
		_, resp := rpcPost(t, serverURL, "price.list", map[string]any{"all": true})
		if resp["error"] != nil {
			t.Fatalf("list error: %v", resp["error"])
		}
		if result, ok := resp["result"].(map[string]any); ok {
			products, _ := result["products"].([]any)
			for _, raw := range products {
				item, ok := raw.(map[string]any)
				if !ok || item["productId"] != productID {
					continue
				}
				last, _ = item["currentPrice"].(float64)
				if last == want {
					return
				}
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for price %.2f on product %s (last: %.2f)", want, productID, last)
}

// --- HTTP endpoint returns JSON-RPC 2.0 responses ---

func TestIntegration_HTTPEndpoint(t *testing.T) {
	serverURL, _, _, _, cleanup := startIntegrationServer(t)
	defer cleanup()

	code, resp := rpcPost(t, serverURL, "system.getVersion", nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if resp["jsonrpc"] != "2.0" {
		t.Fatalf("expected jsonrpc 2.0, got %v", resp["jsonrpc"])
	}
	// id should match what we sent
	if resp["id"].(float64) != 1 {
		t.Fatalf("expected id 1, got %v", resp["id"])
	}
	if resp["result"] == nil {
		t.Fatal("expected result in response")
	}
}

// --- WebSocket endpoint ---

func TestIntegration_WebSocketEndpoint(t *testing.T) {
	serverURL, _, _, _, cleanup := startIntegrationServer(t)
	defer cleanup()

	conn := wsConnectIntegration(t, serverURL)
	defer conn.Close(cws.StatusNormalClosure, "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := map[string]any{"jsonrpc": "2.0", "method": "system.getVersion", "id": 1}
	data, _ := json.Marshal(req)
	if err := conn.Write(ctx, cws.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, respData, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var resp map[string]any
	if err := json.Unmarshal(respData, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["result"] == nil {
		t.Fatalf("expected result, got error: %v", resp["error"])
	}
}

// --- Auth enforcement ---

func TestIntegration_AuthEnforcement_HTTP(t *testing.T) {
	serverURL, _, _, _, cleanup := startIntegrationServer(t)
	defer cleanup()

	// No auth
	code, _ := rpcPostRaw(t, serverURL, []byte(`{"jsonrpc":"2.0","method":"system.getVersion","id":1}`), "")
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", code)
	}

	// Wrong token
	code, _ = rpcPostRaw(t, serverURL, []byte(`{"jsonrpc":"2.0","method":"system.getVersion","id":1}`), "wrong-token")
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", code)
	}

	// Correct token
	code, _ = rpcPostRaw(t, serverURL, []byte(`{"jsonrpc":"2.0","method":"system.getVersion","id":1}`), integrationSecret)
	if code != http.StatusOK {
		t.Fatalf("expected 200 with correct token, got %d", code)
	}
}

func TestIntegration_AuthEnforcement_WS(t *testing.T) {
	serverURL, _, _, _, cleanup := startIntegrationServer(t)
	defer cleanup()

	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/jsonrpc/ws"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// No auth
	_, resp, err := cws.Dial(ctx, wsURL, nil)
	if err == nil {
		t.Fatal("expected error for WS without auth")
	}
	if resp != nil && resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// Wrong auth
	_, resp, err = cws.Dial(ctx, wsURL, &cws.DialOptions{
		HTTPHeader: http.Header{
			"Authorization": []string{"Bearer wrong"},
		},
	})
	if err == nil {
		t.Fatal("expected error for WS with wrong auth")
	}
	if resp != nil && resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// Correct auth
	conn, _, err := cws.Dial(ctx, wsURL, &cws.DialOptions{
		HTTPHeader: http.Header{
			"Authorization": []string{"Bearer " + integrationSecret},
		},
	})
	if err != nil {
		t.Fatalf("expected successful WS connection, got %v", err)
	}
	conn.Close(cws.StatusNormalClosure, "")
}

// --- Localhost binding ---

func TestIntegration_LocalhostBinding(t *testing.T) {
	pool := NewPool(log.New(io.Discard, "", 0))
	ws := NewWebServer(log.New(io.Discard, "", 0), nil, pool, 9999, nil, nil, nil)
	addr := ws.addr()
	if !strings.HasPrefix(addr, "127.0.0.1:") {
		t.Fatalf("expected 127.0.0.1 binding, got %s", addr)
	}
}

// --- price.track ---

func TestIntegration_PriceTrack(t *testing.T) {
	serverURL, pageURL, _, m, cleanup := startIntegrationServer(t)
	defer cleanup()

	code, resp := rpcPost(t, serverURL, "price.track", map[string]any{
		"url": pageURL + "/integration-widget",
	})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	result := resp["result"].(map[string]any)
	pid := result["productId"].(string)
	if pid == "" {
		t.Fatal("expected non-empty productId")
	}
	if result["title"] != "integration widget" {
		t.Fatalf("expected derived title, got %v", result["title"])
	}
	if m.GetProduct(pid) == nil {
		t.Fatal("product not found in manager")
	}

	// The first check runs in the background.
	waitForPrice(t, serverURL, pid, 45.99, 10*time.Second)
}

// --- price.untrack ---

func TestIntegration_PriceUntrack(t *testing.T) {
	serverURL, pageURL, _, _, cleanup := startIntegrationServer(t)
	defer cleanup()

	_, addResp := rpcPost(t, serverURL, "price.track", map[string]any{
		"url": pageURL + "/remove-integration",
	})
	pid := addResp["result"].(map[string]any)["productId"].(string)

	// Wait for the initial check; untracking mid-refresh is refused.
	waitForPrice(t, serverURL, pid, 45.99, 10*time.Second)

	code, resp := rpcPost(t, serverURL, "price.untrack", map[string]any{"productId": pid})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if resp["error"] != nil {
		t.Fatalf("expected no error, got %v", resp["error"])
	}

	// Verify removed: history should return error
	_, histResp := rpcPost(t, serverURL, "price.history", map[string]any{"productId": pid})
	if histResp["error"] == nil {
		t.Fatal("expected error for untracked product history")
	}
}

// --- price.list ---

func TestIntegration_PriceList(t *testing.T) {
	serverURL, pageURL, _, _, cleanup := startIntegrationServer(t)
	defer cleanup()

	_, resp1 := rpcPost(t, serverURL, "price.track", map[string]any{
		"url": pageURL + "/list-1",
	})
	pid1 := resp1["result"].(map[string]any)["productId"].(string)

	_, resp2 := rpcPost(t, serverURL, "price.track", map[string]any{
		"url": pageURL + "/list-2",
	})
	pid2 := resp2["result"].(map[string]any)["productId"].(string)

	waitForPrice(t, serverURL, pid1, 45.99, 10*time.Second)
	waitForPrice(t, serverURL, pid2, 45.99, 10*time.Second)

	code, listResp := rpcPost(t, serverURL, "price.list", nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	result := listResp["result"].(map[string]any)
	products := result["products"].([]any)
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	for _, raw := range products {
		item := raw.(map[string]any)
		if item["currentPrice"].(float64) != 45.99 {
			t.Fatalf("expected currentPrice 45.99, got %v", item["currentPrice"])
		}
	}
}

// --- system.getVersion ---

func TestIntegration_SystemGetVersion(t *testing.T) {
	serverURL, _, _, _, cleanup := startIntegrationServer(t)
	defer cleanup()

	code, resp := rpcPost(t, serverURL, "system.getVersion", nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	result := resp["result"].(map[string]any)
	if result["version"] != "1.0.0-test" {
		t.Fatalf("expected version 1.0.0-test, got %v", result["version"])
	}
	if result["commit"] != "abc123" {
		t.Fatalf("expected commit abc123, got %v", result["commit"])
	}
	if result["buildType"] != "integration" {
		t.Fatalf("expected buildType integration, got %v", result["buildType"])
	}
}

// --- WebSocket push notifications ---

func TestIntegration_WebSocketNotifications(t *testing.T) {
	serverURL, pageURL, ex, _, cleanup := startIntegrationServer(t)
	defer cleanup()

	// Track first and let the initial check settle so the stream the
	// client collects starts at the forced refresh below.
	_, addResp := rpcPost(t, serverURL, "price.track", map[string]any{
		"url": pageURL + "/ws-notify",
	})
	pid := addResp["result"].(map[string]any)["productId"].(string)
	waitForPrice(t, serverURL, pid, 45.99, 10*time.Second)

	conn := wsConnectIntegration(t, serverURL)
	defer conn.Close(cws.StatusNormalClosure, "")

	// Wait for registration
	time.Sleep(100 * time.Millisecond)

	ex.setPrice(tracklib.PriceFromFloat(39.99))
	_, refResp := rpcPost(t, serverURL, "price.refresh", map[string]any{"productId": pid})
	if refResp["error"] != nil {
		t.Fatalf("price.refresh error: %v", refResp["error"])
	}

	// Collect notifications from the WebSocket
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	methods := make(map[string]bool)
	for !methods[NotifyPriceChanged] {
		_, msgData, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg map[string]any
		if err := json.Unmarshal(msgData, &msg); err != nil {
			continue
		}
		method, ok := msg["method"].(string)
		if !ok {
			continue
		}
		methods[method] = true
		if method == NotifyPriceChanged {
			params := msg["params"].(map[string]any)
			if params["productId"] != pid {
				t.Fatalf("expected productId %s in notification, got %v", pid, params["productId"])
			}
			// Prices ride the wire in cents.
			if params["newPrice"].(float64) != 3999 {
				t.Fatalf("expected newPrice 3999, got %v", params["newPrice"])
			}
		}
	}

	if !methods[NotifyRefreshStarted] {
		t.Fatal("expected refresh started notification")
	}
	if !methods[NotifyPriceChanged] {
		t.Fatal("expected price changed notification")
	}
}

// --- Error codes ---

func TestIntegration_ErrorCodes(t *testing.T) {
	serverURL, _, _, _, cleanup := startIntegrationServer(t)
	defer cleanup()

	// Invalid JSON -> -32700 (parse error) or HTTP 500 from jhttp bridge
	code, _ := rpcPostRaw(t, serverURL, []byte("not valid json"), integrationSecret)
	if code != http.StatusInternalServerError && code != http.StatusOK {
		t.Fatalf("expected 500 or 200 for invalid JSON, got %d", code)
	}

	// Unknown method -> -32601
	_, resp := rpcPost(t, serverURL, "nonexistent.method", nil)
	errObj := resp["error"].(map[string]any)
	if errObj["code"].(float64) != -32601 {
		t.Fatalf("expected -32601 for unknown method, got %v", errObj["code"])
	}

	// price.history with unknown product -> -32001
	_, resp = rpcPost(t, serverURL, "price.history", map[string]any{"productId": "fake-hash"})
	errObj = resp["error"].(map[string]any)
	if errObj["code"].(float64) != float64(codeProductNotFound) {
		t.Fatalf("expected %d for unknown product, got %v", codeProductNotFound, errObj["code"])
	}

	// price.track with missing url -> -32602
	_, resp = rpcPost(t, serverURL, "price.track", map[string]any{})
	errObj = resp["error"].(map[string]any)
	if errObj["code"].(float64) != float64(codeInvalidParams) {
		t.Fatalf("expected %d for missing url, got %v", codeInvalidParams, errObj["code"])
	}
}

// --- Full lifecycle test ---

func TestIntegration_FullLifecycle(t *testing.T) {
	serverURL, pageURL, ex, _, cleanup := startIntegrationServer(t)
	defer cleanup()

	// Track a product and let the first check record a price
	_, addResp := rpcPost(t, serverURL, "price.track", map[string]any{
		"url": pageURL + "/lifecycle",
	})
	pid := addResp["result"].(map[string]any)["productId"].(string)
	waitForPrice(t, serverURL, pid, 45.99, 10*time.Second)

	// Arm an alert above the price the next check will observe
	_, alertResp := rpcPost(t, serverURL, "alert.set", map[string]any{
		"productId":   pid,
		"targetPrice": 40.00,
	})
	if alertResp["error"] != nil {
		t.Fatalf("alert.set error: %v", alertResp["error"])
	}

	// Drop the price and force a check
	ex.setPrice(tracklib.PriceFromFloat(39.99))
	_, refResp := rpcPost(t, serverURL, "price.refresh", map[string]any{"productId": pid})
	if refResp["error"] != nil {
		t.Fatalf("price.refresh error: %v", refResp["error"])
	}
	refResult := refResp["result"].(map[string]any)
	if refResult["changed"] != true {
		t.Fatalf("expected changed true, got %v", refResult["changed"])
	}

	// History should hold both observations in order
	_, histResp := rpcPost(t, serverURL, "price.history", map[string]any{"productId": pid})
	histResult := histResp["result"].(map[string]any)
	points := histResult["points"].([]any)
	if len(points) != 2 {
		t.Fatalf("expected 2 history points, got %d", len(points))
	}
	first := points[0].(map[string]any)
	second := points[1].(map[string]any)
	if first["price"].(float64) != 45.99 {
		t.Fatalf("expected first point 45.99, got %v", first["price"])
	}
	if second["price"].(float64) != 39.99 {
		t.Fatalf("expected second point 39.99, got %v", second["price"])
	}

	// Untrack
	_, untrackResp := rpcPost(t, serverURL, "price.untrack", map[string]any{"productId": pid})
	if untrackResp["error"] != nil {
		t.Fatalf("untrack error: %v", untrackResp["error"])
	}

	// History should now return error
	_, histResp2 := rpcPost(t, serverURL, "price.history", map[string]any{"productId": pid})
	if histResp2["error"] == nil {
		t.Fatal("expected error for untracked product")
	}
	errObj := histResp2["error"].(map[string]any)
	if errObj["code"].(float64) != float64(codeProductNotFound) {
		t.Fatalf("expected %d, got %v", codeProductNotFound, errObj["code"])
	}
}

// --- Concurrent tracks test ---

func TestIntegration_ConcurrentTracks(t *testing.T) {
	serverURL, pageURL, _, _, cleanup := startIntegrationServer(t)
	defer cleanup()

	results := make(chan string, 2)

	for i := 0; i < 2; i++ {
		go func(i int) {
			_, resp := rpcPost(t, serverURL, "price.track", map[string]any{
				"url": pageURL + "/concurrent-" + string(rune('a'+i)),
			})
			if resp["error"] != nil {
				results <- ""
				return
			}
			results <- resp["result"].(map[string]any)["productId"].(string)
		}(i)
	}

	pids := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		if pid := <-results; pid != "" {
			pids = append(pids, pid)
		}
	}

	if len(pids) != 2 {
		t.Fatalf("expected 2 tracked products, got %d", len(pids))
	}

	for _, pid := range pids {
		waitForPrice(t, serverURL, pid, 45.99, 10*time.Second)
	}

	_, listResp := rpcPost(t, serverURL, "price.list", map[string]any{"all": true})
	result := listResp["result"].(map[string]any)
	products := result["products"].([]any)
	if len(products) != 2 {
		t.Fatalf("expected 2 products in list, got %d", len(products))
	}
}

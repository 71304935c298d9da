package tracklib

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubExtractor struct {
	result ExtractResult
	err    error
	calls  int
}

func (s *stubExtractor) Extract(ctx context.Context, url string, body []byte) (ExtractResult, error) {
	s.calls++
	return s.result, s.err
}

func testPage(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestRefresherRecordsPrice(t *testing.T) {
	m := newTestManager(t)
	defer m.Close()
	srv := testPage(t, "<html>widget page</html>")

	p, err := m.Track(srv.URL+"/widget", &TrackOpts{CheckEvery: time.Hour})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}

	ex := &stubExtractor{result: ExtractResult{Price: 4599, Currency: "USD", Source: "stub"}}
	var updated bool
	r := NewRefresher(m, NewFetcher(srv.Client(), nil), ex, discardLogger(), &RefreshHandlers{
		PriceUpdatedHandler: func(hash string, old, new Price, currency string) {
			updated = true
			if old != 0 || new != 4599 {
				t.Errorf("PriceUpdated old=%v new=%v", old, new)
			}
		},
	})

	changed, err := r.RefreshProduct(context.Background(), p.Hash)
	if err != nil {
		t.Fatalf("RefreshProduct: %v", err)
	}
	if !changed || !updated {
		t.Error("expected a price change on first observation")
	}
	got := m.GetProduct(p.Hash)
	if got.CurrentPrice != 4599 {
		t.Errorf("CurrentPrice = %v, want 4599", got.CurrentPrice)
	}
	if got.History[0].Source != "stub" {
		t.Errorf("Source = %q, want stub", got.History[0].Source)
	}
	if !got.NextCheckAt.After(time.Now().Add(50 * time.Minute)) {
		t.Error("interval schedule not advanced")
	}
}

func TestRefresherPriceMissing(t *testing.T) {
	m := newTestManager(t)
	defer m.Close()
	srv := testPage(t, "<html>no price here</html>")

	p, err := m.Track(srv.URL+"/widget", nil)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}

	ex := &stubExtractor{result: ExtractResult{}}
	var gotErr error
	r := NewRefresher(m, NewFetcher(srv.Client(), nil), ex, discardLogger(), &RefreshHandlers{
		ErrorHandler: func(hash string, err error) { gotErr = err },
	})

	if _, err := r.RefreshProduct(context.Background(), p.Hash); !errors.Is(err, ErrPriceMissing) {
		t.Fatalf("expected ErrPriceMissing, got %v", err)
	}
	if !errors.Is(gotErr, ErrPriceMissing) {
		t.Errorf("error handler not invoked with ErrPriceMissing, got %v", gotErr)
	}
	if !m.GetProduct(p.Hash).CurrentPrice.IsZero() {
		t.Error("failed check must not record a price")
	}
}

func TestRefresherUnknownProduct(t *testing.T) {
	m := newTestManager(t)
	defer m.Close()
	r := NewRefresher(m, nil, &stubExtractor{}, discardLogger(), nil)
	if _, err := r.RefreshProduct(context.Background(), "nope"); err != ErrProductNotFound {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestRefreshAllCycle(t *testing.T) {
	m := newTestManager(t)
	defer m.Close()
	srv := testPage(t, "<html>page</html>")

	for _, path := range []string{"/a", "/b", "/c"} {
		if _, err := m.Track(srv.URL+path, &TrackOpts{CheckEvery: time.Hour}); err != nil {
			t.Fatalf("Track: %v", err)
		}
	}

	ex := &stubExtractor{result: ExtractResult{Price: 999, Currency: "USD"}}
	var cycleDone bool
	r := NewRefresher(m, NewFetcher(srv.Client(), nil), ex, discardLogger(), &RefreshHandlers{
		CycleCompleteHandler: func(checked, changed, failed int) {
			cycleDone = true
			if checked != 3 || changed != 3 || failed != 0 {
				t.Errorf("cycle stats = %d/%d/%d, want 3/3/0", checked, changed, failed)
			}
		},
	})

	// Nothing is due yet: first checks are an hour out.
	stats := r.RefreshAll(context.Background(), false)
	if stats.Checked != 0 {
		t.Fatalf("expected no due products, checked %d", stats.Checked)
	}
	cycleDone = false

	stats = r.RefreshAll(context.Background(), true)
	if stats.Checked != 3 || stats.Changed != 3 {
		t.Fatalf("forced cycle stats = %+v", stats)
	}
	if !cycleDone {
		t.Error("CycleCompleteHandler not invoked")
	}
	if ex.calls != 3 {
		t.Errorf("extractor calls = %d, want 3", ex.calls)
	}
}

func TestRefreshAllStopsOnCancel(t *testing.T) {
	m := newTestManager(t)
	defer m.Close()
	srv := testPage(t, "<html>page</html>")

	for _, path := range []string{"/a", "/b"} {
		if _, err := m.Track(srv.URL+path, nil); err != nil {
			t.Fatalf("Track: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRefresher(m, NewFetcher(srv.Client(), nil), &stubExtractor{}, discardLogger(), nil)
	stats := r.RefreshAll(ctx, true)
	if stats.Checked != 0 {
		t.Errorf("cancelled cycle checked %d products, want 0", stats.Checked)
	}
}

package tracklib

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetcherAppliesHeaders(t *testing.T) {
	var gotUA, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Session")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), Headers{{Key: "X-Session", Value: "base"}})
	res, err := f.FetchPage(context.Background(), srv.URL, Headers{{Key: "X-Session", Value: "override"}})
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if gotUA != DEF_USER_AGENT {
		t.Errorf("User-Agent = %q, want %q", gotUA, DEF_USER_AGENT)
	}
	if gotCustom != "override" {
		t.Errorf("X-Session = %q, want per-product override", gotCustom)
	}
	if string(res.Body) != "<html>ok</html>" {
		t.Errorf("unexpected body: %q", res.Body)
	}
	if res.Status != http.StatusOK {
		t.Errorf("Status = %d", res.Status)
	}
}

func TestFetcherBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil)
	_, err := f.FetchPage(context.Background(), srv.URL, nil)
	if !errors.Is(err, ErrBadPageStatus) {
		t.Fatalf("expected ErrBadPageStatus, got %v", err)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error should carry the status: %v", err)
	}
}

func TestFetcherPageTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		big := make([]byte, MaxPageBytes+1)
		w.Write(big)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil)
	_, err := f.FetchPage(context.Background(), srv.URL, nil)
	if !errors.Is(err, ErrPageTooLarge) {
		t.Fatalf("expected ErrPageTooLarge, got %v", err)
	}
}

func TestFetcherContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewFetcher(srv.Client(), nil)
	if _, err := f.FetchPage(ctx, srv.URL, nil); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

package tracklib

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// FetchResult is the outcome of fetching a product page.
type FetchResult struct {
	// Body is the page content, capped at MaxPageBytes.
	Body []byte
	// FinalURL is the url after following redirects.
	FinalURL string
	// Status is the HTTP status code.
	Status int
	// ContentType is the response Content-Type header.
	ContentType string
}

// Fetcher retrieves product pages for price extraction. A nil client
// gets a default one with the redirect policy applied.
type Fetcher struct {
	client  *http.Client
	headers Headers
}

// NewFetcher creates a page fetcher. The base headers are applied to
// every request; per-product headers are layered on top.
func NewFetcher(client *http.Client, headers Headers) *Fetcher {
	if client == nil {
		client = &http.Client{
			CheckRedirect: RedirectPolicy(DefaultMaxRedirects),
		}
	}
	return &Fetcher{client: client, headers: headers}
}

// FetchPage GETs the product page. Responses beyond MaxPageBytes return
// ErrPageTooLarge; non-2xx statuses return ErrBadPageStatus wrapped with
// the status code.
func (f *Fetcher) FetchPage(ctx context.Context, url string, extra Headers) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	headers := make(Headers, 0, len(f.headers)+len(extra)+1)
	headers = append(headers, f.headers...)
	for _, h := range extra {
		headers.Update(h.Key, h.Value)
	}
	headers.InitOrUpdate(USER_AGENT_KEY, DEF_USER_AGENT)
	headers.Set(req.Header)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrBadPageStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	if len(body) > MaxPageBytes {
		return nil, ErrPageTooLarge
	}

	return &FetchResult{
		Body:        body,
		FinalURL:    resp.Request.URL.String(),
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

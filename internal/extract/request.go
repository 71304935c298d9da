package extract

import (
	_ "embed"
	"io"
	"net/http"
	"strings"

	"github.com/dop251/goja"
)

//go:embed request.js
var requestJs string

func loadRequestJs(runtime *goja.Runtime) {
	runtime.RunString(requestJs)
}

// Request is the JS-side request shape accepted by _make_request.
type Request struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// Response is what _make_request hands back to the runtime.
type Response struct {
	ContentLength int64   `json:"content_length"`
	Body          string  `json:"body"`
	StatusCode    int     `json:"status_code"`
	Headers       *Header `json:"headers"`
}

const maxResponseBytes = 1024 * 1024

// _requestCallback lets extractors fetch auxiliary resources (price APIs,
// variant endpoints). Session cookies for the request host are attached
// from the cookie source so member prices resolve.
func _requestCallback(runtime *goja.Runtime, client *http.Client, cookies CookieSource) func(goja.FunctionCall) goja.Value {
	return func(v goja.FunctionCall) goja.Value {
		if len(v.Arguments) != 1 {
			throw(runtime, "invalid number of arguments")
			return nil
		}
		var r Request
		if err := runtime.ExportTo(v.Arguments[0], &r); err != nil {
			throw(runtime, err.Error())
			return nil
		}
		req, err := http.NewRequest(r.Method, r.URL, strings.NewReader(r.Body))
		if err != nil {
			throw(runtime, err.Error())
			return nil
		}
		for k, val := range r.Headers {
			req.Header.Add(k, val)
		}
		if cookies != nil {
			for _, c := range cookies.CookiesForHost(req.URL.Hostname()) {
				req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value, Path: c.Path})
			}
		}
		resp, err := client.Do(req)
		if err != nil {
			throw(runtime, err.Error())
			return nil
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			throw(runtime, err.Error())
			return nil
		}
		return runtime.ToValue(Response{
			ContentLength: resp.ContentLength,
			Body:          string(b),
			StatusCode:    resp.StatusCode,
			Headers: &Header{
				std:     resp.Header,
				runtime: runtime,
			},
		})
	}
}

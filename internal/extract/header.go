package extract

import (
	_ "embed"
	"net/http"
	"strings"

	"github.com/dop251/goja"
)

//go:embed header.js
var headerJs string

func loadHeaderJs(runtime *goja.Runtime) {
	runtime.RunString(headerJs)
}

// Header bridges http.Header into the JS runtime with a Fetch-style
// surface. Set-Cookie values are reachable only through GetSetCookies.
type Header struct {
	std     http.Header
	runtime *goja.Runtime
}

func (h Header) Append(key, value string) {
	v := h.std.Get(key)
	h.std.Set(key, strings.Join([]string{v, value}, ","))
}

func (h Header) Delete(key string) {
	h.std.Del(key)
}

func (h Header) Entries() [][]string {
	v := make([][]string, 0, len(h.std))
	for k, vals := range h.std {
		if k == "Set-Cookie" {
			continue
		}
		v = append(v, []string{k, vals[0]})
	}
	return v
}

func (h Header) ForEach(callback any) {
	cb, ok := callback.(func(goja.FunctionCall) goja.Value)
	if !ok {
		throw(h.runtime, "invalid function type")
		return
	}
	for k, v := range h.std {
		if k == "Set-Cookie" {
			continue
		}
		cb(goja.FunctionCall{
			Arguments: []goja.Value{
				h.runtime.ToValue(v[0]),
				h.runtime.ToValue(k),
			},
		})
	}
}

func (h Header) Get(key string) string {
	return h.std.Get(key)
}

func (h Header) GetSetCookies() []string {
	return h.std["Set-Cookie"]
}

func (h Header) Has(key string) bool {
	return h.std.Get(key) != ""
}

func (h Header) Keys() []string {
	keys := make([]string, 0, len(h.std))
	for k := range h.std {
		if k == "Set-Cookie" {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

func (h Header) Set(key, value string) {
	h.std.Set(key, value)
}

func (h Header) Values() []string {
	values := make([]string, 0, len(h.std))
	for k, v := range h.std {
		if k == "Set-Cookie" {
			continue
		}
		values = append(values, v[0])
	}
	return values
}

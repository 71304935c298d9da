package extract

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/dop251/goja"
	requirePkg "github.com/dop251/goja_nodejs/require"

	"github.com/tagwatch/tagwatch/pkg/credman/types"
)

// CookieSource provides retailer session cookies for a host. The daemon
// passes the credman cookie manager; a nil source means anonymous
// requests only.
type CookieSource interface {
	CookiesForHost(host string) []*types.Cookie
}

// Runtime is a per-module JS runtime. Modules never share one.
type Runtime struct {
	*requirePkg.RequireModule
	*goja.Runtime
	l *log.Logger
	// imported records require()d files so migration can copy them.
	imported []string
}

// NewRuntime builds a runtime rooted at wd with the host functions and JS
// shims extractors rely on: print, require, and the request bridge.
func NewRuntime(l *log.Logger, wd string, cookies CookieSource) (*Runtime, error) {
	registry := new(requirePkg.Registry)
	runtime := goja.New()
	// json tags name the fields extractors see, so the request bridge
	// speaks lowercase on both sides.
	runtime.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	reqM := registry.Enable(runtime)
	if err := runtime.Set("print", print); err != nil {
		return nil, err
	}
	client := http.Client{}
	if err := runtime.Set("_make_request", _requestCallback(runtime, &client, cookies)); err != nil {
		return nil, err
	}
	loadHeaderJs(runtime)
	loadRequestJs(runtime)
	cRuntime := Runtime{
		Runtime:       runtime,
		RequireModule: reqM,
		l:             l,
		imported:      []string{},
	}
	if err := runtime.Set("require", cRuntime.require(wd)); err != nil {
		return nil, err
	}
	return &cRuntime, nil
}

func print(call goja.FunctionCall) goja.Value {
	for _, v := range call.Arguments {
		fmt.Print(v.Export())
		fmt.Print(" ")
	}
	fmt.Print("\n")
	return nil
}

// require resolves module names relative to the extractor directory and
// records what was imported.
func (r *Runtime) require(wd string) func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		modName := call.Arguments[0].String()
		modPath := filepath.Join(wd, modName)
		v, err := r.RequireModule.Require(modPath)
		if err != nil {
			r.l.Println("require: failed to import module:", modName)
			return nil
		}
		r.imported = append(r.imported, modName)
		return v
	}
}

func throw(runtime *goja.Runtime, errStr string) {
	runtime.RunString(fmt.Sprintf("throw new Error('%s')", errStr))
}

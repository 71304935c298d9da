package extract

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"

	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// Module is one JS price extractor. A module directory holds a
// manifest.json describing it plus the entrypoint script defining
// extract(url, body).
type Module struct {
	// ModuleId is the engine-assigned identifier, generated on install.
	ModuleId string `json:"-"`
	// Name of the extractor, e.g. "Acme Shop".
	Name string `json:"name"`
	// Version of the extractor.
	Version string `json:"version"`
	// Description of what pages it handles.
	Description string `json:"description"`
	// Matches is the list of URL regexes this extractor claims.
	Matches []string `json:"matches"`
	// Entrypoint is the main script file (default: main.js).
	Entrypoint string `json:"entrypoint,omitempty"`
	// Assets lists extra files shipped with the extractor, such as JS
	// files pulled in via require().
	Assets []string `json:"assets,omitempty"`

	// Activated modules participate in extraction. Persisted in the
	// engine state, not the manifest.
	Activated bool `json:"-"`

	modulePath string
	runtime    *Runtime
	l          *log.Logger
}

// OpenModule reads a module directory's manifest into a Module. The
// runtime is not allocated until Load.
func OpenModule(l *log.Logger, path string) (*Module, error) {
	manifestPath := filepath.Join(path, "manifest.json")
	file, err := os.Open(manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrInvalidExtractor
		}
		return nil, err
	}
	defer file.Close()
	var m = Module{
		l:          l,
		modulePath: strings.TrimSuffix(path, "/"),
	}
	if err := json.NewDecoder(file).Decode(&m); err != nil {
		return nil, err
	}
	if m.Entrypoint == "" {
		m.Entrypoint = DEF_MODULE_ENTRY
	}
	return &m, nil
}

// Load allocates a fresh JS runtime for the module and runs its
// entrypoint. Each module gets its own runtime, isolated from the rest.
func (m *Module) Load(cookies CookieSource) error {
	var err error
	m.runtime, err = NewRuntime(m.l, m.modulePath, cookies)
	if err != nil {
		return err
	}
	entryPath := filepath.Join(m.modulePath, m.Entrypoint)
	file, err := os.Open(entryPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrEntrypointNotFound
		}
		return err
	}
	defer file.Close()
	b, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	if _, err := m.runtime.RunString(string(b)); err != nil {
		return err
	}
	if m.runtime.Get(EXTRACT_CALLBACK) == nil {
		return ErrExtractNotDefined
	}
	return nil
}

// Unload drops the module's runtime. A deactivated module keeps its
// manifest but holds no JS state.
func (m *Module) Unload() {
	m.runtime = nil
}

// ExtractPage calls the module's extract(url, body) and converts the
// result. A "skip" return means the module declined the page.
func (m *Module) ExtractPage(url string, body []byte) (tracklib.ExtractResult, bool, error) {
	var zero tracklib.ExtractResult
	if m.runtime == nil {
		return zero, false, ErrModuleNotFound
	}
	fn, ok := goja.AssertFunction(m.runtime.Get(EXTRACT_CALLBACK))
	if !ok {
		return zero, false, ErrExtractNotDefined
	}
	v, err := fn(goja.Undefined(), m.runtime.ToValue(url), m.runtime.ToValue(string(body)))
	if err != nil {
		return zero, false, err
	}
	return m.convertResult(v)
}

// convertResult maps a JS return value to an ExtractResult. Accepted
// shapes: the string "skip", or an object with price (string or number),
// currency and title fields.
func (m *Module) convertResult(v goja.Value) (tracklib.ExtractResult, bool, error) {
	var zero tracklib.ExtractResult
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return zero, true, nil
	}
	exported := v.Export()
	if s, ok := exported.(string); ok {
		if s == EXPORTED_SKIP {
			return zero, true, nil
		}
		return zero, false, ErrInvalidReturnType
	}
	fields, ok := exported.(map[string]any)
	if !ok {
		return zero, false, ErrInvalidReturnType
	}

	res := tracklib.ExtractResult{Source: m.Name}
	switch p := fields["price"].(type) {
	case string:
		price, err := tracklib.ParsePrice(p)
		if err != nil {
			return zero, false, err
		}
		res.Price = price
	case float64:
		res.Price = tracklib.PriceFromFloat(p)
	case int64:
		res.Price = tracklib.PriceFromFloat(float64(p))
	default:
		return zero, false, ErrInvalidReturnType
	}
	if c, ok := fields["currency"].(string); ok {
		res.Currency = c
	}
	if title, ok := fields["title"].(string); ok {
		res.Title = title
	}
	return res, false, nil
}

package extract

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// LoadedModuleState is one installed extractor in the engine state file,
// keyed there by its install source path.
type LoadedModuleState struct {
	ModuleId    string `json:"module_id"`
	Name        string `json:"name"`
	IsActivated bool   `json:"is_activated"`
}

// Engine owns the installed extractor modules. It routes product pages to
// the matching module's JS runtime and falls back to structured page data
// when no module claims a URL. Engine implements tracklib.Extractor.
type Engine struct {
	mu sync.Mutex
	// state file module_engine.json
	f   *os.File
	enc *json.Encoder
	l   *log.Logger
	// msPath is the module storage directory.
	msPath  string
	modules []*Module
	// modIndex maps module id to its slot in modules.
	modIndex map[string]int
	cookies  CookieSource

	// LoadedModule is the persisted install-path to state mapping.
	LoadedModule map[string]LoadedModuleState `json:"loaded_modules"`
}

// NewEngine opens the engine state and loads every installed module.
// Activated modules get runtimes immediately; a module that fails to load
// is logged and skipped so one broken extractor cannot hold up startup.
// With debugger set, state and modules live under a debugger subtree.
func NewEngine(l *log.Logger, cookies CookieSource, debugger bool) (*Engine, error) {
	l.Println("creating extractor engine")
	engineDir := ENGINE_STORE
	moduleDir := MODULE_STORE
	if debugger {
		engineDir = filepath.Join(ENGINE_STORE, "debugger")
		moduleDir = filepath.Join(engineDir, "extractors")
	}
	if err := os.MkdirAll(moduleDir, 0755); err != nil {
		return nil, err
	}
	mePath := filepath.Join(engineDir, "module_engine.json")
	file, err := os.OpenFile(mePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	absMsPath, err := filepath.Abs(moduleDir)
	if err != nil {
		return nil, err
	}
	var e = Engine{
		l:            l,
		f:            file,
		enc:          json.NewEncoder(file),
		msPath:       absMsPath,
		LoadedModule: make(map[string]LoadedModuleState),
		modIndex:     make(map[string]int),
		cookies:      cookies,
	}
	e.enc.SetIndent("", "  ")
	if err := json.NewDecoder(file).Decode(&e); err != nil {
		if err == io.EOF {
			return &e, nil
		}
		return nil, err
	}
	for _, state := range e.LoadedModule {
		m, err := OpenModule(l, filepath.Join(absMsPath, state.ModuleId))
		if err != nil {
			l.Println("extractor", state.ModuleId, "unreadable, skipping:", err)
			continue
		}
		m.ModuleId = state.ModuleId
		m.Activated = state.IsActivated
		if m.Activated {
			if err := m.Load(e.cookies); err != nil {
				l.Println("extractor", state.ModuleId, "failed to load, skipping:", err)
				continue
			}
		}
		e.modIndex[m.ModuleId] = len(e.modules)
		e.modules = append(e.modules, m)
	}
	return &e, nil
}

// AddModule installs the extractor at path: load it, copy it into the
// module store and activate it. Reinstalling from the same path keeps the
// module id.
func (e *Engine) AddModule(path string) (*Module, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.l.Println("adding extractor:", path)
	m, err := OpenModule(e.l, path)
	if err != nil {
		return nil, err
	}
	if err := m.Load(e.cookies); err != nil {
		return nil, err
	}
	if err := migrateModule(m, e.LoadedModule[path].ModuleId, e.msPath, e.cookies); err != nil {
		return nil, err
	}
	if i, ok := e.modIndex[m.ModuleId]; ok {
		e.modules[i] = m
	} else {
		e.modIndex[m.ModuleId] = len(e.modules)
		e.modules = append(e.modules, m)
	}
	e.LoadedModule[path] = LoadedModuleState{
		ModuleId:    m.ModuleId,
		Name:        m.Name,
		IsActivated: true,
	}
	e.l.Println("added extractor:", m.Name, "(", m.ModuleId, ")")
	return m, e.save()
}

// DeleteModule removes an extractor from the engine and deletes its files.
func (e *Engine) DeleteModule(moduleId string) (*Module, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.modIndex[moduleId]
	if !ok {
		return nil, ErrModuleNotFound
	}
	m := e.modules[i]
	m.Unload()
	delete(e.modIndex, moduleId)
	last := len(e.modules) - 1
	if i != last {
		e.modules[i] = e.modules[last]
		e.modIndex[e.modules[i].ModuleId] = i
	}
	e.modules = e.modules[:last]
	for path, state := range e.LoadedModule {
		if state.ModuleId == moduleId {
			delete(e.LoadedModule, path)
			break
		}
	}
	if err := os.RemoveAll(filepath.Join(e.msPath, moduleId)); err != nil {
		return nil, err
	}
	return m, e.save()
}

// DeactiveModule keeps an extractor installed but takes it out of the
// extraction path and frees its runtime.
func (e *Engine) DeactiveModule(moduleId string) (*Module, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.modIndex[moduleId]
	if !ok {
		return nil, ErrModuleNotFound
	}
	m := e.modules[i]
	m.Unload()
	m.Activated = false
	e.setState(moduleId, false)
	return m, e.save()
}

// ActivateModule loads a deactivated extractor back into service.
func (e *Engine) ActivateModule(moduleId string) (*Module, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.modIndex[moduleId]
	if !ok {
		return nil, ErrModuleNotFound
	}
	m := e.modules[i]
	if !m.Activated {
		if err := m.Load(e.cookies); err != nil {
			return nil, err
		}
		m.Activated = true
		e.setState(moduleId, true)
	}
	return m, e.save()
}

func (e *Engine) setState(moduleId string, activated bool) {
	for path, state := range e.LoadedModule {
		if state.ModuleId == moduleId {
			state.IsActivated = activated
			e.LoadedModule[path] = state
			return
		}
	}
}

// GetModule returns the installed module with the given id, or nil.
func (e *Engine) GetModule(moduleId string) *Module {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i, ok := e.modIndex[moduleId]; ok {
		return e.modules[i]
	}
	return nil
}

// ListModules returns the installed modules, restricted to activated ones
// when activeOnly is set.
func (e *Engine) ListModules(activeOnly bool) []*Module {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Module, 0, len(e.modules))
	for _, m := range e.modules {
		if activeOnly && !m.Activated {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Extract resolves a product page to a price. The first activated module
// whose pattern matches the URL runs; a module may answer "skip" to pass.
// Unmatched pages go through the builtin structured-data fallback. A zero
// result with nil error means no price was found.
func (e *Engine) Extract(ctx context.Context, url string, body []byte) (tracklib.ExtractResult, error) {
	if err := ctx.Err(); err != nil {
		return tracklib.ExtractResult{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, m := range e.modules {
		if !m.Activated {
			continue
		}
		for _, pattern := range m.Matches {
			ok, err := regexp.MatchString(pattern, url)
			if !ok || err != nil {
				continue
			}
			e.l.Println("extractor", m.Name, "(", m.ModuleId, ") claims", url)
			res, skipped, err := m.ExtractPage(url, body)
			if err != nil {
				return tracklib.ExtractResult{}, err
			}
			if skipped {
				break
			}
			return res, nil
		}
	}
	return fallbackExtract(body), nil
}

// save writes the engine state file. Caller holds the mutex.
func (e *Engine) save() error {
	if _, err := e.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := e.f.Truncate(0); err != nil {
		return err
	}
	return e.enc.Encode(e)
}

// Save flushes the engine state to disk.
func (e *Engine) Save() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.save()
}

func (e *Engine) Close() error {
	return e.f.Close()
}

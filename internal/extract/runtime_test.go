package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dop251/goja"
)

func TestRuntimeRequire(t *testing.T) {
	dir := t.TempDir()
	mod := "module.exports = { tax: function(p) { return p * 2; } };\n"
	if err := os.WriteFile(filepath.Join(dir, "helper.js"), []byte(mod), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	r, err := NewRuntime(discardLog(), dir, nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	v, err := r.RunString(`require("helper.js").tax(21)`)
	if err != nil {
		t.Fatalf("RunString: %v", err)
	}
	if v.ToInteger() != 42 {
		t.Errorf("tax(21) = %d, want 42", v.ToInteger())
	}
	if len(r.imported) != 1 || r.imported[0] != "helper.js" {
		t.Errorf("imported = %v, want [helper.js]", r.imported)
	}
}

func TestRuntimeRequireMissingModule(t *testing.T) {
	r, err := NewRuntime(discardLog(), t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	v, err := r.RunString(`require("missing.js")`)
	if err != nil {
		t.Fatalf("RunString: %v", err)
	}
	if v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		t.Errorf("expected nothing for missing module, got %v", v)
	}
	if len(r.imported) != 0 {
		t.Errorf("imported = %v, want empty", r.imported)
	}
}

func TestRuntimeShimsLoaded(t *testing.T) {
	r, err := NewRuntime(discardLog(), t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	for _, name := range []string{"get", "post", "sendRequest", "Headers", "print", "_make_request"} {
		if r.Get(name) == nil {
			t.Errorf("expected %s to be defined", name)
		}
	}
}

func TestThrow(t *testing.T) {
	r, err := NewRuntime(discardLog(), t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	throw(r.Runtime, "boom")
}

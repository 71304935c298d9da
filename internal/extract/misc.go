package extract

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

var (
	ENGINE_STORE = tracklib.DataDir
	MODULE_STORE = filepath.Join(ENGINE_STORE, "extractors")
)

const (
	DEF_MODULE_ENTRY = "main.js"
	DEF_MODULE_HASH  = 16

	EXTRACT_CALLBACK = "extract"

	// A module returns "skip" to decline a page it matched.
	EXPORTED_SKIP = "skip"
)

var (
	ErrInvalidExtractor = errors.New("invalid extractor module")

	ErrExtractNotDefined  = errors.New("extract function not defined")
	ErrInvalidReturnType  = errors.New("invalid return type")
	ErrEntrypointNotFound = errors.New("entrypoint not found")

	ErrModuleNotFound = errors.New("module not found")
)

// SetEngineStore points the engine and module stores at base. Used by the
// daemon to root them in the data directory and by tests for isolation.
func SetEngineStore(base string) error {
	if base == "" {
		return errors.New("engine store path is empty")
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return err
	}
	ENGINE_STORE = abs
	MODULE_STORE = filepath.Join(abs, "extractors")
	return os.MkdirAll(MODULE_STORE, 0755)
}

func generateHash(n int) string {
	t := make([]byte, n/2)
	_, _ = rand.Read(t)
	return hex.EncodeToString(t)
}

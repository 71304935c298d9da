//go:build !windows

package trackcli

import (
	"os"
	"path/filepath"

	"github.com/tagwatch/tagwatch/common"
)

func socketPath() string {
	if path := os.Getenv(common.SocketPathEnv); path != "" {
		return path
	}
	return filepath.Join(os.TempDir(), "tagwatch.sock")
}

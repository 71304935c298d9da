package cmd

import (
	"os"
	"testing"

	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
)

func TestMain(m *testing.M) {
	// Never fork a real daemon from tests; commands talk to the fake
	// server listening at TAGWATCH_SOCKET_PATH instead.
	_ = os.Setenv(common.SkipDaemonSpawnEnv, "1")
	_ = os.Setenv(trackcli.VersionCheckEnv, "1")
	os.Exit(m.Run())
}

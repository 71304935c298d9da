//go:build windows

package trackcli

import "github.com/tagwatch/tagwatch/common"

func pipePath() string {
	return common.PipePath()
}

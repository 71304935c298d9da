package nativehost

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/internal/nativehost"
)

func status(c *cli.Context) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("failed to get home directory: %v", err), 1)
	}

	fmt.Println("Native Messaging Host Status")
	fmt.Println("============================")
	fmt.Printf("Host Name: %s\n\n", nativehost.HostName)

	for _, b := range nativehost.SupportedBrowsers() {
		path := nativehost.ManifestPath(b, homeDir)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("%s: Installed\n", b)
			fmt.Printf("  Path: %s\n", path)
		} else {
			fmt.Printf("%s: Not installed\n", b)
		}
	}

	return nil
}

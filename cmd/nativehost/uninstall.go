package nativehost

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/internal/nativehost"
)

func uninstall(c *cli.Context) error {
	browser := c.String("browser")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("failed to get home directory: %v", err), 1)
	}

	removed := []string{}
	errors := []string{}

	uninstallBrowser := func(b nativehost.Browser) {
		path := nativehost.ManifestPath(b, homeDir)
		if path == "" {
			return
		}
		if err := nativehost.UninstallManifest(path); err != nil {
			errors = append(errors, fmt.Sprintf("%s: %v", b, err))
		} else {
			removed = append(removed, fmt.Sprintf("%s: removed (or was not installed)", b))
		}
	}

	switch browser {
	case "all":
		for _, b := range nativehost.SupportedBrowsers() {
			uninstallBrowser(b)
		}
	case "chrome":
		uninstallBrowser(nativehost.BrowserChrome)
	case "chromium":
		uninstallBrowser(nativehost.BrowserChromium)
	case "edge":
		uninstallBrowser(nativehost.BrowserEdge)
	case "brave":
		uninstallBrowser(nativehost.BrowserBrave)
	case "firefox":
		uninstallBrowser(nativehost.BrowserFirefox)
	default:
		return cli.NewExitError(fmt.Sprintf("unknown browser: %s", browser), 1)
	}

	if len(removed) > 0 {
		fmt.Println("Uninstalled manifests:")
		for _, m := range removed {
			fmt.Printf("  %s\n", m)
		}
	}

	if len(errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range errors {
			fmt.Printf("  %s\n", e)
		}
	}

	return nil
}

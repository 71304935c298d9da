//go:build windows

package cookies

import (
	"os"
	"path/filepath"
)

// getBrowserCookiePathsForEnv builds browser specs from the given
// environment values. Testable variant of getBrowserCookiePaths.
func getBrowserCookiePathsForEnv(localAppData, appData string) []browserSpec {
	var specs []browserSpec

	// Firefox-family stores live under APPDATA (Roaming).
	specs = append(specs, browserSpec{
		Name: "Firefox",
		ProfilesIniPaths: []string{
			filepath.Join(appData, "Mozilla", "Firefox", "profiles.ini"),
		},
	})
	specs = append(specs, browserSpec{
		Name: "LibreWolf",
		ProfilesIniPaths: []string{
			filepath.Join(appData, "LibreWolf", "profiles.ini"),
		},
	})

	// Chromium-family stores live under LOCALAPPDATA.
	chromiumFamily := []struct {
		name string
		dirs []string
	}{
		{"Chrome", []string{"Google", "Chrome"}},
		{"Chromium", []string{"Chromium"}},
		{"Edge", []string{"Microsoft", "Edge"}},
		{"Brave", []string{"BraveSoftware", "Brave-Browser"}},
	}
	for _, b := range chromiumFamily {
		parts := append([]string{localAppData}, b.dirs...)
		base := filepath.Join(append(parts, "User Data", "Default")...)
		specs = append(specs, browserSpec{Name: b.name, CookiePaths: []string{
			filepath.Join(base, "Network", "Cookies"),
			filepath.Join(base, "Cookies"),
		}})
	}

	return specs
}

// getBrowserCookiePaths builds browser specs from the real environment.
func getBrowserCookiePaths() []browserSpec {
	return getBrowserCookiePathsForEnv(
		os.Getenv("LOCALAPPDATA"),
		os.Getenv("APPDATA"),
	)
}

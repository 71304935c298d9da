package cookies

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// browserSpec describes where one browser keeps its cookie database.
type browserSpec struct {
	// Name is the human-readable browser name, e.g. "Firefox".
	Name string
	// CookiePaths lists direct cookie file candidates for Chromium-family
	// browsers. The first path that exists wins.
	CookiePaths []string
	// ProfilesIniPaths lists candidate profiles.ini files for
	// Firefox-family browsers. Empty for Chromium-family.
	ProfilesIniPaths []string
}

// parseProfilesIni resolves the default profile directory out of a
// Firefox-style profiles.ini.
//
// Modern Firefox records it under [Install*] Default=; older profiles
// mark a [Profile*] section with Default=1. Returns "" when the file
// is missing or names no default.
func parseProfilesIni(iniPath string) string {
	f, err := os.Open(iniPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	iniDir := filepath.Dir(iniPath)

	var installDefault string
	var profileDefault string
	var inInstallSection bool
	var inProfileSection bool
	var currentPath string
	var currentIsDefault bool

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			if inProfileSection && currentIsDefault && profileDefault == "" {
				profileDefault = currentPath
			}
			sectionName := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			inInstallSection = strings.HasPrefix(sectionName, "Install")
			inProfileSection = strings.HasPrefix(sectionName, "Profile")
			currentPath = ""
			currentIsDefault = false
			continue
		}
		k, v, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if inInstallSection && key == "Default" && installDefault == "" {
			installDefault = filepath.Join(iniDir, filepath.FromSlash(val))
		}
		if inProfileSection {
			if key == "Path" {
				currentPath = filepath.Join(iniDir, filepath.FromSlash(val))
			}
			if key == "Default" && val == "1" {
				currentIsDefault = true
			}
		}
	}
	if inProfileSection && currentIsDefault && profileDefault == "" {
		profileDefault = currentPath
	}

	if installDefault != "" {
		return installDefault
	}
	return profileDefault
}

// detectWithSpecs scans browser specs in order and imports from the first
// store that yields cookies for the domain. Split out as a testable seam.
func detectWithSpecs(domain string, specs []browserSpec) ([]Cookie, *ImportSource, error) {
	for _, spec := range specs {
		if len(spec.ProfilesIniPaths) > 0 {
			for _, iniPath := range spec.ProfilesIniPaths {
				profileDir := parseProfilesIni(iniPath)
				if profileDir == "" {
					continue
				}
				cookiePath := filepath.Join(profileDir, "cookies.sqlite")
				if _, err := os.Stat(cookiePath); err != nil {
					continue
				}
				imported, source, err := ImportCookies(cookiePath, domain)
				if err != nil {
					continue
				}
				source.Browser = spec.Name
				return imported, source, nil
			}
		} else {
			for _, cookiePath := range spec.CookiePaths {
				if _, err := os.Stat(cookiePath); err != nil {
					continue
				}
				imported, source, err := ImportCookies(cookiePath, domain)
				if err != nil {
					continue
				}
				source.Browser = spec.Name
				return imported, source, nil
			}
		}
	}
	return nil, nil, fmt.Errorf(
		"no supported browser cookie store found (tried Firefox, LibreWolf, Chrome, Chromium, Edge, Brave)",
	)
}

// DetectBrowserCookies scans known browser cookie stores and returns
// cookies for the domain from the first store that has any.
//
// Priority: Firefox > LibreWolf > Chrome > Chromium > Edge > Brave.
func DetectBrowserCookies(domain string) ([]Cookie, *ImportSource, error) {
	return detectWithSpecs(domain, getBrowserCookiePaths())
}

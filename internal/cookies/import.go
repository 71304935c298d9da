package cookies

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tagwatch/tagwatch/pkg/credman/types"
)

// AutoDetect asks the import to scan known browser locations instead of
// reading a specific store file.
const AutoDetect = "auto"

// Vault receives imported session cookies. The daemon passes the credman
// cookie manager.
type Vault interface {
	SetCookie(cookie types.Cookie) error
}

// ImportCookies reads cookies for a retailer domain from the store at
// sourcePath. It detects the format, copies SQLite stores aside and
// parses the rest in place.
func ImportCookies(sourcePath string, domain string) ([]Cookie, *ImportSource, error) {
	format, err := DetectFormat(sourcePath)
	if err != nil {
		return nil, nil, err
	}

	source := &ImportSource{
		Path:   sourcePath,
		Format: format,
	}

	var imported []Cookie
	switch format {
	case FormatFirefox:
		source.Browser = "Firefox"
		imported, err = importSQLite(sourcePath, domain, ParseFirefox)
	case FormatChrome:
		source.Browser = "Chrome"
		imported, err = importSQLite(sourcePath, domain, ParseChrome)
	case FormatNetscape:
		source.Browser = "Netscape"
		imported, err = ParseNetscape(sourcePath, domain)
	default:
		return nil, nil, fmt.Errorf("unsupported cookie store format at %s", sourcePath)
	}
	if err != nil {
		return nil, nil, err
	}
	return imported, source, nil
}

// importSQLite copies a SQLite cookie store aside and parses the copy.
func importSQLite(sourcePath, domain string, parser func(string, string) ([]Cookie, error)) ([]Cookie, error) {
	tempDir, cleanup, err := SafeCopy(sourcePath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	copiedPath := filepath.Join(tempDir, filepath.Base(sourcePath))
	return parser(copiedPath, domain)
}

// StoreCookies pushes imported cookies into the vault and returns how
// many were stored. It stops at the first vault error.
func StoreCookies(v Vault, imported []Cookie) (int, error) {
	for i, c := range imported {
		err := v.SetCookie(types.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expiry,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
		if err != nil {
			return i, fmt.Errorf("storing cookie %s for %s: %w", c.Name, c.Domain, err)
		}
	}
	return len(imported), nil
}

// ImportForDomain imports a retailer's session into the vault. With
// sourcePath set to AutoDetect it scans known browser stores; otherwise
// it reads the given store file.
func ImportForDomain(v Vault, sourcePath, domain string) (int, *ImportSource, error) {
	var (
		imported []Cookie
		source   *ImportSource
		err      error
	)
	if sourcePath == AutoDetect {
		imported, source, err = DetectBrowserCookies(domain)
	} else {
		imported, source, err = ImportCookies(sourcePath, domain)
	}
	if err != nil {
		return 0, nil, err
	}
	n, err := StoreCookies(v, imported)
	if err != nil {
		return n, source, err
	}
	return n, source, nil
}

// BuildCookieHeader renders cookies as a Cookie request header value.
func BuildCookieHeader(cookies []Cookie) string {
	if len(cookies) == 0 {
		return ""
	}
	parts := make([]string, len(cookies))
	for i, c := range cookies {
		parts[i] = c.Name + "=" + c.Value
	}
	return strings.Join(parts, "; ")
}

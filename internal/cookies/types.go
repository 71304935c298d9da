package cookies

import "time"

// StoreFormat identifies the on-disk format of a browser cookie store.
type StoreFormat int

const (
	// FormatUnknown means the store format could not be detected.
	FormatUnknown StoreFormat = 0
	// FormatFirefox is the Firefox moz_cookies SQLite schema.
	FormatFirefox StoreFormat = 1
	// FormatChrome is the Chrome cookies SQLite schema. Only rows with an
	// unencrypted value are usable.
	FormatChrome StoreFormat = 2
	// FormatNetscape is the Netscape tab-separated text format.
	FormatNetscape StoreFormat = 3
)

// Cookie is a single cookie read out of a browser store, held in memory
// on its way to the vault. Value is sensitive and must never be logged
// or formatted into errors.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
	// Expiry is zero for session cookies.
	Expiry   time.Time
	Secure   bool
	HttpOnly bool
}

// ImportSource records where an import came from, for display after
// a session import. Browser is safe to show; Path only in debug output.
type ImportSource struct {
	Path    string
	Format  StoreFormat
	Browser string
}

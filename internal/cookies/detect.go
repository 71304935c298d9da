package cookies

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// sqliteMagic is the first 16 bytes of any SQLite database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// DetectFormat determines the cookie store format of the file at path.
func DetectFormat(path string) (StoreFormat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("cookie store not found: %s", path)
	}
	if info.IsDir() {
		return FormatUnknown, fmt.Errorf("%s is a directory, expected a cookie store file or 'auto'", path)
	}
	if info.Size() == 0 {
		return FormatUnknown, fmt.Errorf("cookie store at %s is empty", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("cannot open cookie store: %w", err)
	}
	defer f.Close()

	header := make([]byte, 16)
	n, err := f.Read(header)
	if err != nil {
		return FormatUnknown, fmt.Errorf("cannot read cookie store: %w", err)
	}
	if n >= 16 && string(header[:16]) == string(sqliteMagic) {
		return detectSQLiteFormat(path)
	}

	// Not SQLite. Netscape files announce themselves on the first line.
	f.Seek(0, 0)
	buf := make([]byte, 512)
	n, _ = f.Read(buf)
	firstLine := string(buf[:n])
	if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
		firstLine = firstLine[:idx]
	}
	firstLine = strings.TrimRight(firstLine, "\r")
	if firstLine == "# Netscape HTTP Cookie File" || firstLine == "# HTTP Cookie File" {
		return FormatNetscape, nil
	}

	return FormatUnknown, fmt.Errorf("unsupported cookie store format at %s", path)
}

// detectSQLiteFormat opens the SQLite file and checks which cookie table
// it carries.
func detectSQLiteFormat(path string) (StoreFormat, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return FormatUnknown, fmt.Errorf("cannot open SQLite database: %w", err)
	}
	defer db.Close()

	var tableName string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='moz_cookies'`).Scan(&tableName)
	if err == nil {
		return FormatFirefox, nil
	}
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='cookies'`).Scan(&tableName)
	if err == nil {
		return FormatChrome, nil
	}
	return FormatUnknown, fmt.Errorf("unsupported cookie store format at %s", path)
}

package cookies

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// chromeEpochOffsetSeconds is the number of seconds between the Windows NT
// epoch (1601-01-01) and the Unix epoch (1970-01-01).
const chromeEpochOffsetSeconds int64 = 11_644_473_600

// chromeToUnix converts a Chrome timestamp (microseconds since 1601-01-01)
// to Unix seconds.
func chromeToUnix(chromeUSec int64) int64 {
	return (chromeUSec / 1_000_000) - chromeEpochOffsetSeconds
}

// ParseChrome reads unexpired cookies for a retailer domain from a Chrome
// Cookies SQLite file. Encrypted rows (empty value column) are skipped;
// the DPAPI/keychain-protected ciphertext is not worth carrying. dbPath
// must point at a copy, not the live browser database.
func ParseChrome(dbPath string, domain string) ([]Cookie, error) {
	dsn := fmt.Sprintf("file:%s?immutable=1", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open Chrome cookie database: %w", err)
	}
	defer db.Close()

	now := time.Now().Unix()
	dotDomain := "." + domain
	wildcardDomain := "%." + domain
	nowChrome := (now + chromeEpochOffsetSeconds) * 1_000_000

	rows, err := db.Query(`
        SELECT name, value, host_key, path, expires_utc, is_secure, is_httponly
        FROM cookies
        WHERE (host_key = ? OR host_key = ? OR host_key LIKE ?)
          AND value != ''
          AND expires_utc > ?
        ORDER BY path DESC, name ASC
    `, domain, dotDomain, wildcardDomain, nowChrome)
	if err != nil {
		return nil, fmt.Errorf("querying Chrome cookies: %w", err)
	}
	defer rows.Close()

	var out []Cookie
	for rows.Next() {
		var (
			name, value, hostKey, path string
			expiresUTC                 int64
			isSecure, isHttpOnly       int
		)
		if err := rows.Scan(&name, &value, &hostKey, &path, &expiresUTC, &isSecure, &isHttpOnly); err != nil {
			return nil, fmt.Errorf("scanning Chrome cookie row: %w", err)
		}
		out = append(out, Cookie{
			Name:     name,
			Value:    value,
			Domain:   hostKey,
			Path:     path,
			Expiry:   time.Unix(chromeToUnix(expiresUTC), 0),
			Secure:   isSecure != 0,
			HttpOnly: isHttpOnly != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating Chrome cookie rows: %w", err)
	}
	return out, nil
}

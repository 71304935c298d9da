package cookies

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ParseNetscape reads cookies for a retailer domain from a Netscape-format
// cookie text file. Comment lines are skipped, except #HttpOnly_ which
// marks the cookie HttpOnly. An expiry of 0 means a session cookie and
// maps to a zero Expiry. Malformed lines are skipped with a warning.
func ParseNetscape(filePath string, domain string) ([]Cookie, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot open Netscape cookie file: %w", err)
	}
	defer f.Close()

	now := time.Now()
	dotDomain := "." + domain
	var out []Cookie

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		httpOnly := false
		if strings.HasPrefix(line, "#HttpOnly_") {
			httpOnly = true
			line = line[len("#HttpOnly_"):]
		} else if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			log.Printf("warning: skipping malformed Netscape cookie line: %q", line)
			continue
		}

		cookieDomain := fields[0]
		// fields[1] is the subdomain flag, implied by a leading dot.
		cookiePath := fields[2]
		secure := strings.EqualFold(fields[3], "TRUE")
		expiry, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			log.Printf("warning: skipping cookie with invalid expiry: %q", fields[4])
			continue
		}
		name := fields[5]
		value := fields[6]

		if !matchesDomain(cookieDomain, domain, dotDomain) {
			continue
		}
		if expiry > 0 && time.Unix(expiry, 0).Before(now) {
			continue
		}

		var expires time.Time
		if expiry > 0 {
			expires = time.Unix(expiry, 0)
		}
		out = append(out, Cookie{
			Name:     name,
			Value:    value,
			Domain:   cookieDomain,
			Path:     cookiePath,
			Expiry:   expires,
			Secure:   secure,
			HttpOnly: httpOnly,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading Netscape cookie file: %w", err)
	}
	return out, nil
}

// matchesDomain reports whether a cookie domain covers the target domain:
// exact match, dot-prefixed match, or parent-domain match.
func matchesDomain(cookieDomain, domain, dotDomain string) bool {
	if cookieDomain == domain || cookieDomain == dotDomain {
		return true
	}
	return strings.HasSuffix(cookieDomain, dotDomain)
}

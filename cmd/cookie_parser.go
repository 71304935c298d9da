package cmd

import (
	"fmt"
	"strings"
)

// parseCookieString validates a --cookie value of the form
// "name=value; name2=value2" and returns it normalized for use as a
// Cookie request header. Empty names and pairs without '=' are
// rejected so a malformed flag does not silently send garbage.
func parseCookieString(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	var pairs []string
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.Index(part, "=")
		if eq <= 0 {
			return "", fmt.Errorf("invalid cookie pair %q, expected name=value", part)
		}
		name := strings.TrimSpace(part[:eq])
		value := strings.TrimSpace(part[eq+1:])
		if name == "" {
			return "", fmt.Errorf("invalid cookie pair %q, expected name=value", part)
		}
		pairs = append(pairs, name+"="+value)
	}
	if len(pairs) == 0 {
		return "", nil
	}
	return strings.Join(pairs, "; "), nil
}

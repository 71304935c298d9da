package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// requireToken gates an http.Handler behind Bearer token auth. Failures
// answer with a JSON-RPC 2.0 error body rather than a bare HTTP error so
// RPC clients can parse the rejection. An empty secret rejects everything:
// the RPC surface is opt-in.
func requireToken(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if validToken(secret, r.Header.Get("Authorization")) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"error": map[string]any{
				"code":    -32600,
				"message": "Unauthorized",
			},
			"id": nil,
		})
	})
}

// validToken reports whether the Authorization header carries the secret
// as a Bearer token. The comparison is constant time so the secret cannot
// be probed byte by byte.
func validToken(secret, authHeader string) bool {
	if secret == "" {
		return false
	}
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

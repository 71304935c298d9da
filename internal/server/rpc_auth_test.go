package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func authRequest(t *testing.T, handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/jsonrpc", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestRequireTokenValid(t *testing.T) {
	secret := "tagwatch-rpc-secret"
	rr := authRequest(t, requireToken(secret, okHandler), "Bearer "+secret)
	if rr.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("Body = %q, want %q", rr.Body.String(), "ok")
	}
}

func TestRequireTokenMissingAnswersRPCError(t *testing.T) {
	rr := authRequest(t, requireToken("tagwatch-rpc-secret", okHandler), "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Code = %d, want 401", rr.Code)
	}

	// The rejection body must be a parseable JSON-RPC error.
	var resp struct {
		Jsonrpc string `json:"jsonrpc"`
		Error   struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal rejection body: %v", err)
	}
	if resp.Jsonrpc != "2.0" {
		t.Errorf("jsonrpc = %q, want 2.0", resp.Jsonrpc)
	}
	if resp.Error.Code != -32600 {
		t.Errorf("error code = %d, want -32600", resp.Error.Code)
	}
	if resp.Error.Message != "Unauthorized" {
		t.Errorf("error message = %q, want Unauthorized", resp.Error.Message)
	}
}

func TestRequireTokenWrongToken(t *testing.T) {
	rr := authRequest(t, requireToken("tagwatch-rpc-secret", okHandler), "Bearer nope")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Code = %d, want 401", rr.Code)
	}
}

func TestRequireTokenEmptySecretRejectsAll(t *testing.T) {
	// No secret configured means the RPC surface is closed, not open.
	rr := authRequest(t, requireToken("", okHandler), "Bearer anything")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Code = %d, want 401", rr.Code)
	}
}

func TestRequireTokenNeedsBearerPrefix(t *testing.T) {
	secret := "my-secret"
	handler := requireToken(secret, okHandler)

	if rr := authRequest(t, handler, secret); rr.Code != http.StatusUnauthorized {
		t.Fatalf("bare secret header: Code = %d, want 401", rr.Code)
	}
	if rr := authRequest(t, handler, "Bearer "+secret); rr.Code != http.StatusOK {
		t.Fatalf("Bearer header: Code = %d, want 200", rr.Code)
	}
}

func TestValidToken(t *testing.T) {
	cases := []struct {
		secret, header string
		want           bool
	}{
		{"secret", "Bearer secret", true},
		{"secret", "Bearer wrong", false},
		{"secret", "", false},
		{"secret", "secret", false},
		{"", "Bearer anything", false},
		{"", "", false},
	}
	for _, c := range cases {
		if got := validToken(c.secret, c.header); got != c.want {
			t.Errorf("validToken(%q, %q) = %v, want %v", c.secret, c.header, got, c.want)
		}
	}
}

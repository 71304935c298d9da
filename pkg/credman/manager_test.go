package credman

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tagwatch/tagwatch/pkg/credman/types"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return key
}

func newTestManager(t *testing.T, key []byte) (*CookieManager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.tag")
	cm, err := NewCookieManager(path, key)
	if err != nil {
		t.Fatalf("NewCookieManager: %v", err)
	}
	return cm, path
}

func sessionCookie() types.Cookie {
	return types.Cookie{
		Name:     "session",
		Value:    "member-token-123",
		Domain:   "shop.example.com",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
	}
}

func TestSetGetCookie(t *testing.T) {
	cm, _ := newTestManager(t, testKey(t))
	defer cm.Close()

	if err := cm.SetCookie(sessionCookie()); err != nil {
		t.Fatalf("SetCookie: %v", err)
	}
	got, err := cm.GetCookie("shop.example.com", "session")
	if err != nil {
		t.Fatalf("GetCookie: %v", err)
	}
	if got.Value != "member-token-123" {
		t.Errorf("Value = %q, want decrypted original", got.Value)
	}
	if got.Domain != "shop.example.com" || !got.HttpOnly {
		t.Errorf("unexpected cookie: %+v", got)
	}
}

func TestValueEncryptedAtRest(t *testing.T) {
	cm, path := newTestManager(t, testKey(t))
	if err := cm.SetCookie(sessionCookie()); err != nil {
		t.Fatalf("SetCookie: %v", err)
	}
	if err := cm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if containsBytes(raw, []byte("member-token-123")) {
		t.Error("plaintext cookie value found in cookie file")
	}
}

func containsBytes(haystack, needle []byte) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return true
		}
	}
	return false
}

func TestSameNameDifferentDomains(t *testing.T) {
	cm, _ := newTestManager(t, testKey(t))
	defer cm.Close()

	a := sessionCookie()
	b := sessionCookie()
	b.Domain = "other.example.org"
	b.Value = "other-token"

	if err := cm.SetCookie(a); err != nil {
		t.Fatalf("SetCookie a: %v", err)
	}
	if err := cm.SetCookie(b); err != nil {
		t.Fatalf("SetCookie b: %v", err)
	}

	gotA, err := cm.GetCookie("shop.example.com", "session")
	if err != nil {
		t.Fatalf("GetCookie a: %v", err)
	}
	gotB, err := cm.GetCookie("other.example.org", "session")
	if err != nil {
		t.Fatalf("GetCookie b: %v", err)
	}
	if gotA.Value == gotB.Value {
		t.Error("cookies for different domains collided")
	}
}

func TestDeleteCookie(t *testing.T) {
	cm, _ := newTestManager(t, testKey(t))
	defer cm.Close()

	if err := cm.SetCookie(sessionCookie()); err != nil {
		t.Fatalf("SetCookie: %v", err)
	}
	if err := cm.DeleteCookie("shop.example.com", "session"); err != nil {
		t.Fatalf("DeleteCookie: %v", err)
	}
	if _, err := cm.GetCookie("shop.example.com", "session"); err == nil {
		t.Error("expected error for deleted cookie")
	}
	if err := cm.DeleteCookie("shop.example.com", "session"); err == nil {
		t.Error("expected error deleting missing cookie")
	}
}

func TestUpdateCookie(t *testing.T) {
	cm, _ := newTestManager(t, testKey(t))
	defer cm.Close()

	c := sessionCookie()
	if err := cm.SetCookie(c); err != nil {
		t.Fatalf("SetCookie: %v", err)
	}
	c.Value = "rotated-token"
	if err := cm.UpdateCookie(&c); err != nil {
		t.Fatalf("UpdateCookie: %v", err)
	}
	got, err := cm.GetCookie("shop.example.com", "session")
	if err != nil {
		t.Fatalf("GetCookie: %v", err)
	}
	if got.Value != "rotated-token" {
		t.Errorf("Value = %q, want rotated-token", got.Value)
	}
}

func TestPersistAcrossReopen(t *testing.T) {
	key := testKey(t)
	path := filepath.Join(t.TempDir(), "sessions.tag")

	cm, err := NewCookieManager(path, key)
	if err != nil {
		t.Fatalf("NewCookieManager: %v", err)
	}
	if err := cm.SetCookie(sessionCookie()); err != nil {
		t.Fatalf("SetCookie: %v", err)
	}
	if err := cm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	cm2, err := NewCookieManager(path, key)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer cm2.Close()
	got, err := cm2.GetCookie("shop.example.com", "session")
	if err != nil {
		t.Fatalf("GetCookie after reopen: %v", err)
	}
	if got.Value != "member-token-123" {
		t.Errorf("Value = %q after reopen", got.Value)
	}
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.tag")
	if err := os.WriteFile(path, []byte("not a gob stream"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cm, err := NewCookieManager(path, testKey(t))
	if err != nil {
		t.Fatalf("NewCookieManager on corrupt file: %v", err)
	}
	defer cm.Close()
	if _, err := cm.GetCookie("shop.example.com", "session"); err == nil {
		t.Error("expected empty manager after corrupt file")
	}
}

func TestCookiesForHost(t *testing.T) {
	cm, _ := newTestManager(t, testKey(t))
	defer cm.Close()

	cookies := []types.Cookie{
		{Name: "session", Value: "v1", Domain: "shop.example.com", Expires: time.Now().Add(time.Hour)},
		{Name: "prefs", Value: "v2", Domain: ".example.com", Expires: time.Now().Add(time.Hour)},
		{Name: "session", Value: "v3", Domain: "unrelated.org", Expires: time.Now().Add(time.Hour)},
		{Name: "stale", Value: "v4", Domain: "shop.example.com", Expires: time.Now().Add(-time.Hour)},
	}
	for _, c := range cookies {
		if err := cm.SetCookie(c); err != nil {
			t.Fatalf("SetCookie %s: %v", c.Name, err)
		}
	}

	got := cm.CookiesForHost("shop.example.com")
	if len(got) != 2 {
		t.Fatalf("CookiesForHost returned %d cookies, want 2", len(got))
	}
	// Sorted by name: prefs before session.
	if got[0].Name != "prefs" || got[1].Name != "session" {
		t.Errorf("unexpected order: %s, %s", got[0].Name, got[1].Name)
	}
	if got[1].Value != "v1" {
		t.Errorf("session value = %q, want decrypted v1", got[1].Value)
	}
}

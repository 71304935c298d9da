// Package credman stores retailer session cookies for member-price
// checks. Cookie values are encrypted at rest with a key held in the
// system keyring; the file itself is a gob-encoded map.
package credman

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tagwatch/tagwatch/pkg/credman/encryption"
	"github.com/tagwatch/tagwatch/pkg/credman/types"
)

// CookieManager owns the encrypted session-cookie file. Cookies are keyed
// by retailer domain plus name so two shops can both have a "session"
// cookie.
type CookieManager struct {
	f        *os.File
	filePath string
	key      []byte
	cookies  map[string]*types.Cookie
}

// NewCookieManager opens or creates the cookie file at filePath. Values
// stay encrypted until read back out.
func NewCookieManager(filePath string, key []byte) (*CookieManager, error) {
	cm := &CookieManager{
		filePath: filePath,
		key:      key,
		cookies:  make(map[string]*types.Cookie),
	}
	if err := cm.loadCookies(); err != nil {
		return nil, err
	}
	return cm, nil
}

func cookieKey(domain, name string) string {
	return strings.ToLower(domain) + "\x00" + name
}

func (cm *CookieManager) loadCookies() error {
	var err error
	cm.f, err = os.OpenFile(cm.filePath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(cm.f)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&cm.cookies); err != nil {
		// A corrupt cookie file starts over empty rather than blocking
		// every member-price fetch.
		cm.cookies = make(map[string]*types.Cookie)
	}
	return nil
}

func (cm *CookieManager) saveCookies() error {
	if _, err := cm.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := cm.f.Truncate(0); err != nil {
		return err
	}
	return gob.NewEncoder(cm.f).Encode(cm.cookies)
}

// SetCookie encrypts and stores a cookie, replacing any existing cookie
// with the same domain and name.
func (cm *CookieManager) SetCookie(cookie types.Cookie) error {
	encrypted, err := encryption.EncryptValue(cookie.Value, cm.key)
	if err != nil {
		return err
	}
	cookie.Value = string(encrypted)
	cm.cookies[cookieKey(cookie.Domain, cookie.Name)] = &cookie
	return cm.saveCookies()
}

// GetCookie returns the named cookie for a retailer domain with its value
// decrypted.
func (cm *CookieManager) GetCookie(domain, name string) (*types.Cookie, error) {
	cookie, ok := cm.cookies[cookieKey(domain, name)]
	if !ok {
		return nil, fmt.Errorf("cookie not found: %s/%s", domain, name)
	}
	decrypted, err := encryption.DecryptValue([]byte(cookie.Value), cm.key)
	if err != nil {
		return nil, err
	}
	out := *cookie
	out.Value = string(decrypted)
	return &out, nil
}

// DeleteCookie removes the named cookie for a retailer domain.
func (cm *CookieManager) DeleteCookie(domain, name string) error {
	k := cookieKey(domain, name)
	if _, ok := cm.cookies[k]; !ok {
		return fmt.Errorf("cookie not found: %s/%s", domain, name)
	}
	delete(cm.cookies, k)
	return cm.saveCookies()
}

// UpdateCookie re-encrypts and stores the given cookie.
func (cm *CookieManager) UpdateCookie(cookie *types.Cookie) error {
	return cm.SetCookie(*cookie)
}

// CookiesForHost returns decrypted, unexpired cookies whose domain matches
// host (exact match or parent-domain suffix), sorted by name. Expired and
// undecryptable cookies are skipped.
func (cm *CookieManager) CookiesForHost(host string) []*types.Cookie {
	host = strings.ToLower(host)
	now := time.Now()
	var out []*types.Cookie
	for _, c := range cm.cookies {
		if !domainMatches(host, strings.ToLower(c.Domain)) {
			continue
		}
		if c.Expired(now) {
			continue
		}
		decrypted, err := encryption.DecryptValue([]byte(c.Value), cm.key)
		if err != nil {
			continue
		}
		cc := *c
		cc.Value = string(decrypted)
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// domainMatches reports whether a cookie set for domain applies to host.
func domainMatches(host, domain string) bool {
	domain = strings.TrimPrefix(domain, ".")
	if host == domain {
		return true
	}
	return strings.HasSuffix(host, "."+domain)
}

// Close flushes the cookie map and closes the file.
func (cm *CookieManager) Close() error {
	defer cm.f.Close()
	return cm.saveCookies()
}

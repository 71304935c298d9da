// Package types defines the data structures shared across the credman
// package for retailer session storage.
package types

import (
	"time"
)

// Cookie is one retailer session cookie. It mirrors the fields of
// http.Cookie that matter for member-price fetching. Value is stored
// encrypted when persisted by the CookieManager.
type Cookie struct {
	// Name is the cookie name as the retailer set it.
	Name string
	// Value is the cookie content, encrypted at rest.
	Value string
	// Domain is the retailer host the cookie belongs to.
	Domain string
	// Path limits the cookie to a URL prefix. Empty means "/".
	Path string
	// Expires is the cookie's absolute expiry.
	Expires time.Time
	// MaxAge is the lifetime in seconds. Negative means expired.
	MaxAge int
	// Secure restricts the cookie to https requests.
	Secure bool
	// HttpOnly marks cookies not exposed to page scripts.
	HttpOnly bool
}

// Expired reports whether the cookie should no longer be sent.
func (c *Cookie) Expired(now time.Time) bool {
	if c.MaxAge < 0 {
		return true
	}
	if !c.Expires.IsZero() && c.Expires.Before(now) {
		return true
	}
	return false
}

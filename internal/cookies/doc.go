// Package cookies imports retailer login sessions from browser cookie
// stores. It reads Firefox (moz_cookies SQLite), Chrome-family (cookies
// SQLite, unencrypted values only) and Netscape text format stores,
// filters to a retailer domain and hands the result to the encrypted
// cookie vault so member prices resolve during refresh.
//
// Cookie values are sensitive. They are never logged and never written
// anywhere except the vault; only names and domains may appear in debug
// output.
package cookies

package tracklib

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// ProxyConfig holds the parsed proxy configuration for refresh fetches.
type ProxyConfig struct {
	Scheme   string
	Host     string
	Username string
	Password string
}

// URL returns the proxy URL as a string.
func (p *ProxyConfig) URL() string {
	var sb strings.Builder
	sb.WriteString(p.Scheme)
	sb.WriteString("://")
	if p.Username != "" {
		sb.WriteString(p.Username)
		if p.Password != "" {
			sb.WriteString(":")
			sb.WriteString(p.Password)
		}
		sb.WriteString("@")
	}
	sb.WriteString(p.Host)
	return sb.String()
}

var (
	ErrEmptyProxyURL     = errors.New("proxy URL cannot be empty")
	ErrUnsupportedScheme = errors.New("unsupported proxy scheme")
	ErrInvalidProxyURL   = errors.New("invalid proxy URL")
)

var supportedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"socks5": true,
}

// ParseProxyURL parses and validates a proxy URL string.
func ParseProxyURL(proxyURL string) (*ProxyConfig, error) {
	if proxyURL == "" {
		return nil, ErrEmptyProxyURL
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, ErrInvalidProxyURL
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, ErrInvalidProxyURL
	}

	if !supportedSchemes[parsed.Scheme] {
		return nil, ErrUnsupportedScheme
	}

	config := &ProxyConfig{
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
	}

	if parsed.User != nil {
		config.Username = parsed.User.Username()
		config.Password, _ = parsed.User.Password()
	}

	return config, nil
}

// NewHTTPClientWithProxy creates an HTTP client configured to use the
// specified proxy. If proxyURL is empty, returns a default client without
// proxy. The returned client always has CheckRedirect set to enforce the
// redirect policy.
func NewHTTPClientWithProxy(proxyURL string) (*http.Client, error) {
	if proxyURL == "" {
		return &http.Client{
			CheckRedirect: RedirectPolicy(DefaultMaxRedirects),
		}, nil
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, ErrInvalidProxyURL
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, ErrInvalidProxyURL
	}

	if !supportedSchemes[parsed.Scheme] {
		return nil, ErrUnsupportedScheme
	}

	transport := &http.Transport{}

	if parsed.Scheme == "socks5" {
		var auth *proxy.Auth
		if parsed.User != nil {
			pass, _ := parsed.User.Password()
			auth = &proxy.Auth{
				User:     parsed.User.Username(),
				Password: pass,
			}
		}
		dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
		if err != nil {
			return nil, err
		}
		transport.Dial = dialer.Dial
	} else {
		transport.Proxy = http.ProxyURL(parsed)
	}

	return &http.Client{
		Transport:     transport,
		CheckRedirect: RedirectPolicy(DefaultMaxRedirects),
	}, nil
}

// NewHTTPClientFromEnvironment creates an HTTP client honoring the
// standard HTTP_PROXY / HTTPS_PROXY / NO_PROXY environment variables.
func NewHTTPClientFromEnvironment() (*http.Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	return &http.Client{
		Transport:     transport,
		CheckRedirect: RedirectPolicy(DefaultMaxRedirects),
	}, nil
}

// NewHTTPClientWithProxyAndTimeout creates an HTTP client with proxy and
// custom timeout. Timeout is specified in milliseconds.
func NewHTTPClientWithProxyAndTimeout(proxyURL string, timeoutMs int) (*http.Client, error) {
	client, err := NewHTTPClientWithProxy(proxyURL)
	if err != nil {
		return nil, err
	}

	client.Timeout = time.Duration(timeoutMs) * time.Millisecond
	return client, nil
}

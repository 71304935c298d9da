package tracklib

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	DEF_USER_AGENT = "Tagwatch/1.0"

	// MaxPageBytes caps how much of a product page a refresh fetch reads.
	MaxPageBytes = 8 * 1024 * 1024
)

// ConfigDirEnv is the environment variable name used to override the default
// configuration directory.
const ConfigDirEnv = "TAGWATCH_CONFIG_DIR"

var (
	// ConfigDir is the absolute path to the tagwatch configuration directory.
	ConfigDir string
	// DataDir is the absolute path to the data directory where the product
	// state file, the checkpoint database and extractor modules live.
	DataDir string
)

// Path to the gob-encoded products file, set by setConfigDir.
var __PRODUCTS_FILE_NAME string

func init() {
	dir := os.Getenv(ConfigDirEnv)
	if dir == "" {
		dir = defaultConfigDir()
	}
	if err := setConfigDir(dir); err != nil {
		panic(err)
	}
}

func defaultConfigDir() string {
	cdr, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	if !dirExists(cdr) {
		if err = os.MkdirAll(cdr, 0755); err != nil {
			panic(err)
		}
	}
	return filepath.Join(cdr, "tagwatch")
}

func setConfigDir(dir string) error {
	if dir == "" {
		return errors.New("config dir is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return err
	}
	ConfigDir = abs
	DataDir = filepath.Join(abs, "data")
	if err := os.MkdirAll(DataDir, 0755); err != nil {
		return err
	}
	__PRODUCTS_FILE_NAME = filepath.Join(abs, "products.tw")
	return nil
}

// SetConfigDir sets the configuration directory to the specified path.
// It creates the directory and its subdirectories if they do not exist.
func SetConfigDir(dir string) error {
	return setConfigDir(dir)
}

// GetPath joins a directory and file name using the OS-specific path separator.
func GetPath(directory, file string) string {
	return filepath.Join(directory, file)
}

func dirExists(name string) bool {
	_, err := os.ReadDir(name)
	return !os.IsNotExist(err)
}

func newHash() string {
	buf := make([]byte, 4)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

// NormalizeURL canonicalizes a product url for duplicate detection:
// scheme and host are lowercased, default ports, fragments and common
// tracking query parameters are dropped. Returns ErrURLInvalid for
// non-http(s) urls.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrURLInvalid
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrURLInvalid
	}
	if u.Host == "" {
		return "", ErrURLInvalid
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}
	u.Fragment = ""
	q := u.Query()
	for key := range q {
		if isTrackingParam(key) {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func isTrackingParam(key string) bool {
	k := strings.ToLower(key)
	if strings.HasPrefix(k, "utm_") {
		return true
	}
	switch k {
	case "fbclid", "gclid", "mc_cid", "mc_eid", "ref", "tag":
		return true
	}
	return false
}

// TitleFromURL derives a fallback product title from the url path when
// a page yields no usable title.
func TitleFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segs[len(segs)-1]
	if last == "" {
		return u.Host
	}
	if dec, err := url.PathUnescape(last); err == nil {
		last = dec
	}
	last = strings.NewReplacer("-", " ", "_", " ").Replace(last)
	return strings.TrimSpace(last)
}

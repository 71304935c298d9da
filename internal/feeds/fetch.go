package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/tagwatch/tagwatch/internal/config"
)

// MaxFeedBytes caps how much of a feed file a sync reads. Retailer price
// lists run larger than single product pages.
const MaxFeedBytes = 32 * 1024 * 1024

// ErrFeedTooLarge is returned when a feed file exceeds MaxFeedBytes.
var ErrFeedTooLarge = errors.New("feeds: feed file too large")

const dialTimeout = 30 * time.Second

// fetch retrieves the raw feed file for the scheme in the feed url.
// Login resolution order: url userinfo, then the credential ref through
// the vault, then anonymous.
func (s *Syncer) fetch(ctx context.Context, feed config.Feed) ([]byte, error) {
	u, err := url.Parse(feed.Url)
	if err != nil {
		return nil, fmt.Errorf("feed %s: parse url: %w", feed.Name, err)
	}
	if u.Path == "" || u.Path == "/" {
		return nil, fmt.Errorf("feed %s: url has no file path", feed.Name)
	}

	user, pass, err := s.login(u, feed.CredentialRef)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", feed.Name, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "ftp":
		data, err := fetchFTP(ctx, u, user, pass)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", feed.Name, err)
		}
		return data, nil
	case "sftp":
		data, err := fetchSFTP(u, user, pass, s.knownHosts)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", feed.Name, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("feed %s: unsupported scheme %q", feed.Name, u.Scheme)
	}
}

// login resolves the feed credentials. Userinfo embedded in the url wins
// over the credential ref; with neither, FTP falls back to anonymous and
// SFTP to key auth with an empty password.
func (s *Syncer) login(u *url.URL, ref string) (user, pass string, err error) {
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
		return user, pass, nil
	}
	if ref != "" {
		if s.creds == nil {
			return "", "", fmt.Errorf("credential ref %q set but no credential source", ref)
		}
		return s.creds.Lookup(ref)
	}
	if strings.EqualFold(u.Scheme, "ftp") {
		return "anonymous", "anonymous", nil
	}
	return "", "", nil
}

func hostport(u *url.URL, defaultPort string) string {
	host := u.Host
	if !strings.Contains(host, ":") {
		host += ":" + defaultPort
	}
	return host
}

// fetchFTP downloads the file at u.Path over a single binary-mode stream.
func fetchFTP(ctx context.Context, u *url.URL, user, pass string) ([]byte, error) {
	host := hostport(u, "21")
	conn, err := ftp.Dial(host,
		ftp.DialWithTimeout(dialTimeout),
		ftp.DialWithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", host, err)
	}
	defer conn.Quit()

	if err := conn.Login(user, pass); err != nil {
		return nil, fmt.Errorf("login %s: %w", host, err)
	}
	if err := conn.Type(ftp.TransferTypeBinary); err != nil {
		return nil, fmt.Errorf("type %s: %w", host, err)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return nil, fmt.Errorf("retr %s: %w", u.Path, err)
	}
	defer resp.Close()

	return readCapped(resp)
}

// fetchSFTP downloads the file at u.Path over an SSH subsystem. Host keys
// are pinned trust-on-first-use in the tagwatch known_hosts file.
func fetchSFTP(u *url.URL, user, pass, knownHostsFile string) ([]byte, error) {
	if user == "" {
		return nil, errors.New("sftp feed needs a user in the url or a credential ref")
	}
	auth, err := sshAuthMethods(pass)
	if err != nil {
		return nil, err
	}

	cfg := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: newTOFUHostKeyCallback(knownHostsFile),
		Timeout:         dialTimeout,
	}

	host := hostport(u, "22")
	sshConn, err := ssh.Dial("tcp", host, cfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", host, err)
	}
	defer sshConn.Close()

	client, err := sftp.NewClient(sshConn)
	if err != nil {
		return nil, fmt.Errorf("sftp subsystem %s: %w", host, err)
	}
	defer client.Close()

	f, err := client.Open(u.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", u.Path, err)
	}
	defer f.Close()

	return readCapped(f)
}

// sshAuthMethods builds the SFTP auth chain: the password when one is
// set, otherwise the default local SSH keys.
func sshAuthMethods(pass string) ([]ssh.AuthMethod, error) {
	if pass != "" {
		return []ssh.AuthMethod{ssh.Password(pass)}, nil
	}

	keyPaths := defaultSSHKeyPaths()
	for _, kp := range keyPaths {
		pemBytes, err := os.ReadFile(kp)
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(pemBytes)
		if err != nil {
			var ppErr *ssh.PassphraseMissingError
			if errors.As(err, &ppErr) {
				return nil, fmt.Errorf("ssh key %q is passphrase-protected", kp)
			}
			continue
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	return nil, fmt.Errorf("no password and no usable ssh key at %s", strings.Join(keyPaths, ", "))
}

func defaultSSHKeyPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		home + "/.ssh/id_ed25519",
		home + "/.ssh/id_rsa",
	}
}

// readCapped reads r fully, failing once MaxFeedBytes is exceeded.
func readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFeedBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	if len(data) > MaxFeedBytes {
		return nil, ErrFeedTooLarge
	}
	return data, nil
}

package feeds

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// knownHostsMu serializes appends to the known_hosts file. First contact
// with a new feed host is rare, but two feeds syncing against different
// new hosts must not interleave writes.
var knownHostsMu sync.Mutex

// newTOFUHostKeyCallback builds an ssh.HostKeyCallback with a
// trust-on-first-use policy: a known host with a matching key passes, a
// known host with a changed key is rejected, and an unknown host is
// accepted and pinned. The file is re-read on every call so keys pinned
// by a concurrent sync are visible immediately.
func newTOFUHostKeyCallback(knownHostsFile string) ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		if err := os.MkdirAll(filepath.Dir(knownHostsFile), 0700); err != nil {
			return fmt.Errorf("feeds: create known_hosts dir: %w", err)
		}

		if _, err := os.Stat(knownHostsFile); err == nil {
			cb, loadErr := knownhosts.New(knownHostsFile)
			if loadErr != nil {
				return fmt.Errorf("feeds: load known_hosts: %w", loadErr)
			}
			err := cb(hostname, remote, key)
			if err == nil {
				return nil
			}
			var keyErr *knownhosts.KeyError
			if errors.As(err, &keyErr) {
				if len(keyErr.Want) > 0 {
					fp := ssh.FingerprintSHA256(key)
					return fmt.Errorf(
						"feeds: WARNING: host key changed for %s (got %s)\n"+
							"If this is expected, remove the old entry from %s",
						hostname, fp, knownHostsFile,
					)
				}
				// No wanted keys means the host is simply unknown.
			} else {
				return err
			}
		}

		return appendKnownHost(knownHostsFile, hostname, key)
	}
}

// appendKnownHost pins a new host key. knownhosts.Normalize keeps port 22
// implicit and brackets any other port.
func appendKnownHost(path, hostname string, key ssh.PublicKey) error {
	knownHostsMu.Lock()
	defer knownHostsMu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("feeds: write known_hosts: %w", err)
	}
	defer f.Close()

	line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)
	_, err = fmt.Fprintln(f, line)
	return err
}

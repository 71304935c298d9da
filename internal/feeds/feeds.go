// Package feeds ingests bulk price lists from retailer FTP and SFTP
// endpoints. A feed is a CSV of sku,url,price,currency rows; rows whose
// url matches a tracked product are applied through the manager so the
// usual price history, alert and event paths fire.
package feeds

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tagwatch/tagwatch/internal/config"
	"github.com/tagwatch/tagwatch/pkg/logger"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

// ErrFeedNotFound is returned when a named sync targets a feed that is
// not configured.
var ErrFeedNotFound = errors.New("feeds: feed not found")

// CredentialSource resolves a feed's credential reference to a login.
// The daemon passes the credman-backed vault.
type CredentialSource interface {
	Lookup(ref string) (user, password string, err error)
}

// Summary reports the outcome of a sync pass.
type Summary struct {
	// Feeds is the number of feeds fetched without error.
	Feeds int
	// Matched counts rows that matched a tracked product.
	Matched int
	// Updated counts matched rows that changed a product's price.
	Updated int
	// Skipped counts rows dropped for missing fields or bad prices.
	Skipped int
}

// Syncer fetches configured price feeds and applies matching rows to
// tracked products.
type Syncer struct {
	m          *tracklib.Manager
	log        logger.Logger
	feeds      []config.Feed
	creds      CredentialSource
	knownHosts string
}

// NewSyncer creates a Syncer over the given feed list. creds may be nil
// when no feed carries a credential ref.
func NewSyncer(m *tracklib.Manager, l logger.Logger, feeds []config.Feed, creds CredentialSource) *Syncer {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Syncer{
		m:          m,
		log:        l,
		feeds:      feeds,
		creds:      creds,
		knownHosts: DefaultKnownHostsPath(),
	}
}

// SetKnownHostsPath overrides where SFTP host keys are pinned.
func (s *Syncer) SetKnownHostsPath(path string) {
	s.knownHosts = path
}

// DefaultKnownHostsPath returns the tagwatch-private known_hosts file.
// Kept apart from ~/.ssh/known_hosts so feed syncs never touch system
// SSH state.
func DefaultKnownHostsPath() string {
	return filepath.Join(tracklib.ConfigDir, "known_hosts")
}

// Sync fetches and applies feeds. An empty name syncs every configured
// feed, logging and skipping the ones that fail; a named sync fetches
// just that feed and propagates its error.
func (s *Syncer) Sync(ctx context.Context, name string) (Summary, error) {
	if name != "" {
		feed, ok := s.find(name)
		if !ok {
			return Summary{}, fmt.Errorf("%w: %q", ErrFeedNotFound, name)
		}
		return s.syncOne(ctx, feed)
	}

	var total Summary
	for _, feed := range s.feeds {
		sum, err := s.syncOne(ctx, feed)
		if err != nil {
			s.log.Error("feed %s: %v", feed.Name, err)
			continue
		}
		total.Feeds += sum.Feeds
		total.Matched += sum.Matched
		total.Updated += sum.Updated
		total.Skipped += sum.Skipped
	}
	return total, nil
}

func (s *Syncer) find(name string) (config.Feed, bool) {
	for _, f := range s.feeds {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return config.Feed{}, false
}

func (s *Syncer) syncOne(ctx context.Context, feed config.Feed) (Summary, error) {
	data, err := s.fetch(ctx, feed)
	if err != nil {
		return Summary{}, err
	}
	rows, skipped, err := parseRows(bytes.NewReader(data))
	if err != nil {
		return Summary{}, fmt.Errorf("feed %s: %w", feed.Name, err)
	}

	sum := Summary{Feeds: 1, Skipped: skipped}
	now := time.Now()
	for _, row := range rows {
		nurl, err := tracklib.NormalizeURL(row.Url)
		if err != nil {
			sum.Skipped++
			continue
		}
		p := s.m.GetProductByUrl(nurl)
		if p == nil {
			continue
		}
		sum.Matched++
		old := p.CurrentPrice
		if _, err := s.m.RecordPrice(p.Hash, row.Price, row.Currency, feed.Name, now); err != nil {
			s.log.Warning("feed %s: record %s: %v", feed.Name, p.Hash, err)
			continue
		}
		if old != row.Price {
			sum.Updated++
		}
	}
	s.log.Info("feed %s: %d rows, %d matched, %d updated, %d skipped",
		feed.Name, len(rows), sum.Matched, sum.Updated, sum.Skipped)
	return sum, nil
}

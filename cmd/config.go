package cmd

import "time"

const (
	// MIN_CHECK_EVERY is the smallest accepted fixed check interval;
	// anything tighter just hammers the retailer.
	MIN_CHECK_EVERY = time.Minute

	DEF_HISTORY_LIMIT = 20
)

const DESCRIPTION = `
Tagwatch keeps an eye on product prices for you. Track any
product page, let the daemon check it on a schedule, and get
alerted the moment the price drops below your target.
`

const (
	TrackDescription = `The track command starts tracking the price of a product
page. The daemon fetches the page on a schedule and records
every observed price.

Example:
        tagwatch track https://shop.example.com/item/42
					OR
        tagwatch https://shop.example.com/item/42

`
	UntrackDescription = `The untrack command stops tracking a product and deletes
its recorded price history. Use "tagwatch list" to find the
product id.

Example:
        tagwatch untrack <product id>

`
	ListDescription = `The list command displays tracked products along with their
unique product ids, latest prices and alert state.

Example:
        tagwatch list

`
	HistoryDescription = `The history command prints the recorded price points of a
tracked product, oldest first.

Example:
        tagwatch history <product id>

`
	RefreshDescription = `The refresh command asks the daemon to re-check prices right
away: all due products, or one product when an id is given.

Example:
        tagwatch refresh
					OR
        tagwatch refresh <product id>

`
	WatchDescription = `The watch command attaches to a running refresh and streams
its price updates live. Use "*" to follow a whole cycle.

Example:
        tagwatch watch <product id>

`
	AlertDescription = `The alert command sets or clears a price alert on a tracked
product. Alerts fire when the price reaches your target or
drops by the given percentage in one check.

Example:
        tagwatch alert <product id> --target 49.99
        tagwatch alert <product id> --drop 15
        tagwatch alert <product id> --clear

`
	StatusDescription = `The status command reports daemon health: tracked product
and alert counts, uptime, and the retirement stage derived
from the persisted notice checkpoints.

Example:
        tagwatch status

`
	FeedDescription = `The feed command synchronizes configured merchant price
feeds (ftp/sftp CSV price lists) against tracked products.
Without a name every configured feed is fetched.

Example:
        tagwatch feed
					OR
        tagwatch feed <feed name>

`
	CookiesDescription = `The cookies command imports retailer session cookies from a
browser cookie store into the encrypted vault, so refreshes
see member-only prices. The store path may be "auto".

Example:
        tagwatch cookies --domain shop.example.com auto

`
)

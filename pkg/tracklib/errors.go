package tracklib

import "errors"

var (
	ErrPriceInvalid  = errors.New("price string has no parsable amount")
	ErrPriceMissing  = errors.New("no price found in page")
	ErrURLInvalid    = errors.New("product url is invalid")
	ErrPageTooLarge  = errors.New("product page exceeds size limit")
	ErrBadPageStatus = errors.New("product page returned non-success status")

	ErrProductNotFound = errors.New("product you are looking for is not tracked")
	ErrProductExists   = errors.New("product with this url is already tracked")

	ErrUntrackRefreshing = errors.New("product you are trying to untrack is being refreshed")

	ErrAlertNotSet = errors.New("product has no alert rule set")
)

package tracklib

import (
	"strconv"
	"strings"
)

// Price is a product price in minor currency units (cents for USD/EUR).
// The zero value means "no price observed yet".
type Price int64

func (p Price) v() (cents int64) {
	return int64(p)
}

// Float returns the price in major currency units.
func (p Price) Float() float64 {
	return float64(p) / 100
}

// String formats the price with two decimal places, e.g. "1299.99".
func (p Price) String() string {
	neg := p < 0
	c := p.v()
	if neg {
		c = -c
	}
	s := strconv.FormatInt(c/100, 10) + "." + pad2(c%100)
	if neg {
		s = "-" + s
	}
	return s
}

// Format renders the price with a currency code, e.g. "USD 1299.99".
// An empty currency yields the bare amount.
func (p Price) Format(currency string) string {
	if currency == "" {
		return p.String()
	}
	return currency + " " + p.String()
}

// IsZero reports whether no price has been observed.
func (p Price) IsZero() bool {
	return p.v() == 0
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// PriceFromFloat converts a price in major units to a Price,
// rounding half away from zero to the nearest cent.
func PriceFromFloat(v float64) Price {
	if v < 0 {
		return Price(int64(v*100 - 0.5))
	}
	return Price(int64(v*100 + 0.5))
}

// ParsePrice extracts a Price from a display string such as
// "$1,299.99", "1299.99 EUR" or "1.299,99". Currency symbols and
// letters are ignored. Returns ErrPriceInvalid for strings without
// a parsable amount or with a negative amount.
func ParsePrice(s string) (Price, error) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	raw := b.String()
	if raw == "" {
		return 0, ErrPriceInvalid
	}

	// European format uses '.' for thousands and ',' for decimals.
	// Decide by the last separator: it marks the decimal point when
	// followed by at most two digits.
	lastDot := strings.LastIndexByte(raw, '.')
	lastComma := strings.LastIndexByte(raw, ',')
	switch {
	case lastComma > lastDot:
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.Replace(raw, ",", ".", 1)
		raw = strings.ReplaceAll(raw, ",", "")
	default:
		raw = strings.ReplaceAll(raw, ",", "")
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, ErrPriceInvalid
	}
	if v < 0 {
		return 0, ErrPriceInvalid
	}
	return PriceFromFloat(v), nil
}

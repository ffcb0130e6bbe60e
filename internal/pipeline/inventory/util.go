package inventory

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

var validUPC = regexp.MustCompile(`^\d{12,}$`)

// IsValidUPC reports whether upc is a digit-only string of at least 12 characters.
func IsValidUPC(upc string) bool {
	return validUPC.MatchString(upc)
}

// NormalizeUPC trims whitespace and drops the fractional part left behind by
// numeric coercion ("12345678901.0" -> "12345678901").
func NormalizeUPC(raw string) string {
	upc := strings.TrimSpace(raw)
	upc = strings.TrimPrefix(upc, "'")
	if i := strings.Index(upc, "."); i >= 0 {
		upc = upc[:i]
	}
	return strings.TrimSpace(upc)
}

// parseQty parses an integer quantity. Blank means 0. Integral floats such as
// "12.0" are accepted; anything else is ErrMalformedQuantity.
func parseQty(raw string) (int, error) {
	v := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if v == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%q: %w", raw, domain.ErrMalformedQuantity)
	}
	return int(f), nil
}

// parseDecimal parses a money or weight cell. Blank means zero.
func parseDecimal(raw string) (decimal.Decimal, error) {
	v := strings.TrimSpace(raw)
	v = strings.TrimPrefix(v, "$")
	v = strings.ReplaceAll(v, ",", "")
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", raw, domain.ErrMalformedQuantity)
	}
	return d, nil
}

// parseAmount parses an amount that may be fractional and rounds it
// half away from zero ("12.5" -> 13).
func parseAmount(raw string) (decimal.Decimal, int, error) {
	d, err := parseDecimal(raw)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return d, int(d.Round(0).IntPart()), nil
}

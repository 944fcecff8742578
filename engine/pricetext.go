package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"boardtrack/config"
)

// Parse rejection reasons. Callers record these in the trace and move on;
// a rejected text is never an escalated failure.
var (
	ErrUnitPrice   = errors.New("unit price text")
	ErrNoNumber    = errors.New("no numeric value")
	ErrOutOfBounds = errors.New("outside bounds tier")
)

// PriceTextParser normalizes raw price text into a bounded numeric value.
// Unit prices (per-weight, per-count suffixes) are rejected outright: their
// magnitude looks plausible, which makes them the main false-positive source.
type PriceTextParser struct {
	unitRe   *regexp.Regexp
	numberRe *regexp.Regexp
}

func NewPriceTextParser() *PriceTextParser {
	return &PriceTextParser{
		unitRe: regexp.MustCompile(
			`(?i)(?:/|\bper\b\s*)\s*(?:100\s?g|kg|g|lb|lbs|oz|fl\s?oz|ml|l\b|litre|liter|count|ct\b|each|ea\b|item|unit|sheet|load|wash|tablet|capsule|gram|ounce|pound)`),
		numberRe: regexp.MustCompile(`[0-9][0-9.,\s]*`),
	}
}

// Parse converts text into a price accepted by the given bounds tier.
// Returns one of the rejection sentinels on failure, never panics.
func (p *PriceTextParser) Parse(text string, tier config.BoundsTier) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, ErrNoNumber
	}

	if p.unitRe.MatchString(trimmed) {
		return 0, fmt.Errorf("%w: %q", ErrUnitPrice, trimmed)
	}

	raw := p.numberRe.FindString(trimmed)
	if raw == "" {
		return 0, fmt.Errorf("%w: %q", ErrNoNumber, trimmed)
	}

	value, err := strconv.ParseFloat(normalizeDecimal(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoNumber, trimmed)
	}
	if value < 0 {
		return 0, fmt.Errorf("%w: negative value %.2f", ErrOutOfBounds, value)
	}
	if value < tier.Min || value > tier.Max {
		return 0, fmt.Errorf("%w: %.2f not in %s tier [%.0f, %.0f]",
			ErrOutOfBounds, value, tier.Name, tier.Min, tier.Max)
	}

	return value, nil
}

// normalizeDecimal converts locale-specific separators to a plain decimal
// string: "1,299.99" and "1.299,99" both become "1299.99".
func normalizeDecimal(raw string) string {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	s = strings.Trim(s, ".,")

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
			// 1,299.99 — comma is a thousands separator
			s = strings.ReplaceAll(s, ",", "")
		} else {
			// 1.299,99 — European format
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	case hasComma:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) == 2 {
			// 1299,99 — comma is the decimal separator
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// 1,299 — thousands separator
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	return s
}

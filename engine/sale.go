package engine

import (
	"errors"
	"strings"

	"boardtrack/config"
)

// SaleDetector correlates an accepted current price with a visually-demoted
// "original price" marker (strikethrough list-price convention) in the same
// region.
type SaleDetector struct {
	parser *PriceTextParser
	tier   config.BoundsTier
}

func NewSaleDetector(parser *PriceTextParser, tier config.BoundsTier) *SaleDetector {
	return &SaleDetector{parser: parser, tier: tier}
}

var listPriceSelectors = []string{
	`#corePriceDisplay_desktop_feature_div .basisPrice .a-offscreen`,
	`span[data-a-strike="true"] .a-offscreen`,
	`.basisPrice .a-text-price .a-offscreen`,
	`#listPrice`,
	`.a-text-strike`,
}

// Detect returns the original (pre-sale) price if one is found and passes
// the pairing guard: original must exceed current but stay under twice it.
// The upper bound protects against mis-pairing an unrelated larger number
// (a bundle or unit price) as a fake 50%+ discount. A dead session surfaces
// as an error; anything page-local degrades to "no sale".
func (sd *SaleDetector) Detect(sess Session, current float64, trace *Trace) (float64, bool, error) {
	for _, selector := range listPriceSelectors {
		el, err := sess.Query(selector)
		if err != nil {
			if errors.Is(err, ErrTransport) {
				return 0, false, err
			}
			continue
		}
		if el == nil {
			continue
		}
		text, err := el.Text()
		if err != nil {
			if errors.Is(err, ErrTransport) {
				return 0, false, err
			}
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		original, err := sd.parser.Parse(text, sd.tier)
		if err != nil {
			trace.Addf("sale: rejected list price %q: %v", strings.TrimSpace(text), err)
			continue
		}
		if original <= current {
			trace.Addf("sale: list price %.2f not above current %.2f", original, current)
			continue
		}
		if original >= current*2 {
			trace.Addf("sale: list price %.2f implausible against current %.2f", original, current)
			continue
		}
		trace.Addf("sale: original %.2f paired with current %.2f (%s)", original, current, selector)
		return original, true, nil
	}
	return 0, false, nil
}

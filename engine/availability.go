package engine

import "strings"

// AvailabilityResolver performs the last-resort unavailability
// determination. It is consulted when no strategy produced a price, and when
// a price was produced but purchase may not actually be possible. A false
// "unavailable" verdict is worse than admitting failure, so only strong
// signals conclude anything.
type AvailabilityResolver struct{}

func NewAvailabilityResolver() *AvailabilityResolver {
	return &AvailabilityResolver{}
}

var availabilityRegionSelectors = []string{
	`#availability`,
	`#availabilityInsideBuyBox_feature_div`,
	`#outOfStock`,
}

var unavailabilityPhrases = []string{
	"currently unavailable",
	"no longer available",
	"we don't know when or if this item will be back in stock",
	"this item cannot be shipped",
}

var purchaseControlSelectors = []string{
	`#add-to-cart-button`,
	`#buy-now-button`,
	`#one-click-button`,
}

var otherOffersSelectors = []string{
	`#buybox-see-all-buying-choices`,
	`a[href*="/gp/offer-listing/"]`,
	`#unqualifiedBuyBox`,
}

// Resolve applies the decision precedence, most certain first:
//  1. an explicit unavailability statement inside the availability region
//     (not merely anywhere on the page),
//  2. no visible purchase control while the page offers only a
//     "see other offers" prompt,
//  3. a purchase control that is present but structurally disabled.
//
// Anything less returns no verdict.
func (ar *AvailabilityResolver) Resolve(sess Session, trace *Trace) (bool, string, error) {
	// 1. Explicit statement in the availability region.
	for _, selector := range availabilityRegionSelectors {
		el, err := sess.Query(selector)
		if err != nil {
			return false, "", err
		}
		if el == nil {
			continue
		}
		text, err := el.Text()
		if err != nil {
			return false, "", err
		}
		lowered := strings.ToLower(text)
		for _, phrase := range unavailabilityPhrases {
			if strings.Contains(lowered, phrase) {
				trace.Addf("availability: explicit statement in %s: %q", selector, phrase)
				return true, "listing states: " + phrase, nil
			}
		}
	}

	// 2. No purchase control, only an other-offers prompt.
	control, err := ar.visiblePurchaseControl(sess)
	if err != nil {
		return false, "", err
	}
	if control == nil {
		for _, selector := range otherOffersSelectors {
			el, err := sess.Query(selector)
			if err != nil {
				return false, "", err
			}
			if el != nil {
				trace.Addf("availability: no purchase control, offers prompt %s present", selector)
				return true, "no direct purchase option, only other offers", nil
			}
		}
		trace.Addf("availability: no purchase control and no offers prompt")
		return false, "", nil
	}

	// 3. Purchase control present but disabled.
	disabled, err := ar.controlDisabled(control)
	if err != nil {
		return false, "", err
	}
	if disabled {
		trace.Addf("availability: purchase control disabled")
		return true, "purchase control is disabled", nil
	}

	return false, "", nil
}

func (ar *AvailabilityResolver) visiblePurchaseControl(sess Session) (Element, error) {
	for _, selector := range purchaseControlSelectors {
		el, err := sess.Query(selector)
		if err != nil {
			return nil, err
		}
		if el == nil {
			continue
		}
		visible, err := el.Visible()
		if err != nil {
			return nil, err
		}
		if visible {
			return el, nil
		}
	}
	return nil, nil
}

func (ar *AvailabilityResolver) controlDisabled(el Element) (bool, error) {
	if attr, err := el.Attribute("disabled"); err != nil {
		return false, err
	} else if attr != nil {
		return true, nil
	}
	class, err := el.Attribute("class")
	if err != nil {
		return false, err
	}
	return class != nil && strings.Contains(*class, "a-button-disabled"), nil
}

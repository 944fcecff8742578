package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"boardtrack/config"
)

// PriceCandidate is a price located by one strategy. Candidates are
// transient: they never leave the pipeline.
type PriceCandidate struct {
	RawText    string
	Value      float64
	Region     Region
	StrategyID string
	Source     string
	ImageURL   string
}

// Strategy is one independent, ranked method of locating a price on a
// settled page. Strategies are tried highest-confidence first; the pipeline
// stops at the first accepted candidate. A strategy that finds text but
// fails parse or bounds checks reports nothing and the pipeline continues.
type Strategy interface {
	ID() string
	Extract(sess Session, trace *Trace) (*PriceCandidate, error)
}

// embeddedDataStrategy reads machine-readable product metadata blocks
// (JSON-LD offers) embedded in the page payload. Most reliable: not subject
// to visual layout heuristics, so no region classification is needed.
type embeddedDataStrategy struct {
	parser *PriceTextParser
	tier   config.BoundsTier
}

func (s *embeddedDataStrategy) ID() string { return "embedded_data" }

func (s *embeddedDataStrategy) Extract(sess Session, trace *Trace) (*PriceCandidate, error) {
	blocks, err := sess.QueryAll(`script[type="application/ld+json"]`)
	if err != nil {
		return nil, err
	}
	for i, block := range blocks {
		text, err := block.Text()
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		var doc interface{}
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			trace.Addf("%s: block %d is not valid JSON", s.ID(), i)
			continue
		}
		raw, ok := findEmbeddedPrice(doc)
		if !ok {
			continue
		}
		value, err := s.parser.Parse(raw, s.tier)
		if err != nil {
			trace.Addf("%s: rejected %q: %v", s.ID(), raw, err)
			continue
		}
		return &PriceCandidate{
			RawText:    raw,
			Value:      value,
			Region:     RegionMainProduct,
			StrategyID: s.ID(),
			Source:     "ld+json offers",
			ImageURL:   findEmbeddedImage(doc),
		}, nil
	}
	trace.Addf("%s: no usable metadata block", s.ID())
	return nil, nil
}

// findEmbeddedPrice searches a decoded JSON document for a product offer
// price, depth-first. Product-typed nodes are searched before their
// siblings, and map descent follows sorted key order, so the same document
// always resolves to the same node.
func findEmbeddedPrice(doc interface{}) (string, bool) {
	switch v := doc.(type) {
	case map[string]interface{}:
		for _, key := range []string{"price", "lowPrice", "highPrice"} {
			switch pv := v[key].(type) {
			case string:
				if pv != "" {
					return pv, true
				}
			case float64:
				return strconv.FormatFloat(pv, 'f', 2, 64), true
			}
		}
		// Offers nest under "offers" on Product nodes.
		if offers, ok := v["offers"]; ok {
			if raw, found := findEmbeddedPrice(offers); found {
				return raw, true
			}
		}
		for _, nested := range childrenOf(v) {
			if raw, found := findEmbeddedPrice(nested); found {
				return raw, true
			}
		}
	case []interface{}:
		for _, item := range productFirst(v) {
			if raw, found := findEmbeddedPrice(item); found {
				return raw, true
			}
		}
	}
	return "", false
}

func findEmbeddedImage(doc interface{}) string {
	switch v := doc.(type) {
	case map[string]interface{}:
		switch img := v["image"].(type) {
		case string:
			return img
		case []interface{}:
			if len(img) > 0 {
				if s, ok := img[0].(string); ok {
					return s
				}
			}
		}
		for _, nested := range childrenOf(v) {
			if s := findEmbeddedImage(nested); s != "" {
				return s
			}
		}
	case []interface{}:
		for _, item := range productFirst(v) {
			if s := findEmbeddedImage(item); s != "" {
				return s
			}
		}
	}
	return ""
}

// childrenOf returns a map's nested values with Product-typed nodes first
// and the rest in sorted key order.
func childrenOf(m map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	children := make([]interface{}, 0, len(m))
	for _, k := range keys {
		if isProductNode(m[k]) {
			children = append(children, m[k])
		}
	}
	for _, k := range keys {
		if !isProductNode(m[k]) {
			children = append(children, m[k])
		}
	}
	return children
}

func productFirst(items []interface{}) []interface{} {
	out := make([]interface{}, 0, len(items))
	for _, item := range items {
		if isProductNode(item) {
			out = append(out, item)
		}
	}
	for _, item := range items {
		if !isProductNode(item) {
			out = append(out, item)
		}
	}
	return out
}

// isProductNode reports whether a decoded node declares a Product @type.
// A price under a non-product sibling (breadcrumbs, related listings) must
// never outrank one under the product itself.
func isProductNode(doc interface{}) bool {
	m, ok := doc.(map[string]interface{})
	if !ok {
		return false
	}
	switch t := m["@type"].(type) {
	case string:
		return strings.Contains(t, "Product")
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.Contains(s, "Product") {
				return true
			}
		}
	}
	return false
}

// purchaseFormStrategy reads hidden price fields carried by the primary
// purchase form. These track the buy box directly, so no region check.
type purchaseFormStrategy struct {
	parser *PriceTextParser
	tier   config.BoundsTier
}

func (s *purchaseFormStrategy) ID() string { return "purchase_form" }

var purchaseFormSelectors = []string{
	`#attach-base-product-price`,
	`input[name="displayedPrice"]`,
	`#priceValue`,
	`#twister-plus-price-data-price`,
}

func (s *purchaseFormStrategy) Extract(sess Session, trace *Trace) (*PriceCandidate, error) {
	for _, selector := range purchaseFormSelectors {
		el, err := sess.Query(selector)
		if err != nil {
			return nil, err
		}
		if el == nil {
			continue
		}
		value, err := el.Attribute("value")
		if err != nil {
			return nil, err
		}
		if value == nil || strings.TrimSpace(*value) == "" {
			continue
		}
		parsed, err := s.parser.Parse(*value, s.tier)
		if err != nil {
			trace.Addf("%s: rejected %q from %s: %v", s.ID(), *value, selector, err)
			continue
		}
		return &PriceCandidate{
			RawText:    *value,
			Value:      parsed,
			Region:     RegionMainProduct,
			StrategyID: s.ID(),
			Source:     selector,
		}, nil
	}
	trace.Addf("%s: no form-carried price field", s.ID())
	return nil, nil
}

// corePriceStrategy reads the price display region directly associated with
// the buy box.
type corePriceStrategy struct {
	parser *PriceTextParser
	tier   config.BoundsTier
}

func (s *corePriceStrategy) ID() string { return "core_price_display" }

var corePriceSelectors = []string{
	`#corePrice_feature_div .a-offscreen`,
	`#corePriceDisplay_desktop_feature_div .priceToPay .a-offscreen`,
	`#price_inside_buybox`,
	`#apex_desktop .a-price .a-offscreen`,
	`#sns-base-price`,
}

func (s *corePriceStrategy) Extract(sess Session, trace *Trace) (*PriceCandidate, error) {
	for _, selector := range corePriceSelectors {
		el, err := sess.Query(selector)
		if err != nil {
			return nil, err
		}
		if el == nil {
			continue
		}
		text, err := el.Text()
		if err != nil {
			return nil, err
		}
		parsed, err := s.parser.Parse(text, s.tier)
		if err != nil {
			trace.Addf("%s: rejected %q from %s: %v", s.ID(), text, selector, err)
			continue
		}
		return &PriceCandidate{
			RawText:    text,
			Value:      parsed,
			Region:     RegionMainProduct,
			StrategyID: s.ID(),
			Source:     selector,
		}, nil
	}
	trace.Addf("%s: no core price display", s.ID())
	return nil, nil
}

// pageScanStrategy is the last resort: scan every price-shaped text node and
// keep only those whose ancestry places them in the main product region.
// This is what stops a "customers also viewed" price from winning.
type pageScanStrategy struct {
	parser  *PriceTextParser
	regions *RegionClassifier
	tier    config.BoundsTier
}

func (s *pageScanStrategy) ID() string { return "page_scan" }

var pageScanSelectors = []string{
	`.a-price .a-offscreen`,
	`span.a-color-price`,
}

func (s *pageScanStrategy) Extract(sess Session, trace *Trace) (*PriceCandidate, error) {
	for _, selector := range pageScanSelectors {
		elements, err := sess.QueryAll(selector)
		if err != nil {
			return nil, err
		}
		for _, el := range elements {
			text, err := el.Text()
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			ancestry, err := el.Ancestry()
			if err != nil {
				return nil, err
			}
			region := s.regions.Classify(ancestry)
			if region != RegionMainProduct {
				trace.Addf("%s: skipped %q: region %s", s.ID(), strings.TrimSpace(text), region)
				continue
			}
			parsed, err := s.parser.Parse(text, s.tier)
			if err != nil {
				trace.Addf("%s: rejected %q: %v", s.ID(), strings.TrimSpace(text), err)
				continue
			}
			return &PriceCandidate{
				RawText:    text,
				Value:      parsed,
				Region:     region,
				StrategyID: s.ID(),
				Source:     selector,
			}, nil
		}
	}
	trace.Addf("%s: no main-product price text", s.ID())
	return nil, nil
}

// runPipeline tries strategies in fixed priority order and returns the first
// accepted candidate, or nil when all are exhausted. Transport errors abort
// the attempt; anything else is recorded and the next strategy runs.
func runPipeline(strategies []Strategy, sess Session, trace *Trace) (*PriceCandidate, error) {
	for _, strategy := range strategies {
		candidate, err := strategy.Extract(sess, trace)
		if err != nil {
			if errors.Is(err, ErrTransport) {
				return nil, err
			}
			trace.Addf("%s: error: %v", strategy.ID(), err)
			continue
		}
		if candidate != nil {
			trace.Addf("%s: accepted %s (%s)", strategy.ID(),
				fmt.Sprintf("%.2f", candidate.Value), candidate.Source)
			return candidate, nil
		}
	}
	return nil, nil
}

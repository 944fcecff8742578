package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardtrack/config"
	"boardtrack/models"
)

// productPageText is long enough to pass the near-empty-body block check.
var productPageText = strings.Repeat("ASUS ROG STRIX B650E-F GAMING WIFI motherboard product detail page. ", 5)

type fakeElement struct {
	text     string
	attrs    map[string]string
	visible  bool
	ancestry []string
}

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(name string) (*string, error) {
	if v, ok := e.attrs[name]; ok {
		return &v, nil
	}
	return nil, nil
}

func (e *fakeElement) Visible() (bool, error) { return e.visible, nil }

func (e *fakeElement) Ancestry() ([]string, error) { return e.ancestry, nil }

type fakeSession struct {
	elements  map[string][]*fakeElement
	queryErrs map[string]error
	pageText  string

	// navErrs are consumed one per Navigate call; nil means success. Calls
	// past the end of the slice succeed.
	navErrs  []error
	navCalls int
	reinits  int
	closed   bool
}

func (s *fakeSession) Navigate(ctx context.Context, url string, opts SettleOptions) error {
	var err error
	if s.navCalls < len(s.navErrs) {
		err = s.navErrs[s.navCalls]
	}
	s.navCalls++
	return err
}

func (s *fakeSession) QueryAll(selector string) ([]Element, error) {
	matched := s.elements[selector]
	out := make([]Element, 0, len(matched))
	for _, el := range matched {
		out = append(out, el)
	}
	return out, nil
}

func (s *fakeSession) Query(selector string) (Element, error) {
	if err := s.queryErrs[selector]; err != nil {
		return nil, err
	}
	matched := s.elements[selector]
	if len(matched) == 0 {
		return nil, nil
	}
	return matched[0], nil
}

func (s *fakeSession) PageText() (string, error) {
	if s.pageText == "" {
		return productPageText, nil
	}
	return s.pageText, nil
}

func (s *fakeSession) Scroll(ctx context.Context, deltaY int) error { return nil }

func (s *fakeSession) Reinitialize(ctx context.Context) error {
	s.reinits++
	return nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeFactory struct {
	sess *fakeSession
	err  error
}

func (f *fakeFactory) New(ctx context.Context) (Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sess, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Wide:             config.BoundsTier{Name: "wide", Min: 5, Max: 15000},
		Targeted:         config.BoundsTier{Name: "targeted", Min: 100, Max: 5000},
		ContentRetries:   2,
		ContentBackoff:   time.Millisecond,
		TransportReinits: 3,
	}
}

func testQuery() models.PriceQuery {
	return models.PriceQuery{URL: "https://example.com/dp/B0TESTBOARD", Category: "motherboard"}
}

func enabledCartButton() *fakeElement {
	return &fakeElement{visible: true, attrs: map[string]string{"class": "a-button-input"}}
}

func TestResolveOnceSalePricePairing(t *testing.T) {
	sess := &fakeSession{elements: map[string][]*fakeElement{
		`#corePrice_feature_div .a-offscreen`:     {{text: "$279.99"}},
		`span[data-a-strike="true"] .a-offscreen`: {{text: "$439.99"}},
		`#add-to-cart-button`:                     {enabledCartButton()},
	}}

	result, err := NewEngine(testConfig()).ResolveOnce(context.Background(), sess, testQuery())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.IsAvailable)
	assert.True(t, result.IsOnSale)
	require.NotNil(t, result.CurrentPrice)
	assert.InDelta(t, 279.99, *result.CurrentPrice, 0.001)
	require.NotNil(t, result.SalePrice)
	assert.InDelta(t, 279.99, *result.SalePrice, 0.001)
	require.NotNil(t, result.BasePrice)
	assert.InDelta(t, 439.99, *result.BasePrice, 0.001)
	assert.Equal(t, "core_price_display", result.DetectionMethod)
}

func TestResolveOncePriceWithoutPurchaseOption(t *testing.T) {
	// A hidden form field carries a price, but the page has no purchase
	// control and only points at other sellers. The price must not survive.
	sess := &fakeSession{elements: map[string][]*fakeElement{
		`input[name="displayedPrice"]`:     {{attrs: map[string]string{"value": "189.99"}}},
		`#buybox-see-all-buying-choices`:   {{visible: true}},
	}}

	result, err := NewEngine(testConfig()).ResolveOnce(context.Background(), sess, testQuery())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.IsAvailable)
	assert.Nil(t, result.CurrentPrice)
	assert.Nil(t, result.SalePrice)
	assert.Contains(t, result.UnavailabilityReason, "other offers")
	assert.Equal(t, "purchase_form", result.DetectionMethod)
}

func TestResolveOnceCarouselPriceDoesNotWin(t *testing.T) {
	// The only price-shaped text on the page sits inside a recommendation
	// carousel. Reporting it would attach a stranger's price to the product,
	// so the attempt ends indeterminate rather than wrong.
	sess := &fakeSession{elements: map[string][]*fakeElement{
		`.a-price .a-offscreen`: {{
			text:     "$850.00",
			ancestry: []string{"span a-offscreen", "div a-carousel-card", "#sims-consolidated-1_feature_div", "#dp"},
		}},
	}}

	result, err := NewEngine(testConfig()).ResolveOnce(context.Background(), sess, testQuery())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Nil(t, result.CurrentPrice)
	assert.Equal(t, "none", result.DetectionMethod)
}

func TestResolveOnceExplicitUnavailability(t *testing.T) {
	sess := &fakeSession{elements: map[string][]*fakeElement{
		`#availability`: {{text: "Currently unavailable.\nWe don't know when or if this item will be back in stock."}},
	}}

	result, err := NewEngine(testConfig()).ResolveOnce(context.Background(), sess, testQuery())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.IsAvailable)
	assert.Nil(t, result.CurrentPrice)
	assert.Contains(t, result.UnavailabilityReason, "currently unavailable")
	assert.Equal(t, "availability_fallback", result.DetectionMethod)
}

func TestResolveOnceEmbeddedDataOutranksVisibleDisplay(t *testing.T) {
	sess := &fakeSession{elements: map[string][]*fakeElement{
		`script[type="application/ld+json"]`: {{
			text: `{"@type":"Product","name":"MSI MAG B650 TOMAHAWK WIFI","image":"https://img.example.com/board.jpg","offers":{"@type":"Offer","price":"329.99","priceCurrency":"USD"}}`,
		}},
		`#corePrice_feature_div .a-offscreen`: {{text: "$999.00"}},
		`#add-to-cart-button`:                 {enabledCartButton()},
	}}

	result, err := NewEngine(testConfig()).ResolveOnce(context.Background(), sess, testQuery())
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.NotNil(t, result.CurrentPrice)
	assert.InDelta(t, 329.99, *result.CurrentPrice, 0.001)
	assert.Equal(t, "embedded_data", result.DetectionMethod)
	assert.Equal(t, "https://img.example.com/board.jpg", result.ImageURL)
}

func TestResolveOnceRejectedUnitPriceFallsThrough(t *testing.T) {
	// A unit-price text in a high-priority location must not be reported and
	// must not stop a lower-priority strategy from finding the real price.
	sess := &fakeSession{elements: map[string][]*fakeElement{
		`#priceValue`:           {{attrs: map[string]string{"value": "$12.50/kg"}}},
		`.a-price .a-offscreen`: {{
			text:     "$219.99",
			ancestry: []string{"span a-offscreen", "span a-price", "#corePrice_feature_div", "#centerCol"},
		}},
		`#add-to-cart-button`: {enabledCartButton()},
	}}

	result, err := NewEngine(testConfig()).ResolveOnce(context.Background(), sess, testQuery())
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.NotNil(t, result.CurrentPrice)
	assert.InDelta(t, 219.99, *result.CurrentPrice, 0.001)
	assert.Equal(t, "page_scan", result.DetectionMethod)
}

func TestResolveOnceBlockWallIsIndeterminate(t *testing.T) {
	sess := &fakeSession{
		pageText: "Enter the characters you see below. Sorry, we just need to make sure you're not a robot. " + productPageText,
		elements: map[string][]*fakeElement{
			`#corePrice_feature_div .a-offscreen`: {{text: "$279.99"}},
		},
	}

	result, err := NewEngine(testConfig()).ResolveOnce(context.Background(), sess, testQuery())
	require.NoError(t, err)

	// A blocked page must never report a price or an availability verdict.
	assert.False(t, result.Success)
	assert.Nil(t, result.CurrentPrice)
	assert.True(t, result.IsAvailable)
}

func TestResolveOnceIdempotentOnStablePage(t *testing.T) {
	sess := &fakeSession{elements: map[string][]*fakeElement{
		`#corePrice_feature_div .a-offscreen`: {{text: "$279.99"}},
		`#add-to-cart-button`:                 {enabledCartButton()},
	}}
	engine := NewEngine(testConfig())

	first, err := engine.ResolveOnce(context.Background(), sess, testQuery())
	require.NoError(t, err)
	second, err := engine.ResolveOnce(context.Background(), sess, testQuery())
	require.NoError(t, err)

	assert.Equal(t, first.Success, second.Success)
	assert.Equal(t, first.IsAvailable, second.IsAvailable)
	assert.Equal(t, first.IsOnSale, second.IsOnSale)
	assert.Equal(t, first.DetectionMethod, second.DetectionMethod)
	require.NotNil(t, second.CurrentPrice)
	assert.Equal(t, *first.CurrentPrice, *second.CurrentPrice)
}

func TestResolveOnceSaleLookupTransportFailure(t *testing.T) {
	// A dead session discovered during the list-price lookup aborts the
	// attempt so the controller can reinitialize.
	sess := &fakeSession{
		elements: map[string][]*fakeElement{
			`#corePrice_feature_div .a-offscreen`: {{text: "$279.99"}},
			`#add-to-cart-button`:                 {enabledCartButton()},
		},
		queryErrs: map[string]error{
			`#corePriceDisplay_desktop_feature_div .basisPrice .a-offscreen`: fmt.Errorf("query: %w", ErrTransport),
		},
	}

	_, err := NewEngine(testConfig()).ResolveOnce(context.Background(), sess, testQuery())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestResolveOnceNoSaleWhenOnlyCurrentPrice(t *testing.T) {
	sess := &fakeSession{elements: map[string][]*fakeElement{
		`#corePrice_feature_div .a-offscreen`: {{text: "$279.99"}},
		`#add-to-cart-button`:                 {enabledCartButton()},
	}}

	result, err := NewEngine(testConfig()).ResolveOnce(context.Background(), sess, testQuery())
	require.NoError(t, err)

	assert.False(t, result.IsOnSale)
	assert.Nil(t, result.SalePrice)
	require.NotNil(t, result.BasePrice)
	assert.InDelta(t, 279.99, *result.BasePrice, 0.001)
}

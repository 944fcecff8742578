package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRegions(t *testing.T) {
	rc := NewRegionClassifier()

	tests := []struct {
		name     string
		ancestry []string
		want     Region
	}{
		{
			name:     "buy box price",
			ancestry: []string{"span a-offscreen", "span a-price", "#corePrice_feature_div", "#centerCol", "#dp"},
			want:     RegionMainProduct,
		},
		{
			name:     "carousel card",
			ancestry: []string{"span a-offscreen", "div a-carousel-card", "#sims-consolidated-2_feature_div", "#dp"},
			want:     RegionCarousel,
		},
		{
			name:     "related products shelf",
			ancestry: []string{"span", "div related-products-grid", "#rhf", "body"},
			want:     RegionCarousel,
		},
		{
			name:     "sponsored placement",
			ancestry: []string{"span a-offscreen", "div sp_detail_sponsored_label", "#centerCol"},
			want:     RegionSponsored,
		},
		{
			name:     "sponsored card nested in center column still sponsored",
			ancestry: []string{"span", "div sponsored-products-cell", "#centerCol", "#dp"},
			want:     RegionSponsored,
		},
		{
			name:     "carousel inside center column still carousel",
			ancestry: []string{"span", "ol a-carousel", "#centerCol"},
			want:     RegionCarousel,
		},
		{
			name:     "no markers at all",
			ancestry: []string{"span", "div", "body", "html"},
			want:     RegionUnknown,
		},
		{
			name:     "empty ancestry",
			ancestry: nil,
			want:     RegionUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rc.Classify(tt.ancestry))
		})
	}
}

func TestClassifyFirstMarkerWins(t *testing.T) {
	rc := NewRegionClassifier()

	// Walking outward from the element, the nearest marker decides even when
	// a core marker appears further out.
	got := rc.Classify([]string{"span price", "div a-carousel-viewport", "#buybox", "#dp"})
	assert.Equal(t, RegionCarousel, got)

	got = rc.Classify([]string{"span price", "#qualifiedBuybox", "div a-carousel-viewport"})
	assert.Equal(t, RegionMainProduct, got)
}

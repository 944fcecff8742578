package engine

import "strings"

// Region classifies where on the page a matched element lives.
type Region string

const (
	RegionMainProduct Region = "mainProduct"
	RegionCarousel    Region = "carousel"
	RegionSponsored   Region = "sponsored"
	RegionUnknown     Region = "unknown"
)

// RegionClassifier walks an element's ancestor chain and decides whether it
// sits in the main product area or an excluded one. The first marker seen
// wins: a price inside a sponsored card nested in the center column is still
// sponsored.
type RegionClassifier struct {
	carouselMarkers  []string
	sponsoredMarkers []string
	coreMarkers      []string
}

func NewRegionClassifier() *RegionClassifier {
	return &RegionClassifier{
		carouselMarkers: []string{
			"a-carousel", "carousel", "sims-consolidated", "sims_", "#sims",
			"similarities", "related-products", "recommendation", "rhf",
			"also-viewed", "also-bought", "comparison",
		},
		sponsoredMarkers: []string{
			"sponsored", "sp_detail", "percolate", "adplacements", "ad-feedback",
		},
		coreMarkers: []string{
			"coreprice", "corepricedisplay", "buybox", "apex_desktop",
			"price_inside_buybox", "desktop_unifiedprice", "centercol", "ppd",
			"qualifiedbuybox",
		},
	}
}

// Classify inspects the ancestry markers from the element outward. An
// exclusion marker seen before any core marker excludes the element; a core
// marker seen first claims it for the main product.
func (rc *RegionClassifier) Classify(ancestry []string) Region {
	for _, marker := range ancestry {
		m := strings.ToLower(marker)
		if m == "" {
			continue
		}
		if matchAny(m, rc.sponsoredMarkers) {
			return RegionSponsored
		}
		if matchAny(m, rc.carouselMarkers) {
			return RegionCarousel
		}
		if matchAny(m, rc.coreMarkers) {
			return RegionMainProduct
		}
	}
	return RegionUnknown
}

func matchAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

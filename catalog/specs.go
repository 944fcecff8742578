// Package catalog extracts structured motherboard attributes from free-form
// listing titles.
package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// BoardSpecs holds the attributes extractable from a listing title.
type BoardSpecs struct {
	Socket      string
	Chipset     string
	RAMSpeedMHz int
	FormFactor  string
	ModelKey    string
}

var (
	socketRe  = regexp.MustCompile(`(?i)\b(AM[45]|AM3\+?|LGA\s?-?(?:1151|1200|1700|1851|2011|2066)|sTRX4|sWRX8|TR4|FM2\+?)\b`)
	chipsetRe = regexp.MustCompile(`(?i)\b([BXZH]\d{3}[EM]?|A[56]20|TRX40|WRX80|W680)\b`)
	ramRe     = regexp.MustCompile(`(?i)\bDDR[45][\s-]?(\d{4})\b|\b(\d{4})\s?MHz\b`)
	formRe    = regexp.MustCompile(`(?i)\b(E-?ATX|Micro[\s-]?ATX|mATX|Mini[\s-]?ITX|ITX|ATX)\b`)
	modelRe   = regexp.MustCompile(`(?i)\b([A-Z]{1,4}\d{3,4}[A-Z]*(?:[- ][A-Z0-9]{1,12})*)\b`)
	spacesRe  = regexp.MustCompile(`\s+`)
)

// ExtractSpecs pulls socket, chipset, RAM speed and form factor out of a
// listing title.
func ExtractSpecs(title string) BoardSpecs {
	return BoardSpecs{
		Socket:      ExtractSocket(title),
		Chipset:     ExtractChipset(title),
		RAMSpeedMHz: ExtractRAMSpeed(title),
		FormFactor:  ExtractFormFactor(title),
		ModelKey:    ModelKey(title),
	}
}

// ExtractSocket returns the CPU socket named in the title, normalized to
// upper case without internal spacing, or "".
func ExtractSocket(title string) string {
	m := socketRe.FindString(title)
	if m == "" {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(strings.ReplaceAll(m, " ", ""), "-", ""))
}

// ExtractChipset returns the chipset designation, or "".
func ExtractChipset(title string) string {
	return strings.ToUpper(chipsetRe.FindString(title))
}

// ExtractRAMSpeed returns the advertised memory speed in MHz, or 0.
func ExtractRAMSpeed(title string) int {
	m := ramRe.FindStringSubmatch(title)
	if m == nil {
		return 0
	}
	digits := m[1]
	if digits == "" {
		digits = m[2]
	}
	speed, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	// Plausible DDR4/DDR5 range; anything else is a model number.
	if speed < 1600 || speed > 9000 {
		return 0
	}
	return speed
}

// ExtractFormFactor returns the normalized board form factor, or "".
func ExtractFormFactor(title string) string {
	m := formRe.FindString(title)
	if m == "" {
		return ""
	}
	normalized := strings.ToUpper(strings.ReplaceAll(m, " ", "-"))
	switch normalized {
	case "MATX", "MICROATX", "MICRO-ATX":
		return "MICRO-ATX"
	case "MINI-ITX", "MINIITX", "ITX":
		return "MINI-ITX"
	case "EATX", "E-ATX":
		return "E-ATX"
	default:
		return normalized
	}
}

// ModelKey derives a normalized duplicate-detection key from a title: the
// longest model-number-shaped token run, lower-cased with collapsed spacing.
func ModelKey(title string) string {
	matches := modelRe.FindAllString(title, -1)
	best := ""
	for _, m := range matches {
		if len(m) > len(best) {
			best = m
		}
	}
	if best == "" {
		best = title
	}
	key := strings.ToLower(spacesRe.ReplaceAllString(strings.TrimSpace(best), " "))
	return strings.ReplaceAll(key, " ", "-")
}

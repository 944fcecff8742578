package engine

import (
	"regexp"
	"strings"
)

// BlockWallDetector recognizes anti-automation interstitials (CAPTCHA
// challenges, robot checks) from the page text snapshot. A blocked page is a
// content failure: retrying a fresh attempt may land on the real page, so it
// is never reported as "unavailable".
type BlockWallDetector struct {
	patterns []*regexp.Regexp
}

func NewBlockWallDetector() *BlockWallDetector {
	return &BlockWallDetector{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)enter the characters you see below`),
			regexp.MustCompile(`(?i)to discuss automated access`),
			regexp.MustCompile(`(?i)type the characters you see in this image`),
			regexp.MustCompile(`(?i)verify you are human`),
			regexp.MustCompile(`(?i)captcha`),
			regexp.MustCompile(`(?i)checking your browser`),
			regexp.MustCompile(`(?i)access denied`),
			regexp.MustCompile(`(?i)too many requests`),
		},
	}
}

// Detect returns true and the matched signal if the page looks like a block
// wall rather than a product page.
func (d *BlockWallDetector) Detect(pageText string) (bool, string) {
	content := strings.ToLower(pageText)
	for _, pattern := range d.patterns {
		if pattern.MatchString(content) {
			return true, pattern.String()
		}
	}
	// A near-empty body on a product URL is a block symptom too.
	if len(strings.TrimSpace(content)) < 200 {
		return true, "page body nearly empty"
	}
	return false, ""
}

package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockWallDetect(t *testing.T) {
	d := NewBlockWallDetector()
	filler := strings.Repeat("product detail content ", 20)

	tests := []struct {
		name    string
		text    string
		blocked bool
	}{
		{"captcha challenge", "Enter the characters you see below " + filler, true},
		{"robot check", "Sorry, we need to verify you are human. " + filler, true},
		{"rate limited", "Too many requests from your network. " + filler, true},
		{"nearly empty body", "Loading...", true},
		{"ordinary product page", filler, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, _ := d.Detect(tt.text)
			assert.Equal(t, tt.blocked, blocked)
		})
	}
}

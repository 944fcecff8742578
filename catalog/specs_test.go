package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSpecs(t *testing.T) {
	tests := []struct {
		title string
		want  BoardSpecs
	}{
		{
			title: "ASUS ROG STRIX B650E-F GAMING WIFI AM5 ATX Motherboard DDR5 6400MHz",
			want: BoardSpecs{
				Socket:      "AM5",
				Chipset:     "B650E",
				RAMSpeedMHz: 6400,
				FormFactor:  "ATX",
			},
		},
		{
			title: "MSI MAG Z790 TOMAHAWK WIFI LGA 1700 Micro-ATX DDR5-7200",
			want: BoardSpecs{
				Socket:      "LGA1700",
				Chipset:     "Z790",
				RAMSpeedMHz: 7200,
				FormFactor:  "MICRO-ATX",
			},
		},
		{
			title: "Gigabyte B550 AORUS PRO AX Mini-ITX AM4",
			want: BoardSpecs{
				Socket:      "AM4",
				Chipset:     "B550",
				RAMSpeedMHz: 0,
				FormFactor:  "MINI-ITX",
			},
		},
	}

	for _, tt := range tests {
		got := ExtractSpecs(tt.title)
		assert.Equal(t, tt.want.Socket, got.Socket, "title %q", tt.title)
		assert.Equal(t, tt.want.Chipset, got.Chipset, "title %q", tt.title)
		assert.Equal(t, tt.want.RAMSpeedMHz, got.RAMSpeedMHz, "title %q", tt.title)
		assert.Equal(t, tt.want.FormFactor, got.FormFactor, "title %q", tt.title)
	}
}

func TestExtractSocketNormalization(t *testing.T) {
	assert.Equal(t, "LGA1700", ExtractSocket("Intel LGA 1700 board"))
	assert.Equal(t, "LGA1700", ExtractSocket("Intel LGA-1700 board"))
	assert.Equal(t, "AM5", ExtractSocket("socket am5 gaming"))
	assert.Equal(t, "", ExtractSocket("generic motherboard"))
}

func TestExtractRAMSpeedPlausibility(t *testing.T) {
	assert.Equal(t, 6000, ExtractRAMSpeed("DDR5 6000 support"))
	assert.Equal(t, 3200, ExtractRAMSpeed("up to 3200 MHz"))
	// A four-digit model number must not read as a memory speed.
	assert.Equal(t, 0, ExtractRAMSpeed("supports 9999 MHz"))
	assert.Equal(t, 0, ExtractRAMSpeed("1000 MHz legacy"))
	assert.Equal(t, 0, ExtractRAMSpeed("no speed named"))
}

func TestExtractFormFactorNormalization(t *testing.T) {
	assert.Equal(t, "MICRO-ATX", ExtractFormFactor("mATX build"))
	assert.Equal(t, "MICRO-ATX", ExtractFormFactor("Micro ATX build"))
	assert.Equal(t, "MINI-ITX", ExtractFormFactor("ITX case compatible"))
	assert.Equal(t, "E-ATX", ExtractFormFactor("EATX workstation"))
	assert.Equal(t, "ATX", ExtractFormFactor("standard ATX"))
	assert.Equal(t, "", ExtractFormFactor("no form factor"))
}

func TestModelKeyStability(t *testing.T) {
	// The same board listed with different marketing noise must collapse to
	// the same key so duplicates are caught at insert time.
	a := ModelKey("ASUS ROG STRIX B650E-F GAMING WIFI")
	b := ModelKey("(NEW) asus rog strix b650e-f gaming wifi")
	assert.Equal(t, a, b)
	assert.Equal(t, "b650e-f-gaming-wifi", a)
}

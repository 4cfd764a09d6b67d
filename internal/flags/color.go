package flags

import (
	"fmt"
	"image/color"
	"strconv"
)

// ParseHexColor parses RGB, RGBA, RRGGBB or RRGGBBAA hex digits.
// Alpha defaults to fully opaque when omitted.
func ParseHexColor(hex string) (color.NRGBA, error) {
	switch len(hex) {
	case 3, 4:
		long := make([]byte, 0, len(hex)*2)
		for i := 0; i < len(hex); i++ {
			long = append(long, hex[i], hex[i])
		}
		hex = string(long)
	case 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("hex color %q: want 3, 4, 6 or 8 digits", hex)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("hex color %q: %w", hex, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xFF
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// FormatHexColor renders c as RRGGBBAA.
func FormatHexColor(c color.NRGBA) string {
	return fmt.Sprintf("%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

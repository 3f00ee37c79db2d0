package utils

import (
	"fmt"
	"image/color"
	"strings"
)

// Contains returns true if the value is found in the collection.
func Contains[T comparable](collection []T, value T) bool {
	for _, v := range collection {
		if v == value {
			return true
		}
	}
	return false
}

// HexToRGBA converts a color expressed in hexadecimal format (#rgb, #rrggbb or #rrggbbaa) to a color.NRGBA.
func HexToRGBA(hex string) (color.NRGBA, error) {
	c := color.NRGBA{A: 0xff}
	s := strings.TrimPrefix(hex, "#")

	var err error
	switch len(s) {
	case 3:
		_, err = fmt.Sscanf(s, "%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R *= 0x11
		c.G *= 0x11
		c.B *= 0x11
	case 6:
		_, err = fmt.Sscanf(s, "%2x%2x%2x", &c.R, &c.G, &c.B)
	case 8:
		_, err = fmt.Sscanf(s, "%2x%2x%2x%2x", &c.R, &c.G, &c.B, &c.A)
	default:
		err = fmt.Errorf("invalid length %d", len(s))
	}
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return c, nil
}

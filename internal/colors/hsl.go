package colors

import (
	"fmt"
	"math"
	"strconv"
)

// HSL is a color in hue/saturation/lightness space. Hue is degrees, the
// other two are percentages.
type HSL struct {
	H float64
	S float64
	L float64
}

// HexToHSL converts a #RRGGBB color. Callers validate with ValidHex first;
// malformed input returns the zero value and false.
func HexToHSL(hex string) (HSL, bool) {
	if !ValidHex(hex) {
		return HSL{}, false
	}
	ri, _ := strconv.ParseUint(hex[1:3], 16, 8)
	gi, _ := strconv.ParseUint(hex[3:5], 16, 8)
	bi, _ := strconv.ParseUint(hex[5:7], 16, 8)
	r := float64(ri) / 255
	g := float64(gi) / 255
	b := float64(bi) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l := (max + min) / 2

	if max == min {
		return HSL{H: 0, S: 0, L: l * 100}, true
	}

	d := max - min
	var s float64
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	var h float64
	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h *= 60

	return HSL{H: h, S: s * 100, L: l * 100}, true
}

// HSLA renders the color as a CSS hsla() value with the given alpha. Used
// for the translucent event backgrounds derived from a member's color.
func (c HSL) HSLA(alpha float64) string {
	return fmt.Sprintf("hsla(%.0f, %.0f%%, %.0f%%, %.2f)", c.H, c.S, c.L, alpha)
}

// Lighten returns the color with its lightness raised by delta percentage
// points, clamped to 100.
func (c HSL) Lighten(delta float64) HSL {
	l := c.L + delta
	if l > 100 {
		l = 100
	}
	return HSL{H: c.H, S: c.S, L: l}
}

package ambient

import (
	"fmt"
	"math"
)

// RGB holds an 8-bit color value.
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ARGB packs the color as a fully opaque 0xAARRGGBB value.
func (c RGB) ARGB() uint32 {
	return 0xff000000 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// HSB is a color in hue/saturation/brightness form. Hue is a fraction of a
// full turn in [0,1); saturation and brightness lie in [0,1].
type HSB struct {
	Hue        float64
	Saturation float64
	Brightness float64
}

// RGBToHSB converts an 8-bit RGB color to HSB.
//
// An achromatic color (saturation 0) has no hue direction; the hue is
// reported as 0 by convention. When two or three channels tie for the
// maximum, red wins over green over blue — the branch taken changes the
// resulting hue, so the order is part of the contract.
func RGBToHSB(r, g, b uint8) HSB {
	ri, gi, bi := int(r), int(g), int(b)

	cmax := ri
	if gi > cmax {
		cmax = gi
	}
	if bi > cmax {
		cmax = bi
	}
	cmin := ri
	if gi < cmin {
		cmin = gi
	}
	if bi < cmin {
		cmin = bi
	}

	var hsb HSB
	hsb.Brightness = float64(cmax) / 255
	if cmax != 0 {
		hsb.Saturation = float64(cmax-cmin) / float64(cmax)
	}
	if hsb.Saturation == 0 {
		return hsb
	}

	d := float64(cmax - cmin)
	redc := float64(cmax-ri) / d
	greenc := float64(cmax-gi) / d
	bluec := float64(cmax-bi) / d

	var hue float64
	switch cmax {
	case ri:
		hue = bluec - greenc
	case gi:
		hue = 2 + redc - bluec
	default:
		hue = 4 + greenc - redc
	}
	hue /= 6
	if hue < 0 {
		hue++
	}
	hsb.Hue = hue
	return hsb
}

// HSBToRGB converts a hue/saturation/brightness triple to an 8-bit RGB
// color. Only the fractional part of hue is used, so values outside [0,1)
// wrap around the color wheel. Saturation 0 yields the gray matching the
// given brightness regardless of hue.
func HSBToRGB(hue, saturation, brightness float64) RGB {
	if saturation == 0 {
		v := uint8(brightness*255 + 0.5)
		return RGB{R: v, G: v, B: v}
	}

	h := (hue - math.Floor(hue)) * 6
	f := h - math.Floor(h)
	p := brightness * (1 - saturation)
	q := brightness * (1 - saturation*f)
	t := brightness * (1 - saturation*(1-f))

	round := func(x float64) uint8 {
		return uint8(x*255 + 0.5)
	}

	switch int(h) {
	case 0:
		return RGB{R: round(brightness), G: round(t), B: round(p)}
	case 1:
		return RGB{R: round(q), G: round(brightness), B: round(p)}
	case 2:
		return RGB{R: round(p), G: round(brightness), B: round(t)}
	case 3:
		return RGB{R: round(p), G: round(q), B: round(brightness)}
	case 4:
		return RGB{R: round(t), G: round(p), B: round(brightness)}
	case 5:
		return RGB{R: round(brightness), G: round(p), B: round(q)}
	}
	// Unreachable given the wraparound above; a defined fallback beats an
	// uninitialized color.
	return RGB{}
}

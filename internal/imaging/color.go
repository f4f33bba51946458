package imaging

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Channel selects one sample of an interleaved three-channel pixel.
type Channel int

const (
	Red   Channel = 0
	Green Channel = 1
	Blue  Channel = 2
)

// GrayNegative inverts a single-channel buffer in place: v = 255 - v.
func GrayNegative(srcdst *Buffer) error {
	if err := checkChannels("gray negative", srcdst, 1); err != nil {
		return err
	}
	negate(srcdst)
	return nil
}

// RGBNegative inverts each channel of a three-channel buffer in place.
func RGBNegative(srcdst *Buffer) error {
	if err := checkChannels("rgb negative", srcdst, 3); err != nil {
		return err
	}
	negate(srcdst)
	return nil
}

func negate(b *Buffer) {
	forEachRow(0, b.Height, func(y int) {
		row := b.Row(y)
		for i := range row {
			row[i] = 255 - row[i]
		}
	})
}

// RGBChannelToGray copies one channel of a three-channel buffer into the
// other two, in place. No luminance weighting is applied.
func RGBChannelToGray(srcdst *Buffer, ch Channel) error {
	if err := checkChannels("channel to gray", srcdst, 3); err != nil {
		return err
	}
	if ch < Red || ch > Blue {
		return fmt.Errorf("channel to gray: channel %d: %w", ch, ErrInvalidArgument)
	}

	forEachRow(0, srcdst.Height, func(y int) {
		for x := 0; x < srcdst.Width; x++ {
			pos := srcdst.Offset(x, y)
			v := srcdst.Data[pos+int(ch)]
			srcdst.Data[pos] = v
			srcdst.Data[pos+1] = v
			srcdst.Data[pos+2] = v
		}
	})
	return nil
}

// RGBGetRedGray promotes the red channel to all three channels.
func RGBGetRedGray(srcdst *Buffer) error { return RGBChannelToGray(srcdst, Red) }

// RGBGetGreenGray promotes the green channel to all three channels.
func RGBGetGreenGray(srcdst *Buffer) error { return RGBChannelToGray(srcdst, Green) }

// RGBGetBlueGray promotes the blue channel to all three channels.
func RGBGetBlueGray(srcdst *Buffer) error { return RGBChannelToGray(srcdst, Blue) }

// RGBToGray converts a three-channel RGB buffer into a single-channel buffer
// using the ITU-R BT.601 weights (0.299*R + 0.587*G + 0.114*B), truncated.
func RGBToGray(src, dst *Buffer) error {
	if err := checkPair("rgb to gray", src, 3, dst, 1); err != nil {
		return err
	}

	forEachRow(0, src.Height, func(y int) {
		for x := 0; x < src.Width; x++ {
			pos := src.Offset(x, y)
			r := float64(src.Data[pos])
			g := float64(src.Data[pos+1])
			b := float64(src.Data[pos+2])
			dst.Data[dst.Offset(x, y)] = uint8(0.299*r + 0.587*g + 0.114*b)
		}
	})
	return nil
}

// RGBToHSV converts a three-channel RGB buffer into a three-channel HSV
// buffer. Each component is stored in [0,255]:
//   - H: hue in degrees [0,360) scaled by 255/360 (0 for achromatic pixels)
//   - S: (max-min)/max scaled by 255
//   - V: max scaled by 255
//
// Arithmetic is single precision and every component is truncated.
func RGBToHSV(src, dst *Buffer) error {
	if err := checkPair("rgb to hsv", src, 3, dst, 3); err != nil {
		return err
	}

	forEachRow(0, src.Height, func(y int) {
		for x := 0; x < src.Width; x++ {
			pos := src.Offset(x, y)
			h, s, v := hsvBytes(src.Data[pos], src.Data[pos+1], src.Data[pos+2])
			out := dst.Offset(x, y)
			dst.Data[out] = h
			dst.Data[out+1] = s
			dst.Data[out+2] = v
		}
	})
	return nil
}

func hsvBytes(r8, g8, b8 uint8) (uint8, uint8, uint8) {
	r := float32(r8) / 255
	g := float32(g8) / 255
	b := float32(b8) / 255

	hi := max(r, g, b)
	lo := min(r, g, b)
	delta := hi - lo

	var saturation float32
	if hi > 0 {
		saturation = delta / hi
	}

	var hue float32
	if delta != 0 {
		switch hi {
		case r:
			hue = (g - b) / delta
		case g:
			hue = 2 + (b-r)/delta
		default:
			hue = 4 + (r-g)/delta
		}
		hue *= 60
		if hue < 0 {
			hue += 360
		}
	}

	return uint8(hue / 360 * 255), uint8(saturation * 255), uint8(hi * 255)
}

// HSVRange bounds each HSV component inclusively, in the stored [0,255] units.
type HSVRange struct {
	HMin int `json:"h_min" yaml:"h_min"`
	HMax int `json:"h_max" yaml:"h_max"`
	SMin int `json:"s_min" yaml:"s_min"`
	SMax int `json:"s_max" yaml:"s_max"`
	VMin int `json:"v_min" yaml:"v_min"`
	VMax int `json:"v_max" yaml:"v_max"`
}

// Contains reports whether the stored HSV triple lies inside the range.
func (r HSVRange) Contains(h, s, v uint8) bool {
	return int(h) >= r.HMin && int(h) <= r.HMax &&
		int(s) >= r.SMin && int(s) <= r.SMax &&
		int(v) >= r.VMin && int(v) <= r.VMax
}

// HSVSegmentation writes 255 to dst where the HSV pixel of src lies inside
// rng and 0 elsewhere. src must have three channels and dst one.
func HSVSegmentation(src, dst *Buffer, rng HSVRange) error {
	if err := checkPair("hsv segmentation", src, 3, dst, 1); err != nil {
		return err
	}

	forEachRow(0, src.Height, func(y int) {
		for x := 0; x < src.Width; x++ {
			pos := src.Offset(x, y)
			var out uint8
			if rng.Contains(src.Data[pos], src.Data[pos+1], src.Data[pos+2]) {
				out = 255
			}
			dst.Data[dst.Offset(x, y)] = out
		}
	})
	return nil
}

// GrayToPalette maps a single-channel buffer onto a "jet" false-color RGB
// palette made of four linear segments:
//
//	  0- 63  blue   -> cyan
//	 64-127  cyan   -> green
//	128-191  green  -> yellow
//	192-255  yellow -> red
func GrayToPalette(src, dst *Buffer) error {
	if err := checkPair("gray to palette", src, 1, dst, 3); err != nil {
		return err
	}

	forEachRow(0, src.Height, func(y int) {
		for x := 0; x < src.Width; x++ {
			r, g, b := jet(src.Data[src.Offset(x, y)])
			out := dst.Offset(x, y)
			dst.Data[out] = r
			dst.Data[out+1] = g
			dst.Data[out+2] = b
		}
	})
	return nil
}

func jet(v uint8) (r, g, b uint8) {
	switch {
	case v < 64:
		return 0, 4 * v, 255
	case v < 128:
		return 0, 255, 255 - 4*(v-64)
	case v < 192:
		return 4 * (v - 128), 255, 0
	default:
		return 255, 255 - 4*(v-192), 0
	}
}

// BGRToRGB swaps the first and third channels. Frame sources that deliver
// blue-green-red samples are converted with this before any color transform.
// src and dst may be the same buffer.
func BGRToRGB(src, dst *Buffer) error {
	if err := checkPair("bgr to rgb", src, 3, dst, 3); err != nil {
		return err
	}

	forEachRow(0, src.Height, func(y int) {
		for x := 0; x < src.Width; x++ {
			pos := src.Offset(x, y)
			b, g, r := src.Data[pos], src.Data[pos+1], src.Data[pos+2]
			out := dst.Offset(x, y)
			dst.Data[out] = r
			dst.Data[out+1] = g
			dst.Data[out+2] = b
		}
	})
	return nil
}

// BinaryOr combines two single-channel masks: 255 where either source is
// 255, 0 elsewhere.
func BinaryOr(a, b, dst *Buffer) error {
	if err := checkPair("binary or", a, 1, dst, 1); err != nil {
		return err
	}
	if err := checkPair("binary or", b, 1, dst, 1); err != nil {
		return err
	}

	forEachRow(0, dst.Height, func(y int) {
		ra, rb, rd := a.Row(y), b.Row(y), dst.Row(y)
		for i := range rd {
			if ra[i] == 255 || rb[i] == 255 {
				rd[i] = 255
			} else {
				rd[i] = 0
			}
		}
	})
	return nil
}

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSVColor is an HSV triple in the stored [0,255] units produced by RGBToHSV.
type HSVColor struct {
	H uint8 `json:"h"`
	S uint8 `json:"s"`
	V uint8 `json:"v"`
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a pixel value in several representations.
//
// For single-channel buffers the gray sample is reported in all three RGB
// components.
type ColorResult struct {
	Hex string   `json:"hex"` // Hex format "#RRGGBB"
	RGB RGBColor `json:"rgb"`
	HSV HSVColor `json:"hsv"` // Same units as RGBToHSV output
	HSL HSLColor `json:"hsl"`
}

// SampleColor reads the pixel at (x, y).
//
// Returns:
//   - *ColorResult: The color at (x, y) in multiple formats.
//   - error: Non-nil if the buffer is invalid or (x, y) lies outside it.
func SampleColor(b *Buffer, x, y int) (*ColorResult, error) {
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("sample color: %w", err)
	}
	if !b.In(x, y) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds: %w", x, y, ErrInvalidArgument)
	}

	pos := b.Offset(x, y)
	r, g, bl := b.Data[pos], b.Data[pos], b.Data[pos]
	if b.Channels == 3 {
		g, bl = b.Data[pos+1], b.Data[pos+2]
	}

	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(bl) / 255}
	hh, ss, ll := c.Hsl()
	h, s, v := hsvBytes(r, g, bl)

	return &ColorResult{
		Hex: c.Hex(),
		RGB: RGBColor{R: r, G: g, B: bl},
		HSV: HSVColor{H: h, S: s, V: v},
		HSL: HSLColor{H: int(hh), S: int(ss * 100), L: int(ll * 100)},
	}, nil
}

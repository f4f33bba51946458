package imaging

import (
	"fmt"
	"strconv"
)

// Annotation colors used by the counting pipeline.
var (
	ColorBox   = RGBColor{R: 0, G: 255, B: 0}
	ColorLine  = RGBColor{R: 255, G: 0, B: 0}
	ColorText  = RGBColor{R: 255, G: 255, B: 255}
	ColorLabel = RGBColor{R: 0, G: 0, B: 0}
)

// DrawRect outlines the rectangle with top-left (x, y) and the given size on
// a three-channel buffer. Parts outside the image are clipped.
func DrawRect(b *Buffer, x, y, w, h int, c RGBColor) error {
	if err := checkChannels("draw rect", b, 3); err != nil {
		return err
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("draw rect: size %dx%d: %w", w, h, ErrInvalidArgument)
	}

	for dx := 0; dx < w; dx++ {
		setRGB(b, x+dx, y, c)
		setRGB(b, x+dx, y+h-1, c)
	}
	for dy := 0; dy < h; dy++ {
		setRGB(b, x, y+dy, c)
		setRGB(b, x+w-1, y+dy, c)
	}
	return nil
}

// DrawHLine draws a full-width horizontal line at row y.
func DrawHLine(b *Buffer, y int, c RGBColor) error {
	if err := checkChannels("draw line", b, 3); err != nil {
		return err
	}
	for x := 0; x < b.Width; x++ {
		setRGB(b, x, y, c)
	}
	return nil
}

// DrawMarker draws a small cross centered on (x, y).
func DrawMarker(b *Buffer, x, y int, c RGBColor) error {
	if err := checkChannels("draw marker", b, 3); err != nil {
		return err
	}
	for d := -2; d <= 2; d++ {
		setRGB(b, x+d, y, c)
		setRGB(b, x, y+d, c)
	}
	return nil
}

func setRGB(b *Buffer, x, y int, c RGBColor) {
	if !b.In(x, y) {
		return
	}
	pos := b.Offset(x, y)
	b.Data[pos] = c.R
	b.Data[pos+1] = c.G
	b.Data[pos+2] = c.B
}

// glyphs is a 3x5 pixel font for the characters used in blob labels.
var glyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
	'.': {"000", "000", "000", "000", "010"},
	'c': {"000", "000", "111", "100", "111"},
	'e': {"111", "101", "111", "100", "111"},
}

// DrawLabel writes text at (x, y) on a filled background box. Characters
// without a glyph are rendered as blanks.
func DrawLabel(b *Buffer, x, y int, text string, fg, bg RGBColor) error {
	if err := checkChannels("draw label", b, 3); err != nil {
		return err
	}

	const charWidth = 4
	const labelHeight = 7
	labelWidth := len(text) * charWidth

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setRGB(b, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, pixel := range line {
					if pixel == '1' {
						setRGB(b, cx+col, y+row, fg)
					}
				}
			}
		}
		cx += charWidth
	}
	return nil
}

// ParseHexColor parses "#RRGGBB" or "RRGGBB".
func ParseHexColor(hex string) (RGBColor, error) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return RGBColor{}, fmt.Errorf("invalid hex color %q: %w", hex, ErrInvalidArgument)
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGBColor{}, fmt.Errorf("invalid hex color %q: %w", hex, ErrInvalidArgument)
	}
	return RGBColor{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val)}, nil
}

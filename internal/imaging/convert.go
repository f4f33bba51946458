package imaging

import (
	"fmt"
	"image"
	"image/color"
)

// ToImage wraps a copy of b as a standard library image: *image.Gray for one
// channel and *image.RGBA (opaque) for three. Binary 0/1 buffers are scaled
// to 0/255 so they render visibly.
func ToImage(b *Buffer) (image.Image, error) {
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("to image: %w", err)
	}

	rect := image.Rect(0, 0, b.Width, b.Height)
	if b.Channels == 1 {
		img := image.NewGray(rect)
		scale := b.Levels == 2
		for i, v := range b.Data {
			if scale && v != 0 {
				v = 255
			}
			img.Pix[i] = v
		}
		return img, nil
	}

	img := image.NewRGBA(rect)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			src := b.Offset(x, y)
			dst := img.PixOffset(x, y)
			copy(img.Pix[dst:dst+3], b.Data[src:src+3])
			img.Pix[dst+3] = 0xff
		}
	}
	return img, nil
}

// FromImage converts any image to a three-channel, 256-level RGB buffer.
// *image.Gray sources become single-channel buffers. Alpha is discarded.
func FromImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if g, ok := img.(*image.Gray); ok {
		b, err := NewBuffer(w, h, 1, 256)
		if err != nil {
			return nil, err
		}
		for y := 0; y < h; y++ {
			copy(b.Row(y), g.Pix[g.PixOffset(bounds.Min.X, bounds.Min.Y+y):][:w])
		}
		return b, nil
	}

	b, err := NewBuffer(w, h, 3, 256)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			pos := b.Offset(x, y)
			b.Data[pos] = c.R
			b.Data[pos+1] = c.G
			b.Data[pos+2] = c.B
		}
	}
	return b, nil
}

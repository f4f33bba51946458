package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// RenderResult contains a rendered view of a buffer as base64 PNG.
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop renders the region [x1,x2) x [y1,y2) of b, optionally rescaled.
func Crop(b *Buffer, x1, y1, x2, y2 int, scale float64) (*RenderResult, error) {
	img, err := ToImage(b)
	if err != nil {
		return nil, err
	}

	if x1 < 0 || y1 < 0 || x2 > b.Width || y2 > b.Height {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (0,0)-(%d,%d): %w",
			x1, y1, x2, y2, b.Width, b.Height, ErrInvalidArgument)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2: %w", ErrInvalidArgument)
	}

	return render(imaging.Crop(img, image.Rect(x1, y1, x2, y2)), scale)
}

// CropQuadrant renders a named region of b: top-left, top-right,
// bottom-left, bottom-right, top-half, bottom-half, left-half, right-half or
// center (the middle 50%).
func CropQuadrant(b *Buffer, region string, scale float64) (*RenderResult, error) {
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("crop: %w", err)
	}

	w, h := b.Width, b.Height
	midX, midY := w/2, h/2

	var x1, y1, x2, y2 int
	switch region {
	case "top-left":
		x1, y1, x2, y2 = 0, 0, midX, midY
	case "top-right":
		x1, y1, x2, y2 = midX, 0, w, midY
	case "bottom-left":
		x1, y1, x2, y2 = 0, midY, midX, h
	case "bottom-right":
		x1, y1, x2, y2 = midX, midY, w, h
	case "top-half":
		x1, y1, x2, y2 = 0, 0, w, midY
	case "bottom-half":
		x1, y1, x2, y2 = 0, midY, w, h
	case "left-half":
		x1, y1, x2, y2 = 0, 0, midX, h
	case "right-half":
		x1, y1, x2, y2 = midX, 0, w, h
	case "center":
		x1, y1, x2, y2 = w/4, h/4, w-w/4, h-h/4
	default:
		return nil, fmt.Errorf("unknown region %q: %w", region, ErrInvalidArgument)
	}

	return Crop(b, x1, y1, x2, y2, scale)
}

// Preview renders the whole buffer, optionally rescaled.
func Preview(b *Buffer, scale float64) (*RenderResult, error) {
	img, err := ToImage(b)
	if err != nil {
		return nil, err
	}
	return render(imaging.Clone(img), scale)
}

func render(img *image.NRGBA, scale float64) (*RenderResult, error) {
	if scale != 1.0 && scale > 0 {
		w := max(int(float64(img.Bounds().Dx())*scale), 1)
		h := max(int(float64(img.Bounds().Dy())*scale), 1)
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &RenderResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

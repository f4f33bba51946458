package imaging

import (
	"fmt"
	"math"
)

// gradientKernel holds the side weight of a 3x3 directional operator: 1 for
// Prewitt, 2 for Sobel.
type gradientKernel int

const (
	prewitt gradientKernel = 1
	sobel   gradientKernel = 2
)

// EdgePrewitt marks edges of a single-channel image with the Prewitt operator.
//
// Parameters:
//   - src: Gray source image.
//   - dst: Single-channel destination with the same width and height.
//   - th: Gradient magnitude threshold. Pixels with magnitude > th become 255,
//     all others 0.
//
// Returns ErrInvalidArgument (wrapped) on a geometry or channel mismatch.
//
// # Algorithm
//
// With the 3x3 neighborhood labeled
//
//	A B C
//	D . E
//	F G H
//
// the gradient components are
//
//	mx = (-A + C - D + E - F + H) / 3
//	my = (-A - B - C + F + G + H) / 3
//
// using integer division, and magnitude = sqrt(mx² + my²).
//
// Only pixels with a full neighborhood (rows and columns 1..n-2) are written;
// the one-pixel border of dst is left untouched.
func EdgePrewitt(src, dst *Buffer, th float64) error {
	return edgeDetect("prewitt edge", src, dst, th, prewitt)
}

// EdgeSobel is EdgePrewitt with the Sobel weights: D and E weigh 2 in mx,
// B and G weigh 2 in my. Both components are still divided by 3.
func EdgeSobel(src, dst *Buffer, th float64) error {
	return edgeDetect("sobel edge", src, dst, th, sobel)
}

func edgeDetect(name string, src, dst *Buffer, th float64, w gradientKernel) error {
	if err := checkPair(name, src, 1, dst, 1); err != nil {
		return err
	}
	if err := checkDistinct(name, src, dst); err != nil {
		return err
	}

	side := int(w)
	forEachRow(1, src.Height-1, func(y int) {
		up, mid, down := src.Row(y-1), src.Row(y), src.Row(y+1)
		for x := 1; x < src.Width-1; x++ {
			a, b, c := int(up[x-1]), int(up[x]), int(up[x+1])
			d, e := int(mid[x-1]), int(mid[x+1])
			f, g, h := int(down[x-1]), int(down[x]), int(down[x+1])

			mx := float64((-a + c - side*d + side*e - f + h) / 3)
			my := float64((-a + f - side*b + side*g - c + h) / 3)

			var out uint8
			if math.Sqrt(mx*mx+my*my) > th {
				out = 255
			}
			dst.Data[dst.Offset(x, y)] = out
		}
	})
	return nil
}

// EdgeDetectBy dispatches by operator name: prewitt or sobel.
func EdgeDetectBy(src, dst *Buffer, operator string, th float64) error {
	switch operator {
	case "prewitt":
		return EdgePrewitt(src, dst, th)
	case "sobel":
		return EdgeSobel(src, dst, th)
	default:
		return fmt.Errorf("unknown edge operator %q: %w", operator, ErrInvalidArgument)
	}
}

package imaging

import (
	"fmt"
	"math"
)

// Threshold binarizes a single-channel buffer: 255 where v >= t, else 0.
func Threshold(src, dst *Buffer, t int) error {
	if err := checkPair("threshold", src, 1, dst, 1); err != nil {
		return err
	}

	forEachRow(0, src.Height, func(y int) {
		in, out := src.Row(y), dst.Row(y)
		for i, v := range in {
			if int(v) >= t {
				out[i] = 255
			} else {
				out[i] = 0
			}
		}
	})
	return nil
}

// ThresholdGlobalMean binarizes with the integer mean of all samples as the
// threshold and returns the threshold it applied.
func ThresholdGlobalMean(src, dst *Buffer) (int, error) {
	if err := checkPair("global mean threshold", src, 1, dst, 1); err != nil {
		return 0, err
	}

	var sum int64
	for _, v := range src.Data {
		sum += int64(v)
	}
	t := int(sum / int64(src.Width*src.Height))

	return t, Threshold(src, dst, t)
}

// ThresholdMidpoint binarizes each pixel against the midpoint of the local
// minimum and maximum.
//
// The window spans offsets [-k, k) in both directions, where k =
// (kernelSize-1)/2, clipped to the image. The upper bound is exclusive, so
// the window is one row and one column short of a centered square; Niblack
// uses the full inclusive window. Output is 255 where the pixel is strictly
// greater than (max+min)/2.
func ThresholdMidpoint(src, dst *Buffer, kernelSize int) error {
	if err := checkPair("midpoint threshold", src, 1, dst, 1); err != nil {
		return err
	}
	if err := checkDistinct("midpoint threshold", src, dst); err != nil {
		return err
	}
	if err := checkKernel("midpoint threshold", kernelSize); err != nil {
		return err
	}

	offset := (kernelSize - 1) / 2
	forEachRow(0, src.Height, func(y int) {
		for x := 0; x < src.Width; x++ {
			lo, hi := halfOpenExtrema(src, x, y, offset)
			t := (hi + lo) / 2
			binarizeAt(src, dst, x, y, t)
		}
	})
	return nil
}

// ThresholdBernsen binarizes each pixel with Bernsen's method over the same
// half-open window as ThresholdMidpoint. Where the local contrast (max-min)
// is below cmin the region is assumed flat and the threshold becomes
// Levels/2, otherwise (max+min)/2.
func ThresholdBernsen(src, dst *Buffer, kernelSize, cmin int) error {
	if err := checkPair("bernsen threshold", src, 1, dst, 1); err != nil {
		return err
	}
	if err := checkDistinct("bernsen threshold", src, dst); err != nil {
		return err
	}
	if err := checkKernel("bernsen threshold", kernelSize); err != nil {
		return err
	}

	offset := (kernelSize - 1) / 2
	forEachRow(0, src.Height, func(y int) {
		for x := 0; x < src.Width; x++ {
			lo, hi := halfOpenExtrema(src, x, y, offset)
			t := (hi + lo) / 2
			if hi-lo < cmin {
				t = src.Levels / 2
			}
			binarizeAt(src, dst, x, y, t)
		}
	})
	return nil
}

// ThresholdNiblack binarizes each pixel against mean + k*stddev of a
// symmetric window spanning offsets [-o, o] inclusive, clipped to the image.
// The threshold is truncated to an integer in [0,255]; output is 255 where
// the pixel is strictly greater.
func ThresholdNiblack(src, dst *Buffer, kernelSize int, k float64) error {
	if err := checkPair("niblack threshold", src, 1, dst, 1); err != nil {
		return err
	}
	if err := checkDistinct("niblack threshold", src, dst); err != nil {
		return err
	}
	if err := checkKernel("niblack threshold", kernelSize); err != nil {
		return err
	}

	offset := (kernelSize - 1) / 2
	forEachRow(0, src.Height, func(y int) {
		for x := 0; x < src.Width; x++ {
			y0, y1 := max(y-offset, 0), min(y+offset, src.Height-1)
			x0, x1 := max(x-offset, 0), min(x+offset, src.Width-1)

			var sum float32
			for wy := y0; wy <= y1; wy++ {
				for wx := x0; wx <= x1; wx++ {
					sum += float32(src.Data[src.Offset(wx, wy)])
				}
			}
			n := float32((y1 - y0 + 1) * (x1 - x0 + 1))
			mean := sum / n

			var sumsq float32
			for wy := y0; wy <= y1; wy++ {
				for wx := x0; wx <= x1; wx++ {
					d := float32(src.Data[src.Offset(wx, wy)]) - mean
					sumsq += d * d
				}
			}
			stdev := float32(math.Sqrt(float64(sumsq / n)))

			t := mean + float32(k)*stdev
			binarizeAt(src, dst, x, y, int(clampf(t, 0, 255)))
		}
	})
	return nil
}

// halfOpenExtrema returns the minimum and maximum of the window
// [x-offset, x+offset) x [y-offset, y+offset) clipped to the image. An empty
// window yields (Levels-1, 0).
func halfOpenExtrema(src *Buffer, x, y, offset int) (lo, hi int) {
	lo = src.Levels - 1
	y0, y1 := max(y-offset, 0), min(y+offset, src.Height)
	x0, x1 := max(x-offset, 0), min(x+offset, src.Width)
	for wy := y0; wy < y1; wy++ {
		row := src.Row(wy)
		for wx := x0; wx < x1; wx++ {
			v := int(row[wx])
			if v > hi {
				hi = v
			}
			if v < lo {
				lo = v
			}
		}
	}
	return lo, hi
}

func binarizeAt(src, dst *Buffer, x, y, t int) {
	pos := src.Offset(x, y)
	if int(src.Data[pos]) > t {
		dst.Data[pos] = 255
	} else {
		dst.Data[pos] = 0
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ThresholdParams carries the parameters for ThresholdBy.
type ThresholdParams struct {
	Method     string  `json:"method"`      // global, mean, midpoint, bernsen, niblack
	Value      int     `json:"value"`       // global
	KernelSize int     `json:"kernel_size"` // midpoint, bernsen, niblack
	CMin       int     `json:"cmin"`        // bernsen
	K          float64 `json:"k"`           // niblack
}

// ThresholdBy dispatches to one of the binarization methods by name and
// returns the global threshold used (0 for local methods).
func ThresholdBy(src, dst *Buffer, p ThresholdParams) (int, error) {
	switch p.Method {
	case "global":
		return p.Value, Threshold(src, dst, p.Value)
	case "mean":
		return ThresholdGlobalMean(src, dst)
	case "midpoint":
		return 0, ThresholdMidpoint(src, dst, p.KernelSize)
	case "bernsen":
		return 0, ThresholdBernsen(src, dst, p.KernelSize, p.CMin)
	case "niblack":
		return 0, ThresholdNiblack(src, dst, p.KernelSize, p.K)
	default:
		return 0, fmt.Errorf("unknown threshold method %q: %w", p.Method, ErrInvalidArgument)
	}
}

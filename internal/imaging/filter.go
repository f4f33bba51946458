package imaging

import (
	"fmt"
	"slices"
)

// gaussTaps is the fixed separable 5-tap kernel used by GaussianFilter.
var gaussTaps = [5]float32{0.054, 0.242, 0.399, 0.242, 0.054}

// MeanFilter replaces each interior pixel with the integer mean of its
// kernel x kernel window. Only pixels whose window fits inside the image are
// written; the border of width (kernel-1)/2 in dst is left untouched.
func MeanFilter(src, dst *Buffer, kernel int) error {
	if err := checkFilter("mean filter", src, dst, kernel); err != nil {
		return err
	}

	offset := (kernel - 1) / 2
	area := kernel * kernel
	forEachRow(offset, src.Height-offset, func(y int) {
		for x := offset; x < src.Width-offset; x++ {
			sum := 0
			for ky := -offset; ky <= offset; ky++ {
				row := src.Row(y + ky)
				for kx := -offset; kx <= offset; kx++ {
					sum += int(row[x+kx])
				}
			}
			dst.Data[dst.Offset(x, y)] = uint8(sum / area)
		}
	})
	return nil
}

// MedianFilter replaces each interior pixel with the median of its window:
// the samples are sorted ascending and the element at index
// (kernel*kernel)/2 is taken.
func MedianFilter(src, dst *Buffer, kernel int) error {
	if err := checkFilter("median filter", src, dst, kernel); err != nil {
		return err
	}

	offset := (kernel - 1) / 2
	forEachRow(offset, src.Height-offset, func(y int) {
		window := make([]uint8, 0, kernel*kernel)
		for x := offset; x < src.Width-offset; x++ {
			window = window[:0]
			for ky := -offset; ky <= offset; ky++ {
				row := src.Row(y + ky)
				window = append(window, row[x-offset:x+offset+1]...)
			}
			slices.Sort(window)
			dst.Data[dst.Offset(x, y)] = window[len(window)/2]
		}
	})
	return nil
}

// GaussianFilter smooths interior pixels with the outer product of a fixed
// 5-tap kernel. The two-pixel border is left untouched and the weighted sum
// is truncated.
func GaussianFilter(src, dst *Buffer) error {
	if err := checkFilter("gaussian filter", src, dst, len(gaussTaps)); err != nil {
		return err
	}

	const offset = len(gaussTaps) / 2
	forEachRow(offset, src.Height-offset, func(y int) {
		for x := offset; x < src.Width-offset; x++ {
			var sum float32
			for ky := -offset; ky <= offset; ky++ {
				row := src.Row(y + ky)
				for kx := -offset; kx <= offset; kx++ {
					sum += float32(row[x+kx]) * gaussTaps[kx+offset] * gaussTaps[ky+offset]
				}
			}
			dst.Data[dst.Offset(x, y)] = uint8(sum)
		}
	})
	return nil
}

// laplacian returns 8*center minus the eight neighbors of (x, y).
// (x, y) must not lie on the image border.
func laplacian(src *Buffer, x, y int) int {
	up, mid, down := src.Row(y-1), src.Row(y), src.Row(y+1)
	sum := 8 * int(mid[x])
	sum -= int(up[x-1]) + int(up[x]) + int(up[x+1])
	sum -= int(mid[x-1]) + int(mid[x+1])
	sum -= int(down[x-1]) + int(down[x]) + int(down[x+1])
	return sum
}

// HighPass writes |laplacian|/9*20, clamped to 255, for every pixel that is
// not on the one-pixel border.
func HighPass(src, dst *Buffer) error {
	if err := checkPair("high-pass filter", src, 1, dst, 1); err != nil {
		return err
	}
	if err := checkDistinct("high-pass filter", src, dst); err != nil {
		return err
	}

	forEachRow(1, src.Height-1, func(y int) {
		for x := 1; x < src.Width-1; x++ {
			sum := laplacian(src, x, y)
			if sum < 0 {
				sum = -sum
			}
			v := float32(sum) / 9 * 20
			dst.Data[dst.Offset(x, y)] = uint8(clampf(v, 0, 255))
		}
	})
	return nil
}

// HighPassEnhance sharpens by adding laplacian/16*gain back onto each
// non-border pixel, clamped to [0,255].
func HighPassEnhance(src, dst *Buffer, gain int) error {
	if err := checkPair("high-pass enhance", src, 1, dst, 1); err != nil {
		return err
	}
	if err := checkDistinct("high-pass enhance", src, dst); err != nil {
		return err
	}

	forEachRow(1, src.Height-1, func(y int) {
		for x := 1; x < src.Width-1; x++ {
			sum := laplacian(src, x, y)
			v := float32(src.Data[src.Offset(x, y)]) + float32(sum)/16*float32(gain)
			dst.Data[dst.Offset(x, y)] = uint8(clampf(v, 0, 255))
		}
	})
	return nil
}

// FilterParams carries the parameters for FilterBy.
type FilterParams struct {
	Method     string `json:"method"`      // mean, median, gaussian, highpass, enhance
	KernelSize int    `json:"kernel_size"` // mean, median
	Gain       int    `json:"gain"`        // enhance
}

// FilterBy dispatches to one of the spatial filters by name.
func FilterBy(src, dst *Buffer, p FilterParams) error {
	switch p.Method {
	case "mean":
		return MeanFilter(src, dst, p.KernelSize)
	case "median":
		return MedianFilter(src, dst, p.KernelSize)
	case "gaussian":
		return GaussianFilter(src, dst)
	case "highpass":
		return HighPass(src, dst)
	case "enhance":
		return HighPassEnhance(src, dst, p.Gain)
	default:
		return fmt.Errorf("unknown filter %q: %w", p.Method, ErrInvalidArgument)
	}
}

func checkFilter(name string, src, dst *Buffer, kernel int) error {
	if err := checkPair(name, src, 1, dst, 1); err != nil {
		return err
	}
	if err := checkDistinct(name, src, dst); err != nil {
		return err
	}
	return checkKernel(name, kernel)
}

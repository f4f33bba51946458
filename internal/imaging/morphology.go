package imaging

import "fmt"

// Dilate grows the foreground of a single-channel binary buffer.
//
// A pixel becomes foreground (255) when any pixel of the kernel x kernel
// window centered on it, clipped to the image, is foreground. Foreground is
// any non-zero sample, so both 0/1 and 0/255 masks are accepted. src and dst
// must be distinct buffers.
func Dilate(src, dst *Buffer, kernel int) error {
	if err := checkMorphology("dilate", src, dst, kernel); err != nil {
		return err
	}
	if err := checkDistinct("dilate", src, dst); err != nil {
		return err
	}

	offset := (kernel - 1) / 2
	forEachRow(0, src.Height, func(y int) {
		out := dst.Row(y)
		for x := 0; x < src.Width; x++ {
			if src.Data[src.Offset(x, y)] != 0 {
				out[x] = 255
				continue
			}
			out[x] = 0
			if windowAny(src, x, y, offset, true) {
				out[x] = 255
			}
		}
	})
	return nil
}

// Erode shrinks the foreground of a single-channel binary buffer.
//
// A foreground pixel stays foreground only when every pixel of the window,
// clipped to the image, is foreground. Background pixels stay background.
func Erode(src, dst *Buffer, kernel int) error {
	if err := checkMorphology("erode", src, dst, kernel); err != nil {
		return err
	}
	if err := checkDistinct("erode", src, dst); err != nil {
		return err
	}

	offset := (kernel - 1) / 2
	forEachRow(0, src.Height, func(y int) {
		out := dst.Row(y)
		for x := 0; x < src.Width; x++ {
			if src.Data[src.Offset(x, y)] == 0 {
				out[x] = 0
				continue
			}
			out[x] = 255
			if windowAny(src, x, y, offset, false) {
				out[x] = 0
			}
		}
	})
	return nil
}

// windowAny reports whether the clipped inclusive window around (x, y)
// holds a pixel whose foreground state equals fg. The scan stops at the
// first match.
func windowAny(src *Buffer, x, y, offset int, fg bool) bool {
	y0, y1 := max(y-offset, 0), min(y+offset, src.Height-1)
	x0, x1 := max(x-offset, 0), min(x+offset, src.Width-1)
	for wy := y0; wy <= y1; wy++ {
		row := src.Row(wy)
		for wx := x0; wx <= x1; wx++ {
			if (row[wx] != 0) == fg {
				return true
			}
		}
	}
	return false
}

// Open erodes src with erodeKernel and dilates the result with dilateKernel.
// The intermediate buffer is private to the call.
func Open(src, dst *Buffer, erodeKernel, dilateKernel int) error {
	if err := checkMorphology("open", src, dst, erodeKernel); err != nil {
		return err
	}
	if err := checkKernel("open", dilateKernel); err != nil {
		return err
	}

	tmp, err := NewBuffer(src.Width, src.Height, 1, src.Levels)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer tmp.Release()

	if err := Erode(src, tmp, erodeKernel); err != nil {
		return err
	}
	return Dilate(tmp, dst, dilateKernel)
}

// Close dilates src with dilateKernel and erodes the result with erodeKernel.
func Close(src, dst *Buffer, dilateKernel, erodeKernel int) error {
	if err := checkMorphology("close", src, dst, dilateKernel); err != nil {
		return err
	}
	if err := checkKernel("close", erodeKernel); err != nil {
		return err
	}

	tmp, err := NewBuffer(src.Width, src.Height, 1, src.Levels)
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	defer tmp.Release()

	if err := Dilate(src, tmp, dilateKernel); err != nil {
		return err
	}
	return Erode(tmp, dst, erodeKernel)
}

// OpenN applies Open with the same kernel n times. n must be at least 1.
// src and dst may be the same buffer.
func OpenN(src, dst *Buffer, kernel, n int) error {
	return repeat("open", src, dst, kernel, n, Open)
}

// CloseN applies Close with the same kernel n times.
func CloseN(src, dst *Buffer, kernel, n int) error {
	return repeat("close", src, dst, kernel, n, Close)
}

func repeat(name string, src, dst *Buffer, kernel, n int, op func(src, dst *Buffer, k1, k2 int) error) error {
	if n < 1 {
		return fmt.Errorf("%s: iterations %d: %w", name, n, ErrInvalidArgument)
	}
	if err := checkMorphology(name, src, dst, kernel); err != nil {
		return err
	}

	cur, err := src.Clone()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer cur.Release()

	for i := 0; i < n; i++ {
		if err := op(cur, dst, kernel, kernel); err != nil {
			return err
		}
		if i < n-1 {
			copy(cur.Data, dst.Data)
		}
	}
	return nil
}

// MorphologyBy dispatches by operation name: dilate, erode, open or close.
// Open and close use kernel for both steps.
func MorphologyBy(src, dst *Buffer, op string, kernel, iterations int) error {
	if iterations == 0 {
		iterations = 1
	}
	switch op {
	case "dilate", "erode":
		fn := Dilate
		if op == "erode" {
			fn = Erode
		}
		return repeat(op, src, dst, kernel, iterations, func(s, d *Buffer, k, _ int) error {
			return fn(s, d, k)
		})
	case "open":
		return OpenN(src, dst, kernel, iterations)
	case "close":
		return CloseN(src, dst, kernel, iterations)
	default:
		return fmt.Errorf("unknown morphology operation %q: %w", op, ErrInvalidArgument)
	}
}

func checkMorphology(name string, src, dst *Buffer, kernel int) error {
	if err := checkPair(name, src, 1, dst, 1); err != nil {
		return err
	}
	return checkKernel(name, kernel)
}

package imaging

import (
	"errors"
	"testing"
)

// stepImage returns a 6x4 gray image that is 0 left of column 3 and 255 from
// column 3 on.
func stepImage(t *testing.T) *Buffer {
	t.Helper()
	b := mustBuffer(t, 6, 4, 1, 256)
	for y := 0; y < 4; y++ {
		for x := 3; x < 6; x++ {
			b.Set(x, y, 0, 255)
		}
	}
	return b
}

func TestEdgeDetect_VerticalStep(t *testing.T) {
	tests := []struct {
		name string
		fn   func(src, dst *Buffer, th float64) error
		th   float64
		want []uint8 // columns 1..4 of an interior row
	}{
		{"prewitt low threshold", EdgePrewitt, 100, []uint8{0, 255, 255, 0}},
		{"sobel low threshold", EdgeSobel, 100, []uint8{0, 255, 255, 0}},
		// Prewitt peaks at 255, Sobel at 340.
		{"prewitt high threshold", EdgePrewitt, 300, []uint8{0, 0, 0, 0}},
		{"sobel high threshold", EdgeSobel, 300, []uint8{0, 255, 255, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := stepImage(t)
			dst := mustBuffer(t, 6, 4, 1, 256)
			if err := tt.fn(src, dst, tt.th); err != nil {
				t.Fatalf("edge detection failed: %v", err)
			}
			for y := 1; y <= 2; y++ {
				for i, want := range tt.want {
					if got := dst.At(i+1, y, 0); got != want {
						t.Errorf("(%d,%d): got %d, want %d", i+1, y, got, want)
					}
				}
			}
		})
	}
}

func TestEdgeDetect_UniformImage(t *testing.T) {
	src := mustBuffer(t, 8, 8, 1, 256)
	fill(src, 128)
	dst := mustBuffer(t, 8, 8, 1, 256)

	if err := EdgeDetectBy(src, dst, "sobel", 0); err != nil {
		t.Fatalf("EdgeDetectBy failed: %v", err)
	}
	if n := countForeground(dst); n != 0 {
		t.Errorf("uniform image should have no edges, got %d", n)
	}
}

func TestEdgeDetect_BorderUntouched(t *testing.T) {
	src := stepImage(t)
	dst := mustBuffer(t, 6, 4, 1, 256)
	fill(dst, 7)

	if err := EdgePrewitt(src, dst, 10); err != nil {
		t.Fatalf("EdgePrewitt failed: %v", err)
	}
	for x := 0; x < 6; x++ {
		if dst.At(x, 0, 0) != 7 || dst.At(x, 3, 0) != 7 {
			t.Fatalf("border row modified at column %d", x)
		}
	}
}

func TestEdgeDetect_InvalidArguments(t *testing.T) {
	src := mustBuffer(t, 4, 4, 1, 256)
	color := mustBuffer(t, 4, 4, 3, 256)

	if err := EdgeSobel(color, src, 10); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("color source: got %v, want ErrInvalidArgument", err)
	}
	dst := mustBuffer(t, 4, 4, 1, 256)
	if err := EdgeDetectBy(src, dst, "canny", 10); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown operator: got %v, want ErrInvalidArgument", err)
	}
	if err := EdgePrewitt(src, src, 10); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("aliased buffers: got %v, want ErrInvalidArgument", err)
	}
}

package imaging

import (
	"errors"
	"testing"
)

func TestMeanFilter(t *testing.T) {
	src := grayFrom(t, 3, 3,
		0, 1, 2,
		3, 4, 5,
		6, 7, 9,
	)
	dst := mustBuffer(t, 3, 3, 1, 256)
	fill(dst, 200)

	if err := MeanFilter(src, dst, 3); err != nil {
		t.Fatalf("MeanFilter failed: %v", err)
	}
	if got := dst.At(1, 1, 0); got != 4 {
		t.Errorf("center: got %d, want 4", got)
	}
	if dst.At(0, 0, 0) != 200 || dst.At(2, 2, 0) != 200 {
		t.Error("border pixels must be left untouched")
	}
}

func TestMedianFilter(t *testing.T) {
	src := grayFrom(t, 3, 3,
		9, 1, 8,
		2, 7, 3,
		6, 4, 5,
	)
	dst := mustBuffer(t, 3, 3, 1, 256)

	if err := MedianFilter(src, dst, 3); err != nil {
		t.Fatalf("MedianFilter failed: %v", err)
	}
	if got := dst.At(1, 1, 0); got != 5 {
		t.Errorf("center: got %d, want 5", got)
	}
}

func TestMedianFilter_RemovesSaltNoise(t *testing.T) {
	src := mustBuffer(t, 5, 5, 1, 256)
	fill(src, 10)
	src.Set(2, 2, 0, 255)
	dst := mustBuffer(t, 5, 5, 1, 256)

	if err := MedianFilter(src, dst, 3); err != nil {
		t.Fatalf("MedianFilter failed: %v", err)
	}
	for y := 1; y < 4; y++ {
		for x := 1; x < 4; x++ {
			if got := dst.At(x, y, 0); got != 10 {
				t.Errorf("(%d,%d): got %d, want 10", x, y, got)
			}
		}
	}
}

func TestGaussianFilter(t *testing.T) {
	src := mustBuffer(t, 6, 6, 1, 256)
	fill(src, 100)
	dst := mustBuffer(t, 6, 6, 1, 256)

	if err := GaussianFilter(src, dst); err != nil {
		t.Fatalf("GaussianFilter failed: %v", err)
	}
	// The taps sum to 0.991, so a flat 100 becomes 100*0.991² = 98.2.
	for y := 2; y < 4; y++ {
		for x := 2; x < 4; x++ {
			if got := dst.At(x, y, 0); got != 98 {
				t.Errorf("(%d,%d): got %d, want 98", x, y, got)
			}
		}
	}
	if dst.At(1, 1, 0) != 0 {
		t.Error("two-pixel border must be left untouched")
	}
}

func TestHighPass(t *testing.T) {
	src := mustBuffer(t, 5, 5, 1, 256)
	src.Set(2, 2, 0, 9)
	dst := mustBuffer(t, 5, 5, 1, 256)

	if err := HighPass(src, dst); err != nil {
		t.Fatalf("HighPass failed: %v", err)
	}
	if got := dst.At(2, 2, 0); got != 160 {
		t.Errorf("center: got %d, want 160", got)
	}
	if got := dst.At(1, 1, 0); got != 20 {
		t.Errorf("neighbor: got %d, want 20", got)
	}

	src.Set(2, 2, 0, 100)
	if err := HighPass(src, dst); err != nil {
		t.Fatalf("HighPass failed: %v", err)
	}
	if got := dst.At(2, 2, 0); got != 255 {
		t.Errorf("large response should clamp to 255, got %d", got)
	}
}

func TestHighPassEnhance(t *testing.T) {
	src := mustBuffer(t, 5, 5, 1, 256)
	fill(src, 50)
	src.Set(2, 2, 0, 66)
	dst := mustBuffer(t, 5, 5, 1, 256)

	if err := HighPassEnhance(src, dst, 2); err != nil {
		t.Fatalf("HighPassEnhance failed: %v", err)
	}
	// laplacian at the center = 8*66 - 8*50 = 128; 66 + 128/16*2 = 82.
	if got := dst.At(2, 2, 0); got != 82 {
		t.Errorf("center: got %d, want 82", got)
	}
	// laplacian at (1,1) = 8*50 - 7*50 - 66 = -16; 50 - 16/16*2 = 48.
	if got := dst.At(1, 1, 0); got != 48 {
		t.Errorf("neighbor: got %d, want 48", got)
	}

	if err := HighPassEnhance(src, dst, 100); err != nil {
		t.Fatalf("HighPassEnhance failed: %v", err)
	}
	if dst.At(2, 2, 0) != 255 || dst.At(1, 1, 0) != 0 {
		t.Error("enhanced values must clamp to [0,255]")
	}
}

func TestFilter_InvalidArguments(t *testing.T) {
	src := mustBuffer(t, 5, 5, 1, 256)
	dst := mustBuffer(t, 5, 5, 1, 256)
	color := mustBuffer(t, 5, 5, 3, 256)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"even mean kernel", func() error { return MeanFilter(src, dst, 2) }},
		{"color median", func() error { return MedianFilter(color, dst, 3) }},
		{"color gaussian", func() error { return GaussianFilter(src, color) }},
		{"nil high-pass", func() error { return HighPass(nil, dst) }},
		{"aliased mean", func() error { return MeanFilter(src, src, 3) }},
		{"aliased median", func() error { return MedianFilter(src, src, 3) }},
		{"aliased gaussian", func() error { return GaussianFilter(src, src) }},
		{"aliased high-pass", func() error { return HighPass(src, src) }},
		{"aliased enhance", func() error { return HighPassEnhance(src, src, 2) }},
		{"unknown filter", func() error { return FilterBy(src, dst, FilterParams{Method: "bilateral"}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestFilterBy(t *testing.T) {
	src := mustBuffer(t, 5, 5, 1, 256)
	fill(src, 30)
	dst := mustBuffer(t, 5, 5, 1, 256)

	for _, method := range []string{"mean", "median"} {
		clear(dst.Data)
		if err := FilterBy(src, dst, FilterParams{Method: method, KernelSize: 3}); err != nil {
			t.Fatalf("%s failed: %v", method, err)
		}
		if dst.At(2, 2, 0) != 30 {
			t.Errorf("%s: flat image changed to %d", method, dst.At(2, 2, 0))
		}
	}
}

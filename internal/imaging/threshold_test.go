package imaging

import (
	"bytes"
	"errors"
	"testing"
)

func TestThreshold(t *testing.T) {
	src := grayFrom(t, 4, 1, 0, 99, 100, 255)
	dst := mustBuffer(t, 4, 1, 1, 256)

	if err := Threshold(src, dst, 100); err != nil {
		t.Fatalf("Threshold failed: %v", err)
	}
	want := []byte{0, 0, 255, 255}
	if !bytes.Equal(dst.Data, want) {
		t.Errorf("got %v, want %v", dst.Data, want)
	}
}

func TestThreshold_Monotonic(t *testing.T) {
	src := randomBuffer(t, 40, 80, 1, 11)
	dst := mustBuffer(t, 40, 80, 1, 256)

	prev := src.Width*src.Height + 1
	for th := 0; th <= 256; th += 8 {
		if err := Threshold(src, dst, th); err != nil {
			t.Fatalf("Threshold(%d) failed: %v", th, err)
		}
		n := countForeground(dst)
		if n > prev {
			t.Fatalf("threshold %d: foreground grew from %d to %d", th, prev, n)
		}
		prev = n
	}
	if prev != 0 {
		t.Errorf("threshold 256 should clear every pixel, got %d", prev)
	}
}

func TestThresholdGlobalMean(t *testing.T) {
	src := grayFrom(t, 4, 1, 0, 10, 20, 31)
	dst := mustBuffer(t, 4, 1, 1, 256)

	th, err := ThresholdGlobalMean(src, dst)
	if err != nil {
		t.Fatalf("ThresholdGlobalMean failed: %v", err)
	}
	if th != 15 {
		t.Errorf("threshold: got %d, want 15", th)
	}
	want := []byte{0, 0, 255, 255}
	if !bytes.Equal(dst.Data, want) {
		t.Errorf("got %v, want %v", dst.Data, want)
	}
}

func TestThresholdMidpoint_HalfOpenWindow(t *testing.T) {
	// With kernel 3 the window covers offsets -1 and 0 only, so pixel 1 sees
	// {10, 20} (midpoint 15) rather than {10, 20, 200} (midpoint 105).
	src := grayFrom(t, 3, 1, 10, 20, 200)
	dst := mustBuffer(t, 3, 1, 1, 256)

	if err := ThresholdMidpoint(src, dst, 3); err != nil {
		t.Fatalf("ThresholdMidpoint failed: %v", err)
	}
	want := []byte{0, 255, 255}
	if !bytes.Equal(dst.Data, want) {
		t.Errorf("got %v, want %v", dst.Data, want)
	}
}

func TestThresholdBernsen(t *testing.T) {
	src := grayFrom(t, 3, 1, 10, 20, 200)
	dst := mustBuffer(t, 3, 1, 1, 256)

	if err := ThresholdBernsen(src, dst, 3, 50); err != nil {
		t.Fatalf("ThresholdBernsen failed: %v", err)
	}
	// Pixels 0 and 1 have contrast below 50 and fall back to 256/2.
	want := []byte{0, 0, 255}
	if !bytes.Equal(dst.Data, want) {
		t.Errorf("got %v, want %v", dst.Data, want)
	}

	if err := ThresholdBernsen(src, dst, 3, 0); err != nil {
		t.Fatalf("ThresholdBernsen failed: %v", err)
	}
	want = []byte{0, 255, 255}
	if !bytes.Equal(dst.Data, want) {
		t.Errorf("cmin 0: got %v, want %v", dst.Data, want)
	}
}

func TestThresholdNiblack(t *testing.T) {
	src := grayFrom(t, 3, 1, 0, 0, 90)
	dst := mustBuffer(t, 3, 1, 1, 256)

	tests := []struct {
		name string
		k    float64
		want []byte
	}{
		{"mean only", 0, []byte{0, 0, 255}},
		{"one deviation", 1, []byte{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ThresholdNiblack(src, dst, 3, tt.k); err != nil {
				t.Fatalf("ThresholdNiblack failed: %v", err)
			}
			if !bytes.Equal(dst.Data, tt.want) {
				t.Errorf("got %v, want %v", dst.Data, tt.want)
			}
		})
	}
}

func TestThresholdLocal_UniformImage(t *testing.T) {
	src := mustBuffer(t, 9, 9, 1, 256)
	fill(src, 77)
	dst := mustBuffer(t, 9, 9, 1, 256)

	for _, method := range []string{"midpoint", "niblack"} {
		if _, err := ThresholdBy(src, dst, ThresholdParams{Method: method, KernelSize: 5, K: 0.2}); err != nil {
			t.Fatalf("%s failed: %v", method, err)
		}
		if n := countForeground(dst); n != 0 {
			t.Errorf("%s: uniform image produced %d foreground pixels", method, n)
		}
	}
}

func TestThreshold_InvalidArguments(t *testing.T) {
	src := mustBuffer(t, 5, 5, 1, 256)
	dst := mustBuffer(t, 5, 5, 1, 256)
	color := mustBuffer(t, 5, 5, 3, 256)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"even kernel midpoint", func() error { return ThresholdMidpoint(src, dst, 4) }},
		{"zero kernel bernsen", func() error { return ThresholdBernsen(src, dst, 0, 10) }},
		{"even kernel niblack", func() error { return ThresholdNiblack(src, dst, 2, 0.2) }},
		{"color source", func() error { return Threshold(color, dst, 10) }},
		{"aliased midpoint", func() error { return ThresholdMidpoint(src, src, 3) }},
		{"aliased bernsen", func() error { return ThresholdBernsen(src, src, 3, 10) }},
		{"aliased niblack", func() error { return ThresholdNiblack(src, src, 3, 0.2) }},
		{"nil destination", func() error { return Threshold(src, nil, 10) }},
		{"unknown method", func() error {
			_, err := ThresholdBy(src, dst, ThresholdParams{Method: "otsu"})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestThresholdBy(t *testing.T) {
	src := grayFrom(t, 2, 1, 50, 150)
	dst := mustBuffer(t, 2, 1, 1, 256)

	th, err := ThresholdBy(src, dst, ThresholdParams{Method: "global", Value: 100})
	if err != nil {
		t.Fatalf("ThresholdBy failed: %v", err)
	}
	if th != 100 || !bytes.Equal(dst.Data, []byte{0, 255}) {
		t.Errorf("global: got threshold %d data %v", th, dst.Data)
	}

	th, err = ThresholdBy(src, dst, ThresholdParams{Method: "mean"})
	if err != nil {
		t.Fatalf("ThresholdBy failed: %v", err)
	}
	if th != 100 {
		t.Errorf("mean: got threshold %d, want 100", th)
	}
}

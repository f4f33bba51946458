package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImage writes a solid-color PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "test-image.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestNewBufferCache(t *testing.T) {
	cache := NewBufferCache()
	if cache == nil {
		t.Fatal("NewBufferCache returned nil")
	}
	if cache.Len() != 0 {
		t.Errorf("new cache should be empty, has %d entries", cache.Len())
	}
}

func TestBufferCache_LoadPNG(t *testing.T) {
	path := createTestImage(t, 10, 6, color.RGBA{200, 100, 50, 255})
	cache := NewBufferCache()

	b, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b.Width != 10 || b.Height != 6 || b.Channels != 3 || b.Levels != 256 {
		t.Errorf("geometry: got %dx%dx%d/%d", b.Width, b.Height, b.Channels, b.Levels)
	}
	if b.At(3, 2, 0) != 200 || b.At(3, 2, 1) != 100 || b.At(3, 2, 2) != 50 {
		t.Errorf("pixel: got %v", b.Data[b.Offset(3, 2):b.Offset(3, 2)+3])
	}
}

func TestBufferCache_ReturnsClones(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.pgm")
	if err := WriteFile(path, grayFrom(t, 2, 1, 5, 6)); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cache := NewBufferCache()
	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	first.Data[0] = 99
	first.Release()

	second, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if !bytes.Equal(second.Data, []byte{5, 6}) {
		t.Errorf("cached buffer was modified through a caller handle: %v", second.Data)
	}
	if cache.Len() != 1 {
		t.Errorf("cache should hold 1 entry, has %d", cache.Len())
	}
}

func TestBufferCache_EvictAndClear(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.pgm"), filepath.Join(dir, "b.pgm")}
	for _, p := range paths {
		if err := WriteFile(p, grayFrom(t, 1, 1, 1)); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	cache := NewBufferCache()
	for _, p := range paths {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	cache.Evict(paths[0])
	cache.Evict("not-cached")
	if cache.Len() != 1 {
		t.Errorf("after Evict: got %d entries, want 1", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("after Clear: got %d entries, want 0", cache.Len())
	}
}

func TestBufferCache_Errors(t *testing.T) {
	cache := NewBufferCache()
	if _, err := cache.Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.ppm")
	if err := os.WriteFile(bad, []byte("P9\n1 1\n255\n\x00"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := cache.Load(bad); !errors.Is(err, ErrMalformed) {
		t.Errorf("malformed file: got %v, want ErrMalformed", err)
	}
	if cache.Len() != 0 {
		t.Error("failed loads must not be cached")
	}
}

func TestBufferCache_Concurrent(t *testing.T) {
	path := createTestImage(t, 20, 20, color.RGBA{1, 2, 3, 255})
	cache := NewBufferCache()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := cache.Load(path)
			if err != nil {
				errs <- err
				return
			}
			b.Release()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load failed: %v", err)
	}
}

func TestSaveFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := rgbFrom(t, 2, 2,
		RGBColor{255, 0, 0}, RGBColor{0, 255, 0},
		RGBColor{0, 0, 255}, RGBColor{10, 20, 30},
	)

	for _, name := range []string{"out.png", "out.bmp", "out.ppm"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := SaveFile(path, src); err != nil {
				t.Fatalf("SaveFile failed: %v", err)
			}
			got, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			if !bytes.Equal(got.Data, src.Data) {
				t.Errorf("lossless round trip changed samples: %v", got.Data)
			}
		})
	}

	if err := SaveFile(filepath.Join(dir, "out.tiff"), src); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unsupported extension: got %v, want ErrInvalidArgument", err)
	}
}

func TestSaveFile_GrayPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.png")
	if err := SaveFile(path, grayFrom(t, 3, 1, 0, 128, 255)); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if got.Channels != 1 || !bytes.Equal(got.Data, []byte{0, 128, 255}) {
		t.Errorf("gray PNG: got %d channels, data %v", got.Channels, got.Data)
	}
}

func TestToImage_ScalesBinary(t *testing.T) {
	b := mustBuffer(t, 2, 1, 1, 2)
	b.Data[1] = 1

	img, err := ToImage(b)
	if err != nil {
		t.Fatalf("ToImage failed: %v", err)
	}
	g := img.(*image.Gray)
	if g.Pix[0] != 0 || g.Pix[1] != 255 {
		t.Errorf("binary samples should render as 0/255, got %v", g.Pix)
	}
}

func TestLoadImageInfo(t *testing.T) {
	path := createTestImage(t, 12, 7, color.RGBA{0, 0, 0, 255})
	info, err := LoadImageInfo(NewBufferCache(), path)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	if info.Width != 12 || info.Height != 7 || info.Channels != 3 {
		t.Errorf("info: got %+v", info)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.FileSizeBytes <= 0 {
		t.Error("FileSizeBytes should be positive")
	}
}

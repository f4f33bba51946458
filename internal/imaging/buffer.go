package imaging

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every operation in this package. Callers should
// test for them with errors.Is; the returned errors carry operation context.
var (
	// ErrInvalidArgument reports a nil or released buffer, a non-positive
	// dimension, a wrong channel count, mismatched geometry or a bad kernel.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformed reports an image file that cannot be decoded: bad magic,
	// unparsable header tokens or a truncated payload.
	ErrMalformed = errors.New("malformed image data")
)

// MaxSamples bounds Width*Height*Channels of any buffer.
const MaxSamples = 1 << 30

// Buffer is an owned raster of 8-bit samples.
//
// Samples are stored row-major with no row padding:
//   - Stride = Width * Channels
//   - len(Data) = Stride * Height
//
// Channels is 1 for gray or binary images and 3 for interleaved color
// (RGB or HSV, depending on the producing operation). Levels is the number
// of quantization values a sample may take: 2 for binary, up to 256 otherwise.
//
// A Buffer is exclusively owned by its creator. Operations borrow their
// source buffers read-only for the duration of one call and never retain them.
type Buffer struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Channels int    `json:"channels"`
	Levels   int    `json:"levels"`
	Stride   int    `json:"stride"`
	Data     []byte `json:"-"`
}

// NewBuffer allocates a zeroed buffer.
//
// Parameters:
//   - width, height: Image dimensions in pixels. Must be positive.
//   - channels: 1 (gray/binary) or 3 (color).
//   - levels: Quantization levels in [1, 256].
//
// Returns ErrInvalidArgument (wrapped) for any parameter outside those ranges.
func NewBuffer(width, height, channels, levels int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("new buffer %dx%d: %w", width, height, ErrInvalidArgument)
	}
	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("new buffer: channels %d: %w", channels, ErrInvalidArgument)
	}
	if levels < 1 || levels > 256 {
		return nil, fmt.Errorf("new buffer: levels %d outside [1,256]: %w", levels, ErrInvalidArgument)
	}
	if !fits(width, height, channels) {
		return nil, fmt.Errorf("new buffer %dx%dx%d exceeds %d samples: %w", width, height, channels, MaxSamples, ErrInvalidArgument)
	}

	stride := width * channels
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Levels:   levels,
		Stride:   stride,
		Data:     make([]byte, stride*height),
	}, nil
}

// Release drops the sample storage. It is safe to call on a nil buffer and
// on a buffer that has already been released.
func (b *Buffer) Release() {
	if b == nil {
		return
	}
	b.Data = nil
}

// Released reports whether the buffer no longer owns sample storage.
func (b *Buffer) Released() bool {
	return b == nil || b.Data == nil
}

// Offset returns the index of channel 0 of pixel (x, y) in Data.
// This is the only place row-stride arithmetic is spelled out.
func (b *Buffer) Offset(x, y int) int {
	return y*b.Stride + x*b.Channels
}

// At returns sample c of pixel (x, y). No bounds checking beyond the slice's own.
func (b *Buffer) At(x, y, c int) uint8 {
	return b.Data[b.Offset(x, y)+c]
}

// Set stores sample c of pixel (x, y).
func (b *Buffer) Set(x, y, c int, v uint8) {
	b.Data[b.Offset(x, y)+c] = v
}

// Row returns the samples of row y as a sub-slice of Data.
func (b *Buffer) Row(y int) []byte {
	start := y * b.Stride
	return b.Data[start : start+b.Stride]
}

// In reports whether (x, y) lies inside the image.
func (b *Buffer) In(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

// Clone returns a deep copy. Cloning a released buffer is an error.
func (b *Buffer) Clone() (*Buffer, error) {
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	data := make([]byte, len(b.Data))
	copy(data, b.Data)
	c := *b
	c.Data = data
	return &c, nil
}

// SameGeometry reports whether o has the same width, height and channel count.
func (b *Buffer) SameGeometry(o *Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height && b.Channels == o.Channels
}

// validate checks the structural invariants of a buffer.
func (b *Buffer) validate() error {
	if b == nil {
		return fmt.Errorf("nil buffer: %w", ErrInvalidArgument)
	}
	if b.Data == nil {
		return fmt.Errorf("released buffer: %w", ErrInvalidArgument)
	}
	if b.Width <= 0 || b.Height <= 0 || (b.Channels != 1 && b.Channels != 3) {
		return fmt.Errorf("buffer %dx%dx%d: %w", b.Width, b.Height, b.Channels, ErrInvalidArgument)
	}
	if !fits(b.Width, b.Height, b.Channels) {
		return fmt.Errorf("buffer %dx%dx%d exceeds %d samples: %w", b.Width, b.Height, b.Channels, MaxSamples, ErrInvalidArgument)
	}
	if b.Stride != b.Width*b.Channels || len(b.Data) != b.Stride*b.Height {
		return fmt.Errorf("buffer layout stride=%d len=%d: %w", b.Stride, len(b.Data), ErrInvalidArgument)
	}
	return nil
}

// checkChannels validates b and requires the given channel count.
func checkChannels(name string, b *Buffer, channels int) error {
	if err := b.validate(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if b.Channels != channels {
		return fmt.Errorf("%s: want %d channel(s), got %d: %w", name, channels, b.Channels, ErrInvalidArgument)
	}
	return nil
}

// checkPair validates a source/destination pair with the given channel counts
// and identical width and height.
func checkPair(name string, src *Buffer, srcChannels int, dst *Buffer, dstChannels int) error {
	if err := checkChannels(name+" source", src, srcChannels); err != nil {
		return err
	}
	if err := checkChannels(name+" destination", dst, dstChannels); err != nil {
		return err
	}
	if src.Width != dst.Width || src.Height != dst.Height {
		return fmt.Errorf("%s: source %dx%d does not match destination %dx%d: %w",
			name, src.Width, src.Height, dst.Width, dst.Height, ErrInvalidArgument)
	}
	return nil
}

// fits reports whether a positive width x height x channels raster stays
// within MaxSamples. The divisions keep the test itself from overflowing.
func fits(width, height, channels int) bool {
	return width <= MaxSamples/channels/height
}

// checkDistinct rejects a destination that is also the source. Windowed
// operations read neighbor rows another band may already have written.
func checkDistinct(name string, src, dst *Buffer) error {
	if src == dst {
		return fmt.Errorf("%s: source and destination alias: %w", name, ErrInvalidArgument)
	}
	return nil
}

// checkKernel requires an odd, positive window size.
func checkKernel(name string, kernel int) error {
	if kernel < 1 || kernel%2 == 0 {
		return fmt.Errorf("%s: kernel size %d must be odd and positive: %w", name, kernel, ErrInvalidArgument)
	}
	return nil
}

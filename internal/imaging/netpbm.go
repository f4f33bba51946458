package imaging

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Flat binary image formats understood by Decode and Encode.
//
//	Magic  Channels  Levels  Payload
//	P4     1         2       bit-packed rows, MSB first, bit 0 = foreground
//	P5     1         <=256   one byte per sample
//	P6     3         <=256   three interleaved bytes per sample
//
// The P4 bit convention is inverted with respect to the usual monochrome
// meaning: a sample value of 0 is written as bit 1 and any non-zero sample as
// bit 0. Reading maps bit 0 to sample 1 and bit 1 to sample 0.
const (
	magicBitmap = "P4"
	magicGray   = "P5"
	magicColor  = "P6"

	// maxTokenLen bounds a single header token.
	maxTokenLen = 19
)

// Decode reads a P4, P5 or P6 image.
//
// The header is three or four whitespace-separated tokens (magic, width,
// height and, for P5/P6, the maximum sample value). A '#' starts a comment
// that runs to the end of the line. Exactly one whitespace byte separates the
// last header token from the raw payload.
//
// Returns:
//   - *Buffer: 1 channel / 2 levels for P4, 1 channel for P5, 3 channels for
//     P6. For P5/P6, Levels = maxval + 1.
//   - error: wraps ErrMalformed for a bad magic number, bad size or level
//     tokens, or a truncated payload. No partial buffer is returned.
func Decode(r io.Reader) (*Buffer, error) {
	br := bufio.NewReader(r)

	magic, err := readToken(br)
	if err != nil {
		return nil, fmt.Errorf("read magic number: %w", err)
	}

	var channels, levels int
	switch magic {
	case magicBitmap:
		channels, levels = 1, 2
	case magicGray:
		channels = 1
	case magicColor:
		channels = 3
	default:
		return nil, fmt.Errorf("bad magic number %q: %w", magic, ErrMalformed)
	}

	width, err := readInt(br, "width")
	if err != nil {
		return nil, err
	}
	height, err := readInt(br, "height")
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 || !fits(width, height, channels) {
		return nil, fmt.Errorf("bad size %dx%d: %w", width, height, ErrMalformed)
	}

	if magic != magicBitmap {
		maxval, err := readInt(br, "max level")
		if err != nil {
			return nil, err
		}
		if maxval < 1 || maxval > 255 {
			return nil, fmt.Errorf("max level %d outside [1,255]: %w", maxval, ErrMalformed)
		}
		levels = maxval + 1
	}

	// size is bounded by fits above. The payload is read before any raster
	// is allocated, so a truncated file never allocates its declared size.
	size := width * channels * height
	if magic == magicBitmap {
		size = packedRowBytes(width) * height
	}
	payload, err := readPayload(br, size)
	if err != nil {
		return nil, fmt.Errorf("read %s payload: %w", magic, err)
	}
	if magic == magicBitmap {
		payload = UnpackBits(payload, width, height)
	}

	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Levels:   levels,
		Stride:   width * channels,
		Data:     payload,
	}, nil
}

// readPayload reads exactly n bytes, growing the result as data arrives.
func readPayload(r io.Reader, n int) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil {
		return nil, truncated(err)
	}
	if len(data) < n {
		return nil, truncated(io.ErrUnexpectedEOF)
	}
	return data, nil
}

// Encode writes b as P4 (single channel, 2 levels), P5 (single channel) or P6
// (three channels). P5/P6 headers carry Levels-1 as the max-level token.
func Encode(w io.Writer, b *Buffer) error {
	if err := b.validate(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if b.Levels < 2 {
		return fmt.Errorf("encode: levels %d has no max-level token: %w", b.Levels, ErrInvalidArgument)
	}

	bw := bufio.NewWriter(w)

	var payload []byte
	switch {
	case b.Levels == 2 && b.Channels == 1:
		if _, err := fmt.Fprintf(bw, "%s\n%d %d\n", magicBitmap, b.Width, b.Height); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		payload = PackBits(b.Data, b.Width, b.Height)
	default:
		magic := magicGray
		if b.Channels == 3 {
			magic = magicColor
		}
		if _, err := fmt.Fprintf(bw, "%s\n%d %d\n%d\n", magic, b.Width, b.Height, b.Levels-1); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		payload = b.Data
	}

	n, err := bw.Write(payload)
	if err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	if n != len(payload) {
		return fmt.Errorf("write payload: wrote %d of %d bytes: %w", n, len(payload), io.ErrShortWrite)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush payload: %w", err)
	}
	return nil
}

// ReadFile decodes a P4/P5/P6 file from disk. The file is always closed.
func ReadFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// WriteFile encodes b to path, replacing any existing file.
func WriteFile(path string, b *Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}

	if err := Encode(f, b); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// PackBits packs single-channel samples into 1-bit rows, 8 pixels per byte,
// most significant bit first. A zero sample becomes bit 1 and a non-zero
// sample bit 0. Each row starts on a byte boundary; the unused low bits of a
// row's last byte are zero.
func PackBits(data []byte, width, height int) []byte {
	rowBytes := packedRowBytes(width)
	packed := make([]byte, rowBytes*height)

	for y := 0; y < height; y++ {
		row := packed[y*rowBytes : (y+1)*rowBytes]
		for x := 0; x < width; x++ {
			if data[y*width+x] == 0 {
				row[x/8] |= 0x80 >> (x % 8)
			}
		}
	}
	return packed
}

// UnpackBits is the inverse of PackBits: bit 1 becomes sample 0 and bit 0
// becomes sample 1.
func UnpackBits(packed []byte, width, height int) []byte {
	rowBytes := packedRowBytes(width)
	data := make([]byte, width*height)

	for y := 0; y < height; y++ {
		row := packed[y*rowBytes : (y+1)*rowBytes]
		for x := 0; x < width; x++ {
			if row[x/8]&(0x80>>(x%8)) == 0 {
				data[y*width+x] = 1
			}
		}
	}
	return data
}

func packedRowBytes(width int) int {
	return (width + 7) / 8
}

// readToken returns the next header token, skipping whitespace and '#'
// comments. The byte that terminates the token is consumed unless it starts
// a comment.
func readToken(br *bufio.Reader) (string, error) {
	var c byte
	var err error

	for {
		for {
			if c, err = br.ReadByte(); err != nil {
				return "", truncated(err)
			}
			if !isSpace(c) {
				break
			}
		}
		if c != '#' {
			break
		}
		for c != '\n' {
			if c, err = br.ReadByte(); err != nil {
				return "", truncated(err)
			}
		}
	}

	tok := []byte{c}
	for {
		c, err = br.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if c == '#' {
			_ = br.UnreadByte()
			break
		}
		if isSpace(c) {
			break
		}
		if len(tok) == maxTokenLen {
			return "", fmt.Errorf("header token longer than %d bytes: %w", maxTokenLen, ErrMalformed)
		}
		tok = append(tok, c)
	}
	return string(tok), nil
}

func readInt(br *bufio.Reader, what string) (int, error) {
	tok, err := readToken(br)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", what, err)
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("bad %s token %q: %w", what, tok, ErrMalformed)
	}
	return v, nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// truncated maps end-of-input errors to ErrMalformed.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("premature end of data: %w", ErrMalformed)
	}
	return err
}

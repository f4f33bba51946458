package imaging

import (
	"fmt"
	_ "image/gif" // Register GIF format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/imgio"
	_ "golang.org/x/image/bmp" // Register BMP format decoder
)

// BufferCache provides thread-safe caching of decoded buffers to avoid
// redundant disk reads.
//
// Buffers are keyed by the exact path string passed to Load. Callers receive
// a private clone on every Load, so a cached buffer is never mutated or
// released through a caller's handle.
//
// # Memory Management
//
// Cached buffers remain in memory until explicitly removed via Evict() or
// Clear(). Long-running servers handling many frames should evict what they
// no longer need.
//
// # Example Usage
//
//	cache := imaging.NewBufferCache()
//	img, err := cache.Load("/path/to/frame.ppm")
//	if err != nil {
//	    return err
//	}
//	defer img.Release()
type BufferCache struct {
	mu      sync.RWMutex
	buffers map[string]*Buffer
}

// NewBufferCache creates an empty cache ready for concurrent use.
func NewBufferCache() *BufferCache {
	return &BufferCache{
		buffers: make(map[string]*Buffer),
	}
}

// Load returns a copy of the buffer for path, reading it from disk on a miss.
//
// Parameters:
//   - path: File path. ".pbm", ".pgm", ".ppm" and ".pnm" files go through
//     Decode; anything else is decoded as PNG, JPEG, GIF or BMP and converted
//     to an RGB buffer (gray PNGs stay single-channel).
//
// Returns:
//   - *Buffer: A clone owned by the caller.
//   - error: Non-nil if the file cannot be opened or decoded.
func (c *BufferCache) Load(path string) (*Buffer, error) {
	c.mu.RLock()
	b, ok := c.buffers[path]
	c.mu.RUnlock()

	if !ok {
		var err error
		b, err = LoadFile(path)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.buffers[path] = b
		c.mu.Unlock()
	}

	return b.Clone()
}

// Evict removes a specific buffer from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *BufferCache) Evict(path string) {
	c.mu.Lock()
	if b, ok := c.buffers[path]; ok {
		b.Release()
		delete(c.buffers, path)
	}
	c.mu.Unlock()
}

// Clear removes every cached buffer.
func (c *BufferCache) Clear() {
	c.mu.Lock()
	for _, b := range c.buffers {
		b.Release()
	}
	c.buffers = make(map[string]*Buffer)
	c.mu.Unlock()
}

// Len reports the number of cached buffers.
func (c *BufferCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buffers)
}

// LoadFile reads an image file without caching. See BufferCache.Load for the
// supported formats.
func LoadFile(path string) (*Buffer, error) {
	if isNetpbm(path) {
		return ReadFile(path)
	}

	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img)
}

// SaveFile writes b to path, choosing the encoding from the file extension:
// the flat formats for ".pbm", ".pgm", ".ppm" and ".pnm", otherwise PNG,
// JPEG or BMP.
func SaveFile(path string, b *Buffer) error {
	if isNetpbm(path) {
		return WriteFile(path, b)
	}

	var enc imgio.Encoder
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		enc = imgio.PNGEncoder()
	case ".jpg", ".jpeg":
		enc = imgio.JPEGEncoder(95)
	case ".bmp":
		enc = imgio.BMPEncoder()
	default:
		return fmt.Errorf("unsupported output format %q: %w", filepath.Ext(path), ErrInvalidArgument)
	}

	img, err := ToImage(b)
	if err != nil {
		return err
	}
	if err := imgio.Save(path, img, enc); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

func isNetpbm(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pbm", ".pgm", ".ppm", ".pnm":
		return true
	}
	return false
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	Channels int `json:"channels"`
	Levels   int `json:"levels"`

	// Format is derived from the file extension: "pbm", "pgm", "ppm", "png",
	// "jpeg", "gif", "bmp" or "unknown".
	Format string `json:"format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image into the cache and reports its metadata.
//
// Parameters:
//   - cache: The buffer cache to use for loading. Must not be nil.
//   - path: Path to the image file.
//
// Returns:
//   - *ImageInfo: Metadata about the image.
//   - error: Non-nil if the image cannot be loaded or the file cannot be stat'd.
func LoadImageInfo(cache *BufferCache, path string) (*ImageInfo, error) {
	b, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	defer b.Release()

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pbm":
		format = "pbm"
	case ".pgm":
		format = "pgm"
	case ".ppm":
		format = "ppm"
	case ".pnm":
		format = "pnm"
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".bmp":
		format = "bmp"
	}

	return &ImageInfo{
		Width:         b.Width,
		Height:        b.Height,
		Channels:      b.Channels,
		Levels:        b.Levels,
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}

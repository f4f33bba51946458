// Package imaging provides the raster core of the vision tools: an owned
// pixel buffer, a flat-file codec, color transforms, binarization,
// morphology, spatial filters and histogram tools.
//
// # Buffers
//
// Every operation works on *Buffer values. A buffer is a row-major array of
// 8-bit samples with Width*Channels bytes per row and no padding. Pixel
// (x, y) starts at Offset(x, y). Operations take a source and a caller-owned
// destination of matching geometry; they validate both before writing and
// return a wrapped ErrInvalidArgument otherwise.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Sample Conventions
//
// Binary masks produced here hold 0 (background) and 255 (foreground).
// Morphology treats any non-zero sample as foreground, so masks decoded
// from P4 files (0/1 samples) can be used directly. HSV buffers store hue
// scaled from [0,360) to [0,255].
//
// # Thread Safety
//
// BufferCache is safe for concurrent use. Row-independent transforms split
// their rows across goroutines internally; callers must not write a source
// buffer while an operation reads it.
package imaging

// Package detection finds and measures connected regions in binary masks.
//
// Labeling is a two-pass algorithm over a single-channel mask. Any non-zero
// sample is foreground, and regions are 8-connected. The one-pixel border of
// the image is always treated as background, so a region touching the image
// edge loses its outermost ring of pixels.
//
// # Labels
//
// Final labels are written into an 8-bit buffer, so a single pass can hand
// out at most 255 provisional labels. A mask that needs more fails with
// ErrLabelOverflow instead of silently merging regions. Labeler.MaxLabels
// lowers that ceiling.
//
// # Measurements
//
// Measure derives, per region:
//   - Area: pixel count
//   - Bounding box: inclusive extremes, reported as X, Y, Width, Height
//   - Perimeter: pixels with a 4-neighbor outside the region
//   - Centroid: truncated mean of pixel coordinates
//
// Circularity and Diameter are derived shape metrics used by the coin
// classifier.
//
// # Coordinate System
//
// Origin (0, 0) is the top-left corner, X grows rightward and Y downward.
package detection

package coins

import "github.com/ironsheep/vision-tools-mcp/internal/detection"

// DefaultTolerance is the horizontal centroid distance, in pixels, within
// which a blob is taken to be the last counted coin seen again.
const DefaultTolerance = 8

// History remembers the blobs already counted in one frame sequence.
//
// Coins cross the counting line over several frames, so the same coin is
// measured repeatedly. Only the most recent entry is compared, and only on
// the x axis. A History is owned by one pipeline and is not safe for
// concurrent use.
type History struct {
	Tolerance int

	counted []detection.Blob
}

// NewHistory returns an empty history with the given tolerance.
func NewHistory(tolerance int) *History {
	return &History{Tolerance: tolerance}
}

// Seen reports whether b duplicates the most recently counted blob.
func (h *History) Seen(b detection.Blob) bool {
	if len(h.counted) == 0 {
		return false
	}
	last := h.counted[len(h.counted)-1]
	return b.XC >= last.XC-h.Tolerance && b.XC <= last.XC+h.Tolerance
}

// Add records b as counted.
func (h *History) Add(b detection.Blob) {
	h.counted = append(h.counted, b)
}

// Len returns the number of recorded blobs.
func (h *History) Len() int {
	return len(h.counted)
}

// Reset forgets every recorded blob.
func (h *History) Reset() {
	h.counted = h.counted[:0]
}

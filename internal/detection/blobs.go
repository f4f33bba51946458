package detection

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/vision-tools-mcp/internal/imaging"
)

// ErrLabelOverflow is returned when a labeling pass needs more provisional
// labels than its Labeler allows.
var ErrLabelOverflow = errors.New("label space exhausted")

// DefaultMaxLabels is the largest label an 8-bit labeled buffer can hold.
const DefaultMaxLabels = 255

// Blob describes one connected foreground region of a labeled buffer.
//
// Label identifies the region's pixels in the labeled buffer. The remaining
// fields are zero until Measure fills them.
type Blob struct {
	Label int `json:"label"`

	// Bounding box: top-left corner and size in pixels.
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`

	// Area is the number of pixels carrying Label.
	Area int `json:"area"`

	// Perimeter counts the pixels with at least one 4-neighbor of a
	// different label.
	Perimeter int `json:"perimeter"`

	// XC and YC are the truncated mean pixel coordinates.
	XC int `json:"xc"`
	YC int `json:"yc"`
}

// Circularity returns 4πA/P², which is close to 1 for a disc and smaller
// for elongated or ragged shapes. It is 0 for a blob with no perimeter.
func Circularity(b Blob) float64 {
	if b.Perimeter == 0 {
		return 0
	}
	p := float64(b.Perimeter)
	return 4 * math.Pi * float64(b.Area) / (p * p)
}

// Diameter estimates the blob diameter as the mean of the bounding box sides.
func Diameter(b Blob) int {
	return (b.Width + b.Height) / 2
}

// Labeler performs two-pass connected-component labeling.
//
// A zero Labeler is not usable; create one with NewLabeler or set
// MaxLabels explicitly.
type Labeler struct {
	// MaxLabels bounds the provisional labels one pass may allocate. Must be
	// in [1, DefaultMaxLabels] because final labels are stored as 8-bit
	// samples.
	MaxLabels int
}

// NewLabeler returns a Labeler with the full 8-bit label space.
func NewLabeler() *Labeler {
	return &Labeler{MaxLabels: DefaultMaxLabels}
}

// Label finds the 8-connected foreground regions of a single-channel mask.
//
// Parameters:
//   - src: Binary mask. Any non-zero sample is foreground.
//   - dst: Single-channel buffer of the same size that receives the labeled
//     image. Background and the one-pixel border are 0; every region's
//     pixels carry its final label.
//
// Returns:
//   - []Blob: One entry per region with only Label set, or nil when no
//     region exists.
//   - error: ErrInvalidArgument (wrapped) for bad buffers, or
//     ErrLabelOverflow when the mask needs more than MaxLabels provisional
//     labels. dst is untouched on error.
//
// # Algorithm
//
// The border ring of the image is forced to background. Interior pixels are
// scanned in raster order and compared with the already visited neighbors
//
//	A B C
//	D X
//
// A pixel with no labeled neighbor receives a new provisional label. Otherwise
// it takes the smallest root among its neighbors, and every equivalence table
// entry pointing at another neighbor's root is retargeted to that smallest
// root by a linear scan of the table. A second pass replaces each provisional
// label with its root. The distinct roots, in order of first allocation, are
// the regions.
func (l *Labeler) Label(src, dst *imaging.Buffer) ([]Blob, error) {
	if l.MaxLabels < 1 || l.MaxLabels > DefaultMaxLabels {
		return nil, fmt.Errorf("label: max labels %d outside [1,%d]: %w", l.MaxLabels, DefaultMaxLabels, imaging.ErrInvalidArgument)
	}
	if err := checkMask("label source", src); err != nil {
		return nil, err
	}
	if err := checkMask("label destination", dst); err != nil {
		return nil, err
	}
	if src.Width != dst.Width || src.Height != dst.Height {
		return nil, fmt.Errorf("label: source %dx%d does not match destination %dx%d: %w",
			src.Width, src.Height, dst.Width, dst.Height, imaging.ErrInvalidArgument)
	}

	width, height := src.Width, src.Height
	const foreground = -1

	// work mirrors dst's layout, so dst.Offset indexes both.
	work := make([]int32, len(dst.Data))
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			if src.Data[src.Offset(x, y)] != 0 {
				work[dst.Offset(x, y)] = foreground
			}
		}
	}

	table := make([]int32, l.MaxLabels+1)
	next := int32(1)

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			pos := dst.Offset(x, y)
			if work[pos] == 0 {
				continue
			}

			neighbors := [4]int32{
				work[dst.Offset(x-1, y-1)],
				work[dst.Offset(x, y-1)],
				work[dst.Offset(x+1, y-1)],
				work[dst.Offset(x-1, y)],
			}

			num := int32(math.MaxInt32)
			for _, n := range neighbors {
				if n != 0 && table[n] < num {
					num = table[n]
				}
			}

			if num == math.MaxInt32 {
				if int(next) > l.MaxLabels {
					return nil, fmt.Errorf("label: more than %d provisional labels: %w", l.MaxLabels, ErrLabelOverflow)
				}
				work[pos] = next
				table[next] = next
				next++
				continue
			}

			work[pos] = num
			table[num] = num
			for _, n := range neighbors {
				if n == 0 {
					continue
				}
				if old := table[n]; old != num {
					for a := int32(1); a < next; a++ {
						if table[a] == old {
							table[a] = num
						}
					}
				}
			}
		}
	}

	clear(dst.Data)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			pos := dst.Offset(x, y)
			if work[pos] != 0 {
				dst.Data[pos] = uint8(table[work[pos]])
			}
		}
	}

	seen := make([]bool, next)
	var blobs []Blob
	for a := int32(1); a < next; a++ {
		root := table[a]
		if !seen[root] {
			seen[root] = true
			blobs = append(blobs, Blob{Label: int(root)})
		}
	}
	return blobs, nil
}

// Label runs a default Labeler over src.
func Label(src, dst *imaging.Buffer) ([]Blob, error) {
	return NewLabeler().Label(src, dst)
}

// Measure fills area, perimeter, bounding box and centroid for each blob
// from a buffer produced by Label. Only interior pixels are visited, so the
// four neighbors used by the perimeter test always exist.
//
// A blob whose label does not occur in the buffer cannot have a centroid;
// Measure still fills every other blob and then returns ErrInvalidArgument
// naming the first such label.
func Measure(labeled *imaging.Buffer, blobs []Blob) error {
	if err := checkMask("measure", labeled); err != nil {
		return err
	}

	var index [256]int
	for i := range index {
		index[i] = -1
	}
	for i := range blobs {
		label := blobs[i].Label
		if label < 1 || label > 255 {
			return fmt.Errorf("measure: label %d outside [1,255]: %w", label, imaging.ErrInvalidArgument)
		}
		index[label] = i
	}

	type accum struct {
		area, perimeter        int
		sumX, sumY             int64
		xmin, ymin, xmax, ymax int
	}
	acc := make([]accum, len(blobs))
	for i := range acc {
		acc[i] = accum{xmin: labeled.Width - 1, ymin: labeled.Height - 1}
	}

	for y := 1; y < labeled.Height-1; y++ {
		for x := 1; x < labeled.Width-1; x++ {
			v := labeled.Data[labeled.Offset(x, y)]
			if v == 0 || index[v] < 0 {
				continue
			}
			a := &acc[index[v]]

			a.area++
			a.sumX += int64(x)
			a.sumY += int64(y)
			a.xmin = min(a.xmin, x)
			a.ymin = min(a.ymin, y)
			a.xmax = max(a.xmax, x)
			a.ymax = max(a.ymax, y)

			if labeled.Data[labeled.Offset(x-1, y)] != v ||
				labeled.Data[labeled.Offset(x+1, y)] != v ||
				labeled.Data[labeled.Offset(x, y-1)] != v ||
				labeled.Data[labeled.Offset(x, y+1)] != v {
				a.perimeter++
			}
		}
	}

	var missing error
	for i := range blobs {
		a := acc[i]
		b := &blobs[i]
		if a.area == 0 {
			if missing == nil {
				missing = fmt.Errorf("measure: blob label %d has zero area: %w", b.Label, imaging.ErrInvalidArgument)
			}
			continue
		}
		b.Area = a.area
		b.Perimeter = a.perimeter
		b.X = a.xmin
		b.Y = a.ymin
		b.Width = a.xmax - a.xmin + 1
		b.Height = a.ymax - a.ymin + 1
		b.XC = int(a.sumX / int64(a.area))
		b.YC = int(a.sumY / int64(a.area))
	}
	return missing
}

// Analyze labels src into dst and measures every region.
func (l *Labeler) Analyze(src, dst *imaging.Buffer) ([]Blob, error) {
	blobs, err := l.Label(src, dst)
	if err != nil || len(blobs) == 0 {
		return blobs, err
	}
	if err := Measure(dst, blobs); err != nil {
		return nil, err
	}
	return blobs, nil
}

func checkMask(name string, b *imaging.Buffer) error {
	if b.Released() {
		return fmt.Errorf("%s: nil or released buffer: %w", name, imaging.ErrInvalidArgument)
	}
	if b.Channels != 1 {
		return fmt.Errorf("%s: want 1 channel, got %d: %w", name, b.Channels, imaging.ErrInvalidArgument)
	}
	if len(b.Data) != b.Width*b.Height {
		return fmt.Errorf("%s: buffer layout %dx%d len=%d: %w", name, b.Width, b.Height, len(b.Data), imaging.ErrInvalidArgument)
	}
	return nil
}

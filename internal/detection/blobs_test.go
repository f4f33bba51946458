package detection

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/ironsheep/vision-tools-mcp/internal/imaging"
)

// maskFrom builds a 0/255 mask from text rows: '#' is foreground.
func maskFrom(t *testing.T, rows ...string) *imaging.Buffer {
	t.Helper()
	b, err := imaging.NewBuffer(len(rows[0]), len(rows), 1, 256)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	for y, row := range rows {
		for x, ch := range row {
			if ch == '#' {
				b.Set(x, y, 0, 255)
			}
		}
	}
	return b
}

func labelBuffer(t *testing.T, like *imaging.Buffer) *imaging.Buffer {
	t.Helper()
	b, err := imaging.NewBuffer(like.Width, like.Height, 1, 256)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	return b
}

// countComponents counts 8-connected foreground regions of the interior
// with a stack-based flood fill.
func countComponents(m *imaging.Buffer) int {
	w, h := m.Width, m.Height
	visited := make([]bool, w*h)
	fg := func(x, y int) bool {
		return x >= 1 && x < w-1 && y >= 1 && y < h-1 && m.At(x, y, 0) != 0
	}

	count := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			if !fg(x, y) || visited[y*w+x] {
				continue
			}
			count++
			stack := [][2]int{{x, y}}
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if !fg(p[0], p[1]) || visited[p[1]*w+p[0]] {
					continue
				}
				visited[p[1]*w+p[0]] = true
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx != 0 || dy != 0 {
							stack = append(stack, [2]int{p[0] + dx, p[1] + dy})
						}
					}
				}
			}
		}
	}
	return count
}

func TestLabel_SeparateSquares(t *testing.T) {
	src := maskFrom(t,
		"..........",
		".##....##.",
		".##....##.",
		"..........",
		"..........",
		".##.......",
		".##.......",
		"..........",
	)
	dst := labelBuffer(t, src)

	blobs, err := Label(src, dst)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	if len(blobs) != 3 {
		t.Fatalf("got %d blobs, want 3", len(blobs))
	}

	seen := map[int]bool{}
	for _, b := range blobs {
		if b.Label < 1 || b.Label > 255 {
			t.Errorf("label %d outside [1,255]", b.Label)
		}
		if seen[b.Label] {
			t.Errorf("duplicate label %d", b.Label)
		}
		seen[b.Label] = true
	}

	// Every pixel of a square carries the same label.
	if dst.At(1, 1, 0) != dst.At(2, 2, 0) {
		t.Error("square pixels carry different labels")
	}
	if dst.At(1, 1, 0) == dst.At(7, 1, 0) {
		t.Error("separate squares share a label")
	}
	if dst.At(0, 0, 0) != 0 || dst.At(4, 4, 0) != 0 {
		t.Error("background should stay 0")
	}
}

func TestLabel_MergesEquivalentLabels(t *testing.T) {
	// A "U" and a "V" start as separate runs that only join further down.
	src := maskFrom(t,
		"...........",
		".#...#.#.#.",
		".#...#.#.#.",
		".#...#..#..",
		".#####.....",
		"...........",
	)
	dst := labelBuffer(t, src)

	blobs, err := Label(src, dst)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	if len(blobs) != 2 {
		t.Fatalf("got %d blobs, want 2", len(blobs))
	}
	if dst.At(1, 1, 0) != dst.At(5, 1, 0) {
		t.Error("arms of the U should share a label after merging")
	}
	if dst.At(7, 1, 0) != dst.At(9, 1, 0) {
		t.Error("arms of the V should share a label through the diagonal")
	}
}

func TestLabel_DiagonalIsConnected(t *testing.T) {
	src := maskFrom(t,
		"......",
		".#....",
		"..#...",
		"...#..",
		"......",
	)
	blobs, err := Label(src, labelBuffer(t, src))
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	if len(blobs) != 1 {
		t.Errorf("diagonal chain: got %d blobs, want 1", len(blobs))
	}
}

func TestLabel_MergesWestIntoNorthEast(t *testing.T) {
	// (3,2) sees label 1 to the north-east and label 2 to the west; the west
	// label must be retargeted, not the north-east one.
	src := maskFrom(t,
		".......",
		"....#..",
		".###...",
		".......",
	)
	dst := labelBuffer(t, src)
	blobs, err := Label(src, dst)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	if len(blobs) != 1 {
		t.Fatalf("got %d blobs, want 1", len(blobs))
	}
	for _, x := range []int{1, 2, 3} {
		if dst.At(x, 2, 0) != dst.At(4, 1, 0) {
			t.Errorf("pixel (%d,2) labeled %d, want %d", x, dst.At(x, 2, 0), dst.At(4, 1, 0))
		}
	}
}

func TestLabel_BorderIsCleared(t *testing.T) {
	src := maskFrom(t,
		"#####",
		"#####",
		"#####",
	)
	dst := labelBuffer(t, src)
	blobs, err := Label(src, dst)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	if len(blobs) != 1 {
		t.Fatalf("got %d blobs, want 1", len(blobs))
	}
	for x := 0; x < 5; x++ {
		if dst.At(x, 0, 0) != 0 || dst.At(x, 2, 0) != 0 {
			t.Fatalf("border pixel in column %d was labeled", x)
		}
	}
	if dst.At(0, 1, 0) != 0 || dst.At(4, 1, 0) != 0 {
		t.Error("border columns were labeled")
	}
}

func TestLabel_Empty(t *testing.T) {
	src := maskFrom(t, "....", "....", "....")
	dst := labelBuffer(t, src)
	dst.Data[0] = 7

	blobs, err := Label(src, dst)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	if blobs != nil {
		t.Errorf("expected nil blobs, got %v", blobs)
	}
	if dst.Data[0] != 0 {
		t.Error("destination should be cleared")
	}
}

func TestLabel_MatchesFloodFill(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		src, err := imaging.NewBuffer(20, 20, 1, 256)
		if err != nil {
			t.Fatalf("NewBuffer failed: %v", err)
		}
		for i := range src.Data {
			if rng.Intn(10) < 3 {
				src.Data[i] = uint8(1 + rng.Intn(255))
			}
		}

		dst := labelBuffer(t, src)
		blobs, err := Label(src, dst)
		if err != nil {
			t.Fatalf("trial %d: Label failed: %v", trial, err)
		}
		if want := countComponents(src); len(blobs) != want {
			t.Errorf("trial %d: got %d blobs, flood fill found %d", trial, len(blobs), want)
		}

		// Neighboring foreground pixels must share a label.
		for y := 1; y < 19; y++ {
			for x := 1; x < 19; x++ {
				v := dst.At(x, y, 0)
				if v == 0 {
					continue
				}
				for _, d := range [][2]int{{1, 0}, {-1, 1}, {0, 1}, {1, 1}} {
					n := dst.At(x+d[0], y+d[1], 0)
					if n != 0 && n != v {
						t.Fatalf("trial %d: adjacent pixels (%d,%d) labeled %d and %d", trial, x, y, v, n)
					}
				}
			}
		}
	}
}

func TestLabel_Overflow(t *testing.T) {
	src := maskFrom(t,
		"...........",
		".#.#.#.#.#.",
		"...........",
	)
	dst := labelBuffer(t, src)
	dst.Data[0] = 9

	l := &Labeler{MaxLabels: 4}
	if _, err := l.Label(src, dst); !errors.Is(err, ErrLabelOverflow) {
		t.Fatalf("expected ErrLabelOverflow, got %v", err)
	}
	if dst.Data[0] != 9 {
		t.Error("destination should be untouched on overflow")
	}

	l.MaxLabels = 5
	blobs, err := l.Label(src, dst)
	if err != nil {
		t.Fatalf("Label with room for 5 labels failed: %v", err)
	}
	if len(blobs) != 5 {
		t.Errorf("got %d blobs, want 5", len(blobs))
	}
}

func TestLabel_InvalidArguments(t *testing.T) {
	src := maskFrom(t, "...", "...", "...")
	rgb, _ := imaging.NewBuffer(3, 3, 3, 256)
	small, _ := imaging.NewBuffer(2, 3, 1, 256)
	released := labelBuffer(t, src)
	released.Release()

	tests := []struct {
		name    string
		labeler *Labeler
		src     *imaging.Buffer
		dst     *imaging.Buffer
	}{
		{"nil source", NewLabeler(), nil, labelBuffer(t, src)},
		{"released destination", NewLabeler(), src, released},
		{"color source", NewLabeler(), rgb, labelBuffer(t, src)},
		{"size mismatch", NewLabeler(), src, small},
		{"zero max labels", &Labeler{}, src, labelBuffer(t, src)},
		{"max labels too large", &Labeler{MaxLabels: 256}, src, labelBuffer(t, src)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.labeler.Label(tt.src, tt.dst); !errors.Is(err, imaging.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestMeasure_Ring(t *testing.T) {
	// A 5x5 ring with a 3x3 hole, kept off the cleared border.
	src := maskFrom(t,
		".......",
		".#####.",
		".#...#.",
		".#...#.",
		".#...#.",
		".#####.",
		".......",
	)
	dst := labelBuffer(t, src)

	blobs, err := NewLabeler().Analyze(src, dst)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(blobs) != 1 {
		t.Fatalf("got %d blobs, want 1", len(blobs))
	}

	b := blobs[0]
	if b.Area != 16 {
		t.Errorf("Area: got %d, want 16", b.Area)
	}
	if b.X != 1 || b.Y != 1 || b.Width != 5 || b.Height != 5 {
		t.Errorf("bbox: got (%d,%d,%d,%d), want (1,1,5,5)", b.X, b.Y, b.Width, b.Height)
	}
	if b.XC != 3 || b.YC != 3 {
		t.Errorf("centroid: got (%d,%d), want (3,3)", b.XC, b.YC)
	}
	if b.Perimeter != 16 {
		t.Errorf("Perimeter: got %d, want 16", b.Perimeter)
	}
}

func TestMeasure_FilledRectangle(t *testing.T) {
	src := maskFrom(t,
		"........",
		"..####..",
		"..####..",
		"..####..",
		"........",
	)
	dst := labelBuffer(t, src)
	blobs, err := NewLabeler().Analyze(src, dst)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	b := blobs[0]
	if b.Area != 12 {
		t.Errorf("Area: got %d, want 12", b.Area)
	}
	// Only the two middle pixels of row 2 are fully surrounded.
	if b.Perimeter != 10 {
		t.Errorf("Perimeter: got %d, want 10", b.Perimeter)
	}
	// Mean x is (2+3+4+5)/4 = 3.5, truncated.
	if b.XC != 3 || b.YC != 2 {
		t.Errorf("centroid: got (%d,%d), want (3,2)", b.XC, b.YC)
	}
	if b.Width != 4 || b.Height != 3 {
		t.Errorf("size: got %dx%d, want 4x3", b.Width, b.Height)
	}
}

func TestMeasure_Errors(t *testing.T) {
	src := maskFrom(t, ".....", ".##..", ".....")
	dst := labelBuffer(t, src)
	blobs, err := Label(src, dst)
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}

	withGhost := append(blobs, Blob{Label: 200})
	if err := Measure(dst, withGhost); !errors.Is(err, imaging.ErrInvalidArgument) {
		t.Errorf("zero-area blob: got %v, want ErrInvalidArgument", err)
	}
	if withGhost[0].Area != 2 {
		t.Errorf("present blob should still be measured, got area %d", withGhost[0].Area)
	}

	if err := Measure(dst, []Blob{{Label: 0}}); !errors.Is(err, imaging.ErrInvalidArgument) {
		t.Errorf("label 0: got %v, want ErrInvalidArgument", err)
	}
	if err := Measure(nil, blobs); !errors.Is(err, imaging.ErrInvalidArgument) {
		t.Errorf("nil buffer: got %v, want ErrInvalidArgument", err)
	}
}

func TestShapeMetrics(t *testing.T) {
	b := Blob{Width: 10, Height: 13, Area: 100, Perimeter: 40}
	if got := Diameter(b); got != 11 {
		t.Errorf("Diameter: got %d, want 11", got)
	}
	want := 4 * math.Pi * 100 / 1600
	if got := Circularity(b); math.Abs(got-want) > 1e-9 {
		t.Errorf("Circularity: got %f, want %f", got, want)
	}
	if got := Circularity(Blob{Area: 5}); got != 0 {
		t.Errorf("Circularity without perimeter: got %f, want 0", got)
	}
}

package coins

import (
	"fmt"

	"github.com/ironsheep/vision-tools-mcp/internal/detection"
)

// Range is an inclusive integer interval.
type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Denomination describes the measured footprint of one coin type.
type Denomination struct {
	Name      string `json:"name" yaml:"name"`
	Cents     int    `json:"cents" yaml:"cents"`
	Diameter  Range  `json:"diameter" yaml:"diameter"`
	Area      Range  `json:"area" yaml:"area"`
	Perimeter Range  `json:"perimeter" yaml:"perimeter"`
}

// Matches reports whether a blob with the given diameter falls inside every
// range of the denomination.
func (d Denomination) Matches(b detection.Blob, diameter int) bool {
	return d.Diameter.Contains(diameter) && d.Area.Contains(b.Area) && d.Perimeter.Contains(b.Perimeter)
}

// Label returns the short text drawn next to a counted coin: "2e" for whole
// euros, "50c" otherwise.
func (d Denomination) Label() string {
	if d.Cents >= 100 && d.Cents%100 == 0 {
		return fmt.Sprintf("%de", d.Cents/100)
	}
	return fmt.Sprintf("%dc", d.Cents)
}

// Classifier maps measured blobs to denominations.
//
// Denominations are tried in order and the first match wins, so overlapping
// ranges resolve toward the earlier entry.
type Classifier struct {
	MinArea        int            `json:"min_area" yaml:"min_area"`
	MinPerimeter   int            `json:"min_perimeter" yaml:"min_perimeter"`
	MinCircularity float64        `json:"min_circularity" yaml:"min_circularity"`
	Denominations  []Denomination `json:"denominations" yaml:"denominations"`
}

// DefaultDenominations returns the euro coin table calibrated for the
// reference camera setup. Sizes are in pixels.
func DefaultDenominations() []Denomination {
	return []Denomination{
		{Name: "0.50 EUR", Cents: 50, Diameter: Range{177, 181}, Area: Range{24200, 25950}, Perimeter: Range{550, 560}},
		{Name: "0.20 EUR", Cents: 20, Diameter: Range{158, 165}, Area: Range{19375, 21615}, Perimeter: Range{467, 590}},
		{Name: "2 EUR", Cents: 200, Diameter: Range{184, 190}, Area: Range{27140, 28140}, Perimeter: Range{575, 605}},
		{Name: "0.10 EUR", Cents: 10, Diameter: Range{140, 145}, Area: Range{15460, 17210}, Perimeter: Range{430, 460}},
		{Name: "0.05 EUR", Cents: 5, Diameter: Range{150, 157}, Area: Range{19060, 19844}, Perimeter: Range{450, 493}},
		{Name: "1 EUR", Cents: 100, Diameter: Range{169, 172}, Area: Range{22145, 23000}, Perimeter: Range{545, 745}},
		{Name: "0.02 EUR", Cents: 2, Diameter: Range{135, 140}, Area: Range{14920, 15470}, Perimeter: Range{400, 430}},
		{Name: "0.01 EUR", Cents: 1, Diameter: Range{116, 122}, Area: Range{10740, 11930}, Perimeter: Range{340, 420}},
	}
}

// DefaultClassifier returns the euro classifier with its rejection limits.
func DefaultClassifier() Classifier {
	return Classifier{
		MinArea:        10000,
		MinPerimeter:   300,
		MinCircularity: 0.40,
		Denominations:  DefaultDenominations(),
	}
}

// Plausible reports whether a blob is large enough to be a coin at all.
func (c Classifier) Plausible(b detection.Blob) bool {
	return b.Area >= c.MinArea && b.Perimeter >= c.MinPerimeter
}

// Classify returns the first denomination matching b. Blobs that are not
// plausible, or whose circularity does not exceed MinCircularity, never match.
func (c Classifier) Classify(b detection.Blob) (Denomination, bool) {
	if !c.Plausible(b) || detection.Circularity(b) <= c.MinCircularity {
		return Denomination{}, false
	}
	diameter := detection.Diameter(b)
	for _, d := range c.Denominations {
		if d.Matches(b, diameter) {
			return d, true
		}
	}
	return Denomination{}, false
}

// Name returns the name of the denomination worth cents, or the amount
// formatted as euros when the table has no such entry.
func (c Classifier) Name(cents int) string {
	for _, d := range c.Denominations {
		if d.Cents == cents {
			return d.Name
		}
	}
	return FormatCents(cents)
}

func (c Classifier) validate() error {
	if c.MinArea < 0 || c.MinPerimeter < 0 {
		return fmt.Errorf("classifier: negative minimum: %w", ErrInvalidConfig)
	}
	seen := make(map[int]bool, len(c.Denominations))
	for _, d := range c.Denominations {
		if d.Cents <= 0 {
			return fmt.Errorf("denomination %q: cents %d: %w", d.Name, d.Cents, ErrInvalidConfig)
		}
		if seen[d.Cents] {
			return fmt.Errorf("denomination %q: duplicate value %d: %w", d.Name, d.Cents, ErrInvalidConfig)
		}
		seen[d.Cents] = true
		for _, r := range []Range{d.Diameter, d.Area, d.Perimeter} {
			if r.Min > r.Max {
				return fmt.Errorf("denomination %q: range [%d,%d]: %w", d.Name, r.Min, r.Max, ErrInvalidConfig)
			}
		}
	}
	return nil
}

package coins

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/vision-tools-mcp/internal/detection"
	"github.com/ironsheep/vision-tools-mcp/internal/imaging"
)

// ErrInvalidConfig reports a pipeline configuration that cannot be used.
var ErrInvalidConfig = errors.New("invalid coin pipeline config")

// Config holds every tunable of the counting pipeline.
type Config struct {
	// BGR marks frames whose samples are stored blue-green-red.
	BGR bool `yaml:"bgr"`

	// Segments are the HSV ranges whose union forms the coin mask.
	Segments []imaging.HSVRange `yaml:"segments"`

	Morphology   MorphologyConfig   `yaml:"morphology"`
	CountingLine CountingLineConfig `yaml:"counting_line"`
	Annotation   AnnotationConfig   `yaml:"annotation"`

	Tolerance  int        `yaml:"tolerance"`
	MaxLabels  int        `yaml:"max_labels"`
	Classifier Classifier `yaml:"classifier"`
}

// MorphologyConfig controls the opening that cleans the coin mask: the mask
// is eroded Iterations times and then dilated Iterations times with a
// Kernel x Kernel square element.
type MorphologyConfig struct {
	Kernel     int `yaml:"kernel"`
	Iterations int `yaml:"iterations"`
}

// CountingLineConfig places the horizontal line at Height/Divisor. A blob
// is on the line when the line lies within [yc-Above, yc+Below].
type CountingLineConfig struct {
	Divisor int `yaml:"divisor"`
	Above   int `yaml:"above"`
	Below   int `yaml:"below"`
}

// AnnotationConfig decides which blobs get a box in annotated frames.
type AnnotationConfig struct {
	MinCircularity float64 `yaml:"min_circularity"`
	MinDiameter    int     `yaml:"min_diameter"`
}

// Row returns the counting line row for a frame of the given height.
func (c CountingLineConfig) Row(height int) int {
	return height / c.Divisor
}

// Crosses reports whether a blob centered at row yc touches the line.
func (c CountingLineConfig) Crosses(height, yc int) bool {
	line := c.Row(height)
	return line >= yc-c.Above && line <= yc+c.Below
}

// DefaultConfig returns the settings of the reference euro counter.
func DefaultConfig() Config {
	return Config{
		Segments: []imaging.HSVRange{
			{HMin: 12, HMax: 150, SMin: 35, SMax: 255, VMin: 20, VMax: 150},
			{HMin: 12, HMax: 150, SMin: 0, SMax: 80, VMin: 20, VMax: 130},
		},
		Morphology:   MorphologyConfig{Kernel: 9, Iterations: 3},
		CountingLine: CountingLineConfig{Divisor: 4, Above: 12, Below: 9},
		Annotation:   AnnotationConfig{MinCircularity: 0.50, MinDiameter: 115},
		Tolerance:    DefaultTolerance,
		MaxLabels:    detection.DefaultMaxLabels,
		Classifier:   DefaultClassifier(),
	}
}

// Validate checks that every field is usable.
func (c Config) Validate() error {
	if len(c.Segments) == 0 {
		return fmt.Errorf("no segmentation ranges: %w", ErrInvalidConfig)
	}
	if k := c.Morphology.Kernel; k < 1 || k%2 == 0 {
		return fmt.Errorf("morphology kernel %d must be odd and positive: %w", k, ErrInvalidConfig)
	}
	if c.Morphology.Iterations < 1 {
		return fmt.Errorf("morphology iterations %d: %w", c.Morphology.Iterations, ErrInvalidConfig)
	}
	if c.CountingLine.Divisor < 1 {
		return fmt.Errorf("counting line divisor %d: %w", c.CountingLine.Divisor, ErrInvalidConfig)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance %d: %w", c.Tolerance, ErrInvalidConfig)
	}
	if c.MaxLabels < 1 || c.MaxLabels > detection.DefaultMaxLabels {
		return fmt.Errorf("max labels %d outside [1,%d]: %w", c.MaxLabels, detection.DefaultMaxLabels, ErrInvalidConfig)
	}
	return c.Classifier.validate()
}

// LoadConfig reads a YAML config. Fields missing from the file keep their
// DefaultConfig values; unknown fields are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// WriteConfig writes cfg as YAML.
func WriteConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

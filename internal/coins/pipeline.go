package coins

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ironsheep/vision-tools-mcp/internal/detection"
	"github.com/ironsheep/vision-tools-mcp/internal/imaging"
)

// CountedCoin is a blob counted on the current frame.
type CountedCoin struct {
	Blob         detection.Blob `json:"blob"`
	Denomination string         `json:"denomination,omitempty"`
	Cents        int            `json:"cents"`
	Circularity  float64        `json:"circularity"`
	Diameter     int            `json:"diameter"`
	Recognized   bool           `json:"recognized"`
}

// FrameReport summarizes one processed frame.
type FrameReport struct {
	Frame        int              `json:"frame"`
	Width        int              `json:"width"`
	Height       int              `json:"height"`
	LineRow      int              `json:"line_row"`
	Blobs        []detection.Blob `json:"blobs"`
	OnLine       int              `json:"on_line"`
	Counted      []CountedCoin    `json:"counted"`
	Unrecognized int              `json:"unrecognized"`
}

// Pipeline counts coins over a sequence of frames.
//
// Each frame goes through:
//
//  1. optional BGR to RGB swap
//  2. RGB to HSV and one segmentation per configured range
//  3. union of the masks
//  4. opening: erosion then dilation, each repeated Iterations times
//  5. labeling and measurement
//  6. for blobs on the counting line: size check, history check,
//     classification and tally
//
// A blob that passes the history check is recorded even when no
// denomination matches it, so an unrecognized coin is not retried on the
// next frame. A Pipeline is not safe for concurrent use.
type Pipeline struct {
	cfg     Config
	labeler *detection.Labeler
	history *History
	tally   *Tally
	frames  int
	logger  zerolog.Logger
}

// NewPipeline validates cfg and returns a pipeline with an empty history.
func NewPipeline(cfg Config, logger zerolog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:     cfg,
		labeler: &detection.Labeler{MaxLabels: cfg.MaxLabels},
		history: NewHistory(cfg.Tolerance),
		tally:   NewTally(),
		logger:  logger.With().Str("component", "coins").Logger(),
	}, nil
}

// Tally returns the running totals. The returned value is live.
func (p *Pipeline) Tally() *Tally {
	return p.tally
}

// Frames returns the number of frames processed since the last Reset.
func (p *Pipeline) Frames() int {
	return p.frames
}

// Reset starts a new sequence: history, tally and frame counter are cleared.
func (p *Pipeline) Reset() {
	p.history.Reset()
	p.tally.Reset()
	p.frames = 0
}

// ProcessFrame runs one three-channel frame through the pipeline. The frame
// is only read.
func (p *Pipeline) ProcessFrame(frame *imaging.Buffer) (*FrameReport, error) {
	if frame.Released() || frame.Channels != 3 {
		return nil, fmt.Errorf("process frame: want a three-channel frame: %w", imaging.ErrInvalidArgument)
	}

	mask, err := p.coinMask(frame)
	if err != nil {
		return nil, err
	}
	defer mask.Release()

	labels, err := imaging.NewBuffer(frame.Width, frame.Height, 1, 256)
	if err != nil {
		return nil, err
	}
	defer labels.Release()

	blobs, err := p.labeler.Analyze(mask, labels)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", p.frames, err)
	}

	report := &FrameReport{
		Frame:   p.frames,
		Width:   frame.Width,
		Height:  frame.Height,
		LineRow: p.cfg.CountingLine.Row(frame.Height),
		Blobs:   blobs,
	}
	p.frames++

	cls := p.cfg.Classifier
	for _, b := range blobs {
		if !p.cfg.CountingLine.Crosses(frame.Height, b.YC) {
			continue
		}
		if !cls.Plausible(b) {
			continue
		}
		report.OnLine++

		if p.history.Seen(b) {
			continue
		}
		p.history.Add(b)

		coin := CountedCoin{
			Blob:        b,
			Circularity: detection.Circularity(b),
			Diameter:    detection.Diameter(b),
		}
		if d, ok := cls.Classify(b); ok {
			coin.Denomination = d.Name
			coin.Cents = d.Cents
			coin.Recognized = true
			p.tally.Add(d)
			p.logger.Info().
				Int("frame", report.Frame).
				Str("denomination", d.Name).
				Int("area", b.Area).
				Int("perimeter", b.Perimeter).
				Float64("circularity", coin.Circularity).
				Int("diameter", coin.Diameter).
				Int("xc", b.XC).
				Int("yc", b.YC).
				Msg("Coin counted")
		} else {
			report.Unrecognized++
			p.logger.Debug().
				Int("frame", report.Frame).
				Int("area", b.Area).
				Int("perimeter", b.Perimeter).
				Float64("circularity", coin.Circularity).
				Msg("Blob on counting line matched no denomination")
		}
		report.Counted = append(report.Counted, coin)
	}

	p.logger.Debug().
		Int("frame", report.Frame).
		Int("blobs", len(blobs)).
		Int("on_line", report.OnLine).
		Int("counted", len(report.Counted)).
		Msg("Frame processed")
	return report, nil
}

// coinMask builds the cleaned binary mask of coin-colored pixels.
func (p *Pipeline) coinMask(frame *imaging.Buffer) (*imaging.Buffer, error) {
	rgb := frame
	if p.cfg.BGR {
		swapped, err := imaging.NewBuffer(frame.Width, frame.Height, 3, frame.Levels)
		if err != nil {
			return nil, err
		}
		defer swapped.Release()
		if err := imaging.BGRToRGB(frame, swapped); err != nil {
			return nil, err
		}
		rgb = swapped
	}

	hsv, err := imaging.NewBuffer(frame.Width, frame.Height, 3, 256)
	if err != nil {
		return nil, err
	}
	defer hsv.Release()
	if err := imaging.RGBToHSV(rgb, hsv); err != nil {
		return nil, err
	}

	mask, err := imaging.NewBuffer(frame.Width, frame.Height, 1, 256)
	if err != nil {
		return nil, err
	}
	segment, err := imaging.NewBuffer(frame.Width, frame.Height, 1, 256)
	if err != nil {
		mask.Release()
		return nil, err
	}
	defer segment.Release()

	for i, rng := range p.cfg.Segments {
		target := mask
		if i > 0 {
			target = segment
		}
		if err := imaging.HSVSegmentation(hsv, target, rng); err != nil {
			mask.Release()
			return nil, err
		}
		if i > 0 {
			if err := imaging.BinaryOr(mask, segment, mask); err != nil {
				mask.Release()
				return nil, err
			}
		}
	}

	m := p.cfg.Morphology
	if err := imaging.MorphologyBy(mask, segment, "erode", m.Kernel, m.Iterations); err != nil {
		mask.Release()
		return nil, err
	}
	if err := imaging.MorphologyBy(segment, mask, "dilate", m.Kernel, m.Iterations); err != nil {
		mask.Release()
		return nil, err
	}
	return mask, nil
}

// Annotate draws the counting line, a box and centroid marker for every
// coin-like blob, and a value label next to each coin counted on this frame.
// frame must be the RGB frame the report was produced from.
func (p *Pipeline) Annotate(frame *imaging.Buffer, report *FrameReport) error {
	if err := imaging.DrawHLine(frame, report.LineRow, imaging.ColorLine); err != nil {
		return err
	}

	ann := p.cfg.Annotation
	for _, b := range report.Blobs {
		if b.Area <= p.cfg.Classifier.MinArea || b.Perimeter < p.cfg.Classifier.MinPerimeter {
			continue
		}
		if detection.Circularity(b) <= ann.MinCircularity || detection.Diameter(b) < ann.MinDiameter {
			continue
		}
		if err := imaging.DrawRect(frame, b.X, b.Y, b.Width+1, b.Height+1, imaging.ColorBox); err != nil {
			return err
		}
		if err := imaging.DrawMarker(frame, b.XC, b.YC, imaging.ColorLine); err != nil {
			return err
		}
	}

	for _, c := range report.Counted {
		if !c.Recognized {
			continue
		}
		text := Denomination{Cents: c.Cents}.Label()
		if err := imaging.DrawLabel(frame, c.Blob.X+c.Blob.Width+5, c.Blob.Y, text, imaging.ColorText, imaging.ColorLabel); err != nil {
			return err
		}
	}
	return nil
}

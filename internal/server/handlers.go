package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/vision-tools-mcp/internal/coins"
	"github.com/ironsheep/vision-tools-mcp/internal/detection"
	"github.com/ironsheep/vision-tools-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_blobs").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errOutputPath is returned by tools that need somewhere to write their result.
var errOutputPath = errors.New("output_path is required")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn().Str("tool", params.Name).Err(err).Msg("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON over a struct holding the defaults
//  2. Loads the source image from the cache, converting to gray if needed
//  3. Runs the imaging, detection or coins operation into a fresh buffer
//  4. Writes image results to the requested path and reports their metadata
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)

	// Region Operations
	case "image_crop":
		return s.handleImageCrop(args)
	case "image_preview":
		return s.handleImagePreview(args)

	// Color Operations
	case "image_color_convert":
		return s.handleImageColorConvert(args)
	case "image_hsv_segment":
		return s.handleImageHSVSegment(args)

	// Binarization and Morphology
	case "image_threshold":
		return s.handleImageThreshold(args)
	case "image_morphology":
		return s.handleImageMorphology(args)

	// Filters
	case "image_filter":
		return s.handleImageFilter(args)
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)
	case "image_histogram":
		return s.handleImageHistogram(args)

	// Blob Analysis
	case "image_blobs":
		return s.handleImageBlobs(args)
	case "image_count_coins":
		return s.handleImageCountCoins(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// OutputInfo describes an image a tool wrote to disk.
type OutputInfo struct {
	Path     string `json:"path"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Channels int    `json:"channels"`
	Levels   int    `json:"levels"`
}

// save writes b to path and releases it.
func (s *Server) save(path string, b *imaging.Buffer) (*OutputInfo, error) {
	defer b.Release()
	if path == "" {
		return nil, errOutputPath
	}
	if err := imaging.SaveFile(path, b); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("path", path).Int("width", b.Width).Int("height", b.Height).Msg("Wrote image")
	return &OutputInfo{Path: path, Width: b.Width, Height: b.Height, Channels: b.Channels, Levels: b.Levels}, nil
}

// loadGray loads path as a single-channel buffer. Color images are converted
// with RGBToGray.
func (s *Server) loadGray(path string) (*imaging.Buffer, error) {
	b, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	if b.Channels == 1 {
		return b, nil
	}
	defer b.Release()

	gray, err := imaging.NewBuffer(b.Width, b.Height, 1, b.Levels)
	if err != nil {
		return nil, err
	}
	if err := imaging.RGBToGray(b, gray); err != nil {
		gray.Release()
		return nil, err
	}
	return gray, nil
}

// like allocates a zeroed buffer with src's size and the given channel count.
func like(src *imaging.Buffer, channels int) (*imaging.Buffer, error) {
	return imaging.NewBuffer(src.Width, src.Height, channels, src.Levels)
}

// binary allocates a 0/255 mask with src's size.
func binary(src *imaging.Buffer) (*imaging.Buffer, error) {
	return imaging.NewBuffer(src.Width, src.Height, 1, 256)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	defer img.Release()
	return imaging.SampleColor(img, a.X, a.Y)
}

// === Region Operation Handlers ===

type imageCropArgs struct {
	Path   string  `json:"path"`
	X1     int     `json:"x1"`
	Y1     int     `json:"y1"`
	X2     int     `json:"x2"`
	Y2     int     `json:"y2"`
	Region string  `json:"region"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	a := imageCropArgs{Scale: 1.0}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	defer img.Release()

	if a.Region != "" {
		return imaging.CropQuadrant(img, a.Region, a.Scale)
	}
	return imaging.Crop(img, a.X1, a.Y1, a.X2, a.Y2, a.Scale)
}

type imagePreviewArgs struct {
	Path  string  `json:"path"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleImagePreview(args json.RawMessage) (interface{}, error) {
	a := imagePreviewArgs{Scale: 1.0}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	defer img.Release()
	return imaging.Preview(img, a.Scale)
}

// === Color Operation Handlers ===

type imageColorConvertArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
	Conversion string `json:"conversion"`
}

func (s *Server) handleImageColorConvert(args json.RawMessage) (interface{}, error) {
	var a imageColorConvertArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	if a.Conversion == "palette" {
		gray, err := s.loadGray(a.Path)
		if err != nil {
			return nil, err
		}
		defer gray.Release()
		out, err := like(gray, 3)
		if err != nil {
			return nil, err
		}
		if err := imaging.GrayToPalette(gray, out); err != nil {
			out.Release()
			return nil, err
		}
		return s.save(a.OutputPath, out)
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	switch a.Conversion {
	case "negative":
		if img.Channels == 1 {
			err = imaging.GrayNegative(img)
		} else {
			err = imaging.RGBNegative(img)
		}
	case "red":
		err = imaging.RGBGetRedGray(img)
	case "green":
		err = imaging.RGBGetGreenGray(img)
	case "blue":
		err = imaging.RGBGetBlueGray(img)
	case "gray", "hsv", "bgr":
		defer img.Release()
		channels := 3
		if a.Conversion == "gray" {
			channels = 1
		}
		out, err := like(img, channels)
		if err != nil {
			return nil, err
		}
		switch a.Conversion {
		case "gray":
			err = imaging.RGBToGray(img, out)
		case "hsv":
			err = imaging.RGBToHSV(img, out)
		default:
			err = imaging.BGRToRGB(img, out)
		}
		if err != nil {
			out.Release()
			return nil, err
		}
		return s.save(a.OutputPath, out)
	default:
		img.Release()
		return nil, fmt.Errorf("unknown conversion %q: %w", a.Conversion, imaging.ErrInvalidArgument)
	}

	if err != nil {
		img.Release()
		return nil, err
	}
	return s.save(a.OutputPath, img)
}

type imageHSVSegmentArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
	imaging.HSVRange
}

// SegmentResult reports a written mask and its foreground size.
type SegmentResult struct {
	Output     *OutputInfo `json:"output"`
	Foreground int         `json:"foreground_pixels"`
}

func (s *Server) handleImageHSVSegment(args json.RawMessage) (interface{}, error) {
	a := imageHSVSegmentArgs{HSVRange: imaging.HSVRange{HMax: 255, SMax: 255, VMax: 255}}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	defer img.Release()

	hsv, err := like(img, 3)
	if err != nil {
		return nil, err
	}
	defer hsv.Release()
	if err := imaging.RGBToHSV(img, hsv); err != nil {
		return nil, err
	}

	mask, err := binary(img)
	if err != nil {
		return nil, err
	}
	if err := imaging.HSVSegmentation(hsv, mask, a.HSVRange); err != nil {
		mask.Release()
		return nil, err
	}
	fg := foreground(mask)

	out, err := s.save(a.OutputPath, mask)
	if err != nil {
		return nil, err
	}
	return &SegmentResult{Output: out, Foreground: fg}, nil
}

func foreground(b *imaging.Buffer) int {
	n := 0
	for _, v := range b.Data {
		if v != 0 {
			n++
		}
	}
	return n
}

// === Binarization and Morphology Handlers ===

type imageThresholdArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
	imaging.ThresholdParams
}

// ThresholdResult reports a binarized image.
type ThresholdResult struct {
	Output *OutputInfo `json:"output"`

	// Threshold is the global level applied, 0 for the local methods.
	Threshold  int `json:"threshold"`
	Foreground int `json:"foreground_pixels"`
}

func (s *Server) handleImageThreshold(args json.RawMessage) (interface{}, error) {
	a := imageThresholdArgs{ThresholdParams: imaging.ThresholdParams{Value: 128, KernelSize: 3, CMin: 15, K: -0.2}}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	gray, err := s.loadGray(a.Path)
	if err != nil {
		return nil, err
	}
	defer gray.Release()

	out, err := binary(gray)
	if err != nil {
		return nil, err
	}
	th, err := imaging.ThresholdBy(gray, out, a.ThresholdParams)
	if err != nil {
		out.Release()
		return nil, err
	}
	fg := foreground(out)

	info, err := s.save(a.OutputPath, out)
	if err != nil {
		return nil, err
	}
	return &ThresholdResult{Output: info, Threshold: th, Foreground: fg}, nil
}

type imageMorphologyArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
	Operation  string `json:"operation"`
	KernelSize int    `json:"kernel_size"`
	Iterations int    `json:"iterations"`
}

func (s *Server) handleImageMorphology(args json.RawMessage) (interface{}, error) {
	a := imageMorphologyArgs{KernelSize: 3, Iterations: 1}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	mask, err := s.loadGray(a.Path)
	if err != nil {
		return nil, err
	}
	defer mask.Release()

	out, err := binary(mask)
	if err != nil {
		return nil, err
	}
	if err := imaging.MorphologyBy(mask, out, a.Operation, a.KernelSize, a.Iterations); err != nil {
		out.Release()
		return nil, err
	}
	return s.save(a.OutputPath, out)
}

// === Filter Handlers ===

type imageFilterArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
	imaging.FilterParams
}

func (s *Server) handleImageFilter(args json.RawMessage) (interface{}, error) {
	a := imageFilterArgs{FilterParams: imaging.FilterParams{KernelSize: 3, Gain: 1}}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	gray, err := s.loadGray(a.Path)
	if err != nil {
		return nil, err
	}
	defer gray.Release()

	// Filters leave their border untouched, so start from the source.
	out, err := gray.Clone()
	if err != nil {
		return nil, err
	}
	if err := imaging.FilterBy(gray, out, a.FilterParams); err != nil {
		out.Release()
		return nil, err
	}
	return s.save(a.OutputPath, out)
}

type imageEdgeDetectArgs struct {
	Path       string  `json:"path"`
	OutputPath string  `json:"output_path"`
	Operator   string  `json:"operator"`
	Threshold  float64 `json:"threshold"`
}

func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	a := imageEdgeDetectArgs{Operator: "sobel", Threshold: 50}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	gray, err := s.loadGray(a.Path)
	if err != nil {
		return nil, err
	}
	defer gray.Release()

	out, err := binary(gray)
	if err != nil {
		return nil, err
	}
	if err := imaging.EdgeDetectBy(gray, out, a.Operator, a.Threshold); err != nil {
		out.Release()
		return nil, err
	}
	return s.save(a.OutputPath, out)
}

type imageHistogramArgs struct {
	Path          string `json:"path"`
	ChartPath     string `json:"chart_path"`
	EqualizedPath string `json:"equalized_path"`
}

// HistogramResult reports gray-level statistics of an image.
type HistogramResult struct {
	Counts    [256]int    `json:"counts"`
	Pixels    int         `json:"pixels"`
	Min       int         `json:"min"`
	Max       int         `json:"max"`
	Mean      float64     `json:"mean"`
	Chart     *OutputInfo `json:"chart,omitempty"`
	Equalized *OutputInfo `json:"equalized,omitempty"`
}

func (s *Server) handleImageHistogram(args json.RawMessage) (interface{}, error) {
	var a imageHistogramArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	gray, err := s.loadGray(a.Path)
	if err != nil {
		return nil, err
	}
	defer gray.Release()

	counts, err := imaging.Histogram(gray)
	if err != nil {
		return nil, err
	}

	result := &HistogramResult{Counts: counts, Pixels: gray.Width * gray.Height, Min: -1}
	var sum int
	for v, c := range counts {
		if c == 0 {
			continue
		}
		if result.Min < 0 {
			result.Min = v
		}
		result.Max = v
		sum += v * c
	}
	result.Mean = float64(sum) / float64(result.Pixels)

	if a.ChartPath != "" {
		chart, err := imaging.NewBuffer(256, 256, 1, 256)
		if err != nil {
			return nil, err
		}
		if err := imaging.HistogramShow(gray, chart); err != nil {
			chart.Release()
			return nil, err
		}
		if result.Chart, err = s.save(a.ChartPath, chart); err != nil {
			return nil, err
		}
	}

	if a.EqualizedPath != "" {
		eq, err := like(gray, 1)
		if err != nil {
			return nil, err
		}
		if err := imaging.Equalize(gray, eq); err != nil {
			eq.Release()
			return nil, err
		}
		if result.Equalized, err = s.save(a.EqualizedPath, eq); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// === Blob Analysis Handlers ===

type imageBlobsArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
	MaxLabels  int    `json:"max_labels"`
	MinArea    int    `json:"min_area"`
}

// BlobInfo is a measured region with its derived shape metrics.
type BlobInfo struct {
	detection.Blob
	Circularity float64 `json:"circularity"`
	Diameter    int     `json:"diameter"`
}

// BlobsResult lists the regions of a mask.
type BlobsResult struct {
	Count  int         `json:"count"`
	Blobs  []BlobInfo  `json:"blobs"`
	Labels *OutputInfo `json:"labels,omitempty"`
}

func (s *Server) handleImageBlobs(args json.RawMessage) (interface{}, error) {
	a := imageBlobsArgs{MaxLabels: detection.DefaultMaxLabels}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	mask, err := s.loadGray(a.Path)
	if err != nil {
		return nil, err
	}
	defer mask.Release()

	labels, err := binary(mask)
	if err != nil {
		return nil, err
	}
	defer labels.Release()

	blobs, err := (&detection.Labeler{MaxLabels: a.MaxLabels}).Analyze(mask, labels)
	if err != nil {
		return nil, err
	}

	result := &BlobsResult{Blobs: []BlobInfo{}}
	maxLabel := 0
	for _, b := range blobs {
		maxLabel = max(maxLabel, b.Label)
		if b.Area < a.MinArea {
			continue
		}
		result.Blobs = append(result.Blobs, BlobInfo{
			Blob:        b,
			Circularity: detection.Circularity(b),
			Diameter:    detection.Diameter(b),
		})
	}
	result.Count = len(result.Blobs)

	if a.OutputPath != "" {
		// Stretch labels over the palette so neighboring labels differ visibly.
		if maxLabel > 0 {
			for i, v := range labels.Data {
				labels.Data[i] = uint8(int(v) * 255 / maxLabel)
			}
		}
		colored, err := like(labels, 3)
		if err != nil {
			return nil, err
		}
		if err := imaging.GrayToPalette(labels, colored); err != nil {
			colored.Release()
			return nil, err
		}
		if result.Labels, err = s.save(a.OutputPath, colored); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type imageCountCoinsArgs struct {
	Paths       []string `json:"paths"`
	ConfigPath  string   `json:"config_path"`
	AnnotateDir string   `json:"annotate_dir"`
}

// DenominationCount is one line of a coin tally.
type DenominationCount struct {
	Denomination string `json:"denomination"`
	Cents        int    `json:"cents"`
	Count        int    `json:"count"`
}

// CountCoinsResult summarizes a counted frame sequence.
type CountCoinsResult struct {
	Frames       int                 `json:"frames"`
	Coins        int                 `json:"coins"`
	Cents        int                 `json:"cents"`
	Value        string              `json:"value"`
	Unrecognized int                 `json:"unrecognized"`
	Counts       []DenominationCount `json:"counts"`
	Counted      []FrameCoin         `json:"counted"`
	Annotated    []string            `json:"annotated,omitempty"`
}

// FrameCoin locates one counted coin in the sequence.
type FrameCoin struct {
	Frame string `json:"frame"`
	coins.CountedCoin
}

func (s *Server) handleImageCountCoins(args json.RawMessage) (interface{}, error) {
	var a imageCountCoinsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("paths: at least one frame is required: %w", imaging.ErrInvalidArgument)
	}

	cfg := coins.DefaultConfig()
	if a.ConfigPath != "" {
		var err error
		if cfg, err = coins.LoadConfig(a.ConfigPath); err != nil {
			return nil, err
		}
	}
	if a.AnnotateDir != "" {
		if err := os.MkdirAll(a.AnnotateDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create annotate_dir: %w", err)
		}
	}

	pipeline, err := coins.NewPipeline(cfg, s.logger)
	if err != nil {
		return nil, err
	}

	result := &CountCoinsResult{Counted: []FrameCoin{}}
	for _, path := range a.Paths {
		annotated, err := s.countFrame(pipeline, path, a.AnnotateDir, result)
		if err != nil {
			return nil, err
		}
		if annotated != "" {
			result.Annotated = append(result.Annotated, annotated)
		}
	}

	tally := pipeline.Tally()
	result.Frames = pipeline.Frames()
	result.Coins = tally.Coins
	result.Cents = tally.Cents
	result.Value = coins.FormatCents(tally.Cents)
	for _, cents := range tally.Values() {
		result.Counts = append(result.Counts, DenominationCount{
			Denomination: cfg.Classifier.Name(cents),
			Cents:        cents,
			Count:        tally.Counts[cents],
		})
	}
	return result, nil
}

// countFrame runs one frame file through the pipeline and, when dir is set,
// writes an annotated copy there. Frames are not cached.
func (s *Server) countFrame(p *coins.Pipeline, path, dir string, result *CountCoinsResult) (string, error) {
	frame, err := imaging.LoadFile(path)
	if err != nil {
		return "", err
	}
	defer frame.Release()

	report, err := p.ProcessFrame(frame)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	result.Unrecognized += report.Unrecognized
	for _, c := range report.Counted {
		if c.Recognized {
			result.Counted = append(result.Counted, FrameCoin{Frame: path, CountedCoin: c})
		}
	}

	if dir == "" {
		return "", nil
	}
	if err := p.Annotate(frame, report); err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(dir, base+"_annotated.png")
	if err := imaging.SaveFile(out, frame); err != nil {
		return "", err
	}
	return out, nil
}

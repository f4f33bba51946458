package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var (
	pathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file (PBM/PGM/PPM, PNG, JPEG, GIF or BMP)",
	}
	outputPathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Where to write the result. The extension picks the format: .pbm/.pgm/.ppm/.pnm, .png, .jpg or .bmp",
	}
	kernelSizeProperty = map[string]interface{}{
		"type":        "integer",
		"description": "Odd window size in pixels. Default 3",
		"default":     3,
	}
)

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, channel count, quantization levels and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the exact color value at a specific pixel coordinate as hex, RGB, HSV and HSL.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},

		// Region Operations
		{
			Name:        "image_crop",
			Description: "Crop a rectangular or named region from an image and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
					"region": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"top-left", "top-right", "bottom-left", "bottom-right", "top-half", "bottom-half", "left-half", "right-half", "center"},
						"description": "Named region to extract instead of coordinates",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_preview",
			Description: "Render a whole image, including binary masks and label images, as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},

		// Color Operations
		{
			Name:        "image_color_convert",
			Description: "Convert an image between color representations and write the result to output_path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty,
					"output_path": outputPathProperty,
					"conversion": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"gray", "hsv", "red", "green", "blue", "negative", "palette", "bgr"},
						"description": "gray: luminance; hsv: HSV triples; red/green/blue: replicate one channel; negative: invert; palette: false-color a gray image; bgr: swap red and blue",
					},
				},
				"required": []string{"path", "output_path", "conversion"},
			},
		},
		{
			Name:        "image_hsv_segment",
			Description: "Write a binary mask of the pixels whose HSV components lie inside the given ranges. Components use the 0-255 scale of image_color_convert's hsv output.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty,
					"output_path": outputPathProperty,
					"h_min":       map[string]interface{}{"type": "integer", "default": 0},
					"h_max":       map[string]interface{}{"type": "integer", "default": 255},
					"s_min":       map[string]interface{}{"type": "integer", "default": 0},
					"s_max":       map[string]interface{}{"type": "integer", "default": 255},
					"v_min":       map[string]interface{}{"type": "integer", "default": 0},
					"v_max":       map[string]interface{}{"type": "integer", "default": 255},
				},
				"required": []string{"path", "output_path"},
			},
		},

		// Binarization and Morphology
		{
			Name:        "image_threshold",
			Description: "Binarize an image. Color images are converted to gray first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty,
					"output_path": outputPathProperty,
					"method": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"global", "mean", "midpoint", "bernsen", "niblack"},
						"description": "global: fixed value; mean: image mean; midpoint/bernsen/niblack: local window",
					},
					"value": map[string]interface{}{
						"type":        "integer",
						"description": "Threshold for the global method",
						"default":     128,
					},
					"kernel_size": kernelSizeProperty,
					"cmin": map[string]interface{}{
						"type":        "integer",
						"description": "Bernsen minimum contrast. Default 15",
						"default":     15,
					},
					"k": map[string]interface{}{
						"type":        "number",
						"description": "Niblack weight of the standard deviation. Default -0.2",
						"default":     -0.2,
					},
				},
				"required": []string{"path", "output_path", "method"},
			},
		},
		{
			Name:        "image_morphology",
			Description: "Apply binary dilation, erosion, opening or closing with a square element. Any non-zero sample is foreground.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty,
					"output_path": outputPathProperty,
					"operation": map[string]interface{}{
						"type": "string",
						"enum": []string{"dilate", "erode", "open", "close"},
					},
					"kernel_size": kernelSizeProperty,
					"iterations": map[string]interface{}{
						"type":        "integer",
						"description": "How many times to repeat the operation. Default 1",
						"default":     1,
					},
				},
				"required": []string{"path", "output_path", "operation"},
			},
		},

		// Filters
		{
			Name:        "image_filter",
			Description: "Apply a spatial filter to a gray image. Color images are converted to gray first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty,
					"output_path": outputPathProperty,
					"method": map[string]interface{}{
						"type": "string",
						"enum": []string{"mean", "median", "gaussian", "highpass", "enhance"},
					},
					"kernel_size": kernelSizeProperty,
					"gain": map[string]interface{}{
						"type":        "integer",
						"description": "Gain of the enhance filter. Default 1",
						"default":     1,
					},
				},
				"required": []string{"path", "output_path", "method"},
			},
		},
		{
			Name:        "image_edge_detect",
			Description: "Detect edges with a Prewitt or Sobel gradient. Color images are converted to gray first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty,
					"output_path": outputPathProperty,
					"operator": map[string]interface{}{
						"type":    "string",
						"enum":    []string{"prewitt", "sobel"},
						"default": "sobel",
					},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Gradient magnitude above which a pixel is an edge. Default 50",
						"default":     50,
					},
				},
				"required": []string{"path", "output_path"},
			},
		},
		{
			Name:        "image_histogram",
			Description: "Compute the gray-level histogram. Optionally write a 256x256 bar chart and an equalized image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"chart_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path for the histogram chart",
					},
					"equalized_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path for the histogram-equalized image",
					},
				},
				"required": []string{"path"},
			},
		},

		// Blob Analysis
		{
			Name:        "image_blobs",
			Description: "Label the 8-connected regions of a binary mask and measure area, perimeter, bounding box, centroid and circularity of each.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path for the false-colored label image",
					},
					"max_labels": map[string]interface{}{
						"type":        "integer",
						"description": "Provisional label limit in [1,255]. Default 255",
						"default":     255,
					},
					"min_area": map[string]interface{}{
						"type":        "integer",
						"description": "Drop regions smaller than this from the result. Default 0",
						"default":     0,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_count_coins",
			Description: "Run the coin counter over a sequence of frames and return the count and value per denomination.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Frame files in playback order",
					},
					"config_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional YAML pipeline config. Defaults to the euro coin settings",
					},
					"annotate_dir": map[string]interface{}{
						"type":        "string",
						"description": "Optional directory for annotated copies of each frame",
					},
				},
				"required": []string{"paths"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

// Package server implements the MCP (Model Context Protocol) server for the
// vision tools.
//
// The server speaks JSON-RPC 2.0 over stdio:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load an image and report its geometry
//   - image_sample_color: Color at one pixel
//
// Region Operations:
//   - image_crop: Rectangular or named region as PNG
//   - image_preview: Whole image as PNG
//
// Color, Binarization and Filters (results are written to output_path):
//   - image_color_convert, image_hsv_segment
//   - image_threshold, image_morphology
//   - image_filter, image_edge_detect, image_histogram
//
// Blob Analysis:
//   - image_blobs: Label and measure the regions of a mask
//   - image_count_coins: Count and value coins across a frame sequence
//
// # Image Caching
//
// Source images are cached by path for the lifetime of the process. Handlers
// work on clones, so cached buffers are never modified. Coin frames bypass
// the cache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with
// code -32000 and the Go error string as data. Unparseable tools/call
// parameters return -32602.
package server

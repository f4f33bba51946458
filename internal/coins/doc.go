// Package coins counts and values coins passing under a fixed camera.
//
// Frames arrive in sequence. Coin-colored pixels are segmented in HSV,
// cleaned with a morphological opening and grouped into blobs. A coin is
// counted when its centroid reaches a horizontal counting line; a short
// history of counted centroids keeps a coin that stays on the line for
// several frames from being counted twice. Counted blobs are classified
// against a table of denomination footprints and summed into a Tally.
//
// All thresholds live in Config, which can be stored as YAML:
//
//	segments:
//	  - {h_min: 12, h_max: 150, s_min: 35, s_max: 255, v_min: 20, v_max: 150}
//	morphology: {kernel: 9, iterations: 3}
//	counting_line: {divisor: 4, above: 12, below: 9}
//	tolerance: 8
//
// Fields left out of the file keep their DefaultConfig values.
package coins

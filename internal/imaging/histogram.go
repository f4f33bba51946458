package imaging

import "fmt"

// Histogram counts the samples of a single-channel buffer per value.
func Histogram(src *Buffer) ([256]int, error) {
	var hist [256]int
	if err := checkChannels("histogram", src, 1); err != nil {
		return hist, err
	}
	for _, v := range src.Data {
		hist[v]++
	}
	return hist, nil
}

// HistogramShow draws the probability density of src as a 256x256 bar chart.
//
// dst must be a single-channel 256x256 buffer. Column x holds one bar for
// sample value x, rising from the bottom row with height
// int(pdf[x]/max(pdf)*256). Bars are drawn with value dst.Levels-1 on a
// zero background.
func HistogramShow(src, dst *Buffer) error {
	hist, err := Histogram(src)
	if err != nil {
		return err
	}
	if err := checkChannels("histogram show destination", dst, 1); err != nil {
		return err
	}
	if dst.Width != 256 || dst.Height != 256 {
		return fmt.Errorf("histogram show: destination %dx%d, want 256x256: %w", dst.Width, dst.Height, ErrInvalidArgument)
	}

	n := float32(src.Width * src.Height)
	var pdf [256]float32
	var peak float32
	for i, c := range hist {
		pdf[i] = float32(c) / n
		peak = max(peak, pdf[i])
	}

	clear(dst.Data)
	bar := uint8(dst.Levels - 1)
	for x := 0; x < 256; x++ {
		height := int(pdf[x] / peak * 256)
		for y := 255; y >= 256-height; y-- {
			dst.Data[dst.Offset(x, y)] = bar
		}
	}
	return nil
}

// Equalize spreads the gray levels of src over [0,255] through its
// cumulative distribution:
//
//	out = (cdf[v] - cdfmin) / (1 - cdfmin) * 255 + 0.5, truncated
//
// where cdfmin is the first non-zero CDF entry. An image holding a single
// value has cdfmin = 1 and is copied unchanged.
func Equalize(src, dst *Buffer) error {
	if err := checkPair("histogram equalization", src, 1, dst, 1); err != nil {
		return err
	}

	hist, _ := Histogram(src)
	n := float32(src.Width * src.Height)

	var cdf [256]float32
	var acc float32
	for i, c := range hist {
		acc += float32(c) / n
		cdf[i] = acc
	}

	var cdfmin float32
	for _, c := range cdf {
		if c > 0 {
			cdfmin = c
			break
		}
	}

	if cdfmin >= 1 {
		copy(dst.Data, src.Data)
		return nil
	}

	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(clampf((cdf[i]-cdfmin)/(1-cdfmin)*255+0.5, 0, 255))
	}

	forEachRow(0, src.Height, func(y int) {
		in, out := src.Row(y), dst.Row(y)
		for i, v := range in {
			out[i] = lut[v]
		}
	})
	return nil
}

package pixelsift

import "fmt"

// Grid is the set of stride-aligned source coordinates that carry the
// hidden image. Cell (i, j) lives at source pixel (i*Stride, j*Stride).
type Grid struct {
	Rows   int
	Cols   int
	Stride int
}

// DefaultGrid is the embedding used by every analysis session: a 131x100
// hidden image sampled every 11 pixels. Changing it changes every
// downstream digest.
var DefaultGrid = Grid{Rows: 131, Cols: 100, Stride: 11}

// MinSourceShape returns the smallest (height, width) a source must have
// for every cell of the grid to be addressable.
func (g Grid) MinSourceShape() (int, int) {
	return (g.Rows-1)*g.Stride + 1, (g.Cols-1)*g.Stride + 1
}

// check verifies src is an RGB image large enough for the grid.
func (g Grid) check(op string, src *Image) error {
	if src.Channels != RGBChannels {
		return fmt.Errorf("%s: source has %d channels: %w", op, src.Channels, ErrUnsupportedLayout)
	}
	needH, needW := g.MinSourceShape()
	if src.Height < needH || src.Width < needW {
		return &OutOfBoundsError{
			Op:         op,
			Grid:       g,
			Height:     src.Height,
			Width:      src.Width,
			NeedHeight: needH,
			NeedWidth:  needW,
		}
	}
	return nil
}

// ExtractGrid point-samples src at every grid cell, producing an image of
// shape (g.Rows, g.Cols, 3). There is no interpolation and no clamping;
// a source too small for the grid is rejected before anything is read.
func ExtractGrid(src *Image, g Grid) (*Image, error) {
	if err := g.check("extract grid", src); err != nil {
		return nil, err
	}

	hidden := NewImage(g.Rows, g.Cols, RGBChannels)
	for i := 0; i < g.Rows; i++ {
		for j := 0; j < g.Cols; j++ {
			hidden.Set(i, j, src.At(i*g.Stride, j*g.Stride))
		}
	}
	return hidden, nil
}

// Repair returns a copy of src in which every grid pixel is replaced by
// the per-channel mean of its in-bounds 4-connected neighbors. The mean
// is taken in floating point and then truncated to 8 bits. src is not
// modified.
func Repair(src *Image, g Grid) (*Image, error) {
	if err := g.check("repair", src); err != nil {
		return nil, err
	}

	fixed := src.Clone()
	var sum [RGBChannels]float64
	for i := 0; i < g.Rows; i++ {
		for j := 0; j < g.Cols; j++ {
			row, col := i*g.Stride, j*g.Stride
			nearby := neighbors(fixed, row, col)
			if len(nearby) == 0 {
				continue
			}

			sum = [RGBChannels]float64{}
			for _, px := range nearby {
				for c := range sum {
					sum[c] += float64(px[c])
				}
			}
			patch := fixed.At(row, col)
			for c := range sum {
				patch[c] = uint8(sum[c] / float64(len(nearby)))
			}
		}
	}
	return fixed, nil
}

// neighbors returns the pixels above, below, left and right of (row, col)
// that lie inside img, in that order.
func neighbors(img *Image, row, col int) [][]uint8 {
	nearby := make([][]uint8, 0, 4)
	if row > 0 {
		nearby = append(nearby, img.At(row-1, col))
	}
	if row < img.Height-1 {
		nearby = append(nearby, img.At(row+1, col))
	}
	if col > 0 {
		nearby = append(nearby, img.At(row, col-1))
	}
	if col < img.Width-1 {
		nearby = append(nearby, img.At(row, col+1))
	}
	return nearby
}

package pixelsift

import (
	"fmt"
	"image"

	"github.com/wbrown/pixelsift/imageutil"
)

// Channel counts supported by Image.
const (
	RGBChannels       = 3
	IntensityChannels = 1
)

// Image is a height x width x channels array of 8-bit samples stored
// row-major with the channel index varying fastest. An RGB image has
// three channels; an intensity image has one and is conceptually shaped
// (height, width).
type Image struct {
	Height   int
	Width    int
	Channels int
	Pix      []uint8
}

// NewImage allocates a zero-filled image of the given shape.
func NewImage(height, width, channels int) *Image {
	return &Image{
		Height:   height,
		Width:    width,
		Channels: channels,
		Pix:      make([]uint8, height*width*channels),
	}
}

// Shape returns (height, width, channels).
func (img *Image) Shape() (int, int, int) {
	return img.Height, img.Width, img.Channels
}

// Size returns the number of samples, matching height*width*channels.
func (img *Image) Size() int {
	return len(img.Pix)
}

func (img *Image) offset(row, col int) int {
	return (row*img.Width + col) * img.Channels
}

// At returns the samples of the pixel at (row, col). The returned slice
// aliases the image; copy it before mutating the image if the old value
// is still needed.
func (img *Image) At(row, col int) []uint8 {
	o := img.offset(row, col)
	return img.Pix[o : o+img.Channels : o+img.Channels]
}

// Set copies px into the pixel at (row, col).
func (img *Image) Set(row, col int, px []uint8) {
	copy(img.Pix[img.offset(row, col):], px[:img.Channels])
}

// Clone creates a deep copy of the image.
func (img *Image) Clone() *Image {
	clone := NewImage(img.Height, img.Width, img.Channels)
	copy(clone.Pix, img.Pix)
	return clone
}

func (img *Image) String() string {
	return fmt.Sprintf("(%d, %d, %d)", img.Height, img.Width, img.Channels)
}

// FromRGBA converts a decoded image to a 3-channel Image. Alpha is
// discarded.
func FromRGBA(src *imageutil.RGBAImage) *Image {
	h, w := src.Height(), src.Width()
	img := NewImage(h, w, RGBChannels)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.GetRGB(x, y)
			o := img.offset(y, x)
			img.Pix[o], img.Pix[o+1], img.Pix[o+2] = c.R, c.G, c.B
		}
	}
	return img
}

// FromGray converts a decoded grayscale image to a 1-channel Image.
func FromGray(src *imageutil.GrayImage) *Image {
	h, w := src.Height(), src.Width()
	img := NewImage(h, w, IntensityChannels)
	for y := 0; y < h; y++ {
		copy(img.Pix[y*w:(y+1)*w], src.Pix[y*src.Stride:y*src.Stride+w])
	}
	return img
}

// ToRGBA renders the image as an opaque RGBAImage. Intensity images are
// expanded to equal R, G and B.
func (img *Image) ToRGBA() (*imageutil.RGBAImage, error) {
	switch img.Channels {
	case RGBChannels:
		out := imageutil.NewRGBAImage(img.Width, img.Height)
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				px := img.At(y, x)
				out.SetRGB(x, y, imageutil.RGB{R: px[0], G: px[1], B: px[2]})
			}
		}
		return out, nil
	case IntensityChannels:
		gray, err := img.ToGray()
		if err != nil {
			return nil, err
		}
		return imageutil.GrayscaleToRGBA(gray), nil
	default:
		return nil, fmt.Errorf("%d channels: %w", img.Channels, ErrUnsupportedLayout)
	}
}

// ToGray returns the 1-channel image as a GrayImage.
func (img *Image) ToGray() (*imageutil.GrayImage, error) {
	if img.Channels != IntensityChannels {
		return nil, fmt.Errorf("%d channels: %w", img.Channels, ErrUnsupportedLayout)
	}
	out := imageutil.NewGrayImage(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		copy(out.Pix[y*out.Stride:], img.Pix[y*img.Width:(y+1)*img.Width])
	}
	return out, nil
}

// StdImage returns the image in a form the standard image encoders accept:
// *image.Gray for intensity images, *image.RGBA otherwise.
func (img *Image) StdImage() (image.Image, error) {
	if img.Channels == IntensityChannels {
		g, err := img.ToGray()
		if err != nil {
			return nil, err
		}
		return g.Gray, nil
	}
	rgba, err := img.ToRGBA()
	if err != nil {
		return nil, err
	}
	return rgba.RGBA, nil
}

//go:build gocv

package pixelsift

import (
	"errors"
	"strings"

	"gocv.io/x/gocv"
)

// GocvCodec reads and writes images through OpenCV. Build with -tags gocv.
type GocvCodec struct {
	// Quality is the JPEG quality, 1-100. Zero uses OpenCV's default.
	Quality int
}

// Read decodes path as a 3-channel colour image.
func (c GocvCodec) Read(path string) (*Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, &CodecError{Op: "read", Path: path, Err: errors.New("opencv could not decode image")}
	}
	return FromMat(mat)
}

// Write encodes img to path, choosing the format from the extension.
func (c GocvCodec) Write(path string, img *Image) error {
	mat, err := ToMat(img)
	if err != nil {
		return &CodecError{Op: "write", Path: path, Err: err}
	}
	defer mat.Close()

	var ok bool
	lower := strings.ToLower(path)
	if c.Quality > 0 && (strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg")) {
		ok = gocv.IMWriteWithParams(path, mat, []int{int(gocv.IMWriteJpegQuality), c.Quality})
	} else {
		ok = gocv.IMWrite(path, mat)
	}
	if !ok {
		return &CodecError{Op: "write", Path: path, Err: errors.New("opencv could not encode image")}
	}
	return nil
}

// FromMat converts an 8-bit BGR or grayscale Mat. OpenCV stores colour
// pixels blue first, so the channels are swapped into RGB order.
func FromMat(mat gocv.Mat) (*Image, error) {
	height, width := mat.Rows(), mat.Cols()
	switch mat.Type() {
	case gocv.MatTypeCV8UC3:
		img := NewImage(height, width, RGBChannels)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				vec := mat.GetVecbAt(y, x)
				img.Set(y, x, []uint8{vec[2], vec[1], vec[0]})
			}
		}
		return img, nil
	case gocv.MatTypeCV8U:
		img := NewImage(height, width, IntensityChannels)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				img.Pix[y*width+x] = mat.GetUCharAt(y, x)
			}
		}
		return img, nil
	}
	return nil, &CodecError{Op: "convert", Err: ErrUnsupportedLayout}
}

// ToMat converts img to a BGR (3-channel) or grayscale (1-channel) Mat.
// The caller must Close the result.
func ToMat(img *Image) (gocv.Mat, error) {
	switch img.Channels {
	case RGBChannels:
		mat := gocv.NewMatWithSize(img.Height, img.Width, gocv.MatTypeCV8UC3)
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				px := img.At(y, x)
				mat.SetUCharAt(y, x*3, px[2])
				mat.SetUCharAt(y, x*3+1, px[1])
				mat.SetUCharAt(y, x*3+2, px[0])
			}
		}
		return mat, nil
	case IntensityChannels:
		mat := gocv.NewMatWithSize(img.Height, img.Width, gocv.MatTypeCV8U)
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				mat.SetUCharAt(y, x, img.Pix[y*img.Width+x])
			}
		}
		return mat, nil
	}
	return gocv.NewMat(), ErrUnsupportedLayout
}

package pixelsift

import (
	"github.com/wbrown/pixelsift/imageutil"
)

// Codec reads and writes Images. Implementations report failures as
// *CodecError so callers can match ErrCodec while still reaching the
// underlying decoder or encoder error.
type Codec interface {
	Read(path string) (*Image, error)
	Write(path string, img *Image) error
}

// FileCodec is the pure Go codec. The format is chosen from the file
// extension: png, jpg/jpeg, gif, tif/tiff and bmp are understood.
type FileCodec struct {
	// Quality is the JPEG quality, 1-100. Zero uses imageutil's default.
	Quality int
}

// Read decodes the file at path into a 3-channel image.
func (c FileCodec) Read(path string) (*Image, error) {
	src, err := imageutil.LoadImage(path)
	if err != nil {
		return nil, &CodecError{Op: "read", Path: path, Err: err}
	}
	return FromRGBA(src), nil
}

// Write encodes img to path. 1-channel images are written as grayscale.
func (c FileCodec) Write(path string, img *Image) error {
	std, err := img.StdImage()
	if err != nil {
		return &CodecError{Op: "write", Path: path, Err: err}
	}
	if err := imageutil.SaveImageQuality(std, path, c.Quality); err != nil {
		return &CodecError{Op: "write", Path: path, Err: err}
	}
	return nil
}

//go:build gocv

package pixelsift

import "gocv.io/x/gocv"

// WindowDisplayer shows each image in an OpenCV window and blocks until a
// key is pressed.
type WindowDisplayer struct{}

func (WindowDisplayer) Display(title string, img *Image) error {
	mat, err := ToMat(img)
	if err != nil {
		return err
	}
	defer mat.Close()

	window := gocv.NewWindow(title)
	defer window.Close()
	window.IMShow(mat)
	window.WaitKey(0)
	return nil
}

func init() {
	windowDisplayer = func() Displayer { return WindowDisplayer{} }
	gocvCodec = func(quality int) Codec { return GocvCodec{Quality: quality} }
}

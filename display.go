package pixelsift

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wbrown/pixelsift/imageutil"
)

// Displayer puts an image in front of the user. Implementations block
// until the image has been shown or written.
type Displayer interface {
	Display(title string, img *Image) error
}

// NopDisplayer discards every image.
type NopDisplayer struct{}

func (NopDisplayer) Display(string, *Image) error { return nil }

// display shows img through d, reporting failures as codec failures.
func display(d Displayer, title string, img *Image) error {
	if d == nil {
		return nil
	}
	if err := d.Display(title, img); err != nil {
		var ce *CodecError
		if errors.As(err, &ce) {
			return err
		}
		return &CodecError{Op: "display", Path: title, Err: err}
	}
	return nil
}

// TerminalDisplayer renders images as 24-bit ANSI half-block art.
type TerminalDisplayer struct {
	W io.Writer
	// Width is the number of text columns; images narrower than this are
	// shown at their own width. Zero means 80.
	Width int
}

func (t TerminalDisplayer) Display(title string, img *Image) error {
	rgba, err := img.ToRGBA()
	if err != nil {
		return err
	}

	width := t.Width
	if width <= 0 {
		width = 80
	}
	if img.Width < width {
		width = img.Width
	}
	scaled := imageutil.ResizeToWidth(rgba, width, imageutil.InterpolationNearest)

	w := t.W
	if w == nil {
		w = os.Stdout
	}
	if _, err := fmt.Fprintf(w, "%s %s\n", title, img); err != nil {
		return err
	}
	_, err = io.WriteString(w, RenderANSI(scaled))
	return err
}

// PreviewDisplayer writes each image to Dir as a PNG, enlarged by Scale
// with nearest-neighbour sampling, with a caption strip naming the image,
// its shape and its digest.
type PreviewDisplayer struct {
	Dir   string
	Scale int
}

// PreviewPath returns the file a title is written to.
func (p PreviewDisplayer) PreviewPath(title string) string {
	return filepath.Join(p.Dir, previewName(title)+".png")
}

func (p PreviewDisplayer) Display(title string, img *Image) error {
	rgba, err := img.ToRGBA()
	if err != nil {
		return err
	}

	scale := p.Scale
	if scale < 1 {
		scale = 1
	}
	if scale > 1 {
		rgba = imageutil.Resize(rgba, img.Width*scale, img.Height*scale, imageutil.InterpolationNearest)
	}

	canvas, err := withCaption(rgba.RGBA, []string{
		title,
		fmt.Sprintf("%s sha256 %s", img, DigestOf(img).Short()),
	})
	if err != nil {
		return err
	}

	if p.Dir != "" {
		if err := os.MkdirAll(p.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create preview dir: %w", err)
		}
	}
	return imageutil.SavePNG(canvas, p.PreviewPath(title))
}

// previewName turns a title into a safe file name.
func previewName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, title)
	if name == "" {
		return "image"
	}
	return name
}

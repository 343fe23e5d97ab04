package pixelsift

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	captionFontSize = 11.0
	captionPadding  = 4
)

var (
	captionFontOnce sync.Once
	captionFont     *truetype.Font
	captionFontErr  error
)

// loadCaptionFont parses the embedded Go Regular face once.
func loadCaptionFont() (*truetype.Font, error) {
	captionFontOnce.Do(func() {
		captionFont, captionFontErr = freetype.ParseFont(goregular.TTF)
	})
	return captionFont, captionFontErr
}

// captionHeight is the strip height needed for n lines of text.
func captionHeight(n int) int {
	lineHeight := int(captionFontSize*1.5 + 0.5)
	return n*lineHeight + 2*captionPadding
}

// withCaption returns a new image with img on top and a dark strip below
// it holding lines of white text. Text wider than the image is clipped.
func withCaption(img image.Image, lines []string) (*image.RGBA, error) {
	ttf, err := loadCaptionFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse caption font: %w", err)
	}

	b := img.Bounds()
	stripTop := b.Dy()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), stripTop+captionHeight(len(lines))))
	draw.Draw(canvas, image.Rect(0, 0, b.Dx(), stripTop), img, b.Min, draw.Src)

	strip := image.Rect(0, stripTop, canvas.Bounds().Dx(), canvas.Bounds().Dy())
	draw.Draw(canvas, strip, &image.Uniform{C: color.RGBA{R: 24, G: 24, B: 24, A: 255}},
		image.Point{}, draw.Src)

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(ttf)
	ctx.SetFontSize(captionFontSize)
	ctx.SetClip(strip)
	ctx.SetDst(canvas)
	ctx.SetSrc(image.White)
	ctx.SetHinting(font.HintingFull)

	lineHeight := int(captionFontSize*1.5 + 0.5)
	for i, line := range lines {
		baseline := stripTop + captionPadding + (i+1)*lineHeight - lineHeight/4
		if _, err := ctx.DrawString(line, freetype.Pt(captionPadding, baseline)); err != nil {
			return nil, fmt.Errorf("failed to draw caption: %w", err)
		}
	}
	return canvas, nil
}

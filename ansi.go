package pixelsift

import (
	"fmt"
	"strings"

	"github.com/wbrown/pixelsift/imageutil"
)

const (
	ESC = "\u001b"

	// upperHalf paints the upper pixel with the foreground colour and the
	// lower pixel with the background colour.
	upperHalf = "▀"
)

// halfCell is one character cell covering two vertically stacked pixels.
// hasLower is false on the last row of an odd-height image.
type halfCell struct {
	upper, lower imageutil.RGB
	hasLower     bool
}

// RenderANSI renders img with 24-bit colour escape codes, two pixel rows
// per text row. Adjacent cells with identical colours share one escape
// sequence. Every line ends with a colour reset.
func RenderANSI(img *imageutil.RGBAImage) string {
	var sb strings.Builder
	width, height := img.Width(), img.Height()

	for y := 0; y < height; y += 2 {
		var current halfCell
		count := 0
		for x := 0; x < width; x++ {
			c := halfCell{upper: img.GetRGB(x, y)}
			if y+1 < height {
				c.lower, c.hasLower = img.GetRGB(x, y+1), true
			}
			if count > 0 && c != current {
				sb.WriteString(formatHalfCells(current, count))
				count = 0
			}
			current = c
			count++
		}
		if count > 0 {
			sb.WriteString(formatHalfCells(current, count))
		}
		sb.WriteString(ESC + "[0m\n")
	}
	return sb.String()
}

// formatHalfCells emits the colour sequence for c followed by count
// half-block characters.
func formatHalfCells(c halfCell, count int) string {
	var code strings.Builder
	fmt.Fprintf(&code, "%s[38;2;%d;%d;%d", ESC, c.upper.R, c.upper.G, c.upper.B)
	if c.hasLower {
		fmt.Fprintf(&code, ";48;2;%d;%d;%dm", c.lower.R, c.lower.G, c.lower.B)
	} else {
		code.WriteString(";49m")
	}
	code.WriteString(strings.Repeat(upperHalf, count))
	return code.String()
}

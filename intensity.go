package pixelsift

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// AverageIntensity collapses every pixel to the mean of its channels,
// truncated to 8 bits, producing a 1-channel image with the same height
// and width.
func AverageIntensity(img *Image) (*Image, error) {
	if img.Channels < 1 {
		return nil, fmt.Errorf("average intensity: %w", ErrUnsupportedLayout)
	}

	avg := NewImage(img.Height, img.Width, IntensityChannels)
	n := float64(img.Channels)
	for p := range avg.Pix {
		var sum float64
		for _, v := range img.Pix[p*img.Channels : (p+1)*img.Channels] {
			sum += float64(v)
		}
		avg.Pix[p] = uint8(sum / n)
	}
	return avg, nil
}

// WriteIntensityArtifact serializes a 1-channel image as comma-separated
// decimal values, one image row per line, each value followed by a comma.
// The shape is not recorded; readers must know it.
func WriteIntensityArtifact(w io.Writer, img *Image) error {
	if img.Channels != IntensityChannels {
		return fmt.Errorf("write intensity artifact: %d channels: %w", img.Channels, ErrUnsupportedLayout)
	}

	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)
	// The extra empty field produces the trailing comma.
	record := make([]string, img.Width+1)
	for y := 0; y < img.Height; y++ {
		for x, v := range img.Pix[y*img.Width : (y+1)*img.Width] {
			record[x] = strconv.Itoa(int(v))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write intensity artifact row %d: %w", y, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write intensity artifact: %w", err)
	}
	return bw.Flush()
}

// SaveIntensityArtifact writes img to path. The file is closed on every
// path and a failed close is reported.
func SaveIntensityArtifact(path string, img *Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create intensity artifact: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close intensity artifact: %w", cerr)
		}
	}()
	return WriteIntensityArtifact(f, img)
}

// ReadIntensityArtifact parses an artifact written by
// WriteIntensityArtifact into a (height, width) intensity image. Exactly
// one value is read per stored cell and row/column order is preserved.
// A trailing empty field on a row is accepted and ignored; anything else
// that does not match the declared shape is an *ArtifactParseError.
func ReadIntensityArtifact(r io.Reader, height, width int) (*Image, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("read intensity artifact: invalid shape (%d, %d): %w",
			height, width, ErrArtifactParse)
	}

	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	img := NewImage(height, width, IntensityChannels)
	y := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ArtifactParseError{Line: pe.Line, Column: pe.Column, Reason: pe.Err.Error()}
			}
			return nil, fmt.Errorf("read intensity artifact: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if y >= height {
			return nil, &ArtifactParseError{Line: line,
				Reason: fmt.Sprintf("more than the declared %d rows", height)}
		}

		if len(record) == width+1 && record[width] == "" {
			record = record[:width]
		}
		if len(record) != width {
			return nil, &ArtifactParseError{Line: line,
				Reason: fmt.Sprintf("%d values, want %d", len(record), width)}
		}
		for x, field := range record {
			v, err := strconv.ParseUint(field, 10, 8)
			if err != nil {
				_, col := cr.FieldPos(x)
				return nil, &ArtifactParseError{Line: line, Column: col,
					Reason: fmt.Sprintf("%q is not an 8-bit unsigned value", field)}
			}
			img.Pix[y*width+x] = uint8(v)
		}
		y++
	}

	if y != height {
		return nil, &ArtifactParseError{Line: y + 1,
			Reason: fmt.Sprintf("found %d rows, want %d", y, height)}
	}
	return img, nil
}

// LoadIntensityArtifact reads the artifact at path using the declared
// shape, writes a grayscale rendering to visualPath through codec when
// visualPath is not empty, and returns the image with its digest.
func LoadIntensityArtifact(path string, height, width int, codec Codec, visualPath string) (*Image, Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open intensity artifact: %w", err)
	}
	defer f.Close()

	img, err := ReadIntensityArtifact(f, height, width)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}

	if visualPath != "" && codec != nil {
		if err := codec.Write(visualPath, img); err != nil {
			return nil, "", err
		}
	}
	return img, DigestOf(img), nil
}

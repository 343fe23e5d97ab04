package pixelsift

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned when grid coordinates fall outside the
	// source image.
	ErrOutOfBounds = errors.New("grid coordinates out of bounds")

	// ErrPrerequisiteNotMet is returned when a session step runs before
	// the step that produces its input.
	ErrPrerequisiteNotMet = errors.New("prerequisite not met")

	// ErrCodec is returned when an image cannot be decoded, encoded or
	// displayed.
	ErrCodec = errors.New("codec failure")

	// ErrArtifactParse is returned for a malformed intensity artifact.
	ErrArtifactParse = errors.New("malformed intensity artifact")

	// ErrDigestMismatch is returned when a reloaded artifact does not
	// hash to the digest recorded before it was written.
	ErrDigestMismatch = errors.New("digest mismatch")

	// ErrUnsupportedLayout is returned for images that are not in the
	// channel count an operation expects.
	ErrUnsupportedLayout = errors.New("unsupported pixel layout")
)

// OutOfBoundsError reports a source image too small for a grid.
type OutOfBoundsError struct {
	Op         string
	Grid       Grid
	Height     int
	Width      int
	NeedHeight int
	NeedWidth  int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s: %dx%d grid at stride %d needs a source of at least %dx%d, got %dx%d",
		e.Op, e.Grid.Rows, e.Grid.Cols, e.Grid.Stride,
		e.NeedHeight, e.NeedWidth, e.Height, e.Width)
}

func (e *OutOfBoundsError) Unwrap() error { return ErrOutOfBounds }

// PrerequisiteError names the operation that was invoked too early and
// the stage it depends on.
type PrerequisiteError struct {
	Op       string
	Requires Stage
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("%s: requires stage %s", e.Op, e.Requires)
}

func (e *PrerequisiteError) Unwrap() error { return ErrPrerequisiteNotMet }

// ArtifactParseError locates the first problem found in an intensity
// artifact. Line and Column are 1-based; Column is 0 for row-level
// problems.
type ArtifactParseError struct {
	Line   int
	Column int
	Reason string
}

func (e *ArtifactParseError) Error() string {
	if e.Column == 0 {
		return fmt.Sprintf("intensity artifact line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("intensity artifact line %d column %d: %s", e.Line, e.Column, e.Reason)
}

func (e *ArtifactParseError) Unwrap() error { return ErrArtifactParse }

// CodecError wraps a failure of the image codec or display collaborator.
// The underlying error is kept unmodified and is reachable through
// errors.As / errors.Is.
type CodecError struct {
	Op   string
	Path string
	Err  error
}

func (e *CodecError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CodecError) Unwrap() []error { return []error{ErrCodec, e.Err} }

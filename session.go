package pixelsift

import (
	"fmt"
)

// Stage is a step of the analysis state machine:
//
//	Loaded -> HiddenExtracted
//	Loaded -> Repaired -> Reduced -> RoundTripVerified
//
// Hidden extraction and repair are independent of each other.
type Stage int

const (
	StageLoaded Stage = iota
	StageHiddenExtracted
	StageRepaired
	StageReduced
	StageRoundTripVerified
)

func (s Stage) String() string {
	switch s {
	case StageLoaded:
		return "loaded"
	case StageHiddenExtracted:
		return "hidden-extracted"
	case StageRepaired:
		return "repaired"
	case StageReduced:
		return "reduced"
	case StageRoundTripVerified:
		return "round-trip-verified"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Session holds one source image and the artifacts derived from it.
// Each optional field is populated by the stage named in its comment.
type Session struct {
	Name   string
	Source *Image

	// RunID identifies the session in the digest ledger. Set by Pipeline.
	RunID string

	// Digest is the active digest. It starts as the source digest and is
	// replaced by the repaired image's digest once Repair runs; the source
	// digest is not kept.
	Digest Digest

	Hidden       *Image // StageHiddenExtracted
	HiddenDigest Digest // StageHiddenExtracted

	Repaired *Image // StageRepaired

	Intensity       *Image // StageReduced
	IntensityDigest Digest // StageReduced

	RoundTripDigest Digest // StageRoundTripVerified

	grid    Grid
	reached [StageRoundTripVerified + 1]bool
}

// NewSession starts a session over src, named for diagnostics.
func NewSession(name string, src *Image) *Session {
	return newSession(name, src, DefaultGrid)
}

func newSession(name string, src *Image, g Grid) *Session {
	s := &Session{
		Name:   name,
		Source: src,
		Digest: DigestOf(src),
		grid:   g,
	}
	s.reached[StageLoaded] = true
	return s
}

// OpenSession reads path with codec and starts a session over it.
func OpenSession(path string, codec Codec) (*Session, error) {
	src, err := codec.Read(path)
	if err != nil {
		return nil, err
	}
	return NewSession(path, src), nil
}

// Reached reports whether stage has completed in this session.
func (s *Session) Reached(stage Stage) bool {
	if stage < StageLoaded || stage > StageRoundTripVerified {
		return false
	}
	return s.reached[stage]
}

// Stage returns the furthest stage reached.
func (s *Session) Stage() Stage {
	for st := StageRoundTripVerified; st > StageLoaded; st-- {
		if s.reached[st] {
			return st
		}
	}
	return StageLoaded
}

func (s *Session) require(op string, stage Stage) error {
	if !s.reached[stage] {
		return &PrerequisiteError{Op: op, Requires: stage}
	}
	return nil
}

// RetrieveHidden extracts the hidden image from the source and returns its
// digest. The active digest is left unchanged.
func (s *Session) RetrieveHidden() (Digest, error) {
	hidden, err := ExtractGrid(s.Source, s.grid)
	if err != nil {
		return "", err
	}
	s.Hidden = hidden
	s.HiddenDigest = DigestOf(hidden)
	s.reached[StageHiddenExtracted] = true
	return s.HiddenDigest, nil
}

// Repair builds the repaired copy of the source and makes its digest the
// active digest.
func (s *Session) Repair() (Digest, error) {
	fixed, err := Repair(s.Source, s.grid)
	if err != nil {
		return "", err
	}
	s.Repaired = fixed
	s.Digest = DigestOf(fixed)
	s.reached[StageRepaired] = true
	return s.Digest, nil
}

// AverageIntensity reduces the repaired image. It fails with
// ErrPrerequisiteNotMet if Repair has not run.
func (s *Session) AverageIntensity() (*Image, Digest, error) {
	if err := s.require("average intensity", StageRepaired); err != nil {
		return nil, "", err
	}
	avg, err := AverageIntensity(s.Repaired)
	if err != nil {
		return nil, "", err
	}
	s.Intensity = avg
	s.IntensityDigest = DigestOf(avg)
	s.reached[StageReduced] = true
	return avg, s.IntensityDigest, nil
}

// VerifyRoundTrip reloads the intensity artifact at path using the shape
// recorded for the reduced image and checks it hashes to the digest
// taken before it was written. A grayscale rendering is written to
// visualPath through codec when visualPath is set.
func (s *Session) VerifyRoundTrip(path string, codec Codec, visualPath string) (Digest, error) {
	if err := s.require("verify round trip", StageReduced); err != nil {
		return "", err
	}
	_, d, err := LoadIntensityArtifact(path, s.Intensity.Height, s.Intensity.Width, codec, visualPath)
	if err != nil {
		return "", err
	}
	if d != s.IntensityDigest {
		return d, fmt.Errorf("verify round trip %s: reloaded %s, reduced %s: %w",
			path, d.Short(), s.IntensityDigest.Short(), ErrDigestMismatch)
	}
	s.RoundTripDigest = d
	s.reached[StageRoundTripVerified] = true
	return d, nil
}

// Show displays the source image.
func (s *Session) Show(d Displayer) error {
	return display(d, s.Name, s.Source)
}

// ShowHidden displays the hidden image. It fails with
// ErrPrerequisiteNotMet if RetrieveHidden has not run.
func (s *Session) ShowHidden(d Displayer) error {
	if err := s.require("show hidden", StageHiddenExtracted); err != nil {
		return err
	}
	return display(d, s.Name+" (hidden)", s.Hidden)
}

// Equal compares the active digests of two sessions. See Equal for the
// limits of digest equality.
func (s *Session) Equal(other *Session) bool {
	return s.Digest == other.Digest
}

func (s *Session) String() string {
	return fmt.Sprintf("Analyzing %s of size %d and hash %s", s.Name, s.Source.Size(), s.Digest)
}

package pixelsift

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

var smallGrid = Grid{Rows: 2, Cols: 2, Stride: 11}

// recordingDisplayer remembers what it was asked to show.
type recordingDisplayer struct {
	titles []string
	images []*Image
	err    error
}

func (r *recordingDisplayer) Display(title string, img *Image) error {
	r.titles = append(r.titles, title)
	r.images = append(r.images, img)
	return r.err
}

func newTestSession() *Session {
	return newSession("test.png", patternImage(23, 23), smallGrid)
}

func TestSessionStartsLoaded(t *testing.T) {
	s := newTestSession()
	if s.Stage() != StageLoaded || !s.Reached(StageLoaded) {
		t.Errorf("Expected stage loaded, got %s", s.Stage())
	}
	if s.Digest != DigestOf(s.Source) {
		t.Error("Initial digest should be the source digest")
	}
	if s.Hidden != nil || s.Repaired != nil || s.Intensity != nil {
		t.Error("No artifacts should exist before any step runs")
	}
}

func TestSessionString(t *testing.T) {
	s := newTestSession()
	want := fmt.Sprintf("Analyzing test.png of size %d and hash %s", 23*23*3, s.Digest)
	if s.String() != want {
		t.Errorf("Expected %q, got %q", want, s.String())
	}
}

func TestRetrieveHiddenKeepsActiveDigest(t *testing.T) {
	s := newTestSession()
	before := s.Digest

	d, err := s.RetrieveHidden()
	if err != nil {
		t.Fatalf("RetrieveHidden: %v", err)
	}
	if d != DigestOf(s.Hidden) || s.HiddenDigest != d {
		t.Error("Returned digest should be the hidden image digest")
	}
	if s.Digest != before {
		t.Error("Hidden extraction should not change the active digest")
	}
	if !s.Reached(StageHiddenExtracted) || s.Reached(StageRepaired) {
		t.Errorf("Unexpected stages after extraction: %s", s.Stage())
	}
}

func TestRepairReplacesActiveDigest(t *testing.T) {
	s := newTestSession()
	source := s.Digest

	d, err := s.Repair()
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if s.Digest != d || d != DigestOf(s.Repaired) {
		t.Error("Active digest should be the repaired digest")
	}
	if d == source {
		t.Error("Repaired digest should differ from the source digest")
	}
	if DigestOf(s.Source) != source {
		t.Error("Repair should not modify the source image")
	}
	if s.Reached(StageHiddenExtracted) {
		t.Error("Repair does not require or imply hidden extraction")
	}
}

func TestAverageIntensityRequiresRepair(t *testing.T) {
	s := newTestSession()
	if _, err := s.RetrieveHidden(); err != nil {
		t.Fatalf("RetrieveHidden: %v", err)
	}

	_, _, err := s.AverageIntensity()
	if !errors.Is(err, ErrPrerequisiteNotMet) {
		t.Fatalf("Expected ErrPrerequisiteNotMet, got %v", err)
	}
	var pe *PrerequisiteError
	if !errors.As(err, &pe) || pe.Requires != StageRepaired {
		t.Errorf("Expected prerequisite %s, got %v", StageRepaired, err)
	}
	if s.Intensity != nil || s.Reached(StageReduced) {
		t.Error("Failed reduction should not record an artifact")
	}
}

func TestAverageIntensityUsesRepairedImage(t *testing.T) {
	s := newTestSession()
	if _, err := s.Repair(); err != nil {
		t.Fatalf("Repair: %v", err)
	}
	avg, d, err := s.AverageIntensity()
	if err != nil {
		t.Fatalf("AverageIntensity: %v", err)
	}

	want, _ := AverageIntensity(s.Repaired)
	if DigestOf(avg) != DigestOf(want) || d != DigestOf(want) {
		t.Error("Reduction should be computed from the repaired image")
	}
	if s.Stage() != StageReduced {
		t.Errorf("Expected stage reduced, got %s", s.Stage())
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession()
	csvPath := filepath.Join(dir, "RGB.csv")

	if _, err := s.VerifyRoundTrip(csvPath, FileCodec{}, ""); !errors.Is(err, ErrPrerequisiteNotMet) {
		t.Fatalf("Expected ErrPrerequisiteNotMet before reduction, got %v", err)
	}

	if _, err := s.Repair(); err != nil {
		t.Fatalf("Repair: %v", err)
	}
	avg, _, err := s.AverageIntensity()
	if err != nil {
		t.Fatalf("AverageIntensity: %v", err)
	}
	if err := SaveIntensityArtifact(csvPath, avg); err != nil {
		t.Fatalf("SaveIntensityArtifact: %v", err)
	}

	d, err := s.VerifyRoundTrip(csvPath, FileCodec{}, filepath.Join(dir, "grayscale.png"))
	if err != nil {
		t.Fatalf("VerifyRoundTrip: %v", err)
	}
	if d != s.IntensityDigest || s.RoundTripDigest != d {
		t.Error("Round trip digest should equal the reduced digest")
	}
	if s.Stage() != StageRoundTripVerified {
		t.Errorf("Expected stage round-trip-verified, got %s", s.Stage())
	}
}

func TestVerifyRoundTripDetectsTampering(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession()
	csvPath := filepath.Join(dir, "RGB.csv")

	if _, err := s.Repair(); err != nil {
		t.Fatalf("Repair: %v", err)
	}
	avg, _, err := s.AverageIntensity()
	if err != nil {
		t.Fatalf("AverageIntensity: %v", err)
	}

	tampered := avg.Clone()
	tampered.Pix[0]++
	if err := SaveIntensityArtifact(csvPath, tampered); err != nil {
		t.Fatalf("SaveIntensityArtifact: %v", err)
	}

	_, err = s.VerifyRoundTrip(csvPath, FileCodec{}, "")
	if !errors.Is(err, ErrDigestMismatch) {
		t.Fatalf("Expected ErrDigestMismatch, got %v", err)
	}
	if s.Reached(StageRoundTripVerified) {
		t.Error("Mismatched round trip should not be marked verified")
	}
}

func TestVerifyRoundTripUsesRecordedShape(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession()
	csvPath := filepath.Join(dir, "RGB.csv")

	if _, err := s.Repair(); err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if _, _, err := s.AverageIntensity(); err != nil {
		t.Fatalf("AverageIntensity: %v", err)
	}

	// One column short of the reduced image.
	wrong := NewImage(s.Intensity.Width, s.Intensity.Height-1, IntensityChannels)
	if err := SaveIntensityArtifact(csvPath, wrong); err != nil {
		t.Fatalf("SaveIntensityArtifact: %v", err)
	}
	if _, err := s.VerifyRoundTrip(csvPath, FileCodec{}, ""); !errors.Is(err, ErrArtifactParse) {
		t.Errorf("Expected ErrArtifactParse for a misshapen artifact, got %v", err)
	}
}

func TestShowHiddenRequiresExtraction(t *testing.T) {
	s := newTestSession()
	d := &recordingDisplayer{}

	err := s.ShowHidden(d)
	if !errors.Is(err, ErrPrerequisiteNotMet) {
		t.Fatalf("Expected ErrPrerequisiteNotMet, got %v", err)
	}
	if len(d.titles) != 0 {
		t.Error("Nothing should be displayed before extraction")
	}

	if _, err := s.RetrieveHidden(); err != nil {
		t.Fatalf("RetrieveHidden: %v", err)
	}
	if err := s.ShowHidden(d); err != nil {
		t.Fatalf("ShowHidden: %v", err)
	}
	if len(d.images) != 1 || d.images[0] != s.Hidden {
		t.Error("ShowHidden should display the hidden image")
	}
}

func TestShowWrapsDisplayFailure(t *testing.T) {
	s := newTestSession()
	err := s.Show(&recordingDisplayer{err: os.ErrPermission})
	if !errors.Is(err, ErrCodec) {
		t.Errorf("Expected ErrCodec, got %v", err)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Errorf("Expected underlying error to be preserved, got %v", err)
	}
}

func TestSessionEqual(t *testing.T) {
	a := newTestSession()
	b := newTestSession()
	if !a.Equal(b) {
		t.Error("Sessions over identical images should be equal")
	}
	if _, err := b.Repair(); err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if a.Equal(b) {
		t.Error("A repaired session should not equal an unrepaired one")
	}
}

func TestRerunOverwritesArtifact(t *testing.T) {
	s := newTestSession()
	first, err := s.Repair()
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	prev := s.Repaired

	second, err := s.Repair()
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if first != second {
		t.Error("Repeating a step over the same source should give the same digest")
	}
	if s.Repaired == prev {
		t.Error("Repeating a step should replace the artifact")
	}
}

func TestStageString(t *testing.T) {
	if StageRoundTripVerified.String() != "round-trip-verified" {
		t.Errorf("Unexpected %q", StageRoundTripVerified.String())
	}
	if Stage(42).String() != "Stage(42)" {
		t.Errorf("Unexpected %q", Stage(42).String())
	}
	if newTestSession().Reached(Stage(42)) {
		t.Error("Unknown stages are never reached")
	}
}

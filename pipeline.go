package pixelsift

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wbrown/pixelsift/ledger"
)

// Pipeline runs analysis sessions end to end, writing every artifact
// through its codec and recording every digest in the ledger when one is
// attached.
type Pipeline struct {
	cfg     *Config
	codec   Codec
	display Displayer
	ledger  *ledger.Ledger
	log     zerolog.Logger
}

// Option is a functional option for configuring a Pipeline.
type Option func(*Pipeline)

// WithCodec overrides the codec built from the configuration.
func WithCodec(c Codec) Option { return func(p *Pipeline) { p.codec = c } }

// WithDisplayer overrides the displayer built from the configuration.
func WithDisplayer(d Displayer) Option { return func(p *Pipeline) { p.display = d } }

// WithLedger records digests in l.
func WithLedger(l *ledger.Ledger) Option { return func(p *Pipeline) { p.ledger = l } }

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option { return func(p *Pipeline) { p.log = l } }

// NewPipeline validates cfg and builds a pipeline.
func NewPipeline(cfg *Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	p := &Pipeline{
		cfg:     cfg,
		codec:   cfg.NewCodec(),
		display: cfg.NewDisplayer(os.Stdout),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run loads the source and drives it through every stage: hidden
// extraction, repair, reduction and round-trip verification. The first
// failing stage aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Session, error) {
	s, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	steps := []func(context.Context, *Session) error{
		p.ExtractHidden,
		p.Repair,
		p.Reduce,
		p.VerifyRoundTrip,
	}
	for _, step := range steps {
		if err := step(ctx, s); err != nil {
			return s, err
		}
	}
	p.log.Info().Str("run", s.RunID).Str("stage", s.Stage().String()).
		Str("digest", string(s.Digest)).Msg("analysis complete")
	return s, nil
}

// Load reads the configured source and starts a session.
func (p *Pipeline) Load(ctx context.Context) (*Session, error) {
	s, err := OpenSession(p.cfg.Source, p.codec)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", p.cfg.Source, err)
	}
	s.RunID = uuid.NewString()
	p.log.Info().Str("run", s.RunID).Msg(s.String())
	if err := p.record(ctx, s, StageLoaded, p.cfg.Source, s.Source, s.Digest); err != nil {
		return nil, err
	}
	return s, nil
}

// ExtractHidden retrieves the hidden image, writes it and shows it.
func (p *Pipeline) ExtractHidden(ctx context.Context, s *Session) error {
	d, err := s.RetrieveHidden()
	if err != nil {
		return fmt.Errorf("extract hidden: %w", err)
	}
	if err := p.codec.Write(p.cfg.HiddenPath, s.Hidden); err != nil {
		return fmt.Errorf("extract hidden: %w", err)
	}
	if err := p.record(ctx, s, StageHiddenExtracted, p.cfg.HiddenPath, s.Hidden, d); err != nil {
		return err
	}
	if err := s.ShowHidden(p.display); err != nil {
		return fmt.Errorf("extract hidden: %w", err)
	}
	return nil
}

// Repair repairs the grid pixels and writes the repaired image.
func (p *Pipeline) Repair(ctx context.Context, s *Session) error {
	d, err := s.Repair()
	if err != nil {
		return fmt.Errorf("repair: %w", err)
	}
	path := p.cfg.RepairedArtifactPath()
	if err := p.codec.Write(path, s.Repaired); err != nil {
		return fmt.Errorf("repair: %w", err)
	}
	return p.record(ctx, s, StageRepaired, path, s.Repaired, d)
}

// Reduce computes the average-intensity image and writes the artifact.
func (p *Pipeline) Reduce(ctx context.Context, s *Session) error {
	avg, d, err := s.AverageIntensity()
	if err != nil {
		return fmt.Errorf("average intensity: %w", err)
	}
	if err := SaveIntensityArtifact(p.cfg.IntensityPath, avg); err != nil {
		return fmt.Errorf("average intensity: %w", err)
	}
	return p.record(ctx, s, StageReduced, p.cfg.IntensityPath, avg, d)
}

// VerifyRoundTrip reloads the intensity artifact, writes its grayscale
// rendering and checks the digest survived.
func (p *Pipeline) VerifyRoundTrip(ctx context.Context, s *Session) error {
	d, err := s.VerifyRoundTrip(p.cfg.IntensityPath, p.codec, p.cfg.GrayscalePath)
	if err != nil {
		return fmt.Errorf("round trip: %w", err)
	}
	return p.record(ctx, s, StageRoundTripVerified, p.cfg.GrayscalePath, s.Intensity, d)
}

// Show displays the session's source image.
func (p *Pipeline) Show(s *Session) error {
	return s.Show(p.display)
}

// Compare loads two images and reports whether their digests match.
func (p *Pipeline) Compare(pathA, pathB string) (bool, *Session, *Session, error) {
	a, err := OpenSession(pathA, p.codec)
	if err != nil {
		return false, nil, nil, fmt.Errorf("compare: %w", err)
	}
	b, err := OpenSession(pathB, p.codec)
	if err != nil {
		return false, nil, nil, fmt.Errorf("compare: %w", err)
	}
	equal := a.Equal(b)
	p.log.Debug().Str("a", string(a.Digest)).Str("b", string(b.Digest)).Bool("equal", equal).Msg("compare")
	return equal, a, b, nil
}

// record logs a stage result and stores it in the ledger. A digest that
// differs from the previous run over the same source is logged as a
// warning; it is not an error.
func (p *Pipeline) record(ctx context.Context, s *Session, stage Stage, artifact string, img *Image, d Digest) error {
	p.log.Info().Str("run", s.RunID).Str("stage", stage.String()).
		Str("artifact", artifact).Str("shape", img.String()).
		Str("digest", string(d)).Msg("stage complete")

	if p.ledger == nil {
		return nil
	}
	prev, err := p.ledger.Latest(ctx, s.Name, stage.String())
	switch {
	case err == nil && prev.Digest != string(d):
		p.log.Warn().Str("stage", stage.String()).Str("previous", prev.Digest).
			Str("previous_run", prev.RunID).Str("digest", string(d)).
			Msg("digest changed since last run")
	case err != nil && !errors.Is(err, ledger.ErrNotFound):
		return fmt.Errorf("%s: %w", stage, err)
	}

	err = p.ledger.Record(ctx, ledger.Entry{
		RunID:    s.RunID,
		Source:   s.Name,
		Stage:    stage.String(),
		Artifact: artifact,
		Digest:   string(d),
		Height:   img.Height,
		Width:    img.Width,
		Channels: img.Channels,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return nil
}

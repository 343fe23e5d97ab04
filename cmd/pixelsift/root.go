package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wbrown/pixelsift"
	"github.com/wbrown/pixelsift/ledger"
)

var rootFlags struct {
	Config        string
	LogLevel      string
	Codec         string
	Quality       int
	Display       string
	PreviewDir    string
	PreviewScale  int
	TerminalWidth int
	Ledger        string
}

var rootCmd = &cobra.Command{
	Use:   "pixelsift",
	Short: "Recover, repair and verify images hidden at a fixed pixel stride",
	Long: `pixelsift extracts the 131x100 image hidden every 11 pixels in a carrier
image, repairs the carrier at those pixels from their neighbours, reduces the
repaired image to per-pixel mean intensity and verifies that the persisted
intensity grid reloads to the same SHA-256 digest.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(rootFlags.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger()
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootFlags.Config, "config", "c", "", "YAML config file")
	pf.StringVar(&rootFlags.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.Codec, "codec", "go", "Image codec: go, or gocv when built with -tags gocv")
	pf.IntVarP(&rootFlags.Quality, "quality", "q", 95, "JPEG quality for written artifacts")
	pf.StringVarP(&rootFlags.Display, "display", "d", "none", "Display: none, terminal, preview or window")
	pf.StringVar(&rootFlags.PreviewDir, "preview-dir", "preview", "Directory for preview PNGs")
	pf.IntVar(&rootFlags.PreviewScale, "preview-scale", 1, "Enlargement factor for preview PNGs")
	pf.IntVar(&rootFlags.TerminalWidth, "term-width", 80, "Columns used by terminal display")
	pf.StringVar(&rootFlags.Ledger, "ledger", "", "SQLite digest ledger (disabled when empty)")
}

// loadConfig builds the configuration from --config and any flags the
// user set explicitly, with source as the carrier image. The result is
// not validated; NewPipeline does that.
func loadConfig(cmd *cobra.Command, source string) (*pixelsift.Config, error) {
	cfg := pixelsift.DefaultConfig()
	if rootFlags.Config != "" {
		var err error
		// Source may come from the command line, so validate after merging.
		if cfg, err = pixelsift.ReadConfig(rootFlags.Config); err != nil {
			return nil, err
		}
	}
	if source != "" {
		cfg.Source = source
	}

	flags := cmd.Flags()
	if flags.Changed("codec") {
		cfg.Codec = rootFlags.Codec
	}
	if flags.Changed("quality") {
		cfg.JPEGQuality = rootFlags.Quality
	}
	if flags.Changed("display") {
		cfg.Display = rootFlags.Display
	}
	if flags.Changed("preview-dir") {
		cfg.PreviewDir = rootFlags.PreviewDir
	}
	if flags.Changed("preview-scale") {
		cfg.PreviewScale = rootFlags.PreviewScale
	}
	if flags.Changed("term-width") {
		cfg.TerminalWidth = rootFlags.TerminalWidth
	}
	if flags.Changed("ledger") {
		cfg.LedgerPath = rootFlags.Ledger
	}
	return cfg, nil
}

// newPipeline builds a pipeline for cfg, opening the ledger if one is
// configured. The returned func releases it.
func newPipeline(cfg *pixelsift.Config) (*pixelsift.Pipeline, func(), error) {
	opts := []pixelsift.Option{pixelsift.WithLogger(log.Logger)}
	closer := func() {}
	if cfg.LedgerPath != "" {
		l, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, pixelsift.WithLedger(l))
		closer = func() {
			if err := l.Close(); err != nil {
				log.Error().Err(err).Msg("closing ledger")
			}
		}
	}
	p, err := pixelsift.NewPipeline(cfg, opts...)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return p, closer, nil
}

// mustPipeline is loadConfig followed by newPipeline, exiting with a
// diagnostic naming op on failure.
func mustPipeline(cmd *cobra.Command, op, source string) (*pixelsift.Pipeline, func()) {
	cfg, err := loadConfig(cmd, source)
	if err != nil {
		log.Fatal().Err(err).Str("op", op).Msg("Failed to read configuration")
	}
	p, closer, err := newPipeline(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("op", op).Msg("Failed to start pipeline")
	}
	return p, closer
}

package pixelsift

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set by the gocv build; nil otherwise.
var (
	windowDisplayer func() Displayer
	gocvCodec       func(quality int) Codec
)

// Config holds the pipeline configuration.
type Config struct {
	Source        string `yaml:"source"`
	HiddenPath    string `yaml:"hidden_path"`
	RepairedPath  string `yaml:"repaired_path"` // empty: <source>_fixed.jpg
	IntensityPath string `yaml:"intensity_path"`
	GrayscalePath string `yaml:"grayscale_path"`

	Codec       string `yaml:"codec"` // go | gocv
	JPEGQuality int    `yaml:"jpeg_quality"`

	Display       string `yaml:"display"` // none | terminal | preview | window
	PreviewDir    string `yaml:"preview_dir"`
	PreviewScale  int    `yaml:"preview_scale"`
	TerminalWidth int    `yaml:"terminal_width"`

	LedgerPath string `yaml:"ledger_path"` // empty disables the ledger
}

// DefaultConfig returns the artifact layout used when nothing else is
// configured.
func DefaultConfig() *Config {
	return &Config{
		HiddenPath:    "hidden.jpg",
		IntensityPath: "RGB.csv",
		GrayscalePath: "grayscale.jpg",
		Codec:         "go",
		JPEGQuality:   95,
		Display:       "none",
		PreviewDir:    "preview",
		PreviewScale:  1,
		TerminalWidth: 80,
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg, err := ReadConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ReadConfig reads a YAML file over DefaultConfig without validating it,
// for callers that fill in more fields first.
func ReadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source is required")
	}
	if c.HiddenPath == "" {
		return fmt.Errorf("hidden_path is required")
	}
	if c.IntensityPath == "" {
		return fmt.Errorf("intensity_path is required")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100")
	}
	switch c.Codec {
	case "go", "":
	case "gocv":
		if gocvCodec == nil {
			return fmt.Errorf("codec gocv requires a build with -tags gocv")
		}
	default:
		return fmt.Errorf("unsupported codec %q (use go or gocv)", c.Codec)
	}
	switch c.Display {
	case "none", "", "terminal":
	case "preview":
		if c.PreviewScale < 1 {
			return fmt.Errorf("preview_scale must be >= 1")
		}
	case "window":
		if windowDisplayer == nil {
			return fmt.Errorf("display window requires a build with -tags gocv")
		}
	default:
		return fmt.Errorf("unsupported display %q (use none, terminal, preview or window)", c.Display)
	}
	return nil
}

// RepairedArtifactPath returns RepairedPath, or <source stem>_fixed.jpg in
// the working directory when it is not set.
func (c *Config) RepairedArtifactPath() string {
	if c.RepairedPath != "" {
		return c.RepairedPath
	}
	base := filepath.Base(c.Source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_fixed.jpg"
}

// NewCodec builds the configured codec.
func (c *Config) NewCodec() Codec {
	if c.Codec == "gocv" && gocvCodec != nil {
		return gocvCodec(c.JPEGQuality)
	}
	return FileCodec{Quality: c.JPEGQuality}
}

// NewDisplayer builds the configured displayer. Terminal output goes to w.
func (c *Config) NewDisplayer(w io.Writer) Displayer {
	switch c.Display {
	case "terminal":
		return TerminalDisplayer{W: w, Width: c.TerminalWidth}
	case "preview":
		return PreviewDisplayer{Dir: c.PreviewDir, Scale: c.PreviewScale}
	case "window":
		if windowDisplayer != nil {
			return windowDisplayer()
		}
	}
	return NopDisplayer{}
}

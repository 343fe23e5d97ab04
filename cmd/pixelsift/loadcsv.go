package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wbrown/pixelsift"
)

var loadCSVFlags struct {
	Height    int
	Width     int
	Grayscale string
	Expect    string
}

var loadCSVCmd = &cobra.Command{
	Use:   "load-csv <intensity.csv>",
	Short: "Reload an intensity CSV and print its digest",
	Long: `Parses an intensity CSV written by "average" or "analyze". The file carries
no shape, so --height and --width are required. A grayscale rendering is
written to --grayscale, and --expect fails the command unless the digest
matches.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd, "")
		if err != nil {
			log.Fatal().Err(err).Str("op", "load-csv").Msg("Failed to read configuration")
		}
		visual := cfg.GrayscalePath
		if cmd.Flags().Changed("grayscale") {
			visual = loadCSVFlags.Grayscale
		}

		_, d, err := pixelsift.LoadIntensityArtifact(args[0],
			loadCSVFlags.Height, loadCSVFlags.Width, cfg.NewCodec(), visual)
		if err != nil {
			log.Fatal().Err(err).Str("op", "load-csv").Msg("Failed to load intensity artifact")
		}
		fmt.Println(d)

		if loadCSVFlags.Expect != "" && pixelsift.Digest(loadCSVFlags.Expect) != d {
			log.Fatal().Str("op", "load-csv").Str("expected", loadCSVFlags.Expect).
				Str("digest", string(d)).Err(pixelsift.ErrDigestMismatch).Msg("Round trip failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(loadCSVCmd)

	loadCSVCmd.Flags().IntVar(&loadCSVFlags.Height, "height", 0, "Rows in the intensity image (required)")
	loadCSVCmd.MarkFlagRequired("height")
	loadCSVCmd.Flags().IntVar(&loadCSVFlags.Width, "width", 0, "Columns in the intensity image (required)")
	loadCSVCmd.MarkFlagRequired("width")
	loadCSVCmd.Flags().StringVar(&loadCSVFlags.Grayscale, "grayscale", "grayscale.jpg", "Where to write the grayscale rendering (empty to skip)")
	loadCSVCmd.Flags().StringVar(&loadCSVFlags.Expect, "expect", "", "Digest the artifact must reload to")
}

package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wbrown/pixelsift"
)

var hiddenCmd = &cobra.Command{
	Use:   "hidden <image>",
	Short: "Extract and write the hidden image",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, closer := mustPipeline(cmd, "hidden", args[0])
		defer closer()

		s := mustLoad(cmd, p, "hidden")
		if err := p.ExtractHidden(cmd.Context(), s); err != nil {
			log.Fatal().Err(err).Str("op", "hidden").Msg("Hidden image extraction failed")
		}
		fmt.Println(s.HiddenDigest)
	},
}

var fixCmd = &cobra.Command{
	Use:   "fix <image>",
	Short: "Repair the carrier at the hidden image's sample points",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, closer := mustPipeline(cmd, "fix", args[0])
		defer closer()

		s := mustLoad(cmd, p, "fix")
		if err := p.Repair(cmd.Context(), s); err != nil {
			log.Fatal().Err(err).Str("op", "fix").Msg("Repair failed")
		}
		fmt.Println(s.Digest)
	},
}

var averageCmd = &cobra.Command{
	Use:   "average <image>",
	Short: "Repair the carrier and write its average-intensity CSV",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, closer := mustPipeline(cmd, "average", args[0])
		defer closer()

		s := mustLoad(cmd, p, "average")
		if err := p.Repair(cmd.Context(), s); err != nil {
			log.Fatal().Err(err).Str("op", "average").Msg("Repair failed")
		}
		if err := p.Reduce(cmd.Context(), s); err != nil {
			log.Fatal().Err(err).Str("op", "average").Msg("Average intensity failed")
		}
		h, w, _ := s.Intensity.Shape()
		fmt.Printf("%s (%dx%d)\n", s.IntensityDigest, h, w)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <image>",
	Short: "Display an image and print its digest",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, closer := mustPipeline(cmd, "show", args[0])
		defer closer()

		s := mustLoad(cmd, p, "show")
		fmt.Println(s)
		if err := p.Show(s); err != nil {
			log.Fatal().Err(err).Str("op", "show").Msg("Display failed")
		}
	},
}

func mustLoad(cmd *cobra.Command, p *pixelsift.Pipeline, op string) *pixelsift.Session {
	s, err := p.Load(cmd.Context())
	if err != nil {
		log.Fatal().Err(err).Str("op", op).Msg("Failed to load image")
	}
	return s
}

func init() {
	rootCmd.AddCommand(hiddenCmd, fixCmd, averageCmd, showCmd)
}

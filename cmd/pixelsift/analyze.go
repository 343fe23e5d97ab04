package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [image]",
	Short: "Run every stage: extract hidden, repair, reduce and verify",
	Long: `Loads the carrier image, writes the hidden image, the repaired carrier, the
intensity CSV and its grayscale rendering, and checks that the CSV reloads to
the digest of the in-memory intensity image. The image may come from the
config file instead of the argument.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var source string
		if len(args) == 1 {
			source = args[0]
		}
		p, closer := mustPipeline(cmd, "analyze", source)
		defer closer()

		s, err := p.Run(cmd.Context())
		if err != nil {
			log.Fatal().Err(err).Str("op", "analyze").Msg("Analysis failed")
		}

		fmt.Println(s)
		fmt.Printf("Hidden image digest:    %s\n", s.HiddenDigest)
		fmt.Printf("Repaired image digest:  %s\n", s.Digest)
		fmt.Printf("Intensity digest:       %s\n", s.IntensityDigest)
		fmt.Printf("Round trip:             %s\n", s.Stage())
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

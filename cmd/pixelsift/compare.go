package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <image-a> <image-b>",
	Short: "Report whether two images have the same digest",
	Long: `Compares two images by the SHA-256 of their raw samples. Shapes are not
compared. Exits with status 2 when the images differ.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		p, closer := mustPipeline(cmd, "compare", args[0])
		defer closer()

		equal, a, b, err := p.Compare(args[0], args[1])
		if err != nil {
			log.Fatal().Err(err).Str("op", "compare").Msg("Comparison failed")
		}
		fmt.Println(a)
		fmt.Println(b)
		fmt.Println(equal)
		if !equal {
			closer()
			os.Exit(2)
		}
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

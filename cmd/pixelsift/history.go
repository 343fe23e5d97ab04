package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wbrown/pixelsift/ledger"
)

var historyFlags struct {
	Limit int
}

var historyCmd = &cobra.Command{
	Use:   "history <image>",
	Short: "List the digests recorded in the ledger for an image",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd, args[0])
		if err != nil {
			log.Fatal().Err(err).Str("op", "history").Msg("Failed to read configuration")
		}
		if cfg.LedgerPath == "" {
			log.Fatal().Str("op", "history").Msg("No ledger configured; pass --ledger")
		}

		l, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			log.Fatal().Err(err).Str("op", "history").Msg("Failed to open ledger")
		}
		defer l.Close()

		entries, err := l.History(cmd.Context(), args[0], historyFlags.Limit)
		if err != nil {
			log.Fatal().Err(err).Str("op", "history").Msg("Failed to read ledger")
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tRUN\tSTAGE\tSHAPE\tDIGEST\tARTIFACT")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%dx%d\t%s\t%s\n",
				e.CreatedAt.Format(time.DateTime), shortID(e.RunID), e.Stage,
				e.Height, e.Width, e.Channels, e.Digest, e.Artifact)
		}
		tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyFlags.Limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

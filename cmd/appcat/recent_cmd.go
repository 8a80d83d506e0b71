package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphi011/appcat/internal/config"
	"github.com/raphi011/appcat/internal/history"
	"github.com/raphi011/appcat/internal/log"
	"github.com/raphi011/appcat/internal/output"
	"github.com/raphi011/appcat/internal/storage"
	"github.com/raphi011/appcat/internal/ui/static"
)

func newRecentCmd() *cobra.Command {
	var (
		jsonOutput bool
		frequent   bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:     "recent",
		Short:   "Show recently launched applications",
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Example: `  appcat recent              # Most recent first
  appcat recent --frequent   # Most launched first
  appcat recent -n 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			out := output.FromContext(ctx)

			h, err := history.Load(storage.NewFileStore(cfg.DataDir))
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}

			entries := h.Recent(limit)
			if frequent {
				entries = h.Frequent(limit)
			}

			if jsonOutput {
				if entries == nil {
					entries = []history.Entry{}
				}
				return out.JSON(entries)
			}
			if len(entries) == 0 {
				log.FromContext(ctx).Println("No launches recorded yet")
				return nil
			}

			now := time.Now()
			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = static.HistoryTableRow(e, now)
			}
			out.Printf("%s", static.RenderTable(static.HistoryHeaders, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&frequent, "frequent", "f", false, "Sort by launch count")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of entries (0 = all)")

	return cmd
}

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/appcat/internal/config"
	"github.com/raphi011/appcat/internal/log"
)

func newSearchCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:     "search QUERY...",
		Short:   "Search applications, contacts and the web",
		GroupID: GroupCore,
		Args:    cobra.MinimumNArgs(1),
		Long: `Rank the catalog against a query.

Exact name matches come first, then names starting with or containing the
query, then fuzzy matches. Contacts and web, maps, video and store searches
follow. A query that is a math expression yields only its result.`,
		Example: `  appcat search fire          # Firefox, ...
  appcat search 2+2*3         # 8
  appcat search --json term   # Output as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			a := newApp(ctx, cfg)
			defer a.Close()

			snap, err := a.loadCatalog(ctx, loadOptions{})
			if err != nil {
				return err
			}

			engine := a.newEngine(ctx, a.ui, nil)
			engine.SetCatalog(snap.All)

			query := strings.Join(args, " ")
			results := engine.Search(query)
			log.FromContext(ctx).Debug("search: done", "query", query, "results", len(results))

			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}
			return printEntries(ctx, results, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (0 = all)")

	return cmd
}

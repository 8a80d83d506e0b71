package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/config"
	"github.com/raphi011/appcat/internal/log"
	"github.com/raphi011/appcat/internal/output"
	"github.com/raphi011/appcat/internal/ui/static"
	"github.com/raphi011/appcat/internal/ui/styles"
)

func newListCmd() *cobra.Command {
	var (
		refresh    bool
		jsonOutput bool
		all        bool
		mode       catalog.Mode
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List installed applications",
		Aliases: []string{"ls"},
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Long: `List the application catalog.

A fresh cached catalog is printed without scanning. Otherwise the
application directories are scanned, names are resolved and the result is
cached for the next run.

Hidden entries are left out and favorites come first unless --all is given.`,
		Example: `  appcat list                   # Cached or live catalog
  appcat list --refresh         # Drop the cache and rescan
  appcat list --focus           # Only focus entries
  appcat list --workspace work  # Only entries of the "work" workspace
  appcat list --json            # Output as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			a := newApp(ctx, cfg)
			defer a.Close()

			opts := loadOptions{force: refresh, mode: mode}
			if !all {
				opts.policy = a.rules
			}
			snap, err := a.loadCatalog(ctx, opts)
			if err != nil {
				return err
			}
			log.FromContext(ctx).Debug("list: done", "stage", snap.Stage, "entries", len(snap.Entries))

			return printEntries(ctx, snap.Entries, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "Clear the cache and rescan")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Ignore hidden, favorite, focus and workspace rules")
	cmd.Flags().BoolVar(&mode.Focus, "focus", false, "Only show focus entries")
	cmd.Flags().StringVarP(&mode.Workspace, "workspace", "w", "", "Only show entries of this workspace")
	cmd.MarkFlagsMutuallyExclusive("all", "focus")
	cmd.MarkFlagsMutuallyExclusive("all", "workspace")

	cmd.RegisterFlagCompletionFunc("workspace", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return completeWorkspaces(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func completeWorkspaces() []string {
	if cfg == nil {
		return nil
	}
	names := make([]string, 0, len(cfg.Rules.Workspaces))
	for name := range cfg.Rules.Workspaces {
		names = append(names, name)
	}
	return names
}

// printEntries writes entries as JSON, as a table on a terminal, or as
// tab-separated id and name lines when piped.
func printEntries(ctx context.Context, entries []catalog.Entry, jsonOutput bool) error {
	out := output.FromContext(ctx)

	if jsonOutput {
		if entries == nil {
			entries = []catalog.Entry{}
		}
		return out.JSON(entries)
	}

	if len(entries) == 0 {
		log.FromContext(ctx).Println("No applications found")
		return nil
	}

	if !styles.IsTerminal(os.Stdout) {
		for _, e := range entries {
			out.Printf("%s\t%s\n", e.ID, e.DisplayLabel())
		}
		return nil
	}

	out.Printf("%s", static.EntryTable(entries))
	return nil
}

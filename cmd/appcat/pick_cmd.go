package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/config"
	"github.com/raphi011/appcat/internal/dispatch"
	"github.com/raphi011/appcat/internal/loader"
	"github.com/raphi011/appcat/internal/log"
	"github.com/raphi011/appcat/internal/ui/picker"
)

func newPickCmd() *cobra.Command {
	var (
		refresh   bool
		printOnly bool
	)

	cmd := &cobra.Command{
		Use:     "pick",
		Short:   "Interactively search and launch",
		Aliases: []string{"p"},
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Long: `Open the interactive launcher.

Results update as you type. The list is shown from the cache right away and
refreshed while the picker is open. Enter launches the selected entry.

The picker draws on stderr, so with --print the chosen id can be captured
from stdout.`,
		Example: `  appcat pick                 # Pick and launch
  appcat pick --refresh       # Rescan before showing results
  id=$(appcat pick --print)   # Print the id instead of launching`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			a := newApp(ctx, cfg)
			defer a.Close()

			entry, ok, err := runPicker(ctx, a, refresh)
			if err != nil {
				return err
			}
			if !ok {
				log.FromContext(ctx).Debug("pick: cancelled")
				return nil
			}
			if printOnly {
				return printEntries(ctx, []catalog.Entry{entry}, false)
			}
			return launchEntry(ctx, a, entry)
		},
	}

	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "Clear the cache and rescan")
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the selection instead of launching it")

	return cmd
}

// runPicker drives the picker from a loader and a search engine. Both are
// scoped to the picker: nothing is delivered after it closes.
func runPicker(ctx context.Context, a *app, refresh bool) (catalog.Entry, bool, error) {
	scope, cancel := context.WithCancel(ctx)
	defer cancel()

	// Searches run one at a time, off the UI queue
	searches := dispatch.NewQueue("search", log.FromContext(ctx).Writer())
	defer searches.Close()

	bridge := picker.NewBridge()
	engine := a.newEngine(scope, searches, bridge.Results)
	l := a.newLoader(scope,
		loader.WithView(bridge),
		loader.WithPolicy(a.rules),
	)
	// The engine must hold a snapshot before the bridge asks it to rerun the query
	l.Subscribe(engine)
	l.Subscribe(bridge)

	model := picker.New(engine.SetQuery, a.cfg.UI.Height)
	return picker.Run(scope, model, bridge, func() { l.Load(refresh) })
}

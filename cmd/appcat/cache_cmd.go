package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphi011/appcat/internal/cache"
	"github.com/raphi011/appcat/internal/config"
	"github.com/raphi011/appcat/internal/log"
	"github.com/raphi011/appcat/internal/output"
	"github.com/raphi011/appcat/internal/ui/prompt"
	"github.com/raphi011/appcat/internal/ui/static"
	"github.com/raphi011/appcat/internal/ui/styles"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Short:   "Inspect or clear the catalog cache",
		GroupID: GroupConfig,
		Long: `Inspect or clear the catalog cache.

The cache holds the last catalog with its version and save time, and the
resolved application names.`,
		Example: `  appcat cache status
  appcat cache clear`,
	}

	cmd.AddCommand(newCacheStatusCmd())
	cmd.AddCommand(newCacheClearCmd())

	return cmd
}

// cacheStatus is the JSON form of 'appcat cache status'.
type cacheStatus struct {
	cache.Status
	Dir            string `json:"dir"`
	VersionCurrent bool   `json:"version_current"`
}

func newCacheStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show cache freshness and contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			out := output.FromContext(ctx)

			a := newApp(ctx, cfg)
			defer a.Close()

			st := cacheStatus{
				Status:         a.cache.Status(ctx),
				Dir:            a.store.Dir(),
				VersionCurrent: a.cache.IsVersionCurrent(ctx),
			}
			if jsonOutput {
				return out.JSON(st)
			}

			saved := "never"
			if !st.SavedAt.IsZero() {
				saved = fmt.Sprintf("%s (%s)", st.SavedAt.Format(time.DateTime), static.FormatAge(time.Since(st.SavedAt)))
			}
			out.Printf("%s", static.KeyValues([][2]string{
				{"dir", st.Dir},
				{"saved", saved},
				{"fresh", yesNo(st.Fresh)},
				{"version", string(st.Version)},
				{"current", yesNo(st.VersionCurrent)},
				{"entries", fmt.Sprint(st.Entries)},
				{"names", fmt.Sprint(st.Metadata)},
			}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the cached catalog and names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			if !yes && styles.IsTerminal(os.Stdin) {
				res, err := prompt.Confirm(ctx, os.Stderr, "Clear the catalog cache?")
				if err != nil {
					return err
				}
				if !res.Confirmed {
					return nil
				}
			}

			a := newApp(ctx, cfg)
			defer a.Close()

			a.cache.Clear(ctx)
			log.FromContext(ctx).Println("Cache cleared")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

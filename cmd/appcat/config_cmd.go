package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/appcat/internal/config"
	"github.com/raphi011/appcat/internal/log"
	"github.com/raphi011/appcat/internal/output"
	"github.com/raphi011/appcat/internal/policy"
	"github.com/raphi011/appcat/internal/ui/static"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage appcat configuration.

The config file lives at ~/.appcat/config.toml, or in $APPCAT_DIR when set.`,
		Example: `  appcat config init     # Create default config
  appcat config show     # Show effective config
  appcat config path     # Print the config file path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		Example: `  appcat config init       # Create config
  appcat config init -f    # Overwrite existing config
  appcat config init -s    # Print config to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if stdout {
				output.FromContext(ctx).Printf("%s", config.DefaultConfig())
				return nil
			}

			path, err := config.Init(force)
			if errors.Is(err, config.ErrExists) {
				return fmt.Errorf("%w (use -f to overwrite)", err)
			}
			if err != nil {
				return err
			}
			log.FromContext(ctx).Printf("Created config file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")
	cmd.Flags().BoolVarP(&stdout, "stdout", "s", false, "Print config to stdout")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		tomlOutput bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		Long: `Show effective configuration.

Values include defaults and environment overrides.`,
		Example: `  appcat config show          # Summary
  appcat config show --toml   # Full config as TOML
  appcat config show --json   # Full config as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			out := output.FromContext(ctx)

			switch {
			case jsonOutput:
				return out.JSON(cfg)
			case tomlOutput:
				s, err := cfg.Encode()
				if err != nil {
					return fmt.Errorf("encode config: %w", err)
				}
				out.Printf("%s", s)
				return nil
			}

			rules := policy.New(cfg.Rules)
			out.Printf("%s", static.KeyValues([][2]string{
				{"data_dir", cfg.DataDir},
				{"application_dirs", strings.Join(cfg.ApplicationDirs, ", ")},
				{"contacts_file", orNone(cfg.ContactsFile)},
				{"cache.ttl", cfg.Cache.TTL.String()},
				{"cache.memory_ttl", cfg.Cache.MemoryTTL.String()},
				{"cache.metadata_ttl", cfg.Cache.MetadataTTL.String()},
				{"cache.live_timeout", cfg.Cache.LiveTimeout.String()},
				{"cache.workers", fmt.Sprint(cfg.Cache.Workers)},
				{"search.debounce", cfg.Search.Debounce.String()},
				{"search.contact_limit", fmt.Sprint(cfg.Search.ContactLimit)},
				{"ui.theme", cfg.UI.Theme + " (" + cfg.UI.Mode + ")"},
				{"rules.hidden", fmt.Sprint(len(cfg.Rules.Hidden))},
				{"rules.favorites", fmt.Sprint(len(cfg.Rules.Favorites))},
				{"rules.workspaces", orNone(strings.Join(rules.Workspaces(), ", "))},
			}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&tomlOutput, "toml", false, "Output as TOML")
	cmd.MarkFlagsMutuallyExclusive("json", "toml")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			output.FromContext(cmd.Context()).Println(path)
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/appcat/internal/calc"
	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/config"
	"github.com/raphi011/appcat/internal/history"
	"github.com/raphi011/appcat/internal/launch"
	"github.com/raphi011/appcat/internal/log"
)

func newLaunchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "launch ID",
		Short:   "Launch an entry by id",
		GroupID: GroupCore,
		Args:    cobra.ExactArgs(1),
		Long: `Launch a catalog entry.

ID is a desktop id as printed by 'appcat list', or KIND:TEXT for the
generated entries: web:, maps:, video: and store: open a search, math:
copies the result of an expression and contact: copies a name.`,
		Example: `  appcat launch firefox.desktop
  appcat launch web:golang generics
  appcat launch math:2^10`,
		ValidArgsFunction: completeEntryIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			a := newApp(ctx, cfg)
			defer a.Close()

			e, err := resolveEntry(ctx, a, args[0])
			if err != nil {
				return err
			}
			return launchEntry(ctx, a, e)
		},
	}
	return cmd
}

// resolveEntry turns an id into a launchable entry without loading the
// whole catalog.
func resolveEntry(ctx context.Context, a *app, id string) (catalog.Entry, error) {
	if prefix, text, ok := strings.Cut(id, ":"); ok {
		if kind, ok := catalog.ParseKind(prefix); ok && kind.Synthetic() {
			return syntheticEntry(kind, text)
		}
	}

	target, err := a.provider.ResolveLaunchTarget(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return catalog.Entry{}, fmt.Errorf("no application %q (see 'appcat list')", id)
	}
	if err != nil {
		return catalog.Entry{}, err
	}

	e := catalog.Entry{ID: id, Kind: catalog.KindApp, Payload: target}
	if rec, ok := a.cache.Metadata(ctx)[id]; ok {
		e.Label = rec.Label
	} else if label, err := a.provider.ResolveLabel(ctx, id); err == nil {
		e.Label = label
	}
	return e, nil
}

func syntheticEntry(kind catalog.Kind, text string) (catalog.Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return catalog.Entry{}, fmt.Errorf("%s: missing text", kind)
	}
	e := catalog.Entry{ID: kind.String() + ":" + text, Kind: kind, Label: text, Payload: text}
	if kind == catalog.KindMath {
		value, ok := calc.New().Eval(text)
		if !ok {
			return catalog.Entry{}, fmt.Errorf("not a math expression: %q", text)
		}
		e.Payload = value
		e.Label = text + " = " + value
	}
	return e, nil
}

// launchEntry launches e and records application launches in the history.
func launchEntry(ctx context.Context, a *app, e catalog.Entry) error {
	l := log.FromContext(ctx)

	action, err := launch.New(a.cfg.Search.URLs).Launch(ctx, e)
	if err != nil {
		return err
	}

	switch action {
	case launch.ActionStarted:
		l.Printf("Started %s\n", e.DisplayLabel())
	case launch.ActionOpened:
		l.Printf("Opened %s\n", e.DisplayLabel())
	case launch.ActionCopied:
		l.Printf("Copied %q to clipboard\n", e.Payload)
	}

	if e.Kind != catalog.KindApp {
		return nil
	}
	if err := history.RecordLaunch(a.store, e.ID, e.Label); err != nil {
		// Launch succeeded; a lost history entry is not worth failing for
		l.Debug("history: record failed", "id", e.ID, "err", err)
	}
	return nil
}

// completeEntryIDs offers the ids of the cached catalog.
func completeEntryIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || cfg == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx := cmd.Context()
	a := newApp(ctx, cfg)
	defer a.Close()

	var ids []string
	for _, e := range a.cache.Load(ctx) {
		if strings.HasPrefix(e.ID, toComplete) {
			ids = append(ids, e.ID)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

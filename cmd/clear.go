// Package cmd implements the command-line interface for nezuko.
package cmd

import (
	"context"
	"fmt"

	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/icon"
	"github.com/nezuko-cli/nezuko/internal/cache"
	"github.com/nezuko-cli/nezuko/query"
	"github.com/nezuko-cli/nezuko/util"
	"github.com/nezuko-cli/nezuko/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

// clearTarget defines a resource eligible for cleanup.
type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	clear    func(ctx context.Context) error
}

func removeAll(path func() string) func(context.Context) error {
	return func(context.Context) error {
		return filesystem.API().RemoveAll(path())
	}
}

var clearTargets = []clearTarget{
	{"cache directory", "cache", mo.Some("c"), removeAll(where.Cache)},
	{"scraper cache", "scrapers", mo.None[string](), removeAll(cache.Dir)},
	{"episode mappings", "mappings", mo.Some("m"), removeAll(where.Mappings)},
	{"queries history", "queries", mo.Some("q"), func(context.Context) error { return query.Forget() }},
	{"watch history", "history", mo.Some("s"), func(ctx context.Context) error {
		store, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer util.Ignore(store.Close)
		return store.Clear(ctx)
	}},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if target.argShort.IsPresent() {
			clearCmd.Flags().BoolP(target.argLong, target.argShort.MustGet(), false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}

	clearCmd.Flags().BoolP("expired", "e", false, "remove only expired scraper cache entries")
}

// clearCmd manages the cleanup of cached and persisted application data.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached and persisted application data",
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		if lo.Must(cmd.Flags().GetBool("expired")) {
			anyCleared = true
			n := cache.Prune()
			fmt.Printf("%s removed %s\n", icon.Get(icon.Success), util.Quantify(n, "expired entry", "expired entries"))
		}

		for _, target := range clearTargets {
			if !lo.Must(cmd.Flags().GetBool(target.argLong)) {
				continue
			}

			anyCleared = true
			e := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), util.Capitalize(target.name)))
			err := target.clear(cmd.Context())
			e()
			handleErr(err)
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}

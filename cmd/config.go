package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/nezuko-cli/nezuko/color"
	"github.com/nezuko-cli/nezuko/config"
	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/icon"
	"github.com/nezuko-cli/nezuko/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

// field looks up a registered key and suggests the closest one when it is unknown.
func field(k string) config.Field {
	f, ok := config.Default[k]
	if ok {
		return f
	}

	closest := lo.MinBy(lo.Keys(config.Default), func(a, b string) bool {
		return levenshtein.Distance(k, a) < levenshtein.Distance(k, b)
	})
	handleErr(fmt.Errorf("unknown key %s, did you mean %s?", style.Fg(color.Red)(k), style.Fg(color.Yellow)(closest)))
	return config.Field{}
}

func sortedKeys() []string {
	keys := lo.Keys(config.Default)
	slices.Sort(keys)
	return keys
}

func completionConfigKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return sortedKeys(), cobra.ShellCompDirectiveNoFileComp
}

func printDone(format string, a ...any) {
	fmt.Printf("%s %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), fmt.Sprintf(format, a...))
}

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change settings",
}

func init() {
	configCmd.AddCommand(configInfoCmd)
	configInfoCmd.Flags().StringSliceP("key", "k", nil, "Only show these keys")
	configInfoCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	lo.Must0(configInfoCmd.RegisterFlagCompletionFunc("key", completionConfigKeys))
	configInfoCmd.SetOut(os.Stdout)
}

var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe settings with their current and default values",
	Run: func(cmd *cobra.Command, args []string) {
		keys := lo.Must(cmd.Flags().GetStringSlice("key"))
		if len(keys) == 0 {
			keys = sortedKeys()
		}

		fields := lo.Map(keys, func(k string, _ int) config.Field { return field(k) })

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(fields))
			return
		}

		blocks := lo.Map(fields, func(f config.Field, _ int) string { return f.Pretty() })
		cmd.Println(strings.Join(blocks, "\n\n"))
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

var configSetCmd = &cobra.Command{
	Use:               "set <key> <value...>",
	Short:             "Change a setting and save it",
	Long:              "Change a setting and save it. List settings take several values or a comma separated one.",
	Example:           "  nezuko config set engine.audio_mode dub\n  nezuko config set engine.providers allanime,hianime",
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		k := field(args[0]).Key
		v, err := config.Set(k, args[1:])
		handleErr(err)
		handleErr(config.Save())
		printDone("set %s to %s", style.Fg(color.Purple)(k), style.Fg(color.Yellow)(fmt.Sprint(v)))
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
}

var configGetCmd = &cobra.Command{
	Use:               "get <key>",
	Short:             "Print the current value of a setting",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(viper.Get(field(args[0]).Key))
	},
}

func init() {
	configCmd.AddCommand(configWriteCmd)
	configWriteCmd.Flags().BoolP("force", "f", false, "Replace an existing config file")
}

var configWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the current settings to the config file",
	Run: func(cmd *cobra.Command, args []string) {
		path := config.File()
		if lo.Must(cmd.Flags().GetBool("force")) {
			exists, err := filesystem.API().Exists(path)
			handleErr(err)
			if exists {
				handleErr(filesystem.API().Remove(path))
			}
		}

		handleErr(viper.SafeWriteConfigAs(path))
		printDone("wrote config to %s", path)
	},
}

func init() {
	configCmd.AddCommand(configDeleteCmd)
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete",
	Aliases: []string{"remove"},
	Short:   "Delete the config file",
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(filesystem.API().Remove(config.File()))
		printDone("deleted config")
	},
}

func init() {
	configCmd.AddCommand(configResetCmd)
	configResetCmd.Flags().BoolP("all", "a", false, "Reset every setting")
}

var configResetCmd = &cobra.Command{
	Use:               "reset [key...]",
	Short:             "Restore settings to their defaults",
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		all := lo.Must(cmd.Flags().GetBool("all"))
		if !all && len(args) == 0 {
			handleErr(cmd.Help())
			return
		}

		keys := lo.Map(args, func(k string, _ int) string { return field(k).Key })
		if all {
			keys = nil
		}
		handleErr(config.Reset(keys...))
		handleErr(config.Save())

		if all {
			printDone("reset all settings")
			return
		}
		for _, k := range keys {
			printDone("reset %s to %s", style.Fg(color.Purple)(k), style.Fg(color.Yellow)(fmt.Sprint(config.Default[k].Value)))
		}
	},
}

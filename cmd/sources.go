package cmd

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nezuko-cli/nezuko/color"
	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/icon"
	"github.com/nezuko-cli/nezuko/network"
	"github.com/nezuko-cli/nezuko/provider"
	"github.com/nezuko-cli/nezuko/source"
	"github.com/nezuko-cli/nezuko/style"
	"github.com/nezuko-cli/nezuko/util"
	"github.com/nezuko-cli/nezuko/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage primary providers and regional Lua sources",
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.AddCommand(sourcesListCmd, sourcesRemoveCmd, sourcesInstallCmd, sourcesGenCmd)

	sourcesListCmd.Flags().BoolP("raw", "r", false, "Print bare names, one per line")
	sourcesListCmd.Flags().BoolP("regional", "c", false, "Only list regional sources")
	sourcesListCmd.Flags().BoolP("builtin", "b", false, "Only list primary providers")
	sourcesListCmd.MarkFlagsMutuallyExclusive("regional", "builtin")
	sourcesListCmd.SetOut(os.Stdout)

	sourcesGenCmd.Flags().StringP("name", "n", "", "Display name of the new source")
	sourcesGenCmd.Flags().StringP("url", "u", "", "Base URL of the site it scrapes")
	lo.Must0(sourcesGenCmd.MarkFlagRequired("name"))
	lo.Must0(sourcesGenCmd.MarkFlagRequired("url"))
	sourcesGenCmd.SetOut(os.Stdout)
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List primary providers and installed regional sources",
	Run: func(cmd *cobra.Command, args []string) {
		type row struct{ name, kind, path string }

		var rows []row
		if !lo.Must(cmd.Flags().GetBool("regional")) {
			for _, p := range source.Primary {
				rows = append(rows, row{string(p), "primary", "builtin"})
			}
		}
		if !lo.Must(cmd.Flags().GetBool("builtin")) {
			for _, p := range provider.Customs() {
				rows = append(rows, row{p.Name, "regional", p.Path})
			}
		}

		if lo.Must(cmd.Flags().GetBool("raw")) {
			for _, r := range rows {
				cmd.Println(r.name)
			}
			return
		}

		tw := table.NewWriter()
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"Name", "Kind", "Location"})
		for _, r := range rows {
			tw.AppendRow(table.Row{style.Fg(color.Yellow)(r.name), r.kind, r.path})
		}
		cmd.Println(tw.Render())
	},
}

func completionRegionalNames(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return lo.Map(provider.Customs(), func(p *provider.Provider, _ int) string {
		return p.Name
	}), cobra.ShellCompDirectiveNoFileComp
}

var sourcesRemoveCmd = &cobra.Command{
	Use:               "remove <name...>",
	Short:             "Uninstall regional sources",
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completionRegionalNames,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range args {
			p, ok := provider.Get(name)
			if !ok {
				handleErr(fmt.Errorf("regional source %s is not installed", style.Fg(color.Red)(name)))
			}
			handleErr(filesystem.API().Remove(p.Path))
			fmt.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(name))
		}
	},
}

var sourcesInstallCmd = &cobra.Command{
	Use:   "install <url...>",
	Short: "Install or update regional sources from URLs",
	Long: `Download regional Lua sources into the sources directory.
A script is only replaced when its content changed and the new version compiles.`,
	Example: "  nezuko sources install https://example.com/sources/hindi.lua",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, rawURL := range args {
			erase := util.PrintErasable(fmt.Sprintf("%s Downloading %s...", icon.Get(icon.Progress), rawURL))
			name, changed, err := provider.Install(cmd.Context(), network.Client, rawURL)
			erase()
			handleErr(err)

			state := "is up to date"
			if changed {
				state = "installed"
			}
			fmt.Printf("%s %s %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(name), state)
		}
	},
}

func author() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "Anonymous"
}

var sourcesGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Scaffold a regional Lua source",
	Long:  "Write a regional Lua source skeleton defining the search, episodes and stream functions.",
	Run: func(cmd *cobra.Command, args []string) {
		tmpl := template.Must(template.New("source").Funcs(template.FuncMap{
			"repeat": strings.Repeat,
			"plus":   func(a, b int) int { return a + b },
			"max":    util.Max[int],
		}).Parse(constant.SourceTemplate))

		name := lo.Must(cmd.Flags().GetString("name"))
		target := filepath.Join(where.Sources(), util.SanitizeFilename(name)+provider.CustomProviderExtension)
		f, err := filesystem.API().Create(target)
		handleErr(err)
		defer util.Ignore(f.Close)

		handleErr(tmpl.Execute(f, map[string]string{
			"Name":               name,
			"URL":                lo.Must(cmd.Flags().GetString("url")),
			"Author":             author(),
			"SearchRegionalFn":   constant.SearchRegionalFn,
			"RegionalEpisodesFn": constant.RegionalEpisodesFn,
			"RegionalStreamFn":   constant.RegionalStreamFn,
		}))
		cmd.Println(target)
	},
}

package cmd

import (
	"os"
	"strings"

	"github.com/nezuko-cli/nezuko/color"
	"github.com/nezuko-cli/nezuko/style"
	"github.com/nezuko-cli/nezuko/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type location struct {
	flag  string
	short string
	path  func() string
	// listed locations are printed when no flag is given
	listed bool
}

var locations = []location{
	{"config", "c", where.Config, true},
	{"sources", "s", where.Sources, true},
	{"logs", "l", where.Logs, true},
	{"history", "H", where.Database, true},
	{"cache", "", where.Cache, false},
	{"mappings", "", where.Mappings, false},
	{"temp", "", where.Temp, false},
}

func init() {
	rootCmd.AddCommand(whereCmd)

	for _, l := range locations {
		whereCmd.Flags().BoolP(l.flag, l.short, false, "Print the "+l.flag+" path")
		if !l.listed {
			lo.Must0(whereCmd.Flags().MarkHidden(l.flag))
		}
	}
	whereCmd.MarkFlagsMutuallyExclusive(lo.Map(locations, func(l location, _ int) string { return l.flag })...)
	whereCmd.SetOut(os.Stdout)
}

var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Print where nezuko keeps its files",
	Run: func(cmd *cobra.Command, args []string) {
		if l, ok := lo.Find(locations, func(l location) bool {
			return lo.Must(cmd.Flags().GetBool(l.flag))
		}); ok {
			cmd.Println(l.path())
			return
		}

		header := style.New().Bold(true).Foreground(color.HiPurple).Render
		blocks := lo.FilterMap(locations, func(l location, _ int) (string, bool) {
			title := header(strings.ToUpper(l.flag[:1])+l.flag[1:]+"?") + " " + style.Fg(color.Yellow)("--"+l.flag)
			return title + "\n" + l.path(), l.listed
		})
		cmd.Println(strings.Join(blocks, "\n\n"))
	},
}

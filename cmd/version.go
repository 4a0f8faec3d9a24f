package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/nezuko-cli/nezuko/color"
	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/style"
	"github.com/nezuko-cli/nezuko/version"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Only print the version number")
	versionCmd.SetOut(os.Stdout)
}

func buildInfo() [][2]string {
	return [][2]string{
		{"Version", constant.Version},
		{"Revision", constant.Revision},
		{"Built at", strings.TrimSpace(constant.BuiltAt)},
		{"Built by", constant.BuiltBy},
		{"Platform", runtime.GOOS + "/" + runtime.GOARCH},
		{"Go", runtime.Version()},
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		defer version.Notify()

		cmd.Println(style.Fg(color.Purple)(constant.Nezuko))
		cmd.Println()
		for _, row := range buildInfo() {
			cmd.Printf("  %s %s\n", style.Faint(fmt.Sprintf("%-10s", row[0])), style.Bold(row[1]))
		}
	},
}

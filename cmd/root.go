// Package cmd wires the nezuko command line.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/nezuko-cli/nezuko/color"
	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/icon"
	"github.com/nezuko-cli/nezuko/key"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/source"
	"github.com/nezuko-cli/nezuko/style"
	"github.com/nezuko-cli/nezuko/util"
	"github.com/nezuko-cli/nezuko/version"
	"github.com/nezuko-cli/nezuko/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   constant.Nezuko,
	Short: "Resolve anime titles to playable streams across many providers",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    resolve anime titles to playable streams across many providers"),
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("version")) {
			versionCmd.Run(versionCmd, args)
			return
		}
		handleErr(cmd.Help())
	},
}

func completeWith(values func() []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values(), cobra.ShellCompDirectiveNoFileComp
	}
}

// persistentFlag binds a persistent flag to a config key so it overrides the file.
func persistentFlag(name, k string, complete func() []string) {
	lo.Must0(viper.BindPFlag(k, rootCmd.PersistentFlags().Lookup(name)))
	lo.Must0(rootCmd.RegisterFlagCompletionFunc(name, completeWith(complete)))
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Icons variant")
	persistentFlag("icons", key.IconsVariant, icon.AvailableVariants)

	rootCmd.PersistentFlags().StringSliceP("providers", "P", nil, "Primary providers to search, in priority order")
	persistentFlag("providers", key.EngineProviders, func() []string {
		return lo.Map(source.Primary, func(p source.ProviderID, _ int) string { return string(p) })
	})

	help := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		help(cmd, args)
		version.Notify()
	})

	// sockets left behind by a previous run
	go func() { _ = util.Delete(where.Temp()) }()
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		handleErr(err)
	}
}

func handleErr(err error) {
	if err == nil {
		return
	}
	log.Error(err)
	fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.TrimSpace(err.Error()))
	os.Exit(1)
}

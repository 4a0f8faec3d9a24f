package cmd

import (
	"os"

	"github.com/nezuko-cli/nezuko/color"
	"github.com/nezuko-cli/nezuko/config"
	"github.com/nezuko-cli/nezuko/style"
	"github.com/nezuko-cli/nezuko/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Only list variables that are set")
	envCmd.Flags().BoolP("unset-only", "u", false, "Only list variables that are unset")
	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
	envCmd.SetOut(os.Stdout)
}

// envNames lists every variable nezuko reads, sorted.
func envNames() []string {
	names := lo.MapToSlice(config.Default, func(_ string, f config.Field) string { return f.Env() })
	names = append(names, where.EnvConfigPath)
	slices.Sort(names)
	return names
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables nezuko reads",
	Run: func(cmd *cobra.Command, args []string) {
		setOnly := lo.Must(cmd.Flags().GetBool("set-only"))
		unsetOnly := lo.Must(cmd.Flags().GetBool("unset-only"))
		name := style.New().Bold(true).Foreground(color.Purple).Render

		for _, env := range envNames() {
			value, present := os.LookupEnv(env)
			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			shown := style.Fg(color.Red)("unset")
			if present {
				shown = style.Fg(color.Green)(value)
			}
			cmd.Printf("%s=%s\n", name(env), shown)
		}
	},
}

package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/nezuko-cli/nezuko/provider/custom"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("search", "s", "", "Run the search function with this query")
	runCmd.Flags().StringP("episodes", "e", "", "Run the episodes function with this result id")
	runCmd.Flags().String("stream", "", "Run the stream function with this episode id")
	runCmd.MarkFlagsMutuallyExclusive("search", "episodes", "stream")
	runCmd.SetOut(os.Stdout)
}

// runCmd loads a regional Lua source for development and debugging.
var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Load a regional Lua source and call one of its functions",
	Long: `Load a regional Lua source and check that it defines the required functions.
With --search, --episodes or --stream the matching function is called and its result printed as JSON.`,
	Args:    cobra.ExactArgs(1),
	Example: "  nezuko run ./hindi.lua --search frieren",
	Run: func(cmd *cobra.Command, args []string) {
		src, err := custom.LoadSource(args[0])
		handleErr(err)
		defer src.Close()

		var (
			ctx    = context.Background()
			result any
			enc    = json.NewEncoder(cmd.OutOrStdout())
		)
		enc.SetIndent("", "  ")

		switch {
		case cmd.Flags().Changed("search"):
			result, err = src.Search(ctx, lo.Must(cmd.Flags().GetString("search")))
		case cmd.Flags().Changed("episodes"):
			result, err = src.Episodes(ctx, lo.Must(cmd.Flags().GetString("episodes")))
		case cmd.Flags().Changed("stream"):
			result, err = src.Stream(ctx, lo.Must(cmd.Flags().GetString("stream")))
		default:
			cmd.Printf("%s loaded\n", src)
			return
		}
		handleErr(err)
		handleErr(enc.Encode(result))
	},
}

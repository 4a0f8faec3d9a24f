package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nezuko-cli/nezuko/icon"
	"github.com/nezuko-cli/nezuko/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "l", 20, "Number of entries to show")
	historyCmd.Flags().IntP("remove", "r", 0, "Forget the positions saved for this anilist id")
	historyCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	historyCmd.SetOut(os.Stdout)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently watched episodes",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		store, err := openHistory(ctx)
		handleErr(err)
		defer util.Ignore(store.Close)

		if id := lo.Must(cmd.Flags().GetInt("remove")); id > 0 {
			handleErr(store.Remove(ctx, id))
			fmt.Printf("%s removed history of %d\n", icon.Get(icon.Success), id)
			return
		}

		positions, err := store.Recent(ctx, lo.Must(cmd.Flags().GetInt("limit")))
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(positions))
			return
		}

		if len(positions) == 0 {
			cmd.Println("nothing watched yet")
			return
		}

		tw := table.NewWriter()
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"ID", "Title", "Episode", "Progress", "Watched"})
		for _, p := range positions {
			progress := fmt.Sprintf("%ds", int(p.Seconds))
			if p.Duration > 0 {
				progress = fmt.Sprintf("%d%%", int(p.Seconds/p.Duration*100))
			}
			tw.AppendRow(table.Row{p.MediaID, p.Title, p.Episode, progress, p.UpdatedAt.Local().Format("2006-01-02 15:04")})
		}
		cmd.Println(tw.Render())
	},
}

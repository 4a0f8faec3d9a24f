package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/nezuko-cli/nezuko/catalog"
	"github.com/nezuko-cli/nezuko/color"
	"github.com/nezuko-cli/nezuko/icon"
	"github.com/nezuko-cli/nezuko/key"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/query"
	"github.com/nezuko-cli/nezuko/style"
	"github.com/nezuko-cli/nezuko/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("year", "y", 0, "Filter by season year")
	searchCmd.Flags().StringP("season", "s", "", "Filter by season (WINTER, SPRING, SUMMER, FALL)")
	searchCmd.Flags().StringP("format", "f", "", "Filter by format (TV, MOVIE, OVA, ONA, SPECIAL)")
	searchCmd.Flags().String("status", "", "Filter by airing status")
	searchCmd.Flags().StringSliceP("genre", "g", []string{}, "Filter by genre")
	searchCmd.Flags().String("sort", "", "Sort order, TRENDING_DESC by default")
	searchCmd.Flags().IntP("page", "p", 1, "Result page")
	searchCmd.Flags().IntP("limit", "l", 0, "Results per page")
	searchCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")

	lo.Must0(viper.BindPFlag(key.SearchLimit, searchCmd.Flags().Lookup("limit")))
	searchCmd.SetOut(os.Stdout)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the anime catalog",
	Long:  "Search the anime catalog. Without a query the trending titles are listed.",
	Example: "  nezuko search frieren\n" +
		"  nezuko search --year 2023 --format TV",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		q := strings.TrimSpace(strings.Join(args, " "))

		filters := catalog.Filters{
			Search:  q,
			Year:    lo.Must(cmd.Flags().GetInt("year")),
			Season:  strings.ToUpper(lo.Must(cmd.Flags().GetString("season"))),
			Format:  strings.ToUpper(lo.Must(cmd.Flags().GetString("format"))),
			Status:  strings.ToUpper(lo.Must(cmd.Flags().GetString("status"))),
			Genres:  lo.Must(cmd.Flags().GetStringSlice("genre")),
			Sort:    strings.ToUpper(lo.Must(cmd.Flags().GetString("sort"))),
			Page:    lo.Must(cmd.Flags().GetInt("page")),
			PerPage: viper.GetInt(key.SearchLimit),
		}

		erase := util.PrintErasable(fmt.Sprintf("%s Searching...", icon.Get(icon.Progress)))
		page, err := catalog.New(newGateway()).Search(ctx, filters)
		erase()
		handleErr(err)

		if q != "" && len(page.Media) > 0 {
			if err := query.Remember(q, 1); err != nil {
				log.Warn(err)
			}
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(page.Media))
			return
		}

		if len(page.Media) == 0 {
			cmd.Printf("%s nothing found\n", icon.Get(icon.Warn))
			if viper.GetBool(key.SearchShowQuerySuggestions) && q != "" {
				suggestion, ok := lo.Find(query.SuggestMany(q), func(s string) bool {
					return s != strings.ToLower(q)
				})
				if ok {
					cmd.Printf("did you mean %s?\n", style.Fg(color.Yellow)(suggestion))
				}
			}
			return
		}

		cmd.Println(renderMedia(page.Media))
		if page.HasNext {
			cmd.Println(style.Faint(fmt.Sprintf("more results with --page %d", filters.Page+1)))
		}
	},
}

func renderMedia(media []*catalog.Media) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Title", "Format", "Episodes", "Year", "Score", "Status"})

	for _, m := range media {
		episodes := "?"
		if n, ok := m.EpisodeCount().Get(); ok {
			episodes = strconv.Itoa(n)
		}

		year := ""
		if m.SeasonYear > 0 {
			year = strconv.Itoa(m.SeasonYear)
		}

		score := ""
		if m.AverageScore > 0 {
			score = strconv.Itoa(m.AverageScore) + "%"
		}

		tw.AppendRow(table.Row{m.ID, m.Name(), m.Format, episodes, year, score, m.Status})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 48},
		{Number: 4, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	return tw.Render()
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/nezuko-cli/nezuko/catalog"
	"github.com/nezuko-cli/nezuko/color"
	"github.com/nezuko-cli/nezuko/icon"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/regional"
	"github.com/nezuko-cli/nezuko/session"
	"github.com/nezuko-cli/nezuko/source"
	"github.com/nezuko-cli/nezuko/style"
	"github.com/nezuko-cli/nezuko/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// resolveOutput is what resolve --json prints.
type resolveOutput struct {
	Session  string            `json:"session" jsonschema:"description=Identifier of the resolution session."`
	Context  session.Context   `json:"context" jsonschema:"enum=global,enum=regional"`
	Mode     source.Audio      `json:"mode" jsonschema:"enum=sub,enum=dub"`
	Media    *catalog.Media    `json:"media"`
	Expected int               `json:"expected_episodes" jsonschema:"description=Episode count the matcher checked candidates against. Zero when unknown."`
	Variants []source.Variant  `json:"variants"`
	Selected *source.Variant   `json:"selected,omitempty" jsonschema:"description=Variant whose episodes are listed."`
	Episodes []*source.Episode `json:"episodes"`
	Regional regional.Result   `json:"regional"`
}

func outputFrom(snap session.Snapshot) resolveOutput {
	out := resolveOutput{
		Session:  snap.ID,
		Context:  snap.Context,
		Mode:     snap.Mode,
		Media:    snap.Media,
		Expected: snap.Expected,
		Variants: snap.Variants,
		Episodes: snap.Episodes,
		Regional: snap.Regional,
	}
	if v, ok := snap.Selected.Get(); ok {
		out.Selected = &v
	}
	return out
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	addAudioFlag(resolveCmd)
	resolveCmd.Flags().BoolP("regional", "r", false, "Resolve against the regional sources only")
	resolveCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	resolveCmd.Flags().Bool("schema", false, "Print the JSON schema of the --json output and exit")
	resolveCmd.Flags().IntP("episodes", "e", 12, "Number of episodes to list, 0 for all")

	resolveCmd.SetOut(os.Stdout)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <anilist-id>",
	Short: "Resolve a title to its servers and episodes",
	Long: `Search every provider for a title, build the list of servers and audio tracks,
and list the episodes of the first server that has any.`,
	Example: "  nezuko resolve 154587\n" +
		"  nezuko resolve 154587 --audio dub --json",
	Args: func(cmd *cobra.Command, args []string) error {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			handleErr(printSchema(cmd))
			return
		}

		ctx := context.Background()
		id, err := parseMediaID(args[0])
		handleErr(err)

		e, err := newEngine(true)
		handleErr(err)

		erase := util.PrintErasable(fmt.Sprintf("%s Fetching media %d...", icon.Get(icon.Progress), id))
		media, err := e.catalog.GetByID(ctx, id)
		erase()
		handleErr(err)

		store, err := openHistory(ctx)
		if err != nil {
			log.Warn(err)
		} else {
			defer util.Ignore(store.Close)
		}

		mode, err := audioMode(ctx, cmd, store, id)
		handleErr(err)

		s := e.session(mode)
		erase = util.PrintErasable(fmt.Sprintf("%s Resolving %s...", icon.Get(icon.Search), media.Name()))
		if lo.Must(cmd.Flags().GetBool("regional")) {
			err = s.ResolveRegional(ctx, media)
		} else {
			err = s.Resolve(ctx, media)
		}
		s.Wait()
		erase()

		if errors.Is(err, session.ErrNoSources) {
			handleErr(fmt.Errorf("%s: %w", media.Name(), err))
		}
		handleErr(err)

		out := outputFrom(s.Snapshot())
		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(out))
			return
		}

		printResolved(cmd, out, lo.Must(cmd.Flags().GetInt("episodes")))
	},
}

func printSchema(cmd *cobra.Command) error {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	reflector.Namer = func(t reflect.Type) string {
		name := t.Name()
		switch strings.ToLower(name) {
		case "media", "episode", "variant", "result", "date":
			return t.PkgPath()[strings.LastIndex(t.PkgPath(), "/")+1:] + "." + name
		}
		return name
	}

	return json.NewEncoder(cmd.OutOrStdout()).Encode(reflector.Reflect(&resolveOutput{}))
}

func terminalWidth() int {
	width, _, err := util.TerminalSize()
	if err != nil || width <= 0 {
		return 80
	}
	return util.Min(width, 100)
}

func printResolved(cmd *cobra.Command, out resolveOutput, limit int) {
	width := terminalWidth()
	header := style.New().Bold(true).Foreground(color.HiPurple).Render

	cmd.Println(style.Title(out.Media.Name()))
	if out.Media.Title.Romaji != "" && out.Media.Title.Romaji != out.Media.Name() {
		cmd.Println(style.Faint(out.Media.Title.Romaji))
	}

	expected := "unknown"
	if out.Expected > 0 {
		expected = strconv.Itoa(out.Expected)
	}
	cmd.Printf("%s %s  %s %s  %s %s\n",
		style.Faint("context"), out.Context,
		style.Faint("audio"), style.Variant(string(out.Mode), string(out.Mode)),
		style.Faint("expected episodes"), expected,
	)
	cmd.Println()

	cmd.Println(header("Servers"))
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"", "Server", "Audio", "ID"})
	for _, v := range out.Variants {
		mark := ""
		if out.Selected != nil && out.Selected.ID == v.ID {
			mark = icon.Get(icon.Play)
		}
		tw.AppendRow(table.Row{mark, style.Variant(string(v.Type), v.Name), v.Type, v.ID})
	}
	cmd.Println(tw.Render())

	if out.Regional.Available {
		cmd.Printf("%s regional audio available: %s\n", icon.Get(icon.Multi), strings.Join(out.Regional.Languages, ", "))
	}
	cmd.Println()

	cmd.Println(header(fmt.Sprintf("Episodes (%s)", util.Quantify(len(out.Episodes), "episode", "episodes"))))
	episodes := out.Episodes
	if limit > 0 && len(episodes) > limit {
		episodes = episodes[:limit]
	}

	for _, ep := range episodes {
		line := ep.String()
		if ep.IsFiller {
			line += " " + style.Fg(color.Yellow)("filler")
		}
		cmd.Println(style.Bold(line))

		if ep.Description != "" {
			desc := wordwrap.String(ep.Description, width-4)
			cmd.Println(style.Faint(indent.String(desc, 4)))
		}
	}

	if rest := len(out.Episodes) - len(episodes); rest > 0 {
		cmd.Println(style.Faint(fmt.Sprintf("... and %d more, use --episodes 0 to list all", rest)))
	}
}

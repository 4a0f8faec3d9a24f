package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/nezuko-cli/nezuko/aniskip"
	"github.com/nezuko-cli/nezuko/catalog"
	"github.com/nezuko-cli/nezuko/color"
	"github.com/nezuko-cli/nezuko/fallback"
	"github.com/nezuko-cli/nezuko/history"
	"github.com/nezuko-cli/nezuko/icon"
	"github.com/nezuko-cli/nezuko/key"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/network"
	"github.com/nezuko-cli/nezuko/player"
	"github.com/nezuko-cli/nezuko/session"
	"github.com/nezuko-cli/nezuko/source"
	"github.com/nezuko-cli/nezuko/style"
	"github.com/nezuko-cli/nezuko/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(watchCmd)

	addAudioFlag(watchCmd)
	watchCmd.Flags().IntP("episode", "e", 0, "Episode number to start with")
	watchCmd.Flags().BoolP("regional", "r", false, "Watch with regional audio")
	watchCmd.Flags().BoolP("pick-server", "s", false, "Choose the server instead of using the first one")
	watchCmd.Flags().BoolP("from-start", "S", false, "Ignore the saved position")
}

var watchCmd = &cobra.Command{
	Use:   "watch <anilist-id>",
	Short: "Resolve a title and play it",
	Long: `Resolve a title, pick an episode and play it in the configured player.
When a server fails during playback the next one takes over at the same position.`,
	Example: "  nezuko watch 154587 --episode 3",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		id, err := parseMediaID(args[0])
		handleErr(err)

		e, err := newEngine(true)
		handleErr(err)

		media, err := e.catalog.GetByID(ctx, id)
		handleErr(err)

		store, err := openHistory(ctx)
		if err != nil {
			log.Warn(err)
			store = nil
		} else {
			defer util.Ignore(store.Close)
		}

		mode, err := audioMode(ctx, cmd, store, id)
		handleErr(err)

		CheckDependencies(viper.GetString(key.Player))
		p, err := player.New(viper.GetString(key.Player))
		handleErr(err)
		defer util.Ignore(p.Close)

		w := &watcher{
			ctx:     ctx,
			media:   media,
			session: e.session(mode),
			ctrl:    fallback.New(),
			player:  p,
			store:   store,
		}

		erase := util.PrintErasable(fmt.Sprintf("%s Resolving %s...", icon.Get(icon.Search), media.Name()))
		if lo.Must(cmd.Flags().GetBool("regional")) {
			err = w.session.ResolveRegional(ctx, media)
		} else {
			err = w.session.Resolve(ctx, media)
		}
		erase()
		handleErr(err)

		handleErr(w.chooseServer(lo.Must(cmd.Flags().GetBool("pick-server"))))

		number := lo.Must(cmd.Flags().GetInt("episode"))
		if number <= 0 {
			number, err = w.chooseEpisode()
			if errors.Is(err, terminal.InterruptErr) {
				return
			}
			handleErr(err)
		}

		fromStart := lo.Must(cmd.Flags().GetBool("from-start"))
		for {
			start := 0.0
			if !fromStart {
				start = w.resumeAt(number)
			}

			done, err := w.watch(number, start)
			if errors.Is(err, fallback.ErrAllFailed) {
				handleErr(fmt.Errorf("episode %d: %w", number, err))
			}
			handleErr(err)

			if !done || !w.hasEpisode(number+1) {
				return
			}

			next := true
			err = survey.AskOne(&survey.Confirm{
				Message: fmt.Sprintf("Play episode %d?", number+1),
				Default: true,
			}, &next)
			if errors.Is(err, terminal.InterruptErr) || !next {
				return
			}
			handleErr(err)

			number++
			fromStart = true
		}
	},
}

type outcome int

const (
	stopped outcome = iota
	ended
	failed
)

// playbackSession is the part of *session.Session a watcher drives.
type playbackSession interface {
	Resolve(ctx context.Context, media *catalog.Media) error
	ResolveRegional(ctx context.Context, media *catalog.Media) error
	Snapshot() session.Snapshot
	ChangeVariant(ctx context.Context, id string) error
	Stream(ctx context.Context, ep *source.Episode) (*source.Stream, error)
	Mode() source.Audio
}

// watcher plays the episodes of one session and drives the fallback
// controller from the player's signals.
type watcher struct {
	ctx     context.Context
	media   *catalog.Media
	session playbackSession
	ctrl    *fallback.Controller
	player  player.Player
	store   *history.Store
}

func (w *watcher) chooseServer(pick bool) error {
	snap := w.session.Snapshot()
	if len(snap.Variants) == 0 {
		return session.ErrNoSources
	}

	w.ctrl.SetVariants(snap.Variants)

	target, _ := snap.Selected.Get()
	if w.store != nil {
		pref, err := w.store.Preference(w.ctx, w.media.ID)
		if err != nil {
			log.Warn(err)
		} else if p, ok := pref.Get(); ok && p.Variant != "" {
			if v, found := lo.Find(snap.Variants, func(v source.Variant) bool { return v.ID == p.Variant }); found {
				target = v
			}
		}
	}

	if pick && len(snap.Variants) > 1 {
		names := lo.Map(snap.Variants, func(v source.Variant, _ int) string {
			return fmt.Sprintf("%s (%s)", v.Name, v.Type)
		})
		_, def, _ := lo.FindIndexOf(snap.Variants, func(v source.Variant) bool { return v.ID == target.ID })

		var idx int
		err := survey.AskOne(&survey.Select{
			Message: "Server",
			Options: names,
			Default: lo.Ternary(def >= 0, def, 0),
		}, &idx)
		if err != nil {
			return err
		}
		target = snap.Variants[idx]
	}

	if current, ok := snap.Selected.Get(); !ok || current.ID != target.ID {
		if err := w.session.ChangeVariant(w.ctx, target.ID); err != nil {
			return err
		}
	}

	return w.ctrl.Select(target.ID)
}

func (w *watcher) episodes() []*source.Episode {
	return w.session.Snapshot().Episodes
}

func (w *watcher) episode(number int) (*source.Episode, bool) {
	return lo.Find(w.episodes(), func(ep *source.Episode) bool { return ep.Number == number })
}

func (w *watcher) hasEpisode(number int) bool {
	_, ok := w.episode(number)
	return ok
}

// chooseEpisode asks for an episode, preselecting the first one not
// watched to the end.
func (w *watcher) chooseEpisode() (int, error) {
	episodes := w.episodes()
	if len(episodes) == 0 {
		return 0, fmt.Errorf("%s: no episodes", w.media.Name())
	}

	watched := make(map[int]history.Position)
	if w.store != nil {
		positions, err := w.store.Positions(w.ctx, w.media.ID)
		if err != nil {
			log.Warn(err)
		}
		for _, p := range positions {
			watched[p.Episode] = p
		}
	}

	def := 0
	options := make([]string, len(episodes))
	for i, ep := range episodes {
		options[i] = ep.String()
		if p, ok := watched[ep.Number]; ok {
			if p.Finished() {
				options[i] += " " + style.Fg(color.Green)(icon.Get(icon.Success))
				if i+1 < len(episodes) {
					def = i + 1
				}
			} else {
				options[i] += " " + style.Faint(p.String())
				def = i
			}
		}
	}

	var idx int
	err := survey.AskOne(&survey.Select{
		Message:  w.media.Name(),
		Options:  options,
		Default:  def,
		PageSize: 15,
	}, &idx)
	if err != nil {
		return 0, err
	}
	return episodes[idx].Number, nil
}

func (w *watcher) resumeAt(number int) float64 {
	if w.store == nil || !viper.GetBool(key.HistoryResume) {
		return 0
	}

	pos, err := w.store.Position(w.ctx, w.media.ID, number)
	if err != nil {
		log.Warn(err)
		return 0
	}
	return pos.OrEmpty().Resume()
}

// watch plays one episode, switching servers on failure. It reports
// whether the episode was watched to the end.
func (w *watcher) watch(number int, start float64) (bool, error) {
	w.ctrl.ChangeEpisode(start)

	for {
		var result outcome
		ep, ok := w.episode(number)
		if ok {
			var err error
			if result, err = w.attempt(ep, start); err != nil {
				return false, err
			}
		} else {
			log.Warnf("episode %d missing on the selected server", number)
			result = failed
		}

		switch result {
		case ended:
			w.savePreference()
			return true, nil
		case stopped:
			w.savePreference()
			return false, nil
		}

		current, _ := w.ctrl.Selected()
		decision, err := w.ctrl.Fail()
		if err != nil {
			return false, err
		}

		fmt.Printf("%s %s failed, switching to %s\n",
			icon.Get(icon.Warn),
			style.Fg(color.Red)(current.Name),
			style.Variant(string(decision.Next.Type), decision.Next.Name),
		)

		if err := w.session.ChangeVariant(w.ctx, decision.Next.ID); err != nil {
			return false, err
		}
		start = decision.Position
	}
}

func (w *watcher) skipper(stream *source.Stream, ep *source.Episode) *player.Skipper {
	if !viper.GetBool(key.PlayerSkip) {
		return player.NewSkipper(w.player, nil, nil)
	}

	var times *aniskip.SkipTimes
	if !stream.Intro.Valid() || !stream.Outro.Valid() {
		var err error
		times, err = aniskip.GetSkipTimes(w.ctx, network.Client, w.media.IDMal, ep.Number)
		if err != nil {
			log.Warn(err)
		}
	}

	return player.NewSkipper(w.player, stream, times)
}

// attempt plays ep on the selected server once.
func (w *watcher) attempt(ep *source.Episode, start float64) (outcome, error) {
	erase := util.PrintErasable(fmt.Sprintf("%s Loading %s...", icon.Get(icon.Progress), ep))
	stream, err := w.session.Stream(w.ctx, ep)
	erase()
	if err != nil {
		if w.ctx.Err() != nil {
			return stopped, nil
		}
		log.Warn(err)
		return failed, nil
	}

	skip := w.skipper(stream, ep)
	title := fmt.Sprintf("%s - %s", w.media.Name(), ep)

	signals, err := w.player.Play(w.ctx, player.FromStream(stream, title, start))
	if err != nil {
		return stopped, err
	}

	w.ctrl.Resolved()
	fmt.Printf("%s %s\n", icon.Get(icon.Play), title)

	if !skip.Empty() {
		if err := w.player.SetChapters(skip.Chapters()); err != nil {
			log.Warn(err)
		}
	}

	saver := w.positionSaver(ep)
	result := stopped
	for sig := range signals {
		switch sig.Kind {
		case player.TimeUpdate:
			w.ctrl.TimeUpdate(sig.Seconds)
			saver.update(sig.Seconds)
			if _, err := skip.Check(sig.Seconds); err != nil {
				log.Warn(err)
			}
		case player.Duration:
			saver.duration = sig.Seconds
		case player.Ended:
			result = ended
			w.closePlayer()
		case player.Error:
			log.Warnf("playback of %s failed: %v", ep, sig.Err)
			result = failed
			w.closePlayer()
		}
	}

	if result != failed {
		saver.flush()
	}
	return result, nil
}

// closePlayer stops the idle player once the file is over so the signal
// stream drains.
func (w *watcher) closePlayer() {
	if err := w.player.Close(); err != nil {
		log.Warn(err)
	}
}

func (w *watcher) savePreference() {
	if w.store == nil {
		return
	}

	selected, _ := w.ctrl.Selected()
	err := w.store.SavePreference(w.ctx, history.Preference{
		MediaID: w.media.ID,
		Mode:    w.session.Mode(),
		Variant: selected.ID,
	})
	if err != nil {
		log.Warn(err)
	}
}

// saveInterval is how often the playback position is written while playing.
const saveInterval = 10 * time.Second

type positionSaver struct {
	w        *watcher
	episode  *source.Episode
	seconds  float64
	duration float64
	saved    time.Time
	enabled  bool
}

func (w *watcher) positionSaver(ep *source.Episode) *positionSaver {
	return &positionSaver{
		w:       w,
		episode: ep,
		enabled: w.store != nil && viper.GetBool(key.HistorySavePosition),
	}
}

func (s *positionSaver) update(seconds float64) {
	s.seconds = seconds
	if time.Since(s.saved) >= saveInterval {
		s.flush()
	}
}

func (s *positionSaver) flush() {
	if !s.enabled || s.seconds <= 0 {
		return
	}

	s.saved = time.Now()
	err := s.w.store.SavePosition(context.WithoutCancel(s.w.ctx), history.Position{
		MediaID:  s.w.media.ID,
		Episode:  s.episode.Number,
		Seconds:  s.seconds,
		Duration: s.duration,
		Title:    s.w.media.Name(),
	})
	if err != nil {
		log.Warn(err)
	}
}

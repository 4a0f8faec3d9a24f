// Package session resolves one open title into servers and episodes.
//
// A Session is a single logical actor. Work is reconciled through fetch
// generations instead of locks held across network calls: every change of
// subject starts a new generation and results from older generations are
// dropped on arrival.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nezuko-cli/nezuko/catalog"
	"github.com/nezuko-cli/nezuko/episode"
	"github.com/nezuko-cli/nezuko/generation"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/mapping"
	"github.com/nezuko-cli/nezuko/match"
	"github.com/nezuko-cli/nezuko/regional"
	"github.com/nezuko-cli/nezuko/source"
	"github.com/nezuko-cli/nezuko/variant"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrNoSources means no provider had anything for the title.
var ErrNoSources = errors.New("no servers found for this title")

// Context is the search context of a session.
type Context string

const (
	Global   Context = "global"
	Regional Context = "regional"
)

// Mappings looks up mappings. *mapping.Cache satisfies it.
type Mappings interface {
	Get(ctx context.Context, mediaID int) mo.Option[*mapping.Mapping]
}

// Router lists episodes and resolves streams by id. provider.Registry
// satisfies it.
type Router interface {
	Episodes(ctx context.Context, variantID string) ([]*source.Episode, error)
	Stream(ctx context.Context, episodeID string) (*source.Stream, error)
}

// Options configure a Session.
type Options struct {
	// Backends are the primary providers searched in global context.
	Backends []source.Backend
	Router   Router
	Mappings Mappings

	// Regional searches the regional sources. Nil disables regional
	// context and the background availability check.
	Regional regional.Searcher

	// RegionalCheck runs a regional availability check after every global
	// resolution.
	RegionalCheck bool

	// Mode is the initial audio mode. Defaults to sub.
	Mode source.Audio

	// Timeout bounds every provider search. A timed-out search counts as
	// zero results.
	Timeout time.Duration
}

// Snapshot is a consistent copy of the committed session state.
type Snapshot struct {
	ID         string                    `json:"id"`
	Generation uint64                    `json:"generation"`
	Context    Context                   `json:"context"`
	Mode       source.Audio              `json:"mode"`
	Media      *catalog.Media            `json:"media"`
	Mapping    *mapping.Mapping          `json:"mapping,omitempty"`
	Expected   int                       `json:"expected_episodes"`
	Candidates []*source.Candidate       `json:"candidates"`
	Variants   []source.Variant          `json:"variants"`
	Selected   mo.Option[source.Variant] `json:"selected"`
	Episodes   []*source.Episode         `json:"episodes"`
	Regional   regional.Result           `json:"regional"`
}

// Session is the resolution state of one open title.
type Session struct {
	id   string
	opts Options
	rr   *regional.Resolver

	// subject advances when the title or context changes, fetch advances
	// on every new episode fetch, including subject changes.
	subject generation.Counter
	fetch   generation.Counter

	mu    sync.RWMutex
	state Snapshot

	background sync.WaitGroup
}

// New returns an idle session.
func New(opts Options) *Session {
	if opts.Mode == "" {
		opts.Mode = source.Sub
	}

	s := &Session{
		id:   uuid.NewString(),
		opts: opts,
	}
	if opts.Regional != nil {
		s.rr = regional.NewResolver(opts.Regional, opts.Timeout)
	}

	s.state = Snapshot{ID: s.id, Context: Global, Mode: opts.Mode}
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) logger() *logrus.Entry {
	return log.WithFields(logrus.Fields{"session": s.id})
}

// commit applies fn to the state if tok is still current.
func (s *Session) commit(tok generation.Token, fn func(*Snapshot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !tok.Current() {
		return false
	}

	fn(&s.state)
	s.state.Generation = tok.Value()
	return true
}

// begin starts a new subject and clears everything committed for the
// previous one.
func (s *Session) begin(media *catalog.Media, c Context) (subject, fetch generation.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject = s.subject.Next()
	fetch = s.fetch.Next()

	s.state = Snapshot{
		ID:         s.id,
		Generation: fetch.Value(),
		Context:    c,
		Mode:       s.state.Mode,
		Media:      media,
	}

	return subject, fetch
}

// Queries builds the provider search queries for media. With series
// titles in the mapping those replace the English title. The romaji title
// is always searched. A title without any name is searched once with an
// empty query.
func Queries(media *catalog.Media, m *mapping.Mapping) []string {
	var queries []string

	if m.HasSeriesTitles() {
		queries = append(queries, m.SeriesTitles["en"], m.SeriesTitles["ja"])
	} else {
		queries = append(queries, media.Title.English)
	}
	queries = append(queries, media.Title.Romaji)

	queries = lo.Uniq(lo.Compact(queries))
	if len(queries) == 0 {
		return []string{""}
	}

	return queries
}

// Expected picks the authoritative episode count: the mapping's when it
// knows one, else the catalog's. Zero means unknown.
func Expected(media *catalog.Media, m *mapping.Mapping) int {
	if m != nil && m.EpisodeCount > 0 {
		return m.EpisodeCount
	}
	return media.EpisodeCount().OrElse(0)
}

// searchAll queries every primary backend concurrently. Failures and
// timeouts contribute nothing. Regional results are skipped.
func (s *Session) searchAll(ctx context.Context, query string) []*source.Candidate {
	batches := make([][]*source.Candidate, len(s.opts.Backends))

	var g errgroup.Group
	for i, b := range s.opts.Backends {
		g.Go(func() error {
			bctx := ctx
			if s.opts.Timeout > 0 {
				var cancel context.CancelFunc
				bctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
				defer cancel()
			}

			found, err := b.Search(bctx, query)
			if err != nil {
				s.logger().Warnf("search %s %q: %v", b.ID(), query, err)
				return nil
			}
			batches[i] = found
			return nil
		})
	}
	_ = g.Wait()

	return lo.Filter(lo.Flatten(batches), func(c *source.Candidate, _ int) bool {
		return c != nil && c.Provider != source.Regional
	})
}

// Resolve searches the primary providers for media, builds the variants
// and fetches the episodes of the first usable one.
//
// A nil error with nothing committed means a newer resolution took over.
func (s *Session) Resolve(ctx context.Context, media *catalog.Media) error {
	subject, tok := s.begin(media, Global)
	logger := s.logger().WithField("media", media.ID)

	var m *mapping.Mapping
	if s.opts.Mappings != nil {
		m = s.opts.Mappings.Get(ctx, media.ID).OrEmpty()
	}
	if !tok.Current() {
		return nil
	}

	expected := Expected(media, m)
	queries := Queries(media, m)
	logger.Infof("resolving with expected=%d queries=%q", expected, queries)

	var best []*source.Candidate
	for _, q := range queries {
		if !tok.Current() {
			return nil
		}

		results := s.searchAll(ctx, q)
		if !tok.Current() {
			return nil
		}

		r := match.Filter(results, q, expected)
		logger.Debugf("query %q: %d results, %d accepted", q, len(results), len(r.Accepted))

		if r.HasVerified() {
			best = r.Accepted
			break
		}
		if len(best) == 0 {
			best = r.Accepted
		}
	}

	if len(best) == 0 {
		logger.Warn("no accepted candidates")
		return ErrNoSources
	}

	if !s.commit(tok, func(st *Snapshot) {
		st.Mapping = m
		st.Expected = expected
		st.Candidates = best
	}) {
		return nil
	}

	variants := variant.Build(best, s.Mode(), expected)
	if len(variants) == 0 {
		return ErrNoSources
	}

	if err := s.selectAndFetch(ctx, tok, variants, variants[0], true); err != nil {
		return err
	}

	if s.rr != nil && s.opts.RegionalCheck {
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			s.checkRegional(context.WithoutCancel(ctx), media, subject)
		}()
	}

	return nil
}

// checkRegional records regional availability without touching the
// selected variant.
func (s *Session) checkRegional(ctx context.Context, media *catalog.Media, subject generation.Token) {
	res, ok := s.rr.Resolve(ctx, media, subject)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !subject.Current() {
		return
	}
	s.state.Regional = regional.Result{Languages: res.Languages, Available: res.Available}
}

// ResolveRegional switches to regional context and resolves media against
// the regional sources.
func (s *Session) ResolveRegional(ctx context.Context, media *catalog.Media) error {
	if s.rr == nil {
		return fmt.Errorf("regional sources: %w", ErrNoSources)
	}

	subject, tok := s.begin(media, Regional)

	res, ok := s.rr.Resolve(ctx, media, subject)
	if !ok {
		return nil
	}

	if !s.commit(tok, func(st *Snapshot) { st.Regional = res }) {
		return nil
	}

	def, found := res.Default()
	if !res.Available || !found {
		return ErrNoSources
	}

	return s.selectAndFetch(ctx, tok, res.Variants, def, false)
}

// selectAndFetch commits variants with selected and lists its episodes.
// With retry set, an empty list moves on to the second variant once.
func (s *Session) selectAndFetch(ctx context.Context, tok generation.Token, variants []source.Variant, selected source.Variant, retry bool) error {
	if !s.commit(tok, func(st *Snapshot) {
		st.Variants = variants
		st.Selected = mo.Some(selected)
		st.Episodes = nil
	}) {
		return nil
	}

	episodes, ok, err := s.episodes(ctx, tok, selected.ID)
	if !ok {
		return nil
	}

	if len(episodes) == 0 && retry && len(variants) > 1 && variants[1].ID != selected.ID {
		s.logger().Infof("%s has no episodes, trying %s", selected.Name, variants[1].Name)

		next := variants[1]
		if !s.commit(tok, func(st *Snapshot) { st.Selected = mo.Some(next) }) {
			return nil
		}

		episodes, ok, err = s.episodes(ctx, tok, next.ID)
		if !ok {
			return nil
		}
	}

	if err != nil {
		s.logger().Warnf("episodes: %v", err)
	}

	s.commit(tok, func(st *Snapshot) { st.Episodes = episodes })
	return nil
}

func (s *Session) episodes(ctx context.Context, tok generation.Token, variantID string) ([]*source.Episode, bool, error) {
	s.mu.RLock()
	m, media := s.state.Mapping, s.state.Media
	s.mu.RUnlock()

	var hints []catalog.StreamingEpisode
	if media != nil {
		hints = media.StreamingEpisodes
	}

	return episode.NewResolver(s.opts.Router, m, hints).Fetch(ctx, variantID, tok)
}

// ChangeVariant selects the variant with id and fetches its episodes.
func (s *Session) ChangeVariant(ctx context.Context, id string) error {
	s.mu.RLock()
	variants := s.state.Variants
	s.mu.RUnlock()

	v, found := lo.Find(variants, func(v source.Variant) bool { return v.ID == id })
	if !found {
		return fmt.Errorf("unknown variant %q", id)
	}

	return s.selectAndFetch(ctx, s.fetch.Next(), variants, v, false)
}

// ChangeAudioMode rebuilds the variants for mode from the candidates
// already found and keeps the same server slot where possible. It never
// searches.
func (s *Session) ChangeAudioMode(ctx context.Context, mode source.Audio) error {
	s.mu.Lock()
	if s.state.Mode == mode {
		s.mu.Unlock()
		return nil
	}
	s.state.Mode = mode
	st := s.state
	s.mu.Unlock()

	if st.Context != Global {
		return nil
	}

	variants := variant.Build(st.Candidates, mode, st.Expected)
	if len(variants) == 0 {
		return nil
	}

	next, _ := variant.SameSlot(st.Selected, variants)
	s.logger().Infof("audio mode %s: %s", mode, next.Name)

	return s.selectAndFetch(ctx, s.fetch.Next(), variants, next, false)
}

// Stream resolves ep to a playable stream.
func (s *Session) Stream(ctx context.Context, ep *source.Episode) (*source.Stream, error) {
	stream, err := s.opts.Router.Stream(ctx, ep.ID)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", ep, err)
	}
	return stream, nil
}

// Mode is the current audio mode.
func (s *Session) Mode() source.Audio {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Mode
}

// Snapshot returns a copy of the committed state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Candidates = append([]*source.Candidate(nil), st.Candidates...)
	st.Variants = append([]source.Variant(nil), st.Variants...)
	st.Episodes = append([]*source.Episode(nil), st.Episodes...)
	return st
}

// Wait blocks until background checks have finished.
func (s *Session) Wait() {
	s.background.Wait()
}

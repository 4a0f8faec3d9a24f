// Package episode fetches a variant's episode list and fills in titles,
// synopses and thumbnails from the mapping or the catalog hints.
package episode

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/nezuko-cli/nezuko/catalog"
	"github.com/nezuko-cli/nezuko/generation"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/mapping"
	"github.com/nezuko-cli/nezuko/source"
	"github.com/samber/lo"
)

// Lister lists the raw episodes of a variant. provider.Registry satisfies it.
type Lister interface {
	Episodes(ctx context.Context, variantID string) ([]*source.Episode, error)
}

// Resolver fetches episodes for one media record.
type Resolver struct {
	lister  Lister
	mapping *mapping.Mapping
	hints   []catalog.StreamingEpisode
}

// NewResolver returns a resolver enriching from m (which may be nil) and
// the streaming-episode hints of the media record.
func NewResolver(lister Lister, m *mapping.Mapping, hints []catalog.StreamingEpisode) *Resolver {
	return &Resolver{lister: lister, mapping: m, hints: hints}
}

// Fetch lists and enriches the episodes of variantID. When tok is no longer
// current once the listing returns, the result is thrown away and ok is
// false; nothing else is reported in that case. An empty list with ok set
// is a valid outcome.
func (r *Resolver) Fetch(ctx context.Context, variantID string, tok generation.Token) (episodes []*source.Episode, ok bool, err error) {
	raw, err := r.lister.Episodes(ctx, variantID)

	if !tok.Current() {
		log.Debugf("episode: dropping stale list for %s (generation %d)", variantID, tok.Value())
		return nil, false, nil
	}

	if err != nil {
		log.Errorf("episode: fetch %s: %v", variantID, err)
		return nil, true, err
	}

	episodes = Enrich(raw, r.mapping, r.hints)
	log.Infof("episode: %s has %d episodes", variantID, len(episodes))
	return episodes, true, nil
}

var (
	leadingZeros = regexp.MustCompile(`^Episode\s+0+`)
	episodePart  = regexp.MustCompile(`^Episode\s+\d+(\s*-\s*)?`)
)

// hintFor finds the streaming-episode hint for number n. Hint titles look
// like "Episode 3 - Name" and may zero-pad the number.
func hintFor(hints []catalog.StreamingEpisode, n int) (catalog.StreamingEpisode, bool) {
	label := "Episode " + strconv.Itoa(n)

	return lo.Find(hints, func(h catalog.StreamingEpisode) bool {
		normalized := leadingZeros.ReplaceAllString(h.Title, "Episode ")
		return strings.HasPrefix(normalized, label+" ") ||
			normalized == label ||
			strings.HasPrefix(h.Title, label+" ") ||
			h.Title == label
	})
}

// Enrich drops episodes numbered zero or below and returns enriched copies
// of the rest. Mapping entries win over hints and raw values are kept only
// when neither source knows better.
func Enrich(raw []*source.Episode, m *mapping.Mapping, hints []catalog.StreamingEpisode) []*source.Episode {
	out := make([]*source.Episode, 0, len(raw))

	for _, ep := range raw {
		if ep == nil || ep.Number <= 0 {
			continue
		}

		e := *ep
		title := m.Title(e.Number)
		description := m.Overview(e.Number)
		image := m.Image(e.Number)

		if (title == "" || image == "") && len(hints) > 0 {
			if h, found := hintFor(hints, e.Number); found {
				if title == "" {
					title = strings.TrimSpace(episodePart.ReplaceAllString(h.Title, ""))
				}
				if image == "" {
					image = h.Thumbnail
				}
			}
		}

		if title != "" {
			e.Title = title
		}
		if description != "" {
			e.Description = description
		}
		if image != "" {
			e.Image = image
		}

		out = append(out, &e)
	}

	return out
}

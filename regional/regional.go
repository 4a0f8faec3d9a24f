// Package regional discovers region-specific dubs. Regional catalogs list
// each language dub as a separate entry, so one title fans out into a query
// per supported language.
package regional

import (
	"context"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/nezuko-cli/nezuko/catalog"
	"github.com/nezuko-cli/nezuko/generation"
	"github.com/nezuko-cli/nezuko/log"
	"github.com/nezuko-cli/nezuko/source"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Languages are the regional dub languages queried alongside the bare title.
var Languages = []string{"Hindi", "Telugu", "Tamil", "Malayalam", "Kannada"}

// MultiAudio names the multi-audio variant.
const MultiAudio = "Multi Audio"

// Searcher searches every regional source.
type Searcher interface {
	Search(ctx context.Context, query string) ([]*source.Candidate, error)
}

// Result is the regional variant set for one media record.
type Result struct {
	Variants  []source.Variant `json:"variants"`
	Languages []string         `json:"languages"`
	Available bool             `json:"available"`
}

// Default is the multi-audio variant if present, else the first.
func (r Result) Default() (source.Variant, bool) {
	if v, ok := lo.Find(r.Variants, func(v source.Variant) bool { return v.Type == source.Multi }); ok {
		return v, true
	}
	if len(r.Variants) == 0 {
		return source.Variant{}, false
	}
	return r.Variants[0], true
}

// Resolver runs the regional search.
type Resolver struct {
	searcher Searcher
	timeout  time.Duration
}

// NewResolver bounds every query by timeout. Zero means no bound.
func NewResolver(s Searcher, timeout time.Duration) *Resolver {
	return &Resolver{searcher: s, timeout: timeout}
}

// Queries returns the bare title followed by one query per language.
func Queries(title string) []string {
	return append([]string{title}, lo.Map(Languages, func(lang string, _ int) string {
		return title + " " + lang
	})...)
}

// Search issues every query in parallel and merges the results, keeping the
// first occurrence of each id in query order. Failed or timed-out queries
// contribute nothing.
func (r *Resolver) Search(ctx context.Context, queries []string) []*source.Candidate {
	results := make([][]*source.Candidate, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			qctx := gctx
			if r.timeout > 0 {
				var cancel context.CancelFunc
				qctx, cancel = context.WithTimeout(gctx, r.timeout)
				defer cancel()
			}

			found, err := r.searcher.Search(qctx, q)
			if err != nil {
				log.Warnf("regional: search %q: %v", q, err)
				return nil
			}
			results[i] = found
			return nil
		})
	}
	_ = g.Wait()

	return Dedupe(results...)
}

// Dedupe flattens batches keeping the first candidate seen for each id.
func Dedupe(batches ...[]*source.Candidate) []*source.Candidate {
	seen := make(map[string]struct{})
	var merged []*source.Candidate

	for _, batch := range batches {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			merged = append(merged, c)
		}
	}

	return merged
}

var (
	bracketed     = regexp.MustCompile(`\[.*?\]`)
	parenthesized = regexp.MustCompile(`\(.*?\)`)
	keywords      = regexp.MustCompile(`(?i)Hindi|Tamil|Telugu|Malayalam|Kannada|Dub|Multi|Audio|Season\s*\d*`)
	nonAlnum      = regexp.MustCompile(`[^a-z0-9]`)
)

func squash(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(s), "")
}

// Clean strips bracketed text and language or dub keywords from a regional
// title and squashes it to lowercase alphanumerics.
func Clean(title string) string {
	s := bracketed.ReplaceAllString(title, "")
	s = parenthesized.ReplaceAllString(s, "")
	s = keywords.ReplaceAllString(s, "")
	return squash(s)
}

// Matches reports whether a regional title belongs to media.
func Matches(title string, media *catalog.Media) bool {
	cleaned := Clean(title)
	if cleaned == "" {
		return false
	}

	for _, expected := range []string{squash(media.Title.English), squash(media.Title.Romaji)} {
		if expected == "" {
			continue
		}
		if strings.Contains(cleaned, expected) || strings.Contains(expected, cleaned) {
			return true
		}
	}

	return false
}

var (
	dubLanguage = regexp.MustCompile(`(?i)([a-zA-Z]+)\s+Dub`)
	trailingTag = regexp.MustCompile(`\(([^)]+)\)$`)
)

// Label turns a regional candidate into a variant.
func Label(c *source.Candidate) source.Variant {
	lower := strings.ToLower(c.Title)
	v := source.Variant{ID: c.ID, Name: c.Title, Type: source.Sub}

	switch {
	case c.IsMultiAudio || strings.Contains(lower, "multi"):
		v.Name, v.Type = MultiAudio, source.Multi
	case strings.Contains(lower, "dub"):
		v.Type = source.Dub
		if m := dubLanguage.FindStringSubmatch(c.Title); m != nil {
			v.Name = m[1]
		} else if m := trailingTag.FindStringSubmatch(c.Title); m != nil {
			v.Name = m[1]
		}
	default:
		v.Name = "Subbed"
	}

	if len(v.Name) > 20 {
		v.Name = lo.Ternary(c.Language != "", c.Language, "Unknown")
	}

	return v
}

// Sort orders multi-audio variants first, then by name.
func Sort(variants []source.Variant) {
	slices.SortStableFunc(variants, func(a, b source.Variant) int {
		am, bm := a.Type == source.Multi, b.Type == source.Multi
		switch {
		case am && !bm:
			return -1
		case bm && !am:
			return 1
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}

// Build filters merged regional candidates for media and labels them.
func Build(candidates []*source.Candidate, media *catalog.Media) Result {
	kept := lo.Filter(candidates, func(c *source.Candidate, _ int) bool {
		return Matches(c.Title, media) && len(c.AvailableLanguages) > 0
	})
	if len(kept) == 0 {
		return Result{}
	}

	var languages []string
	for _, c := range kept {
		languages = append(languages, c.AvailableLanguages...)
	}

	variants := lo.Map(kept, func(c *source.Candidate, _ int) source.Variant {
		return Label(c)
	})
	Sort(variants)

	return Result{
		Variants:  variants,
		Languages: lo.Uniq(languages),
		Available: true,
	}
}

// Resolve runs the regional search for media. The query title is the
// English title, else romaji. ok is false when tok went stale during the
// search, in which case the result must be ignored.
func (r *Resolver) Resolve(ctx context.Context, media *catalog.Media, tok generation.Token) (res Result, ok bool) {
	merged := r.Search(ctx, Queries(media.Name()))

	if !tok.Current() {
		log.Debugf("regional: dropping stale result for %d", media.ID)
		return Result{}, false
	}

	log.Infof("regional: %d unique results for %q", len(merged), media.Name())
	return Build(merged, media), true
}

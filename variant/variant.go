// Package variant turns accepted candidates into the ordered list of
// servers a user can pick from.
package variant

import (
	"regexp"
	"slices"
	"strings"

	"github.com/nezuko-cli/nezuko/source"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Server names by provider slot.
const (
	Server1 = "Server 1"
	Server2 = "Server 2"
	Server3 = "Server 3"
)

var modeSuffix = regexp.MustCompile(`:(?:sub|dub)$`)

func score(c *source.Candidate, expected int) int {
	count := c.Count()
	if expected > 0 {
		d := count - expected
		if d < 0 {
			d = -d
		}
		return 2 * d
	}
	return -count
}

// Pick returns the candidate with the lowest score. With a known expected
// count the score is twice the count difference, otherwise more episodes
// win. Ties keep input order.
func Pick(list []*source.Candidate, expected int) mo.Option[*source.Candidate] {
	if len(list) == 0 {
		return mo.None[*source.Candidate]()
	}

	sorted := slices.Clone(list)
	slices.SortStableFunc(sorted, func(a, b *source.Candidate) int {
		return score(a, expected) - score(b, expected)
	})

	return mo.Some(sorted[0])
}

func isDubEntry(c *source.Candidate) bool {
	return strings.Contains(strings.ToLower(c.Title), "(dub)")
}

func byProvider(p source.ProviderID) func(*source.Candidate, int) bool {
	return func(c *source.Candidate, _ int) bool {
		return c.Provider == p
	}
}

// Build derives the variant list for mode. It depends only on its inputs.
// Variants come out in server order and providers without a usable
// candidate are omitted.
func Build(candidates []*source.Candidate, mode source.Audio, expected int) []source.Variant {
	variants := make([]source.Variant, 0, 3)

	if c, ok := Pick(lo.Filter(candidates, byProvider(source.AllAnime)), expected).Get(); ok {
		variants = append(variants, source.Variant{
			Name: Server1,
			ID:   modeSuffix.ReplaceAllString(c.ID, "") + ":" + string(mode),
			Type: lo.Ternary(mode == source.Dub, source.Dub, source.Sub),
		})
	}

	if c, ok := Pick(lo.Filter(candidates, byProvider(source.HiAnime)), expected).Get(); ok {
		variants = append(variants, source.Variant{
			Name: Server2,
			ID:   c.ID,
			Type: source.Multi,
		})
	}

	wantDub := mode == source.Dub
	anitaku := lo.Filter(candidates, func(c *source.Candidate, i int) bool {
		return byProvider(source.Anitaku)(c, i) && isDubEntry(c) == wantDub
	})
	if c, ok := Pick(anitaku, expected).Get(); ok {
		variants = append(variants, source.Variant{
			Name: Server3,
			ID:   c.ID,
			Type: lo.Ternary(wantDub, source.Dub, source.Sub),
		})
	}

	return variants
}

var serverSlot = regexp.MustCompile(`Server (\d)`)

// SameSlot picks the variant occupying prev's server slot, or the first
// variant. ok is false only when variants is empty.
func SameSlot(prev mo.Option[source.Variant], variants []source.Variant) (source.Variant, bool) {
	if len(variants) == 0 {
		return source.Variant{}, false
	}

	if p, ok := prev.Get(); ok {
		if m := serverSlot.FindStringSubmatch(p.Name); m != nil {
			if v, found := lo.Find(variants, func(v source.Variant) bool {
				return strings.Contains(v.Name, "Server "+m[1])
			}); found {
				return v, true
			}
		}
	}

	return variants[0], true
}

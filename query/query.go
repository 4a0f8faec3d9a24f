// Package query remembers catalog search queries and suggests them back.
package query

import (
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/key"
	"github.com/nezuko-cli/nezuko/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

type queryRecord struct {
	Rank  int    `json:"rank"`
	Query string `json:"query"`
}

var cacher = gache.New[map[string]*queryRecord](
	&gache.Options{
		Path:       where.Queries(),
		FileSystem: &filesystem.GacheFs{},
	},
)

var (
	mu              sync.Mutex
	suggestionCache = make(map[string][]*queryRecord)
)

func load() map[string]*queryRecord {
	cached, expired, err := cacher.Get()
	if expired || err != nil || cached == nil {
		return make(map[string]*queryRecord)
	}
	return cached
}

// Remember records q, adding weight to its rank when it is already known.
func Remember(q string, weight int) error {
	q = sanitize(q)
	if q == "" {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	cached := load()
	if record, ok := cached[q]; ok {
		record.Rank += weight
	} else {
		cached[q] = &queryRecord{Rank: weight, Query: q}
	}

	clear(suggestionCache)
	return cacher.Set(cached)
}

// Suggest returns the best ranked past query matching q.
func Suggest(q string) mo.Option[string] {
	return mo.TupleToOption(lo.First(SuggestMany(q)))
}

// SuggestMany returns past queries fuzzily matching q, highest rank first.
func SuggestMany(q string) []string {
	if !viper.GetBool(key.SearchShowQuerySuggestions) {
		return []string{}
	}

	q = sanitize(q)

	mu.Lock()
	defer mu.Unlock()

	records, ok := suggestionCache[q]
	if !ok {
		for _, record := range load() {
			if fuzzy.Match(q, record.Query) {
				records = append(records, record)
			}
		}

		slices.SortFunc(records, func(a, b *queryRecord) int {
			if a.Rank != b.Rank {
				return b.Rank - a.Rank
			}
			return strings.Compare(a.Query, b.Query)
		})

		suggestionCache[q] = records
	}

	return lo.Map(records, func(r *queryRecord, _ int) string {
		return r.Query
	})
}

// Forget drops every remembered query.
func Forget() error {
	mu.Lock()
	defer mu.Unlock()
	clear(suggestionCache)
	return cacher.Set(make(map[string]*queryRecord))
}

func sanitize(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}

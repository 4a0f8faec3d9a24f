package custom

import (
	"context"
	"fmt"
	"slices"

	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/internal/cache"
	"github.com/nezuko-cli/nezuko/source"
	lua "github.com/yuin/gopher-lua"
)

// Episodes calls RegionalEpisodes with the id the script produced and
// returns the list sorted by number.
func (s *Source) Episodes(ctx context.Context, variantID string) ([]*source.Episode, error) {
	name, id, ok := ParseID(variantID)
	if !ok || name != s.name {
		return nil, fmt.Errorf("%s: foreign id %q", s.name, variantID)
	}

	cacheKey := cache.GenerateKey(id, s.name+"_episodes")
	var cached []*source.Episode
	if cache.Read(cacheKey, &cached) {
		return cached, nil
	}

	val, err := s.call(ctx, constant.RegionalEpisodesFn, lua.LTTable, lua.LString(id))
	if err != nil {
		return nil, err
	}

	episodes, err := collect(val.(*lua.LTable), func(t *lua.LTable, _ int) (*source.Episode, error) {
		return episodeFromTable(t, s.name)
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(episodes, func(a, b *source.Episode) int {
		return a.Number - b.Number
	})

	if len(episodes) > 0 {
		_ = cache.Write(cacheKey, episodes)
	}

	return episodes, nil
}

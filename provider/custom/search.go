package custom

import (
	"context"

	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/internal/cache"
	"github.com/nezuko-cli/nezuko/source"
	lua "github.com/yuin/gopher-lua"
)

// Search calls SearchRegional. Non-empty results are cached per query.
func (s *Source) Search(ctx context.Context, query string) ([]*source.Candidate, error) {
	cacheKey := cache.GenerateKey(query, s.name+"_search")
	var cached []*source.Candidate
	if cache.Read(cacheKey, &cached) {
		return cached, nil
	}

	val, err := s.call(ctx, constant.SearchRegionalFn, lua.LTTable, lua.LString(query))
	if err != nil {
		return nil, err
	}

	candidates, err := collect(val.(*lua.LTable), func(t *lua.LTable, _ int) (*source.Candidate, error) {
		return candidateFromTable(t, s.name)
	})
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return []*source.Candidate{}, nil
	}

	_ = cache.Write(cacheKey, candidates)
	return candidates, nil
}

package custom

import (
	"context"
	"fmt"

	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/source"
	lua "github.com/yuin/gopher-lua"
)

// Stream calls RegionalStream. Stream links expire, so nothing is cached.
func (s *Source) Stream(ctx context.Context, episodeID string) (*source.Stream, error) {
	name, id, ok := ParseID(episodeID)
	if !ok || name != s.name {
		return nil, fmt.Errorf("%s: foreign id %q", s.name, episodeID)
	}

	val, err := s.call(ctx, constant.RegionalStreamFn, lua.LTTable, lua.LString(id))
	if err != nil {
		return nil, err
	}

	stream, err := streamFromTable(val.(*lua.LTable))
	if err != nil {
		return nil, err
	}

	stream.EpisodeID = episodeID
	return stream, nil
}

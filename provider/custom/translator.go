package custom

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/nezuko-cli/nezuko/source"
	"github.com/samber/lo"
	"github.com/samber/mo"
	lua "github.com/yuin/gopher-lua"
)

func getString(table *lua.LTable, key string) string {
	val := table.RawGetString(key)
	switch val.Type() {
	case lua.LTString:
		return strings.TrimSpace(val.String())
	case lua.LTNumber:
		return val.String()
	}
	return ""
}

// getStringList accepts a comma separated string or an array table.
func getStringList(table *lua.LTable, key string) []string {
	val := table.RawGetString(key)
	if val.Type() == lua.LTString {
		return lo.Compact(lo.Map(strings.Split(val.String(), ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}))
	}
	if val.Type() == lua.LTTable {
		var list []string
		val.(*lua.LTable).ForEach(func(_, v lua.LValue) {
			if v.Type() == lua.LTString && strings.TrimSpace(v.String()) != "" {
				list = append(list, strings.TrimSpace(v.String()))
			}
		})
		return list
	}
	return nil
}

func getBool(table *lua.LTable, key string) bool {
	return lua.LVAsBool(table.RawGetString(key))
}

func getStringMap(table *lua.LTable, key string) map[string]string {
	m := make(map[string]string)
	if tbl, ok := table.RawGetString(key).(*lua.LTable); ok {
		tbl.ForEach(func(k, v lua.LValue) {
			m[k.String()] = v.String()
		})
	}
	return m
}

var errFractional = errors.New("episode number is not an integer")

// integer reads a whole number from a Lua number or a numeric string.
func integer(v lua.LValue) (int, bool, error) {
	switch v.Type() {
	case lua.LTNumber:
		f := float64(v.(lua.LNumber))
		if f != math.Trunc(f) {
			return 0, true, errFractional
		}
		return int(f), true, nil
	case lua.LTString:
		s := strings.TrimSpace(v.String())
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, nil
		}
		if f != math.Trunc(f) {
			return 0, true, errFractional
		}
		return int(f), true, nil
	}
	return 0, false, nil
}

func candidateFromTable(table *lua.LTable, name string) (*source.Candidate, error) {
	title := getString(table, "title")
	id := lo.CoalesceOrEmpty(getString(table, "id"), getString(table, "url"))

	if title == "" || id == "" {
		return nil, fmt.Errorf("result must have title and id or url")
	}

	c := &source.Candidate{
		ID:                 qualify(name, id),
		Title:              title,
		URL:                getString(table, "url"),
		Image:              getString(table, "image"),
		ReleaseDate:        getString(table, "release_date"),
		Language:           getString(table, "language"),
		IsMultiAudio:       getBool(table, "is_multi_audio"),
		AvailableLanguages: getStringList(table, "available_languages"),
		Provider:           source.Regional,
	}

	if n, ok, err := integer(table.RawGetString("episodes")); ok && err == nil && n > 0 {
		c.EpisodeCount = mo.Some(n)
	}

	return c, nil
}

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

func episodeFromTable(table *lua.LTable, name string) (*source.Episode, error) {
	id := lo.CoalesceOrEmpty(getString(table, "id"), getString(table, "url"))
	title := getString(table, "title")

	if id == "" {
		return nil, fmt.Errorf("episode must have id or url")
	}

	number, ok, err := integer(table.RawGetString("number"))
	if err != nil {
		return nil, fmt.Errorf("episode %s: %w", id, err)
	}

	// Without an explicit number the last number in the title is used,
	// as in "Season 2 Episode 11".
	if !ok {
		matches := numberPattern.FindAllString(title, -1)
		if len(matches) == 0 {
			return nil, fmt.Errorf("episode %s has no number", id)
		}
		number, _, err = integer(lua.LString(matches[len(matches)-1]))
		if err != nil {
			return nil, fmt.Errorf("episode %s: %w", id, err)
		}
	}

	return &source.Episode{
		ID:     qualify(name, id),
		Number: number,
		URL:    getString(table, "url"),
		Title:  title,
	}, nil
}

func subtitlesFromTable(table *lua.LTable) []source.Subtitle {
	tbl, ok := table.RawGetString("subtitles").(*lua.LTable)
	if !ok {
		return nil
	}

	var subtitles []source.Subtitle
	tbl.ForEach(func(_, v lua.LValue) {
		entry, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		file := lo.CoalesceOrEmpty(getString(entry, "file"), getString(entry, "url"))
		if file == "" {
			return
		}
		subtitles = append(subtitles, source.Subtitle{
			Label:   lo.CoalesceOrEmpty(getString(entry, "label"), getString(entry, "lang"), "Unknown"),
			File:    file,
			Kind:    "captions",
			Default: getBool(entry, "default"),
		})
	})

	return subtitles
}

func streamFromTable(table *lua.LTable) (*source.Stream, error) {
	url := getString(table, "url")
	if url == "" {
		return nil, fmt.Errorf("stream must have url")
	}

	return &source.Stream{
		URL:       url,
		Quality:   lo.CoalesceOrEmpty(getString(table, "quality"), "default"),
		IsM3U8:    getBool(table, "is_m3u8") || strings.Contains(url, ".m3u8"),
		Headers:   getStringMap(table, "headers"),
		Subtitles: subtitlesFromTable(table),
		Provider:  source.Regional,
	}, nil
}

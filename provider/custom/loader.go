// Package custom runs user-installed Lua scripts as regional sources.
package custom

import (
	"fmt"
	"strings"

	libs "github.com/metafates/mangal-lua-libs"
	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/internal/scraper"
	"github.com/nezuko-cli/nezuko/util"
	lua "github.com/yuin/gopher-lua"
)

const idSuffix = "-custom"

// IDfromName is the id prefix of a script, without the trailing colon.
func IDfromName(name string) string {
	return name + idSuffix
}

// ParseID splits "<name>-custom:<rest>" into the script name and the id
// the script itself produced.
func ParseID(id string) (name, rest string, ok bool) {
	head, rest, found := strings.Cut(id, ":")
	if !found || !strings.HasSuffix(head, idSuffix) {
		return "", "", false
	}
	name = strings.TrimSuffix(head, idSuffix)
	return name, rest, name != ""
}

func qualify(name, id string) string {
	return IDfromName(name) + ":" + id
}

// LoadSource runs the script at path and checks that it defines every
// regional entry point.
func LoadSource(path string) (*Source, error) {
	state := lua.NewState()
	libs.Preload(state)
	registerTLSClient(state)

	if err := scraper.PreCompileAndLoad(state, path); err != nil {
		state.Close()
		return nil, err
	}

	name := util.FileStem(path)

	required := []string{
		constant.SearchRegionalFn,
		constant.RegionalEpisodesFn,
		constant.RegionalStreamFn,
	}

	for _, fn := range required {
		if state.GetGlobal(fn).Type() != lua.LTFunction {
			state.Close()
			return nil, fmt.Errorf("function %s is required but not defined in %s", fn, name)
		}
	}

	return newSource(name, state), nil
}

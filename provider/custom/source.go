package custom

import (
	"context"
	"fmt"
	"sync"

	"github.com/nezuko-cli/nezuko/source"
	lua "github.com/yuin/gopher-lua"
)

// Source is one loaded Lua script. An LState is not safe for concurrent
// use, so calls are serialized.
type Source struct {
	name string

	mu    sync.Mutex
	state *lua.LState
}

func newSource(name string, state *lua.LState) *Source {
	return &Source{name: name, state: state}
}

// Name is the script file stem.
func (s *Source) Name() string {
	return s.name
}

// ID reports every script as a regional provider.
func (s *Source) ID() source.ProviderID {
	return source.Regional
}

func (s *Source) String() string {
	return s.name
}

// Close releases the Lua state.
func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Close()
}

// call runs a global function with ctx attached, so a cancelled context
// aborts the script and any http_tls request it has in flight.
func (s *Source) call(ctx context.Context, fn string, retType lua.LValueType, args ...lua.LValue) (lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	luaFn := s.state.GetGlobal(fn)
	if luaFn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("function %s is not defined", fn)
	}

	s.state.SetContext(ctx)
	defer s.state.RemoveContext()

	err := s.state.CallByParam(lua.P{
		Fn:      luaFn,
		NRet:    1,
		Protect: true,
	}, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", s.name, fn, err)
	}

	retval := s.state.Get(-1)
	s.state.Pop(1)

	if retval.Type() != retType {
		return nil, fmt.Errorf("%s returned %s, expected %s", fn, retval.Type(), retType)
	}

	return retval, nil
}

// collect converts every array entry of table with conv. Conversion errors
// are only returned when nothing converted.
func collect[T any](table *lua.LTable, conv func(*lua.LTable, int) (T, error)) ([]T, error) {
	var (
		items []T
		errs  []error
	)

	table.ForEach(func(k, v lua.LValue) {
		if k.Type() != lua.LTNumber || v.Type() != lua.LTTable {
			return
		}

		item, err := conv(v.(*lua.LTable), int(k.(lua.LNumber)))
		if err != nil {
			errs = append(errs, err)
			return
		}
		items = append(items, item)
	})

	if len(items) == 0 && len(errs) > 0 {
		return nil, errs[0]
	}

	return items, nil
}

// Package scraper compiles and refreshes regional Lua source scripts.
package scraper

import (
	"bytes"
	"sync"

	"github.com/nezuko-cli/nezuko/filesystem"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

var bytecodeCache sync.Map

// PreCompileAndLoad runs the script at scriptPath in L. Compiled prototypes
// are kept per path so every state after the first skips parsing.
func PreCompileAndLoad(L *lua.LState, scriptPath string) error {
	if cached, ok := bytecodeCache.Load(scriptPath); ok {
		L.Push(L.NewFunctionFromProto(cached.(*lua.FunctionProto)))
		return L.PCall(0, lua.MultRet, nil)
	}

	proto, err := Compile(scriptPath)
	if err != nil {
		return err
	}

	bytecodeCache.Store(scriptPath, proto)

	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, lua.MultRet, nil)
}

// Compile parses the script without running it.
func Compile(scriptPath string) (*lua.FunctionProto, error) {
	content, err := filesystem.API().ReadFile(scriptPath)
	if err != nil {
		return nil, err
	}

	chunk, err := parse.Parse(bytes.NewReader(content), scriptPath)
	if err != nil {
		return nil, err
	}

	return lua.Compile(chunk, scriptPath)
}

// Forget drops the compiled prototype, so the next load reads the file again.
func Forget(scriptPath string) {
	bytecodeCache.Delete(scriptPath)
}

package custom

// The http_tls module gives scripts the Chrome-fingerprinted client from
// network.Browser. Requests run under the context of the current call.
//
//	http_tls.get(url [, headers])  -> body
//	http_tls.request(options)      -> {status, body, headers}
//
// request options: method, url, headers, body, cache.

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nezuko-cli/nezuko/internal/cache"
	"github.com/nezuko-cli/nezuko/network"
	lua "github.com/yuin/gopher-lua"
)

// Client is the transport behind http_tls. Tests replace it.
var Client network.Doer = network.Browser

func registerTLSClient(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "get", L.NewFunction(httpTLSGet))
	L.SetField(mod, "request", L.NewFunction(httpTLSRequest))
	L.SetGlobal("http_tls", mod)

	L.PreloadModule("http_tls", func(L *lua.LState) int {
		L.Push(mod)
		return 1
	})
}

func stateContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func tableHeaders(tbl *lua.LTable) map[string]string {
	headers := make(map[string]string)
	if tbl != nil {
		tbl.ForEach(func(k, v lua.LValue) {
			headers[k.String()] = v.String()
		})
	}
	return headers
}

func httpTLSGet(L *lua.LState) int {
	url := L.CheckString(1)
	headers := tableHeaders(L.OptTable(2, nil))

	resp, err := doRequest(stateContext(L), http.MethodGet, url, headers, "")
	if err != nil {
		L.RaiseError("http_tls.get failed: %s", err.Error())
		return 0
	}
	if resp.Status >= 400 {
		L.RaiseError("http_tls.get failed: %s returned %d", url, resp.Status)
		return 0
	}

	L.Push(lua.LString(resp.Body))
	return 1
}

type response struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

func (r response) table(L *lua.LState) *lua.LTable {
	result := L.NewTable()
	L.SetField(result, "status", lua.LNumber(r.Status))
	L.SetField(result, "body", lua.LString(r.Body))

	headers := L.NewTable()
	for k, v := range r.Headers {
		headers.RawSetString(k, lua.LString(v))
	}
	L.SetField(result, "headers", headers)
	return result
}

func getStringField(tbl *lua.LTable, key string, def string) string {
	val := tbl.RawGetString(key)
	if val == lua.LNil {
		return def
	}
	return val.String()
}

func httpTLSRequest(L *lua.LState) int {
	opts := L.CheckTable(1)

	method := strings.ToUpper(getStringField(opts, "method", http.MethodGet))
	url := getStringField(opts, "url", "")
	body := getStringField(opts, "body", "")

	if url == "" {
		L.RaiseError("http_tls.request: url is required")
		return 0
	}

	shouldCache := lua.LVAsBool(opts.RawGetString("cache"))
	headers, _ := opts.RawGetString("headers").(*lua.LTable)

	var cacheKey string
	if shouldCache {
		cacheKey = cache.GenerateKey(url+body, method)
		var entry response
		if cache.Read(cacheKey, &entry) {
			L.Push(entry.table(L))
			return 1
		}
	}

	resp, err := doRequest(stateContext(L), method, url, tableHeaders(headers), body)
	if err != nil {
		L.RaiseError("http_tls.request failed: %s", err.Error())
		return 0
	}

	if shouldCache && resp.Status == http.StatusOK {
		_ = cache.Write(cacheKey, resp)
	}

	L.Push(resp.table(L))
	return 1
}

func doRequest(ctx context.Context, method, url string, headers map[string]string, body string) (response, error) {
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := Client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, fmt.Errorf("read body: %w", err)
	}

	flat := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		flat[k] = resp.Header.Get(k)
	}

	return response{Status: resp.StatusCode, Body: string(data), Headers: flat}, nil
}

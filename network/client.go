// Package network provides the HTTP clients shared by the catalog gateway and provider backends.
package network

import (
	"net/http"
	"time"
)

// Client is the shared plain HTTP client. The catalog gateway and the mapping
// fetcher use it; providers that sit behind bot protection use Browser.
var Client = &http.Client{
	Timeout:   time.Minute,
	Transport: newTransport(),
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.MaxConnsPerHost = 200
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 30 * time.Second
	return t
}

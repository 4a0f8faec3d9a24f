package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nezuko-cli/nezuko/constant"
	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const browserTimeout = 30 * time.Second

// Browser issues requests with a Chrome 120 TLS ClientHello. It negotiates
// HTTP/2 first and retries over HTTP/1.1 when the h2 exchange fails.
var Browser = &http.Client{
	Timeout:   browserTimeout,
	Transport: &browserTransport{},
}

type browserTransport struct {
	once sync.Once
	h2   *http2.Transport
	h1   *http.Transport
}

func (b *browserTransport) init() {
	b.once.Do(func() {
		b.h2 = &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialChrome(ctx, network, addr, nil)
			},
		}
		b.h1 = &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialChrome(ctx, network, addr, []string{"http/1.1"})
			},
			Proxy:           http.ProxyFromEnvironment,
			IdleConnTimeout: 30 * time.Second,
		}
	})
}

// RoundTrip implements http.RoundTripper.
func (b *browserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	b.init()

	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", constant.UserAgent)
	}

	if req.URL.Scheme != "https" {
		return b.h1.RoundTrip(req)
	}

	resp, err := b.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	retry := req.Clone(req.Context())
	if req.Body != nil {
		if req.GetBody == nil {
			return nil, err
		}
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return nil, err
		}
		retry.Body = body
	}

	return b.h1.RoundTrip(retry)
}

func dialChrome(ctx context.Context, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: browserTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}

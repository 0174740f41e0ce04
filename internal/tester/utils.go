package tester

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"

	"Proxy_Checker_Go/pkg/model"
)

// newProxyTransport 创建一个所有请求都经由 ep 转发的 http.Transport。
// http/https 代理走标准的代理协议，socks5/socks5h 通过 x/net/proxy 拨号。
func newProxyTransport(ep *model.ProxyEndpoint, timeout time.Duration) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout: timeout,
	}
	transport := &http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true}, // 许多代理使用自签名证书
		TLSHandshakeTimeout: timeout,
		DisableKeepAlives:   true,
		ForceAttemptHTTP2:   false,
	}

	switch ep.Scheme {
	case "http", "https":
		// https:// 在代理列表中表示支持 CONNECT 的 HTTP 代理，与代理之间不走 TLS
		proxyURL := ep.URL()
		proxyURL.Scheme = "http"
		transport.Proxy = http.ProxyURL(proxyURL)
		transport.DialContext = dialer.DialContext
	case "socks5", "socks5h":
		var auth *proxy.Auth
		if ep.HasCredentials() {
			auth = &proxy.Auth{User: ep.Username, Password: ep.Password}
		}
		socksDialer, err := proxy.SOCKS5("tcp", ep.Address(), auth, dialer)
		if err != nil {
			return nil, fmt.Errorf("创建 SOCKS5 拨号器失败: %w", err)
		}
		contextDialer, ok := socksDialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("SOCKS5 拨号器不支持 context")
		}
		transport.DialContext = contextDialer.DialContext
	default:
		return nil, fmt.Errorf("不支持的代理协议: %s", ep.Scheme)
	}
	return transport, nil
}

// newProxyClient 创建经由 ep 的 http.Client，followRedirects 为 false 时直接返回 3xx 响应
func newProxyClient(ep *model.ProxyEndpoint, timeout time.Duration, followRedirects bool) (*http.Client, error) {
	transport, err := newProxyTransport(ep, timeout)
	if err != nil {
		return nil, err
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
	if !followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse // 阻止重定向
		}
	}
	return client, nil
}

// newRequest 创建带 User-Agent 的 GET 请求
func newRequest(ctx context.Context, url, userAgent string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return req, nil
}

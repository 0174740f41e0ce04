package tester

import (
	"context"
	"io"
	"net/http"
	"strings"

	"Proxy_Checker_Go/pkg/model"
)

// maxAnonymityBody 回显服务响应体的读取上限
const maxAnonymityBody = 64 << 10

// Anonymity 经由代理请求回显客户端 IP 的服务，仅当状态码为 200
// 且响应体中包含代理自身 IP 时返回 true。host 不是 IP 字面量时直接返回 false。
func (p *Prober) Anonymity(ctx context.Context, ep *model.ProxyEndpoint) bool {
	if ep.IP == "" {
		return false
	}

	client, err := newProxyClient(ep, p.opts.Timeout, true)
	if err != nil {
		return false
	}
	req, err := newRequest(ctx, p.opts.AnonymityURL, p.opts.UserAgent)
	if err != nil {
		return false
	}
	response, err := client.Do(req)
	if err != nil {
		return false
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return false
	}
	body, err := io.ReadAll(io.LimitReader(response.Body, maxAnonymityBody))
	if err != nil {
		return false
	}
	return strings.Contains(string(body), ep.IP)
}

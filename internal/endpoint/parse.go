// Package endpoint 把原始代理字符串解析为结构化的 ProxyEndpoint。
//
// 支持的格式：
//
//	host:port
//	host:port:user:pass
//	user:pass@host:port
//	scheme://<以上任一格式>
//
// 解析是纯函数，不做任何 I/O。
package endpoint

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"Proxy_Checker_Go/pkg/model"
)

// DefaultScheme 输入中未给出协议时使用
const DefaultScheme = "http"

// ParseError 表示一行输入无法解析，该行会被直接丢弃
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid proxy %q: %s", e.Raw, e.Reason)
}

// Parse 解析一行代理字符串。Raw 字段保存原始输入，不做任何改写。
func Parse(raw string) (*model.ProxyEndpoint, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return nil, &ParseError{Raw: raw, Reason: "empty line"}
	}

	ep := &model.ProxyEndpoint{Raw: raw, Scheme: DefaultScheme}
	if idx := strings.Index(body, "://"); idx >= 0 {
		if scheme := strings.ToLower(body[:idx]); scheme != "" {
			ep.Scheme = scheme
		}
		body = body[idx+len("://"):]
	}

	if at := strings.LastIndex(body, "@"); at >= 0 {
		creds, hostPort := body[:at], body[at+1:]
		colon := strings.Index(hostPort, ":")
		if colon < 0 {
			return nil, &ParseError{Raw: raw, Reason: "missing port after '@'"}
		}
		ep.Host, ep.Port = hostPort[:colon], hostPort[colon+1:]
		if user, pass, ok := strings.Cut(creds, ":"); ok {
			ep.Username, ep.Password = user, pass
		} else {
			ep.Username = creds
		}
	} else {
		parts := strings.Split(body, ":")
		switch len(parts) {
		case 2:
			ep.Host, ep.Port = parts[0], parts[1]
		case 4:
			ep.Host, ep.Port = parts[0], parts[1]
			ep.Username, ep.Password = parts[2], parts[3]
		default:
			return nil, &ParseError{Raw: raw, Reason: fmt.Sprintf("expected 2 or 4 ':'-separated fields, got %d", len(parts))}
		}
	}

	if ep.Host == "" {
		return nil, &ParseError{Raw: raw, Reason: "empty host"}
	}
	if n, err := strconv.Atoi(ep.Port); err != nil || n < 1 || n > 65535 {
		return nil, &ParseError{Raw: raw, Reason: fmt.Sprintf("invalid port %q", ep.Port)}
	}

	if ip := net.ParseIP(ep.Host); ip != nil {
		ep.IP = ep.Host
		ep.Private = IsPrivate(ip)
	}
	return ep, nil
}

package tester

import (
	"context"
	"fmt"
	"time"

	"Proxy_Checker_Go/pkg/model"
)

// Options 描述所有 HTTP 探测共用的参数
type Options struct {
	Timeout           time.Duration // 单次尝试的总时限
	UserAgent         string
	HostCheckURL      string
	AnonymityURL      string
	SpeedTestURL      string
	SpeedTestMaxBytes int64
	RateLimitMB       float64 // 测速读取限速，0 表示不限
}

// Prober 经由代理执行存活、匿名与测速探测。可被多个 goroutine 并发使用。
type Prober struct {
	opts Options
}

// NewProber 创建一个新的 Prober
func NewProber(opts Options) *Prober {
	return &Prober{opts: opts}
}

// LivenessResult 包含一次存活探测的结果
type LivenessResult struct {
	Alive      bool
	Latency    time.Duration // 无论成败都记录本次尝试耗时
	StatusCode int           // 未收到响应时为 0
	Err        error         // 仅用于调试日志
}

// Responded 报告是否收到过 HTTP 响应
func (r LivenessResult) Responded() bool {
	return r.StatusCode != 0
}

// Liveness 经由代理请求 HostCheckURL 一次，2xx/3xx 视为存活。
// 只读取状态码，不下载响应体，也不跟随重定向。
func (p *Prober) Liveness(ctx context.Context, ep *model.ProxyEndpoint) LivenessResult {
	var res LivenessResult

	client, err := newProxyClient(ep, p.opts.Timeout, false)
	if err != nil {
		res.Err = err
		return res
	}
	req, err := newRequest(ctx, p.opts.HostCheckURL, p.opts.UserAgent)
	if err != nil {
		res.Err = err
		return res
	}

	startTime := time.Now()
	response, err := client.Do(req)
	res.Latency = time.Since(startTime)
	if err != nil {
		res.Err = err
		return res
	}
	response.Body.Close()

	res.StatusCode = response.StatusCode
	if response.StatusCode >= 200 && response.StatusCode < 400 {
		res.Alive = true
	} else {
		res.Err = fmt.Errorf("invalid status code: %d", response.StatusCode)
	}
	return res
}

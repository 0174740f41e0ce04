package tester

import (
	"context"
	"errors"
	"io"
	"time"

	"golang.org/x/time/rate"

	"Proxy_Checker_Go/pkg/model"
)

// minElapsedSeconds 防止传输在亚毫秒内完成时除以零
const minElapsedSeconds = 0.001

// Throughput 经由代理从 SpeedTestURL 下载，读满 SpeedTestMaxBytes 或达到 Timeout 即停止，
// 返回平均速度（KB/s）。请求失败、非 2xx 状态、未收到任何数据时返回 false。
func (p *Prober) Throughput(ctx context.Context, ep *model.ProxyEndpoint) (float64, bool) {
	testCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	client, err := newProxyClient(ep, p.opts.Timeout, true)
	if err != nil {
		return 0, false
	}
	// 由 testCtx 控制总时长，超时后仍按已收到的数据计算速度
	client.Timeout = 0

	req, err := newRequest(testCtx, p.opts.SpeedTestURL, p.opts.UserAgent)
	if err != nil {
		return 0, false
	}
	response, err := client.Do(req)
	if err != nil {
		return 0, false
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return 0, false
	}

	buffer := make([]byte, 32*1024)

	// 如果设置了速率限制，则创建限速器
	var limiter *rate.Limiter
	if p.opts.RateLimitMB > 0 {
		limit := p.opts.RateLimitMB * 1024 * 1024
		burst := max(int(limit), len(buffer))
		limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}

	maxBytes := p.opts.SpeedTestMaxBytes
	timeStart := time.Now()
	var contentRead int64
	for contentRead < maxBytes {
		chunk := buffer
		if remaining := maxBytes - contentRead; remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}
		if limiter != nil {
			// 等待会超过截止时间时直接结束测速
			if err := limiter.WaitN(testCtx, len(chunk)); err != nil {
				break
			}
		}

		n, err := response.Body.Read(chunk)
		contentRead += int64(n)
		if err != nil {
			if errors.Is(err, io.EOF) || testCtx.Err() != nil {
				break
			}
			return 0, false
		}
	}
	elapsed := time.Since(timeStart).Seconds()

	// 外部取消不算测速结果
	if ctx.Err() != nil || contentRead == 0 {
		return 0, false
	}
	return (float64(contentRead) / 1024) / max(elapsed, minElapsedSeconds), true
}

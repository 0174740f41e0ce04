package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"Proxy_Checker_Go/internal/config"
	"Proxy_Checker_Go/internal/endpoint"
	"Proxy_Checker_Go/internal/logger"
	"Proxy_Checker_Go/internal/output"
	"Proxy_Checker_Go/internal/tester"
	"Proxy_Checker_Go/pkg/model"
)

// Prober 执行经由代理的 HTTP 探测，必须可被并发调用
type Prober interface {
	Liveness(ctx context.Context, ep *model.ProxyEndpoint) tester.LivenessResult
	Anonymity(ctx context.Context, ep *model.ProxyEndpoint) bool
	Throughput(ctx context.Context, ep *model.ProxyEndpoint) (float64, bool)
}

// Pinger 执行 ICMP 探测
type Pinger interface {
	Available() bool
	Ping(ctx context.Context, ip string, timeout time.Duration) (int64, bool)
}

// ProgressCallback 在每个代理检查结束后被调用，会被多个 goroutine 并发调用
type ProgressCallback func(outcome model.Outcome)

// Engine 按固定顺序对代理执行各阶段检查，并以固定大小的线程池调度整批代理。
type Engine struct {
	cfg    config.Config
	prober Prober
	pinger Pinger

	// OnResult 可选
	OnResult ProgressCallback
}

// New 创建引擎。cfg 按值保存，运行期间不会被修改；pinger 可以为 nil。
func New(cfg config.Config, prober Prober, pinger Pinger) *Engine {
	return &Engine{cfg: cfg, prober: prober, pinger: pinger}
}

// ProberFromConfig 根据配置创建默认的 HTTP 探测器
func ProberFromConfig(cfg config.Config) *tester.Prober {
	return tester.NewProber(tester.Options{
		Timeout:           cfg.AttemptTimeout(),
		UserAgent:         cfg.UserAgent,
		HostCheckURL:      cfg.HostCheckURL,
		AnonymityURL:      cfg.AnonymityURL,
		SpeedTestURL:      cfg.SpeedTestURL,
		SpeedTestMaxBytes: cfg.SpeedTestMaxBytes,
		RateLimitMB:       cfg.SpeedRateLimitMB,
	})
}

// Check 对单个原始代理字符串执行完整的检查流程：
//  1. 解析，失败则丢弃
//  2. 私有地址且未允许时丢弃
//  3. ICMP 与存活探测同时进行，ICMP 结果只做记录
//  4. 存活失败为 Dead
//  5. 延迟超过 max_ms 为 Slow（等于时通过）
//  6. 匿名检测失败则丢弃
//  7. 测速只做记录，失败不影响结论
//
// 解析与私有地址检查不产生任何网络请求。ctx 被取消后得到的结果记为 abandoned。
func (e *Engine) Check(ctx context.Context, raw string) model.Outcome {
	out := model.Outcome{Raw: raw}

	ep, err := endpoint.Parse(raw)
	if err != nil {
		out.Reason = model.DropParse
		return out
	}
	if ep.Private && !e.cfg.AllowPrivateIPs {
		out.Reason = model.DropPrivate
		return out
	}

	var pingCh chan *int64
	if e.cfg.EnablePing && e.pinger != nil && ep.IP != "" && e.pinger.Available() {
		pingCh = make(chan *int64, 1)
		go func() {
			if ms, ok := e.pinger.Ping(ctx, ep.IP, e.cfg.PingTimeout()); ok {
				pingCh <- &ms
				return
			}
			pingCh <- nil
		}()
	}

	live := e.prober.Liveness(ctx, ep)
	if pingCh != nil {
		out.PingMs = <-pingCh
	}
	if ctx.Err() != nil {
		return abandon(out)
	}
	if live.Responded() {
		ms := live.Latency.Milliseconds()
		out.LatencyMs = &ms
	}
	if !live.Alive {
		out.Verdict = model.VerdictDead
		return out
	}
	if time.Duration(*out.LatencyMs)*time.Millisecond > e.cfg.MaxLatency() {
		out.Verdict = model.VerdictSlow
		return out
	}

	if e.cfg.CheckAnonymity {
		anonymous := e.prober.Anonymity(ctx, ep)
		if ctx.Err() != nil {
			return abandon(out)
		}
		out.Anonymous = &anonymous
		if !anonymous {
			out.Reason = model.DropAnonymity
			return out
		}
	}

	if e.cfg.SpeedTest {
		kbps, ok := e.prober.Throughput(ctx, ep)
		if ctx.Err() != nil {
			return abandon(out)
		}
		if ok {
			out.ThroughputKBps = &kbps
		}
		out.BelowMinSpeed = !ok || kbps < e.cfg.MinSpeedKBps
	}

	out.Verdict = model.VerdictPassed
	return out
}

func abandon(out model.Outcome) model.Outcome {
	out.Verdict = model.VerdictDropped
	out.Reason = model.DropAbandoned
	return out
}

// Run 以 cfg.Threads 个线程检查 proxies 中的每一项，通过的代理交给 sink 写入。
// ctx 被取消后停止提交新任务，进行中的检查随之放弃；无论如何都会在所有线程退出后
// 关闭 sink 并等待其写完。只有 sink 写入失败会返回错误。
func (e *Engine) Run(ctx context.Context, proxies []string, sink *output.Sink, stats *Stats) error {
	l := logger.WithComponent("Engine").With().Str("run_id", uuid.NewString()).Logger()

	threads := e.cfg.Threads
	if threads <= 0 {
		threads = 1
	}
	stats.total.Store(int64(len(proxies)))
	l.Info().Int("count", len(proxies)).Int("threads", threads).Msg("Starting verification run...")
	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(sink.Run)

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for raw := range jobs {
				e.process(gctx, raw, sink, stats, l)
			}
		}()
	}

	func() {
		// 即使提交循环异常退出，也要保证 sink 收到结束信号
		defer func() {
			close(jobs)
			wg.Wait()
			sink.Close()
		}()
		for _, raw := range proxies {
			if gctx.Err() != nil {
				return
			}
			select {
			case jobs <- raw:
				stats.submitted.Add(1)
			case <-gctx.Done():
				return
			}
		}
	}()

	if err := g.Wait(); err != nil {
		return fmt.Errorf("结果写入失败: %w", err)
	}

	snap := stats.Snapshot()
	ev := l.Info()
	if ctx.Err() != nil {
		ev = l.Warn().Bool("interrupted", true)
	}
	ev.Int64("submitted", snap.Submitted).
		Int64("checked", snap.Checked).
		Int64("passed", snap.Passed).
		Dur("elapsed", time.Since(started)).
		Msg("Verification run finished.")
	return nil
}

// process 执行一次检查并更新统计。单个代理的异常不会影响其他代理。
func (e *Engine) process(ctx context.Context, raw string, sink *output.Sink, stats *Stats, l zerolog.Logger) {
	outcome := model.Outcome{Raw: raw, Verdict: model.VerdictDead}
	defer func() {
		if r := recover(); r != nil {
			l.Error().Str("proxy", raw).Interface("panic", r).Msg("Check panicked, marking proxy as dead.")
			outcome = model.Outcome{Raw: raw, Verdict: model.VerdictDead}
		}
		stats.record(outcome)
		if e.OnResult != nil {
			e.OnResult(outcome)
		}
	}()

	outcome = e.Check(ctx, raw)
	if outcome.Verdict == model.VerdictPassed && !sink.Push(outcome.Raw) {
		outcome = abandon(outcome)
	}

	ev := l.Debug().Str("proxy", raw).Str("verdict", outcome.Verdict.String())
	if outcome.Reason != model.DropNone {
		ev = ev.Str("reason", string(outcome.Reason))
	}
	if outcome.LatencyMs != nil {
		ev = ev.Int64("latency_ms", *outcome.LatencyMs)
	}
	if outcome.PingMs != nil {
		ev = ev.Int64("ping_ms", *outcome.PingMs)
	}
	if outcome.ThroughputKBps != nil {
		ev = ev.Float64("kbps", *outcome.ThroughputKBps)
	}
	ev.Msg("Proxy checked.")
}

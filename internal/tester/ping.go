package tester

import (
	"context"
	"errors"
	"math"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"sync"
	"time"
)

const (
	// pingGrace 在 ping 自身超时之外额外给子进程的时间
	pingGrace = 200 * time.Millisecond
	// selfProbeTimeout 启动自检的时限
	selfProbeTimeout = time.Second
)

var (
	// PingTimeRegexp 从 ping 输出中提取往返时间，例如 "time=12.3 ms" 或 "time<1ms"
	PingTimeRegexp = regexp.MustCompile(`(?i)time[=<]([\d.]+)\s?ms`)
)

// CommandRunner 执行外部命令并返回标准输出
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Pinger 通过系统 ping 命令测量 ICMP 延迟
type Pinger struct {
	goos string
	run  CommandRunner

	once      sync.Once
	available bool
}

// NewPinger 使用系统 ping 命令创建 Pinger
func NewPinger() *Pinger {
	return NewPingerWithRunner(runtime.GOOS, execRunner)
}

// NewPingerWithRunner 允许替换命令执行方式与目标系统
func NewPingerWithRunner(goos string, run CommandRunner) *Pinger {
	return &Pinger{goos: goos, run: run}
}

// Available 对 127.0.0.1 执行一次 ping 判断当前环境是否存在 ping 命令，结果在本次运行内缓存。
// 命令能启动即视为可用，即使退出码非零。
func (p *Pinger) Available() bool {
	p.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), selfProbeTimeout)
		defer cancel()

		_, err := p.run(ctx, "ping", p.args("127.0.0.1", selfProbeTimeout)...)
		if ctx.Err() != nil {
			return
		}
		var exitErr *exec.ExitError
		p.available = err == nil || errors.As(err, &exitErr)
	})
	return p.available
}

// Ping 对 ip 执行一次 ping，返回往返毫秒数。任何失败、超时或无法解析都返回 false。
func (p *Pinger) Ping(ctx context.Context, ip string, timeout time.Duration) (int64, bool) {
	if ip == "" || !p.Available() {
		return 0, false
	}

	ctx, cancel := context.WithTimeout(ctx, timeout+pingGrace)
	defer cancel()

	out, err := p.run(ctx, "ping", p.args(ip, timeout)...)
	if err != nil {
		return 0, false
	}
	match := PingTimeRegexp.FindSubmatch(out)
	if match == nil {
		return 1, true // 成功但未给出时间，通常是 <1ms
	}
	ms, err := strconv.ParseFloat(string(match[1]), 64)
	if err != nil {
		return 1, true
	}
	return int64(ms), true
}

// args 构造各平台的 ping 参数：Windows 与 macOS 的 -w/-W 单位为毫秒，Linux 为秒
func (p *Pinger) args(ip string, timeout time.Duration) []string {
	switch p.goos {
	case "windows":
		return []string{"-n", "1", "-w", strconv.FormatInt(timeout.Milliseconds(), 10), ip}
	case "darwin":
		return []string{"-c", "1", "-W", strconv.FormatInt(timeout.Milliseconds(), 10), ip}
	default:
		secs := int64(math.Ceil(timeout.Seconds()))
		if secs < 1 {
			secs = 1
		}
		return []string{"-c", "1", "-W", strconv.FormatInt(secs, 10), ip}
	}
}

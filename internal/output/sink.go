package output

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"Proxy_Checker_Go/internal/logger"
)

// Sink 是结果文件的唯一写入者。检查线程通过有界队列提交通过的代理，
// Sink 按到达顺序逐行写入并在每行后立即刷盘。
type Sink struct {
	file  *os.File
	path  string
	fsync bool

	queue     chan string
	done      chan struct{}
	closeOnce sync.Once
	written   atomic.Int64
	err       error
}

// NewSink 创建（或截断）结果文件。文件无法打开时返回错误，整个运行应随之终止。
func NewSink(path string, queueSize int, fsync bool) (*Sink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("无法创建结果文件 '%s': %w", path, err)
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Sink{
		file:  file,
		path:  path,
		fsync: fsync,
		queue: make(chan string, queueSize),
		done:  make(chan struct{}),
	}, nil
}

// Run 持续消费队列直到 Close 被调用且队列排空，然后关闭文件。
// 写入失败时立即返回错误，之后的 Push 都会被拒绝。
func (s *Sink) Run() error {
	l := logger.WithComponent("Sink")
	defer close(s.done)

	for raw := range s.queue {
		if _, err := s.file.WriteString(raw + "\n"); err != nil {
			s.err = fmt.Errorf("写入结果文件 '%s' 失败: %w", s.path, err)
			break
		}
		if s.fsync {
			if err := s.file.Sync(); err != nil {
				s.err = fmt.Errorf("同步结果文件 '%s' 失败: %w", s.path, err)
				break
			}
		}
		s.written.Add(1)
	}

	if err := s.file.Close(); err != nil && s.err == nil {
		s.err = fmt.Errorf("关闭结果文件 '%s' 失败: %w", s.path, err)
	}
	if s.err != nil {
		l.Error().Err(s.err).Msg("Result sink stopped.")
		return s.err
	}
	l.Debug().Int64("written", s.written.Load()).Str("path", s.path).Msg("Result sink drained.")
	return nil
}

// Push 把一条通过的原始代理字符串交给写入线程。队列满时阻塞；
// Sink 已停止或 raw 为空时返回 false。Close 之后不得再调用。
func (s *Sink) Push(raw string) bool {
	if raw == "" {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.queue <- raw:
		return true
	case <-s.done:
		return false
	}
}

// Close 发送结束信号。可以重复调用。
func (s *Sink) Close() {
	s.closeOnce.Do(func() { close(s.queue) })
}

// Done 在 Run 返回后关闭
func (s *Sink) Done() <-chan struct{} {
	return s.done
}

// Written 已成功写入的行数
func (s *Sink) Written() int64 {
	return s.written.Load()
}

// Path 结果文件路径
func (s *Sink) Path() string {
	return s.path
}

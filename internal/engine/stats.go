package engine

import (
	"sync"
	"sync/atomic"

	"github.com/VividCortex/ewma"

	"Proxy_Checker_Go/pkg/model"
)

// Stats 是一次运行的统计信息，由所有检查线程并发更新，只用于展示。
type Stats struct {
	total     atomic.Int64
	submitted atomic.Int64
	checked   atomic.Int64
	passed    atomic.Int64
	dead      atomic.Int64
	slow      atomic.Int64
	dropped   atomic.Int64

	mu         sync.Mutex
	latencyAvg ewma.MovingAverage // 通过代理的延迟滑动平均 (ms)
	speedAvg   ewma.MovingAverage // 通过代理的速度滑动平均 (KB/s)
}

// Snapshot 是 Stats 在某一时刻的只读副本
type Snapshot struct {
	Total     int64
	Submitted int64
	Checked   int64
	Passed    int64
	Dead      int64
	Slow      int64
	Dropped   int64

	AvgLatencyMs      float64
	AvgThroughputKBps float64
}

// NewStats 创建一个空的统计对象
func NewStats() *Stats {
	return &Stats{
		latencyAvg: ewma.NewMovingAverage(),
		speedAvg:   ewma.NewMovingAverage(),
	}
}

func (s *Stats) record(o model.Outcome) {
	switch o.Verdict {
	case model.VerdictPassed:
		s.passed.Add(1)
		s.mu.Lock()
		if o.LatencyMs != nil {
			s.latencyAvg.Add(float64(*o.LatencyMs))
		}
		if o.ThroughputKBps != nil {
			s.speedAvg.Add(*o.ThroughputKBps)
		}
		s.mu.Unlock()
	case model.VerdictDead:
		s.dead.Add(1)
	case model.VerdictSlow:
		s.slow.Add(1)
	default:
		s.dropped.Add(1)
	}
	s.checked.Add(1)
}

// Snapshot 返回当前计数
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Total:     s.total.Load(),
		Submitted: s.submitted.Load(),
		Checked:   s.checked.Load(),
		Passed:    s.passed.Load(),
		Dead:      s.dead.Load(),
		Slow:      s.slow.Load(),
		Dropped:   s.dropped.Load(),
	}
	s.mu.Lock()
	snap.AvgLatencyMs = s.latencyAvg.Value()
	snap.AvgThroughputKBps = s.speedAvg.Value()
	s.mu.Unlock()
	return snap
}

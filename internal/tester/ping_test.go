package tester

import (
	"context"
	"errors"
	"os/exec"
	"reflect"
	"sync"
	"testing"
	"time"
)

type fakeRunner struct {
	mu     sync.Mutex
	calls  [][]string
	output map[string]string // 目标 IP -> 输出
	err    map[string]error
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
	target := args[len(args)-1]
	if err := f.err[target]; err != nil {
		return nil, err
	}
	return []byte(f.output[target]), nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestPinger_AvailableIsCached(t *testing.T) {
	fr := &fakeRunner{}
	p := NewPingerWithRunner("linux", fr.run)

	if !p.Available() || !p.Available() {
		t.Fatalf("want available")
	}
	if got := fr.callCount(); got != 1 {
		t.Fatalf("self-probe ran %d times, want 1", got)
	}
}

func TestPinger_AvailableWithNonZeroExit(t *testing.T) {
	fr := &fakeRunner{err: map[string]error{"127.0.0.1": &exec.ExitError{}}}
	if !NewPingerWithRunner("linux", fr.run).Available() {
		t.Fatalf("a ping binary that exits non-zero still counts as available")
	}
}

func TestPinger_UnavailableSkipsProbe(t *testing.T) {
	fr := &fakeRunner{err: map[string]error{"127.0.0.1": exec.ErrNotFound}}
	p := NewPingerWithRunner("linux", fr.run)

	if p.Available() {
		t.Fatalf("want unavailable")
	}
	if _, ok := p.Ping(context.Background(), "8.8.8.8", time.Second); ok {
		t.Fatalf("want absent when unavailable")
	}
	if got := fr.callCount(); got != 1 {
		t.Fatalf("runner called %d times, want only the self-probe", got)
	}
}

func TestPinger_ParsesOutput(t *testing.T) {
	fr := &fakeRunner{output: map[string]string{
		"1.1.1.1": "64 bytes from 1.1.1.1: icmp_seq=1 ttl=57 time=12.7 ms\n",
		"2.2.2.2": "Reply from 2.2.2.2: bytes=32 time<1ms TTL=128\n",
		"3.3.3.3": "1 packets transmitted, 1 received\n",
	}}
	p := NewPingerWithRunner("linux", fr.run)

	tests := []struct {
		ip   string
		want int64
	}{
		{"1.1.1.1", 12},
		{"2.2.2.2", 1},
		{"3.3.3.3", 1},
	}
	for _, tt := range tests {
		got, ok := p.Ping(context.Background(), tt.ip, time.Second)
		if !ok || got != tt.want {
			t.Fatalf("Ping(%s)=(%d, %v), want (%d, true)", tt.ip, got, ok, tt.want)
		}
	}
}

func TestPinger_FailureIsAbsent(t *testing.T) {
	fr := &fakeRunner{err: map[string]error{"9.9.9.9": errors.New("exit status 1")}}
	p := NewPingerWithRunner("linux", fr.run)

	if _, ok := p.Ping(context.Background(), "9.9.9.9", time.Second); ok {
		t.Fatalf("want absent on failure")
	}
	if _, ok := p.Ping(context.Background(), "", time.Second); ok {
		t.Fatalf("want absent without ip")
	}
}

func TestPinger_Args(t *testing.T) {
	tests := []struct {
		goos    string
		timeout time.Duration
		want    []string
	}{
		{"linux", time.Second, []string{"-c", "1", "-W", "1", "8.8.8.8"}},
		{"linux", 1500 * time.Millisecond, []string{"-c", "1", "-W", "2", "8.8.8.8"}},
		{"linux", 200 * time.Millisecond, []string{"-c", "1", "-W", "1", "8.8.8.8"}},
		{"darwin", 800 * time.Millisecond, []string{"-c", "1", "-W", "800", "8.8.8.8"}},
		{"windows", time.Second, []string{"-n", "1", "-w", "1000", "8.8.8.8"}},
	}
	for _, tt := range tests {
		p := NewPingerWithRunner(tt.goos, nil)
		if got := p.args("8.8.8.8", tt.timeout); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("%s args=%q, want %q", tt.goos, got, tt.want)
		}
	}
}

package output

import "Proxy_Checker_Go/pkg/model"

// HumanReadableResult 定义了一个对人类友好的、用于报告文件输出的数据结构
type HumanReadableResult struct {
	Proxy          string   `json:"Proxy"`
	Verdict        string   `json:"Verdict"`
	LatencyMS      *int64   `json:"LatencyMS,omitempty"` // 延迟 (毫秒)
	PingMS         *int64   `json:"PingMS,omitempty"`
	Anonymous      *bool    `json:"Anonymous,omitempty"`
	ThroughputKBps *float64 `json:"ThroughputKBps,omitempty"` // 下载速度 (KB/s)
	BelowMinSpeed  bool     `json:"BelowMinSpeed,omitempty"`
}

// ToHumanReadable 将检查结果转换为对人类友好的格式
func ToHumanReadable(results []model.Outcome) []HumanReadableResult {
	humanResults := make([]HumanReadableResult, len(results))
	for i, r := range results {
		humanResults[i] = HumanReadableResult{
			Proxy:          r.Raw,
			Verdict:        r.Verdict.String(),
			LatencyMS:      r.LatencyMs,
			PingMS:         r.PingMs,
			Anonymous:      r.Anonymous,
			ThroughputKBps: r.ThroughputKBps,
			BelowMinSpeed:  r.BelowMinSpeed,
		}
	}
	return humanResults
}

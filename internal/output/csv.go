package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"Proxy_Checker_Go/internal/logger"
	"Proxy_Checker_Go/pkg/model"
)

// WriteCSVFile 将检查结果列表写入到指定的 CSV 文件中
func WriteCSVFile(filePath string, results []model.Outcome) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("无法创建 CSV 文件 '%s': %w", filePath, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// 写入表头
	header := []string{
		"Proxy",
		"Verdict",
		"Latency (ms)",
		"Ping (ms)",
		"Anonymous",
		"Throughput (KB/s)",
		"Below Min Speed",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("写入 CSV 表头失败: %w", err)
	}

	l := logger.WithComponent("Report")
	for _, r := range ToHumanReadable(results) {
		row := []string{
			r.Proxy,
			r.Verdict,
			formatInt(r.LatencyMS),
			formatInt(r.PingMS),
			formatBool(r.Anonymous),
			formatFloat(r.ThroughputKBps),
			strconv.FormatBool(r.BelowMinSpeed),
		}
		if err := writer.Write(row); err != nil {
			// 记录错误但继续尝试写入其他行
			l.Warn().Err(err).Str("proxy", r.Proxy).Msg("Failed to write CSV row.")
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteReport 根据扩展名选择 JSON 或 CSV 格式
func WriteReport(filePath string, results []model.Outcome) error {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		return WriteJSONFile(filePath, results)
	case ".csv":
		return WriteCSVFile(filePath, results)
	default:
		return fmt.Errorf("不支持的报告格式: %s", filePath)
	}
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

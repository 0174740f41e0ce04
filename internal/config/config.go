package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config 结构用于映射 config.yaml（或 .ini）文件的内容。
// 加载完成后作为只读值在所有检查任务间共享。
type Config struct {
	Threads       int      `yaml:"threads" ini:"threads"`
	Timeout       float64  `yaml:"timeout" ini:"timeout"` // 秒
	MaxMs         int64    `yaml:"max_ms" ini:"max_ms"`
	ImportFiles   []string `yaml:"import_files" ini:"import_files" delim:","`
	ExportFile    string   `yaml:"export_file" ini:"export_file"`
	ReportFile    string   `yaml:"report_file" ini:"report_file"`
	HostCheckURL  string   `yaml:"host_check_url" ini:"host_check_url"`
	EnablePing    bool     `yaml:"enable_ping" ini:"enable_ping"`
	PingTimeoutMs int      `yaml:"ping_timeout_ms" ini:"ping_timeout_ms"`

	CheckAnonymity bool   `yaml:"check_anonymity" ini:"check_anonymity"`
	AnonymityURL   string `yaml:"anonymity_url" ini:"anonymity_url"`

	SpeedTest         bool    `yaml:"speed_test" ini:"speed_test"`
	SpeedTestURL      string  `yaml:"speed_test_url" ini:"speed_test_url"`
	SpeedTestMaxBytes int64   `yaml:"speed_test_max_bytes" ini:"speed_test_max_bytes"`
	MinSpeedKBps      float64 `yaml:"min_speed_kbps" ini:"min_speed_kbps"`
	SpeedRateLimitMB  float64 `yaml:"speed_rate_limit_mb" ini:"speed_rate_limit_mb"`

	AllowPrivateIPs bool   `yaml:"allow_private_ips" ini:"allow_private_ips"`
	UserAgent       string `yaml:"user_agent" ini:"user_agent"`
	QueueSize       int    `yaml:"queue_size" ini:"queue_size"`
	FsyncResults    bool   `yaml:"fsync_results" ini:"fsync_results"`
	LogLevel        string `yaml:"log_level" ini:"log_level"`
}

// Default 返回所有键的默认值
func Default() Config {
	return Config{
		Threads:           100,
		Timeout:           10,
		MaxMs:             3000,
		ImportFiles:       []string{"proxies.txt"},
		ExportFile:        "good_proxies.txt",
		HostCheckURL:      "https://www.google.com",
		EnablePing:        true,
		PingTimeoutMs:     1000,
		AnonymityURL:      "https://api.ipify.org",
		SpeedTestURL:      "https://speed.cloudflare.com/__down?bytes=10000000",
		SpeedTestMaxBytes: 1 << 20,
		MinSpeedKBps:      100,
		UserAgent:         defaultUserAgent,
		QueueSize:         1024,
		LogLevel:          "info",
	}
}

// AttemptTimeout 单次网络尝试的总时限
func (c Config) AttemptTimeout() time.Duration {
	return time.Duration(c.Timeout * float64(time.Second))
}

// MaxLatency 可接受的最大延迟
func (c Config) MaxLatency() time.Duration {
	return time.Duration(c.MaxMs) * time.Millisecond
}

// PingTimeout ICMP 探测的超时时间
func (c Config) PingTimeout() time.Duration {
	return time.Duration(c.PingTimeoutMs) * time.Millisecond
}

// LoadConfig 从指定路径加载配置文件，缺失的键保留默认值。
// 扩展名为 .ini 时按 INI 解析，否则按 YAML 解析。
func LoadConfig(path string) (Config, []string, error) {
	cfg := Default()

	if strings.EqualFold(filepath.Ext(path), ".ini") {
		f, err := ini.Load(path)
		if err != nil {
			return cfg, nil, fmt.Errorf("读取 INI 配置 '%s' 失败: %w", path, err)
		}
		if err := f.MapTo(&cfg); err != nil {
			return cfg, nil, fmt.Errorf("解析 INI 配置 '%s' 失败: %w", path, err)
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, nil, fmt.Errorf("读取配置文件 '%s' 失败: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, nil, fmt.Errorf("解析 YAML 配置 '%s' 失败: %w", path, err)
		}
	}

	warnings := cfg.Normalize()
	return cfg, warnings, nil
}

// Normalize 把无效的取值替换为默认值，并返回每次替换对应的警告。
func (c *Config) Normalize() []string {
	def := Default()
	var warnings []string
	fix := func(key string, bad any, apply func()) {
		warnings = append(warnings, fmt.Sprintf("%s 被设置为 %v，已使用默认值", key, bad))
		apply()
	}

	if c.Threads <= 0 {
		fix("threads", c.Threads, func() { c.Threads = def.Threads })
	}
	if c.Timeout <= 0 {
		fix("timeout", c.Timeout, func() { c.Timeout = def.Timeout })
	}
	if c.MaxMs <= 0 {
		fix("max_ms", c.MaxMs, func() { c.MaxMs = def.MaxMs })
	}
	if c.PingTimeoutMs <= 0 {
		fix("ping_timeout_ms", c.PingTimeoutMs, func() { c.PingTimeoutMs = def.PingTimeoutMs })
	}
	if c.SpeedTestMaxBytes <= 0 {
		fix("speed_test_max_bytes", c.SpeedTestMaxBytes, func() { c.SpeedTestMaxBytes = def.SpeedTestMaxBytes })
	}
	if c.QueueSize <= 0 {
		fix("queue_size", c.QueueSize, func() { c.QueueSize = def.QueueSize })
	}
	if c.SpeedRateLimitMB < 0 {
		fix("speed_rate_limit_mb", c.SpeedRateLimitMB, func() { c.SpeedRateLimitMB = 0 })
	}
	if strings.TrimSpace(c.HostCheckURL) == "" {
		fix("host_check_url", `""`, func() { c.HostCheckURL = def.HostCheckURL })
	}
	if strings.TrimSpace(c.AnonymityURL) == "" {
		fix("anonymity_url", `""`, func() { c.AnonymityURL = def.AnonymityURL })
	}
	if strings.TrimSpace(c.SpeedTestURL) == "" {
		fix("speed_test_url", `""`, func() { c.SpeedTestURL = def.SpeedTestURL })
	}
	if strings.TrimSpace(c.ExportFile) == "" {
		fix("export_file", `""`, func() { c.ExportFile = def.ExportFile })
	}
	if len(c.ImportFiles) == 0 {
		fix("import_files", "[]", func() { c.ImportFiles = def.ImportFiles })
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = def.UserAgent
	}
	return warnings
}

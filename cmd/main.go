package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"Proxy_Checker_Go/internal/config"
	"Proxy_Checker_Go/internal/datasource"
	"Proxy_Checker_Go/internal/engine"
	"Proxy_Checker_Go/internal/logger"
	"Proxy_Checker_Go/internal/output"
	"Proxy_Checker_Go/internal/tester"
	"Proxy_Checker_Go/pkg/model"
)

//go:embed default_config.yaml
var defaultConfigData []byte

// ensureFile 检查文件是否存在，如果不存在，则使用提供的默认数据创建它。
func ensureFile(filePath string, defaultData []byte) (bool, error) {
	if _, err := os.Stat(filePath); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(filePath, defaultData, 0644); err != nil {
			return false, fmt.Errorf("无法写入默认文件 %s: %w", filePath, err)
		}
		return true, nil
	} else if err != nil {
		return false, fmt.Errorf("检查文件 %s 时出错: %w", filePath, err)
	}
	return false, nil
}

// defaultConfigPath 可执行文件目录下的 config.yaml
func defaultConfigPath() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("无法获取可执行文件路径: %w", err)
	}
	return filepath.Join(filepath.Dir(exePath), "config.yaml"), nil
}

func main() {
	// 定义命令行标志
	cfgPath := flag.String("config", "", "配置文件路径 (.yaml 或 .ini)，默认为可执行文件目录下的 config.yaml")
	logLevel := flag.String("log-level", "", "日志级别，覆盖配置文件中的 log_level")
	noProgress := flag.Bool("no-progress", false, "不显示进度条")
	flag.Parse()

	logger.Init("info")

	if *cfgPath == "" {
		p, err := defaultConfigPath()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to locate config file.")
		}
		*cfgPath = p
	}
	created, err := ensureFile(*cfgPath, defaultConfigData)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise config file.")
	}
	if created {
		log.Warn().Str("path", *cfgPath).Msg("Config file created with defaults, adjust it if needed.")
	}

	// 1. 加载配置
	cfg, warnings, err := config.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *cfgPath).Msg("Failed to load config.")
	}
	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	logger.Init(level)
	for _, w := range warnings {
		log.Warn().Msg(w)
	}

	if err := run(cfg, !*noProgress); err != nil {
		log.Fatal().Err(err).Msg("Run failed.")
	}
}

func run(cfg config.Config, showProgress bool) error {
	l := logger.WithComponent("Main")

	// 2. 检查 ping 是否可用
	var pinger engine.Pinger
	if cfg.EnablePing {
		p := tester.NewPinger()
		if p.Available() {
			pinger = p
		} else {
			l.Warn().Msg("The 'ping' command is unavailable, ICMP checks disabled.")
		}
	}

	// 3. 加载代理
	l.Info().Strs("files", cfg.ImportFiles).Msg("Loading proxies...")
	proxies, err := datasource.LoadProxiesFromFiles(cfg.ImportFiles)
	if err != nil {
		return fmt.Errorf("加载代理列表失败: %w", err)
	}
	if len(proxies) == 0 {
		l.Warn().Msg("No proxies to check, exiting.")
		return nil
	}
	l.Info().
		Int("unique", len(proxies)).
		Int("threads", cfg.Threads).
		Float64("timeout_s", cfg.Timeout).
		Msg("Proxies loaded.")

	// 4. 打开结果文件
	sink, err := output.NewSink(cfg.ExportFile, cfg.QueueSize, cfg.FsyncResults)
	if err != nil {
		return err
	}

	eng := engine.New(cfg, engine.ProberFromConfig(cfg), pinger)
	stats := engine.NewStats()

	var (
		mu     sync.Mutex
		passed []model.Outcome
		bar    *progressbar.ProgressBar
	)
	if showProgress {
		bar = progressbar.Default(int64(len(proxies)), "checking")
	}
	eng.OnResult = func(o model.Outcome) {
		if o.Verdict == model.VerdictPassed && cfg.ReportFile != "" {
			mu.Lock()
			passed = append(passed, o)
			mu.Unlock()
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. 运行检查
	runErr := eng.Run(ctx, proxies, sink, stats)
	if bar != nil {
		_ = bar.Finish()
	}
	if runErr != nil {
		return runErr
	}
	if ctx.Err() != nil {
		l.Warn().Msg("Stopped by user.")
	}

	if cfg.ReportFile != "" {
		if err := output.WriteReport(cfg.ReportFile, passed); err != nil {
			l.Error().Err(err).Str("path", cfg.ReportFile).Msg("Failed to write report.")
		} else {
			l.Info().Str("path", cfg.ReportFile).Int("count", len(passed)).Msg("Report written.")
		}
	}

	snap := stats.Snapshot()
	l.Info().
		Int64("checked", snap.Checked).
		Int64("passed", snap.Passed).
		Int64("dead", snap.Dead).
		Int64("slow", snap.Slow).
		Int64("dropped", snap.Dropped).
		Float64("avg_latency_ms", snap.AvgLatencyMs).
		Float64("avg_kbps", snap.AvgThroughputKBps).
		Str("output", sink.Path()).
		Msg("Check finished.")
	return nil
}

package datasource

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"Proxy_Checker_Go/internal/logger"
)

// LoadProxiesFromFiles 从多个文件中读取代理列表，合并后按整行去重。
// 它会忽略空行、以 '#' 开头的注释行以及不含 ':' 的行，结果保持首次出现的顺序。
// 不存在的文件只记录警告；存在但无法读取的文件返回错误。
func LoadProxiesFromFiles(paths []string) ([]string, error) {
	l := logger.WithComponent("Datasource")

	seen := make(map[string]struct{})
	var proxies []string
	for _, p := range paths {
		file, err := os.Open(p)
		if errors.Is(err, fs.ErrNotExist) {
			l.Warn().Str("path", p).Msg("Proxy list not found, skipping.")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("无法打开代理文件 '%s': %w", p, err)
		}

		before := len(proxies)
		proxies, err = readProxies(file, seen, proxies)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("读取代理文件 '%s' 时出错: %w", p, err)
		}
		l.Debug().Str("path", p).Int("new", len(proxies)-before).Msg("Proxy list loaded.")
	}
	return proxies, nil
}

func readProxies(r io.Reader, seen map[string]struct{}, proxies []string) ([]string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, ":") {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		proxies = append(proxies, line)
	}
	return proxies, scanner.Err()
}

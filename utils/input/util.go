package input

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tsinghua-fib-lab/scenario-player/utils/config"
)

// preCheckCache 预检查缓存目录
// 功能：验证输入缓存目录的有效性，决定是否启用缓存功能
// 参数：cacheDir-缓存目录路径
// 返回：true表示启用缓存，false表示禁用缓存
func preCheckCache(cacheDir string) bool {
	if cacheDir == "" {
		log.Info("disable input cache")
		return false
	} else {
		if stat, err := os.Stat(cacheDir); err == nil && stat.IsDir() {
			// 文件夹存在
			log.Infof("enable input cache at %s", cacheDir)
			return true
		} else {
			log.Errorf("disable input cache because invalid dir %s (not exist or file)", cacheDir)
			return false
		}
	}
}

// cachePath 缓存文件路径：<cacheDir>/<db>.<col>.<name>.xml
func cachePath(cacheDir string, p config.InputPath) string {
	name := strings.Join([]string{p.GetDb(), p.GetColl(), p.Name}, ".")
	name = strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(name)
	return filepath.Join(cacheDir, name+".xml")
}

func readCache(cacheDir string, p config.InputPath) ([]byte, bool) {
	if cacheDir == "" {
		return nil, false
	}
	path := cachePath(cacheDir, p)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	log.Infof("read %s.%s from cache %s", p.GetDb(), p.GetColl(), path)
	return data, true
}

func writeCache(cacheDir string, p config.InputPath, data []byte) {
	if cacheDir == "" {
		return
	}
	path := cachePath(cacheDir, p)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warnf("failed to write cache %s: %v", path, err)
	}
}

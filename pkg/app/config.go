package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/lk2023060901/xdooria-keyspace/pkg/config"
)

const (
	// EnvPrefix 环境变量前缀，KEYSPACE_REDIS_STANDALONE_HOST 对应 redis.standalone.host
	EnvPrefix = "KEYSPACE"

	// EnvConfigPath 指定配置文件路径的环境变量
	EnvConfigPath = EnvPrefix + "_CONFIG"

	// DefaultConfigName 默认配置文件名，依次在工作目录和可执行文件目录中查找
	DefaultConfigName = "keyspace.yaml"
)

// RegisterConfigFlag 注册 -c/--config 参数（重复调用无副作用）
func RegisterConfigFlag(fs *pflag.FlagSet) {
	if fs.Lookup("config") == nil {
		fs.StringP("config", "c", "", "path to config file (env "+EnvConfigPath+")")
	}
}

// LoadConfig 加载配置到 target，返回实际使用的配置文件路径（没有文件时为空）
//
// 优先级：带点号的命令行参数（如 --log.level）> 环境变量 > 配置文件 > defaults。
// 环境变量只覆盖文件或 defaults 中已出现的键。
// 通过 --config 或 KEYSPACE_CONFIG 显式指定的文件必须存在，默认位置的文件可以缺省。
func LoadConfig(fs *pflag.FlagSet, target any, opts ...config.Option) (string, error) {
	path, explicit := resolveConfigPath(fs)

	mgr := config.NewManager(append([]config.Option{config.WithEnvPrefix(EnvPrefix)}, opts...)...)

	if path != "" {
		if err := mgr.LoadFile(path); err != nil {
			if explicit || !errors.Is(err, config.ErrConfigFileNotFound) {
				return "", err
			}
			path = ""
		}
	}

	if fs != nil {
		fs.Visit(func(f *pflag.Flag) {
			if strings.Contains(f.Name, ".") {
				mgr.Set(f.Name, f.Value.String())
			}
		})
	}

	if err := mgr.Unmarshal(target); err != nil {
		return "", err
	}
	return path, nil
}

// resolveConfigPath 返回候选配置文件及其是否由用户显式指定
func resolveConfigPath(fs *pflag.FlagSet) (string, bool) {
	if fs != nil && fs.Changed("config") {
		if p, err := fs.GetString("config"); err == nil && p != "" {
			return p, true
		}
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, true
	}

	if _, err := os.Stat(DefaultConfigName); err == nil {
		return DefaultConfigName, false
	}
	if dir, err := ExecDir(); err == nil {
		return filepath.Join(dir, DefaultConfigName), false
	}
	return "", false
}

// ExecDir 可执行文件所在目录（解析符号链接）
func ExecDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return filepath.Dir(execPath), nil
	}
	return filepath.Dir(realPath), nil
}

package app

import (
	"fmt"
	"runtime"
)

// 构建时注入：
//
//	go build -ldflags "-X github.com/lk2023060901/xdooria-keyspace/pkg/app.Version=v1.2.0 \
//	  -X github.com/lk2023060901/xdooria-keyspace/pkg/app.GitCommit=$(git rev-parse --short HEAD)"
var (
	Version   = "unknown"
	GitCommit = "unknown"
	BuildDate = "unknown"
	AppName   = "keyspace"
)

// Info 构建信息，version 子命令输出
type Info struct {
	AppName   string `json:"app_name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo 当前二进制的构建信息
func GetInfo() Info {
	return Info{
		AppName:   AppName,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Release Sentry 使用的 release 标识，形如 keyspace@v1.2.0
func (i Info) Release() string {
	return i.AppName + "@" + i.Version
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s %s)",
		i.AppName, i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}

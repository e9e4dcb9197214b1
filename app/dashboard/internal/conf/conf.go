package conf

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Bootstrap struct {
	Server    *Server    `json:"server" yaml:"server"`
	Data      *Data      `json:"data" yaml:"data"`
	Dashboard *Dashboard `json:"dashboard" yaml:"dashboard"`
	Log       *Log       `json:"log" yaml:"log"`
}

type Server struct {
	Http *HTTP `json:"http" yaml:"http"`
	Grpc *GRPC `json:"grpc" yaml:"grpc"`
}

type HTTP struct {
	Addr    string `json:"addr" yaml:"addr"`
	Timeout string `json:"timeout" yaml:"timeout"`
}

type GRPC struct {
	Addr    string `json:"addr" yaml:"addr"`
	Timeout string `json:"timeout" yaml:"timeout"`
}

// Data 后端配置，Provider 取值 sql 或 rest
type Data struct {
	Provider string    `json:"provider" yaml:"provider"`
	Database *Database `json:"database" yaml:"database"`
	Rest     *Rest     `json:"rest" yaml:"rest"`
}

// Database Driver 取值 postgres 或 sqlite3
type Database struct {
	Driver string `json:"driver" yaml:"driver"`
	Source string `json:"source" yaml:"source"`
}

// Rest PostgREST (Supabase) 接口配置
type Rest struct {
	BaseUrl string `json:"base_url" yaml:"base_url"`
	ApiKey  string `json:"api_key" yaml:"api_key"`
	Timeout string `json:"timeout" yaml:"timeout"`
	Qps     int32  `json:"qps" yaml:"qps"`
	Burst   int32  `json:"burst" yaml:"burst"`
}

type Dashboard struct {
	// Window 只展示该时间窗口内发布的文章，默认 24h
	Window string `json:"window" yaml:"window"`
	// LoadTimeout 单次加载的超时时间，空值表示不限制
	LoadTimeout string `json:"load_timeout" yaml:"load_timeout"`
	// RefreshInterval 后台自动刷新间隔，空值表示关闭
	RefreshInterval string `json:"refresh_interval" yaml:"refresh_interval"`
}

type Log struct {
	Level string `json:"level" yaml:"level"`
	File  string `json:"file" yaml:"file"`
}

const DefaultWindow = 24 * time.Hour

func (d *Dashboard) WindowDuration() time.Duration {
	if d == nil {
		return DefaultWindow
	}
	return ParseDuration(d.Window, DefaultWindow)
}

func (d *Dashboard) LoadTimeoutDuration() time.Duration {
	if d == nil {
		return 0
	}
	return ParseDuration(d.LoadTimeout, 0)
}

func (d *Dashboard) RefreshIntervalDuration() time.Duration {
	if d == nil {
		return 0
	}
	return ParseDuration(d.RefreshInterval, 0)
}

// ParseDuration 解析失败或为空时返回 def
func ParseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}

// Load 从 YAML 文件加载配置，供 newsctl 使用
func Load(path string) (*Bootstrap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var bc Bootstrap
	if err := yaml.Unmarshal(data, &bc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &bc, nil
}

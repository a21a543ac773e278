package logger

// Level 日志等级
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Format 日志格式
type Format string

const (
	JSONFormat    Format = "json"
	ConsoleFormat Format = "console"
)

// Console 控制台输出目标
type Console string

const (
	Stderr Console = "stderr"
	Stdout Console = "stdout"
)

// RotationType 轮换类型
type RotationType string

const (
	RotationBySize RotationType = "size"
	RotationByTime RotationType = "time"
)

// Config 日志配置
type Config struct {
	Level  Level  `json:"level" yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format Format `json:"format" yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json console"`

	// 控制台输出，命令行工具的结果写 stdout，日志默认走 stderr
	EnableConsole bool    `json:"enable_console" yaml:"enable_console" mapstructure:"enable_console"`
	Console       Console `json:"console" yaml:"console" mapstructure:"console" validate:"omitempty,oneof=stderr stdout"`

	// 文件输出
	EnableFile bool           `json:"enable_file" yaml:"enable_file" mapstructure:"enable_file"`
	OutputPath string         `json:"output_path" yaml:"output_path" mapstructure:"output_path"`
	Rotation   RotationConfig `json:"rotation" yaml:"rotation" mapstructure:"rotation"`

	TimeFormat string `json:"time_format" yaml:"time_format" mapstructure:"time_format"` // 默认 ISO8601

	EnableStacktrace bool  `json:"enable_stacktrace" yaml:"enable_stacktrace" mapstructure:"enable_stacktrace"`
	StacktraceLevel  Level `json:"stacktrace_level" yaml:"stacktrace_level" mapstructure:"stacktrace_level"`

	// 采样：每秒前 SamplingInitial 条之后每 SamplingThereafter 条记录 1 条
	EnableSampling     bool `json:"enable_sampling" yaml:"enable_sampling" mapstructure:"enable_sampling"`
	SamplingInitial    int  `json:"sampling_initial" yaml:"sampling_initial" mapstructure:"sampling_initial"`
	SamplingThereafter int  `json:"sampling_thereafter" yaml:"sampling_thereafter" mapstructure:"sampling_thereafter"`

	Development bool `json:"development" yaml:"development" mapstructure:"development"`

	GlobalFields map[string]any `json:"global_fields" yaml:"global_fields" mapstructure:"global_fields"`

	// RedactKeys 这些字段的值在输出前被替换
	RedactKeys []string `json:"redact_keys" yaml:"redact_keys" mapstructure:"redact_keys"`
}

// RotationConfig 轮换配置
type RotationConfig struct {
	Type RotationType `json:"type" yaml:"type" mapstructure:"type"`

	// 按大小轮换 (lumberjack)
	MaxSize    int  `json:"max_size" yaml:"max_size" mapstructure:"max_size"`          // MB
	MaxBackups int  `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups"` // 保留的旧文件数量
	MaxAge     int  `json:"max_age" yaml:"max_age" mapstructure:"max_age"`             // 天
	Compress   bool `json:"compress" yaml:"compress" mapstructure:"compress"`

	// 按时间轮换 (file-rotatelogs)
	RotationTime    string `json:"rotation_time" yaml:"rotation_time" mapstructure:"rotation_time"`          // 1h, 24h
	MaxAgeTime      string `json:"max_age_time" yaml:"max_age_time" mapstructure:"max_age_time"`             // 168h
	RotationPattern string `json:"rotation_pattern" yaml:"rotation_pattern" mapstructure:"rotation_pattern"` // .%Y%m%d
}

// DefaultConfig 默认配置：console 格式写 stderr
func DefaultConfig() *Config {
	return &Config{
		Level:         InfoLevel,
		Format:        ConsoleFormat,
		EnableConsole: true,
		Console:       Stderr,
		Rotation: RotationConfig{
			Type:            RotationBySize,
			MaxSize:         100,
			MaxBackups:      5,
			MaxAge:          7,
			Compress:        true,
			RotationTime:    "24h",
			MaxAgeTime:      "168h",
			RotationPattern: ".%Y%m%d",
		},
		EnableStacktrace:   true,
		StacktraceLevel:    ErrorLevel,
		SamplingInitial:    100,
		SamplingThereafter: 100,
		RedactKeys:         []string{"password"},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.EnableFile && c.OutputPath == "" {
		return ErrInvalidOutputPath
	}
	if !c.EnableConsole && !c.EnableFile {
		return ErrNoOutputEnabled
	}
	return nil
}

package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Config is the logger configuration, bound from the application config file.
type Config struct {
	// Director is the directory where rotated log files are stored.
	Director string `mapstructure:"director" json:"director" yaml:"director" default:"logs"`

	// Level is the minimum log level (debug, info, warn, error).
	Level string `mapstructure:"level" json:"level" yaml:"level" default:"info"`

	// Format is the log encoding (json or console).
	Format string `mapstructure:"format" json:"format" yaml:"format" default:"console"`

	// Prefix is prepended to every timestamp.
	Prefix string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`

	// TimeFormat is the Go layout used for timestamps.
	TimeFormat string `mapstructure:"time-format" json:"timeFormat" yaml:"time-format" default:"2006-01-02 15:04:05.000"`

	// LogInTerminal mirrors log output to stdout in addition to the file.
	LogInTerminal bool `mapstructure:"log-in-terminal" json:"logInTerminal" yaml:"log-in-terminal" default:"true"`

	// ShowLineNumber adds caller information to entries.
	ShowLineNumber bool `mapstructure:"show-line-number" json:"showLineNumber" yaml:"show-line-number"`

	// MaxSize is the size in megabytes of a log file before rotation.
	MaxSize int `mapstructure:"max-size" json:"maxSize" yaml:"max-size" default:"100"`

	// MaxAge is the number of days to retain rotated files.
	MaxAge int `mapstructure:"max-age" json:"maxAge" yaml:"max-age" default:"30"`

	// MaxBackups is the number of rotated files to retain.
	MaxBackups int `mapstructure:"max-backups" json:"maxBackups" yaml:"max-backups" default:"10"`

	// Compress gzips rotated files.
	Compress bool `mapstructure:"compress" json:"compress" yaml:"compress"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	c := Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Director == "" {
		c.Director = "logs"
	}
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.TimeFormat == "" {
		c.TimeFormat = "2006-01-02 15:04:05.000"
	}
	if c.MaxSize == 0 {
		c.MaxSize = 100
	}
	if c.MaxAge == 0 {
		c.MaxAge = 30
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 10
	}
}

// ZapLevel parses the configured level, defaulting to info.
func (c Config) ZapLevel() zapcore.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

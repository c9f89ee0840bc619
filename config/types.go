package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/leeforge/gallery/logging"
)

// Config wraps a viper instance bound to the application config file.
type Config struct {
	instance   *viper.Viper
	opts       Options
	watchOnce  sync.Once
	watchMutex sync.RWMutex
}

// Options controls where the config file is loaded from.
type Options struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
	WatchAble bool
	OnChange  func(e fsnotify.Event)
}

// AppConfig is the fully typed application configuration.
type AppConfig struct {
	Server  ServerConfig   `mapstructure:"server"`
	Upload  UploadConfig   `mapstructure:"upload"`
	Storage StorageConfig  `mapstructure:"storage"`
	Redis   RedisConfig    `mapstructure:"redis"`
	Log     logging.Config `mapstructure:"log"`
	Auth    AuthConfig     `mapstructure:"auth"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string `mapstructure:"host" default:"0.0.0.0"`
	Port            int    `mapstructure:"port" default:"8080"`
	ReadTimeoutSec  int    `mapstructure:"read-timeout-sec" default:"30"`
	WriteTimeoutSec int    `mapstructure:"write-timeout-sec" default:"60"`
	ShutdownSec     int    `mapstructure:"shutdown-sec" default:"10"`
}

// UploadConfig carries the ingestion validation limits. Width/height caps are
// fixed policy; the byte cap and allowed formats come from deployment config.
type UploadConfig struct {
	MaxBytes       int64    `mapstructure:"max-bytes" default:"10485760"`
	MaxWidth       int      `mapstructure:"max-width" default:"10000"`
	MaxHeight      int      `mapstructure:"max-height" default:"10000"`
	AllowedFormats []string `mapstructure:"allowed-formats"`
}

// StorageConfig configures the available storage backends and the fallback
// default used when the backend selection cannot be resolved.
type StorageConfig struct {
	DefaultProvider string      `mapstructure:"default-provider" default:"local"`
	Local           LocalConfig `mapstructure:"local"`
	OSS             OSSConfig   `mapstructure:"oss"`
	Minio           MinioConfig `mapstructure:"minio"`
}

// LocalConfig configures the filesystem backend.
type LocalConfig struct {
	BasePath string `mapstructure:"base-path" default:"uploads"`
	BaseURL  string `mapstructure:"base-url" default:"/media"`
}

// OSSConfig configures the Aliyun OSS backend.
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access-key-id"`
	AccessKeySecret string `mapstructure:"access-key-secret"`
	Bucket          string `mapstructure:"bucket"`
	Domain          string `mapstructure:"domain"`
}

// MinioConfig configures the S3-compatible bucket backend.
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access-key"`
	SecretKey string `mapstructure:"secret-key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use-ssl"`
	BaseURL   string `mapstructure:"base-url"`
}

// RedisConfig configures the analytics/counter store.
type RedisConfig struct {
	Host     string `mapstructure:"host" default:"127.0.0.1"`
	Port     int    `mapstructure:"port" default:"6379"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig configures admin gating.
type AuthConfig struct {
	// AdminRole is the role required by curation endpoints.
	AdminRole string `mapstructure:"admin-role" default:"admin"`
	// AdminSubjects are granted AdminRole at startup.
	AdminSubjects []string `mapstructure:"admin-subjects"`
}

// AllowedFormatsOrDefault returns the configured format allowlist, falling
// back to the fixed policy set.
func (u UploadConfig) AllowedFormatsOrDefault() []string {
	if len(u.AllowedFormats) > 0 {
		return u.AllowedFormats
	}
	return []string{"jpeg", "jpg", "png", "webp"}
}

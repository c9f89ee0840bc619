package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/leeforge/gallery/env_mode"
)

// DefaultOptions reads CONFIG_PATH (default "config") and expects a
// config.yaml inside it.
func DefaultOptions() Options {
	basePath := os.Getenv("CONFIG_PATH")
	if basePath == "" {
		basePath = "config"
	}
	return Options{
		BasePath:  basePath,
		FileName:  "config",
		FileType:  "yaml",
		EnvPrefix: "GALLERY",
		WatchAble: env_mode.Mode() == env_mode.DevMode,
	}
}

// New loads the config file described by opts (or DefaultOptions).
func New(optsArr ...Options) (*Config, error) {
	var opts Options
	if len(optsArr) == 0 {
		opts = DefaultOptions()
	} else {
		opts = optsArr[0]
	}

	v := viper.New()
	v.SetConfigName(opts.FileName)
	v.SetConfigType(opts.FileType)
	v.AddConfigPath(opts.BasePath)
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is tolerated: env vars and defaults still apply.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config (path: %s, file: %s.%s): %w",
				opts.BasePath, opts.FileName, opts.FileType, err)
		}
	}

	return &Config{instance: v, opts: opts}, nil
}

// Bind unmarshals the loaded configuration into instance and, in watch mode,
// re-binds on file change.
func (c *Config) Bind(instance any) error {
	if c == nil || c.instance == nil {
		return fmt.Errorf("config instance is nil")
	}
	if instance == nil {
		return fmt.Errorf("target instance is nil")
	}

	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()

	if err := c.instance.Unmarshal(instance); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if c.opts.WatchAble {
		c.watchOnce.Do(func() {
			c.instance.WatchConfig()
			c.instance.OnConfigChange(func(e fsnotify.Event) {
				c.watchMutex.Lock()
				defer c.watchMutex.Unlock()

				if err := c.instance.Unmarshal(instance); err != nil {
					fmt.Printf("config watch error: %v\n", err)
					return
				}
				if c.opts.OnChange != nil {
					c.opts.OnChange(e)
				}
			})
		})
	}

	return nil
}

// BindWithDefaults applies struct-tag defaults around Bind so zero values in
// the file do not erase them.
func (c *Config) BindWithDefaults(instance any) error {
	if err := defaults.Set(instance); err != nil {
		return fmt.Errorf("failed to set defaults: %w", err)
	}
	if err := c.Bind(instance); err != nil {
		return err
	}
	if err := defaults.Set(instance); err != nil {
		return fmt.Errorf("failed to set defaults after unmarshal: %w", err)
	}
	return nil
}

// Viper exposes the underlying viper instance.
func (c *Config) Viper() *viper.Viper {
	return c.instance
}

// LoadApp is the convenience entry point used by cmd/server: load the file
// and bind the typed AppConfig with defaults applied.
func LoadApp(optsArr ...Options) (*AppConfig, error) {
	cnf, err := New(optsArr...)
	if err != nil {
		return nil, err
	}
	app := &AppConfig{}
	if err := cnf.BindWithDefaults(app); err != nil {
		return nil, err
	}
	return app, nil
}

// Copyright 2025 The quickshare Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/odysafe/quickshare/pkg/qslog"
)

// Config holds the runtime settings of the quickshare server.
//
// StorageDir, RetentionHours and MaxSizeMB are read once at startup; only
// the log level is reapplied on a config file change.
type Config struct {
	Addr           string `mapstructure:"addr"`
	StorageDir     string `mapstructure:"storageDir"`
	RetentionHours int    `mapstructure:"retentionHours"`
	MaxSizeMB      int64  `mapstructure:"maxSizeMB"`
	CertFile       string `mapstructure:"certFile"`
	KeyFile        string `mapstructure:"keyFile"`
	LogLevel       string `mapstructure:"logLevel"`
}

var (
	once sync.Once

	mu sync.RWMutex

	config Config
)

func Initconfig() error {
	var initErr error
	once.Do(func() {
		initErr = LoadAndWatch()
	})
	return initErr
}

func Get() Config {
	mu.RLock()
	defer mu.RUnlock()
	return config
}

func LoadAndWatch() error {
	pflag.String("addr", "", "HTTP service address (e.g., ':8000')")
	pflag.String("storageDir", "", "Root directory for shared files")
	pflag.Int("retentionHours", 0, "Hours before a shared item expires")
	pflag.Int64("maxSizeMB", 0, "Maximum size of a single upload in MiB")
	pflag.String("certFile", "", "Path to the TLS certificate file.")
	pflag.String("keyFile", "", "Path to the TLS private key file.")
	pflag.String("logLevel", "", "Log level (debug, info, warn, error, fatal)")
	pflag.Parse()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return fmt.Errorf("failed to bind pflags: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/quickshare/")

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			qslog.Infof("Config file not found, using defaults and flags.")
		} else {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	}

	applyDefaults(viper.GetViper())

	c, err := decode(viper.GetViper())
	if err != nil {
		return err
	}
	mu.Lock()
	config = c
	mu.Unlock()

	viper.OnConfigChange(func(e fsnotify.Event) {
		qslog.Infof("Config file changed: %s. Reloading...", e.Name)

		reloaded, err := decode(viper.GetViper())
		if err != nil {
			qslog.Errorf("Error while reloading config: %v", err)
			return
		}

		mu.Lock()
		defer mu.Unlock()
		config = reloaded

		newLogLevel, err := qslog.ParseLevel(config.LogLevel)
		if err != nil {
			qslog.Warnf("New log level in config is invalid: %v. Keeping previous level.", err)
		} else {
			qslog.SetLevel(newLogLevel)
			qslog.Infof("Log level reloaded successfully to: %s", config.LogLevel)
		}
	})
	viper.WatchConfig()

	return nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8000")
	v.SetDefault("storageDir", "./shared_files")
	v.SetDefault("retentionHours", 24)
	v.SetDefault("maxSizeMB", 1024)
	v.SetDefault("certFile", "")
	v.SetDefault("keyFile", "")
	v.SetDefault("logLevel", "info")
}

func decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("the configuration cannot be decoded into the struct: %w", err)
	}
	return c, nil
}

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
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	applyDefaults(v)

	c, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, ":8000", c.Addr)
	assert.Equal(t, "./shared_files", c.StorageDir)
	assert.Equal(t, 24, c.RetentionHours)
	assert.Equal(t, int64(1024), c.MaxSizeMB)
	assert.Empty(t, c.CertFile)
	assert.Empty(t, c.KeyFile)
	assert.Equal(t, "info", c.LogLevel)
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "addr: \":9999\"\nretentionHours: 48\nlogLevel: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	applyDefaults(v)

	c, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, ":9999", c.Addr)
	assert.Equal(t, 48, c.RetentionHours)
	assert.Equal(t, "debug", c.LogLevel)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, "./shared_files", c.StorageDir)
	assert.Equal(t, int64(1024), c.MaxSizeMB)
}

func TestDecodeRejectsMistypedValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retentionHours: soon\n"), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	applyDefaults(v)

	_, err := decode(v)
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, DefaultDataRoot, cfg.Data.Root)
	assert.Equal(t, ".json", cfg.Data.Extension)
	assert.Equal(t, ".downloaded", cfg.Data.Suffix)
	assert.Equal(t, 1, cfg.Data.Jobs)
	assert.False(t, cfg.Data.InPlace)
	assert.Equal(t, "content", cfg.Cache.Dir)
	assert.Equal(t, time.Duration(0), cfg.Fetch.Timeout)
	assert.Equal(t, DefaultHosts, cfg.Rewrite.Hosts)
	assert.Equal(t, DefaultSkipFields, cfg.Rewrite.SkipFields)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: "DEBUG"
  format: "json"
data:
  root: "export"
  jobs: 4
cache:
  dir: "media"
fetch:
  timeout: "45s"
rewrite:
  hosts: ["files.slack.com"]
  skip_fields: ["thumb_64"]
metrics:
  textfile: "/tmp/linkcache.prom"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "export", cfg.Data.Root)
	assert.Equal(t, 4, cfg.Data.Jobs)
	assert.Equal(t, "media", cfg.Cache.Dir)
	assert.Equal(t, 45*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, []string{"files.slack.com"}, cfg.Rewrite.Hosts)
	assert.Equal(t, []string{"thumb_64"}, cfg.Rewrite.SkipFields)
	assert.Equal(t, "/tmp/linkcache.prom", cfg.Metrics.Textfile)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	path := writeConfig(t, `
cache:
  dir: "media"
`)
	t.Setenv("LINKCACHE_CACHE_DIR", "archive-content")
	t.Setenv("LINKCACHE_DATA_JOBS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "archive-content", cfg.Cache.Dir)
	assert.Equal(t, 3, cfg.Data.Jobs)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "data: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
data:
  jobs: 1000
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Jobs")
}

func TestApplyDefaults_EmptySkipListIsKept(t *testing.T) {
	cfg := &Config{Rewrite: RewriteConfig{SkipFields: []string{}}}
	ApplyDefaults(cfg)
	assert.Empty(t, cfg.Rewrite.SkipFields)
	assert.Equal(t, DefaultHosts, cfg.Rewrite.Hosts)

	// Defaults are copies.
	cfg.Rewrite.Hosts[0] = "example.com"
	assert.Equal(t, "slack-files.com", DefaultHosts[0])
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		ApplyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
		{name: "extension without dot", mutate: func(c *Config) { c.Data.Extension = "json" }, wantErr: true},
		{name: "zero jobs", mutate: func(c *Config) { c.Data.Jobs = 0 }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Fetch.Timeout = -time.Second }, wantErr: true},
		{name: "invalid host", mutate: func(c *Config) { c.Rewrite.Hosts = []string{"not a host"} }, wantErr: true},
		{name: "non word skip field", mutate: func(c *Config) { c.Rewrite.SkipFields = []string{"thumb-64"} }, wantErr: true},
		{name: "empty skip field", mutate: func(c *Config) { c.Rewrite.SkipFields = []string{""} }, wantErr: true},
		{name: "cache inside data", mutate: func(c *Config) { c.Cache.Dir = filepath.Join(c.Data.Root, "content") }, wantErr: true},
		{name: "suffix equals extension", mutate: func(c *Config) { c.Data.Suffix = ".json" }, wantErr: true},
		{name: "suffix equals extension in place", mutate: func(c *Config) { c.Data.Suffix = ".json"; c.Data.InPlace = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPathsOverlap(t *testing.T) {
	tests := []struct {
		name     string
		path1    string
		path2    string
		expected bool
	}{
		{
			name:     "identical paths",
			path1:    "/tmp/export",
			path2:    "/tmp/export",
			expected: true,
		},
		{
			name:     "path1 contains path2",
			path1:    "/tmp/export/content",
			path2:    "/tmp/export",
			expected: true,
		},
		{
			name:     "path2 contains path1",
			path1:    "/tmp/export",
			path2:    "/tmp/export/content",
			expected: true,
		},
		{
			name:     "completely separate paths",
			path1:    "/tmp/export",
			path2:    "/mnt/content",
			expected: false,
		},
		{
			name:     "sibling directories with shared prefix",
			path1:    "/tmp/data",
			path2:    "/tmp/data-content",
			expected: false,
		},
		{
			name:     "relative paths - overlapping",
			path1:    "data",
			path2:    "data/content",
			expected: true,
		},
		{
			name:     "relative paths - separate",
			path1:    "data",
			path2:    "content",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pathsOverlap(tt.path1, tt.path2)
			if result != tt.expected {
				t.Errorf("pathsOverlap(%q, %q) = %v, expected %v", tt.path1, tt.path2, result, tt.expected)
			}
		})
	}
}

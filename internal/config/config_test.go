package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if cfg.Logging.MaxSizeMB != 50 || cfg.Logging.MaxBackups != 3 || cfg.Logging.MaxAgeDays != 7 {
		t.Errorf("unexpected rotation defaults: %+v", cfg.Logging)
	}
	if cfg.Decode.StrictPrimitives {
		t.Error("expected strict primitives to be off by default")
	}
	if cfg.Decode.MaxWidgets != 0 {
		t.Errorf("expected unlimited widgets, got %d", cfg.Decode.MaxWidgets)
	}
	if cfg.Dump.MaxDepth != 6 {
		t.Errorf("expected dump depth 6, got %d", cfg.Dump.MaxDepth)
	}
	if !cfg.Dump.HidePointers {
		t.Error("expected pointer addresses hidden by default")
	}
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)

	yamlContent := `
logging:
  level: "debug"
  log_file: "frmetool.log"
  compress: false

decode:
  strict_primitives: true
  max_widgets: 512

dump:
  max_depth: 3
  include_geometry: true
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg := Default()
	require.NoError(t, loadFromFile(cfg, configPath))

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "frmetool.log", cfg.Logging.LogFile)
	assert.False(t, cfg.Logging.Compress)
	assert.Equal(t, 50, cfg.Logging.MaxSizeMB, "unset keys keep defaults")
	assert.True(t, cfg.Decode.StrictPrimitives)
	assert.Equal(t, 512, cfg.Decode.MaxWidgets)
	assert.Equal(t, 3, cfg.Dump.MaxDepth)
	assert.True(t, cfg.Dump.IncludeGeometry)
	assert.Equal(t, "  ", cfg.Dump.Indent)
}

func TestLoadFromFileErrors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"invalid syntax", "decode:\n  max_widgets: not a number\n  invalid syntax here\n"},
		{"unknown key", "graphics:\n  width: 800\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			err := loadFromFile(Default(), path)
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	cfg := Default()
	require.NoError(t, loadFromFile(cfg, path))
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromFileMissing(t *testing.T) {
	err := loadFromFile(Default(), "/nonexistent/path/frmetool.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"negative widgets", func(c *Config) { c.Decode.MaxWidgets = -1 }},
		{"negative depth", func(c *Config) { c.Dump.MaxDepth = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	testChdir(t, t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	require.NoError(t, os.WriteFile(FileName, []byte("decode:\n  max_widgets: 8\n"), 0644))

	if path := findConfigFile(); path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"--debug"},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "strict flag",
			args: []string{"--strict"},
			verify: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Decode.StrictPrimitives)
			},
		},
		{
			name: "log file flag",
			args: []string{"--log-file", "/tmp/frme.log"},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/tmp/frme.log", cfg.Logging.LogFile)
			},
		},
		{
			name: "max widgets flag",
			args: []string{"--max-widgets", "64"},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 64, cfg.Decode.MaxWidgets)
			},
		},
		{
			name: "no flags",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			f := RegisterFlags(fs)
			require.NoError(t, fs.Parse(tt.args))

			cfg := Default()
			f.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom.yaml")

	yamlContent := `
logging:
  level: warn
decode:
  max_widgets: 100
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", configPath, "--max-widgets", "10"}))

	cfg, err := Load(f)
	require.NoError(t, err)

	// Flag wins over file, file wins over defaults.
	assert.Equal(t, 10, cfg.Decode.MaxWidgets)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  level: shouting\n"), 0644))

	_, err := Load(&Flags{Config: configPath})
	assert.Error(t, err)
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Decode.MaxWidgets = 42
	cfg.Logging.LogFile = "out.log"
	require.NoError(t, cfg.SaveTo(path))

	loaded := Default()
	require.NoError(t, loadFromFile(loaded, path))
	assert.Equal(t, cfg, loaded)
}

// testChdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir, added in Go 1.24).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the data directory at a temp dir and runs the test
// outside any directory holding a dock.yaml.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DOCK_DATA_DIR", dir)
	t.Setenv("TMUX", "")
	t.Chdir(t.TempDir())
	return dir
}

// rootFlags parses args with the root command's flags.
func rootFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	root := NewRootCommand()
	fs := root.Flags()
	fs.AddFlagSet(root.PersistentFlags())
	require.NoError(t, fs.Parse(args))
	return fs
}

// unsetenv removes name for the rest of the test.
func unsetenv(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "")
	require.NoError(t, os.Unsetenv(name))
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, StorageFile, cfg.Storage)
	assert.Equal(t, LauncherInProcess, cfg.Launcher)
	assert.Equal(t, DefaultBridgeAddr, cfg.BridgeAddr)
	assert.Equal(t, DefaultLayoutName, cfg.LayoutName)
	assert.Equal(t, filepath.Join(dir, DefaultLogFile), cfg.LogFile)
	assert.Equal(t, filepath.Join(dir, "layouts.db"), cfg.DBPath)
	assert.Empty(t, cfg.File)
	assert.Equal(t, log.InfoLevel, cfg.Level())
}

func TestLoadConfig_TmuxDefaultsToTmuxLauncher(t *testing.T) {
	isolate(t)
	t.Setenv("TMUX", "/tmp/tmux-1000/default,1,0")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, LauncherTmux, cfg.Launcher)
}

func TestLoadConfig_Precedence(t *testing.T) {
	isolate(t)
	writeFile(t, "dock.yaml", `
log_level: debug
storage: memory
launcher: inprocess
layout_name: fromfile
responsive_mode: always
`)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "dock.yaml", cfg.File)
	assert.Equal(t, "fromfile", cfg.LayoutName)
	assert.Equal(t, log.DebugLevel, cfg.Level())
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "always", cfg.ResponsiveMode)

	t.Setenv("DOCK_LAYOUT_NAME", "fromenv")
	cfg, err = LoadConfig("", rootFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.LayoutName)
	// Unset flags keep their defaults out of the config.
	assert.Equal(t, "debug", cfg.LogLevel)

	cfg, err = LoadConfig("", rootFlags(t, "--name", "fromflag", "--responsive-mode", "none"))
	require.NoError(t, err)
	assert.Equal(t, "fromflag", cfg.LayoutName)
	assert.Equal(t, "none", cfg.ResponsiveMode)
	assert.Equal(t, StorageMemory, cfg.Storage)
}

func TestLoadConfig_DataDirConfigFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "dock.yml"), "layout_name: home\n")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "home", cfg.LayoutName)
	assert.Equal(t, filepath.Join(dir, "dock.yml"), cfg.File)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	isolate(t)
	writeFile(t, "dock.yaml", "layout_name: ignored\n")
	other := writeFile(t, filepath.Join(t.TempDir(), "custom.yaml"), "layout_name: custom\ndb_path: /tmp/x.db\n")

	cfg, err := LoadConfig(other, nil)
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.LayoutName)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, other, cfg.File)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.ErrorContains(t, err, "read config file")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		errSubstr string
	}{
		{
			name:      "unknown storage",
			env:       map[string]string{"DOCK_STORAGE": "bogus"},
			errSubstr: `storage "bogus"`,
		},
		{
			name:      "redis without address",
			env:       map[string]string{"DOCK_STORAGE": "redis"},
			errSubstr: "needs redis_addr",
		},
		{
			name:      "memory storage across processes",
			env:       map[string]string{"DOCK_STORAGE": "memory", "DOCK_LAUNCHER": "tmux"},
			errSubstr: "only works with launcher inprocess",
		},
		{
			name:      "unknown launcher",
			env:       map[string]string{"DOCK_LAUNCHER": "x11"},
			errSubstr: `launcher "x11"`,
		},
		{
			name:      "unknown responsive mode",
			env:       map[string]string{"DOCK_RESPONSIVE_MODE": "sometimes"},
			errSubstr: "responsive_mode",
		},
		{
			name:      "unknown log level",
			env:       map[string]string{"DOCK_LOG_LEVEL": "loud"},
			errSubstr: "log_level",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadConfig_ReportsEveryProblem(t *testing.T) {
	isolate(t)
	t.Setenv("DOCK_STORAGE", "bogus")
	t.Setenv("DOCK_LAUNCHER", "x11")

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage")
	assert.Contains(t, err.Error(), "launcher")
}

func TestConfig_WindowArgsReachSameStorage(t *testing.T) {
	isolate(t)
	t.Setenv("DOCK_STORAGE", "redis")
	t.Setenv("DOCK_REDIS_ADDR", "127.0.0.1:6390")
	parent, err := LoadConfig("", nil)
	require.NoError(t, err)

	// The window process starts in some other environment.
	t.Setenv("DOCK_DATA_DIR", t.TempDir())
	unsetenv(t, "DOCK_STORAGE")
	unsetenv(t, "DOCK_REDIS_ADDR")
	child, err := LoadConfig("", rootFlags(t, parent.WindowArgs()...))
	require.NoError(t, err)
	assert.Equal(t, parent.DataDir, child.DataDir)
	assert.Equal(t, parent.Storage, child.Storage)
	assert.Equal(t, parent.RedisAddr, child.RedisAddr)
	assert.Equal(t, parent.LogFile, child.LogFile)
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"docklayout/internal/config"
	"docklayout/internal/popout"
	"docklayout/internal/store"
	"docklayout/internal/tmux"
)

// EnvPrefix prefixes the environment variables read as configuration.
const EnvPrefix = "DOCK_"

// Config file names looked up in the working directory, then in the
// data directory.
var configFileNames = []string{"dock.yaml", "dock.yml"}

// Storage kinds.
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Launcher kinds.
const (
	LauncherTmux      = "tmux"
	LauncherPTY       = "pty"
	LauncherInProcess = "inprocess"
)

// Default configuration values.
const (
	DefaultLogLevel   = "info"
	DefaultBridgeAddr = "127.0.0.1:0"
	DefaultLayoutName = "default"
)

// Config holds the dock command configuration.
type Config struct {
	DataDir        string `koanf:"data_dir"`
	LogLevel       string `koanf:"log_level"`
	LogFile        string `koanf:"log_file"`
	Storage        string `koanf:"storage"`
	RedisAddr      string `koanf:"redis_addr"`
	Launcher       string `koanf:"launcher"`
	BridgeAddr     string `koanf:"bridge_addr"`
	Layout         string `koanf:"layout"`
	LayoutName     string `koanf:"layout_name"`
	DBPath         string `koanf:"db_path"`
	ResponsiveMode string `koanf:"responsive_mode"`
	TraceEndpoint  string `koanf:"trace_endpoint"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// flagKeys maps flags whose name differs from their config key.
var flagKeys = map[string]string{
	"name": "layout_name",
}

// nonConfigFlags are flags that are not configuration keys.
var nonConfigFlags = map[string]bool{
	"config":          true,
	popout.WindowFlag: true,
	"help":            true,
}

func defaultLauncher() string {
	if tmux.InTmux() {
		return LauncherTmux
	}
	return LauncherInProcess
}

func defaults() map[string]any {
	dataDir, err := popout.DataDir()
	if err != nil {
		dataDir = popout.DefaultDataDir
	}
	return map[string]any{
		"data_dir":    dataDir,
		"log_level":   DefaultLogLevel,
		"storage":     StorageFile,
		"launcher":    defaultLauncher(),
		"bridge_addr": DefaultBridgeAddr,
		"layout_name": DefaultLayoutName,
	}
}

// findConfigFile returns the config file to read.
// Priority: explicit path > working directory > data directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dirs := []string{"."}
	if dataDir, err := popout.DataDir(); err == nil {
		dirs = append(dirs, dataDir)
	}
	for _, dir := range dirs {
		for _, name := range configFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}

// LoadConfig loads configuration from defaults, the config file,
// DOCK_* environment variables and flags, each overriding the last.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", used, err)
		}
	}

	// DOCK_DATA_DIR -> data_dir
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || nonConfigFlags[f.Name] {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = used
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, DefaultLogFile)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, store.DefaultFile)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid value in c.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is empty"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level %q: %w", c.LogLevel, err))
	}
	switch c.Storage {
	case StorageFile, StorageMemory:
	case StorageRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("storage redis needs redis_addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage %q: want file, redis or memory", c.Storage))
	}
	switch c.Launcher {
	case LauncherTmux, LauncherPTY, LauncherInProcess:
	default:
		errs = append(errs, fmt.Errorf("launcher %q: want tmux, pty or inprocess", c.Launcher))
	}
	// Windows in other processes cannot read this process's memory.
	if c.Storage == StorageMemory && c.Launcher != LauncherInProcess {
		errs = append(errs, fmt.Errorf("storage memory only works with launcher inprocess, not %s", c.Launcher))
	}
	switch config.ResponsiveMode(c.ResponsiveMode) {
	case "", config.ResponsiveNone, config.ResponsiveAlways, config.ResponsiveOnLoad:
	default:
		errs = append(errs, fmt.Errorf("responsive_mode %q: want none, always or onload", c.ResponsiveMode))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// WindowArgs are the flags a pop-out window process needs to reach the
// same storage as its parent.
func (c *Config) WindowArgs() []string {
	args := []string{
		"--data-dir", c.DataDir,
		"--storage", c.Storage,
		"--log-level", c.LogLevel,
		"--log-file", c.LogFile,
	}
	if c.RedisAddr != "" {
		args = append(args, "--redis-addr", c.RedisAddr)
	}
	return args
}

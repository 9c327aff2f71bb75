// Package cli implements the dock command-line interface.
//
// The root command opens a docking layout in the terminal. Subcommands
// convert layout files and manage the layouts saved in the SQLite store.
//
// # Configuration
//
// Settings come from built-in defaults, a dock.yaml file (working
// directory, then the data directory), DOCK_* environment variables and
// flags, each overriding the previous source.
//
// # Logging
//
// Commands log to stderr through charmbracelet/log. While the terminal
// host owns the screen the log goes to a file in the data directory
// instead. Loggers are passed through context.Context.
//
// # Pop-out windows
//
// A process started with --gl-window=<key> is a pop-out window: it takes
// its layout from the shared storage and reports back to the parent's
// bridge found in DOCK_BRIDGE_URL.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"docklayout/internal/popout"
)

type configKey struct{}

func withConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFromContext(ctx context.Context) (*Config, error) {
	if cfg, ok := ctx.Value(configKey{}).(*Config); ok {
		return cfg, nil
	}
	return nil, errors.New("configuration not loaded")
}

// Execute runs the dock command line with args.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the dock command tree.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "dock",
		Short:         "dock arranges panes in a terminal docking layout",
		Long:          `dock hosts a docking layout in the terminal: tabbed stacks in resizable rows and columns, rearranged by dragging tabs with the mouse, with stacks that pop out into their own windows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Level())
			if cfg.File != "" {
				logger.Debug("config loaded", "file", cfg.File)
			}
			ctx := WithLogger(withConfig(cmd.Context(), cfg), logger)
			cmd.SetContext(ctx)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if key, _ := cmd.Flags().GetString(popout.WindowFlag); key != "" {
				return runWindow(cmd.Context(), cfg, key)
			}
			return runHost(cmd.Context(), cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default dock.yaml)")
	pf.String("data-dir", "", "data directory (default ~/.docklayout)")
	pf.String("log-level", DefaultLogLevel, "log level: debug, info, warn or error")
	pf.String("log-file", "", "log file while the layout is open (default <data-dir>/dock.log)")
	pf.String("storage", StorageFile, "pop-out storage: file, redis or memory")
	pf.String("redis-addr", "", "redis address for --storage redis")
	pf.String("db-path", "", "saved layouts database (default <data-dir>/layouts.db)")
	pf.String("trace-endpoint", "", "OTLP/HTTP endpoint for traces")

	addRunFlags(root.Flags())
	root.Flags().String(popout.WindowFlag, "", "run as the pop-out window with this storage key")
	_ = root.Flags().MarkHidden(popout.WindowFlag)

	root.AddCommand(newRunCmd())
	root.AddCommand(newResolveCmd())
	root.AddCommand(newMinifyCmd())
	root.AddCommand(newUnminifyCmd())
	root.AddCommand(newLayoutsCmd())
	return root
}

// addRunFlags adds the flags shared by the root and run commands.
func addRunFlags(fs *pflag.FlagSet) {
	fs.String("layout", "", "layout file to open (json, yaml or toml)")
	fs.String("name", DefaultLayoutName, "name the layout is saved under")
	fs.String("launcher", "", "how pop-outs open: tmux, pty or inprocess")
	fs.String("bridge-addr", DefaultBridgeAddr, "address of the pop-out bridge")
	fs.String("responsive-mode", "", "column folding: none, always or onload")
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the layout in the terminal",
		Long:  `Open a layout: the --layout file if given, else the layout saved under --name, else a demo layout.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runHost(cmd.Context(), cfg)
		},
	}
	addRunFlags(cmd.Flags())
	return cmd
}

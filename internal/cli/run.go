package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"docklayout/internal/config"
	"docklayout/internal/layout"
	"docklayout/internal/popout"
	"docklayout/internal/pty"
	"docklayout/internal/store"
	"docklayout/internal/tick"
	"docklayout/internal/trace"
	"docklayout/internal/ui"
)

// loopBuffer is how many callbacks a host loop queues before posters
// block.
const loopBuffer = 256

const shutdownTimeout = 5 * time.Second

// ErrNoTerminal is returned when the layout would open without a
// terminal to draw on.
var ErrNoTerminal = errors.New("dock needs a terminal")

func needTerminal() error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return ErrNoTerminal
	}
	return nil
}

// fileLogger redirects logging to cfg.LogFile. The returned function
// closes the file.
func fileLogger(cfg *Config) (*log.Logger, func(), error) {
	f, err := openLogFile(cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	return newLogger(f, cfg.Level()), func() { _ = f.Close() }, nil
}

// setupTracing installs the OTLP exporter when an endpoint is set. The
// returned function flushes it.
func setupTracing(ctx context.Context, cfg *Config, logger *log.Logger) func() {
	tp, err := trace.Setup(ctx, cfg.TraceEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", "err", err)
		return func() {}
	}
	if tp == nil {
		return func() {}
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("flush traces", "err", err)
		}
	}
}

// openStorage opens the pop-out storage named by cfg.Storage.
func openStorage(ctx context.Context, cfg *Config) (popout.Storage, func(), error) {
	switch cfg.Storage {
	case StorageMemory:
		return popout.NewMemoryStorage(), func() {}, nil
	case StorageRedis:
		s, err := popout.NewRedisStorage(ctx, popout.RedisConfig{
			Addr:   cfg.RedisAddr,
			Prefix: "dock:",
			TTL:    popout.DefaultRedisTTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		s, err := popout.NewFileStorage(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

func newRegistry() (*layout.Registry, error) {
	reg := layout.NewRegistry()
	if err := ui.RegisterPanes(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// outputFiles hands out the per-window terminal logs of a PTY spawner.
type outputFiles struct {
	dir    string
	logger *log.Logger

	mu    sync.Mutex
	files []*os.File
}

func (o *outputFiles) open(title string) io.Writer {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == os.PathSeparator || r < ' ' {
			return '_'
		}
		return r
	}, title)
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		o.logger.Warn("window output", "err", err)
		return nil
	}
	f, err := os.OpenFile(filepath.Join(o.dir, name+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		o.logger.Warn("window output", "title", title, "err", err)
		return nil
	}
	o.mu.Lock()
	o.files = append(o.files, f)
	o.mu.Unlock()
	return f
}

func (o *outputFiles) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, f := range o.files {
		_ = f.Close()
	}
	o.files = nil
}

// newSpawner returns the spawner for cfg.Launcher. The returned function
// releases what the spawner holds.
func newSpawner(cfg *Config, storage popout.Storage, logger *log.Logger) (popout.Spawner, func(), error) {
	switch cfg.Launcher {
	case LauncherTmux:
		return popout.TmuxSpawner{}, func() {}, nil
	case LauncherPTY:
		out := &outputFiles{dir: filepath.Join(cfg.DataDir, "pty"), logger: logger}
		return &popout.PTYSpawner{Runner: &pty.CreackPTY{}, Output: out.open}, out.Close, nil
	case LauncherInProcess:
		return &popout.InProcess{Run: headlessWindow(storage, logger)}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown launcher %q", cfg.Launcher)
	}
}

// initialLayout picks the layout to open: the layout file, else the
// saved layout, else the demo.
func initialLayout(ctx context.Context, cfg *Config, db *store.Store) (config.ResolvedLayoutConfig, error) {
	mode := config.ResponsiveMode(cfg.ResponsiveMode)
	fromUser := func(lc config.LayoutConfig) (config.ResolvedLayoutConfig, error) {
		if mode != "" {
			if lc.Settings == nil {
				lc.Settings = &config.SettingsConfig{}
			}
			lc.Settings.ResponsiveMode = &mode
		}
		return config.Resolve(ui.Terminalize(lc))
	}

	if cfg.Layout != "" {
		lc, err := config.LoadFile(cfg.Layout)
		if err != nil {
			return config.ResolvedLayoutConfig{}, err
		}
		return fromUser(lc)
	}
	saved, err := db.Load(ctx, cfg.LayoutName)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fromUser(DemoLayout())
	case err != nil:
		return config.ResolvedLayoutConfig{}, err
	}
	if mode != "" {
		saved.Settings.ResponsiveMode = mode
	}
	return saved, nil
}

// runHost opens the layout in this terminal and serves its pop-outs.
func runHost(ctx context.Context, cfg *Config) error {
	if err := needTerminal(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger, closeLog, err := fileLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	ctx = WithLogger(ctx, logger)
	defer setupTracing(ctx, cfg, logger)()

	storage, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open pop-out storage: %w", err)
	}
	defer closeStorage()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	reg, err := newRegistry()
	if err != nil {
		return err
	}
	spawner, closeSpawner, err := newSpawner(cfg, storage, logger)
	if err != nil {
		return err
	}
	defer closeSpawner()

	bridge := popout.NewBridge(logger.WithPrefix("bridge"))
	if err := bridge.Listen(cfg.BridgeAddr); err != nil {
		return err
	}
	launcher, err := popout.NewLauncher(popout.LauncherOptions{
		Storage: storage,
		Bridge:  bridge,
		Spawner: spawner,
		Args:    cfg.WindowArgs(),
		Logger:  logger.WithPrefix("popout"),
	})
	if err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return bridge.Serve(egctx) })
	eg.Go(func() error { return launcher.Run(egctx) })

	loop := tick.NewLoop(loopBuffer)
	surface := &ui.TermSurface{}
	m := layout.NewManager(layout.Options{
		Binder:       reg,
		Scheduler:    loop,
		Surface:      surface,
		Logger:       logger,
		Launcher:     launcher,
		SideAreaSize: ui.TerminalSideAreaSize,
		Context:      ctx,
	})

	runErr := func() error {
		resolved, err := initialLayout(ctx, cfg, db)
		if err != nil {
			return err
		}
		if err := m.LoadLayout(resolved); err != nil {
			return fmt.Errorf("load layout: %w", err)
		}
		stopSave := db.AutoSave(ctx, m, cfg.LayoutName, logger)
		defer stopSave()

		model, err := ui.NewModel(ui.Options{
			Manager: m,
			Loop:    loop,
			Surface: surface,
			Save: func(c config.ResolvedLayoutConfig) error {
				return db.Save(ctx, cfg.LayoutName, c)
			},
			Scope:  ui.ScopeMain,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		logger.Info("layout open", "name", cfg.LayoutName, "launcher", cfg.Launcher, "bridge", bridge.URL())
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return err
		}
		return nil
	}()

	m.Destroy()
	launcher.CloseAll()
	loop.Close()
	cancel()
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("shutdown", "err", err)
	}
	return runErr
}

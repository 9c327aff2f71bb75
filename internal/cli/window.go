package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"docklayout/internal/layout"
	"docklayout/internal/popout"
	"docklayout/internal/tick"
	"docklayout/internal/ui"
)

// shortKey trims a storage key for log prefixes.
func shortKey(key string) string {
	if len(key) > 8 {
		return key[len(key)-8:]
	}
	return key
}

// runWindow runs this process as the pop-out window stored under key.
func runWindow(ctx context.Context, cfg *Config, key string) error {
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
	logger = logger.WithPrefix("window " + shortKey(key))
	ctx = WithLogger(ctx, logger)
	defer setupTracing(ctx, cfg, logger)()

	storage, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open pop-out storage: %w", err)
	}
	defer closeStorage()

	child, err := popout.OpenChild(ctx, popout.ChildOptions{
		Key:     key,
		Storage: storage,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("open window %s: %w", key, err)
	}
	reg, err := newRegistry()
	if err != nil {
		return err
	}

	loop := tick.NewLoop(loopBuffer)
	defer loop.Close()
	surface := &ui.TermSurface{}
	m := layout.NewManager(layout.Options{
		Binder:       reg,
		Scheduler:    loop,
		Surface:      surface,
		Logger:       logger,
		Parent:       child.Client,
		SideAreaSize: ui.TerminalSideAreaSize,
		Context:      ctx,
	})
	defer m.Destroy()

	if err := child.Start(ctx, m); err != nil {
		return fmt.Errorf("start window: %w", err)
	}
	model, err := ui.NewModel(ui.Options{
		Manager: m,
		Loop:    loop,
		Surface: surface,
		Scope:   ui.ScopePopout,
		Quit:    child.Closing(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	closedByUser(child, m, logger)
	return nil
}

// closedByUser tells the parent the window is going away unless the
// parent asked for it.
func closedByUser(child *popout.Child, m *layout.Manager, logger *log.Logger) {
	select {
	case <-child.Closing():
	default:
		if err := m.NotifyParentClosed(); err != nil {
			logger.Warn("notify parent", "err", err)
		}
	}
}

// headlessWindow runs pop-out windows inside this process with no
// screen. Their layout lives until the parent closes them or pops them
// back in.
func headlessWindow(storage popout.Storage, logger *log.Logger) func(ctx context.Context, cmd popout.Command) error {
	return func(ctx context.Context, cmd popout.Command) error {
		key := popout.WindowKeyFromArgs(cmd.Args)
		wlog := logger.WithPrefix("window " + shortKey(key))
		child, err := popout.OpenChild(ctx, popout.ChildOptions{
			Key:       key,
			Storage:   storage,
			ParentURL: popout.EnvValue(cmd.Env, popout.BridgeURLEnv),
			Logger:    wlog,
		})
		if err != nil {
			return fmt.Errorf("open window %s: %w", key, err)
		}
		reg, err := newRegistry()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		loop := tick.NewLoop(loopBuffer)
		defer loop.Close()
		m := layout.NewManager(layout.Options{
			Binder:       reg,
			Scheduler:    loop,
			Logger:       wlog,
			Parent:       child.Client,
			SideAreaSize: ui.TerminalSideAreaSize,
			Context:      ctx,
		})
		defer m.Destroy()

		if err := child.Start(ctx, m); err != nil {
			return fmt.Errorf("start window: %w", err)
		}
		if cmd.Width > 0 && cmd.Height > 0 {
			m.SetSize(int(cmd.Width), int(cmd.Height))
		}
		go func() {
			select {
			case <-child.Closing():
				cancel()
			case <-ctx.Done():
			}
		}()
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

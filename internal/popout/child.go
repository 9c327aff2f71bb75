package popout

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"docklayout/internal/config"
	"docklayout/internal/layout"
)

// DefaultChildAddr is where a child window's bridge listens.
const DefaultChildAddr = "127.0.0.1:0"

// ChildOptions configure OpenChild.
type ChildOptions struct {
	Key     string
	Storage Storage
	// ParentURL is the parent's bridge. Defaults to $DOCK_BRIDGE_URL.
	ParentURL string
	// ListenAddr defaults to DefaultChildAddr.
	ListenAddr string
	Logger     *log.Logger
}

// Child is a pop-out window's end of the connection to its parent.
type Child struct {
	Config config.ResolvedPopoutLayoutConfig
	Client *Client
	Bridge *Bridge

	logger  *log.Logger
	closing chan struct{}
	once    sync.Once
}

// OpenChild takes the window's config from storage and starts listening
// for the parent. The config can only be taken once.
func OpenChild(ctx context.Context, opts ChildOptions) (*Child, error) {
	if opts.Storage == nil {
		return nil, errors.New("popout child needs a storage")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	parentURL := opts.ParentURL
	if parentURL == "" {
		parentURL = os.Getenv(BridgeURLEnv)
	}
	addr := opts.ListenAddr
	if addr == "" {
		addr = DefaultChildAddr
	}

	cfg, err := TakeConfig(ctx, opts.Storage, opts.Key)
	if err != nil {
		return nil, err
	}
	bridge := NewBridge(logger.WithPrefix("child"))
	if err := bridge.Listen(addr); err != nil {
		return nil, err
	}
	return &Child{
		Config:  cfg,
		Client:  NewClient(parentURL, opts.Key, WithSelfURL(bridge.URL()), WithReadyStorage(opts.Storage)),
		Bridge:  bridge,
		logger:  logger,
		closing: make(chan struct{}),
	}, nil
}

// Closing is closed when the parent has asked the window to close and
// the parent has been sent the final state.
func (c *Child) Closing() <-chan struct{} { return c.closing }

// Start loads the window's layout into m, serves the child bridge until
// ctx is done and signals the parent. Call it on m's owner goroutine; m
// must have been created with c.Client as its parent link.
func (c *Child) Start(ctx context.Context, m *layout.Manager) error {
	c.Bridge.AttachChild(m, func() {
		c.once.Do(func() { close(c.closing) })
	})
	go func() {
		if err := c.Bridge.Serve(ctx); err != nil {
			c.logger.Warn("child bridge", "err", err)
		}
	}()
	if err := m.LoadPopout(c.Config); err != nil {
		return err
	}
	if err := m.NotifyParentReady(); err != nil {
		c.logger.Warn("signal ready", "key", c.Client.Key(), "err", err)
	}
	return nil
}

// WindowKeyFromArgs returns the value of the window flag in args, or "".
func WindowKeyFromArgs(args []string) string {
	prefix := "--" + WindowFlag + "="
	for i, a := range args {
		if v, ok := strings.CutPrefix(a, prefix); ok {
			return v
		}
		if a == "--"+WindowFlag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// EnvValue returns name's value in an os.Environ style list.
func EnvValue(env []string, name string) string {
	for i := len(env) - 1; i >= 0; i-- {
		if v, ok := strings.CutPrefix(env[i], name+"="); ok {
			return v
		}
	}
	return ""
}

package popout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docklayout/internal/config"
	"docklayout/internal/layout"
)

// DefaultRequestTimeout bounds each bridge request.
const DefaultRequestTimeout = 5 * time.Second

func postJSON(ctx context.Context, hc *http.Client, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s: %s: %s", endpoint, resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}

func marshalEvent(name string, args []any) ([]byte, error) {
	if args == nil {
		args = []any{}
	}
	return json.Marshal(eventMessage{Kind: ChildEventKind, Name: name, Args: args})
}

// Client is a pop-out window's link to its parent's bridge. It
// implements layout.ParentLink.
type Client struct {
	base    string
	key     string
	selfURL string
	storage Storage
	http    *http.Client
}

var _ layout.ParentLink = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSelfURL sets the URL of the child's own bridge, sent with the
// ready signal so the parent can reach the window.
func WithSelfURL(u string) ClientOption {
	return func(c *Client) { c.selfURL = u }
}

// WithReadyStorage makes Ready fall back to a storage marker when the
// parent bridge cannot be reached.
func WithReadyStorage(s Storage) ClientOption {
	return func(c *Client) { c.storage = s }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient returns a client for the window key talking to the bridge at
// base. An empty base means storage-only mode.
func NewClient(base, key string, opts ...ClientOption) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		http: &http.Client{Timeout: DefaultRequestTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Key returns the window key.
func (c *Client) Key() string { return c.key }

func (c *Client) post(path string, body []byte) error {
	if c.base == "" {
		return fmt.Errorf("no parent bridge")
	}
	endpoint := c.base + "/windows/" + url.PathEscape(c.key) + path
	return postJSON(context.Background(), c.http, endpoint, body)
}

// Ready implements layout.ParentLink.
func (c *Client) Ready() error {
	body, err := json.Marshal(readyMessage{URL: c.selfURL})
	if err != nil {
		return err
	}
	err = c.post("/ready", body)
	if err != nil && c.storage != nil {
		return MarkReady(context.Background(), c.storage, c.key)
	}
	return err
}

// State implements layout.ParentLink.
func (c *Client) State(cfg config.ResolvedPopoutLayoutConfig) error {
	return c.postConfig("/state", cfg)
}

// PopIn implements layout.ParentLink.
func (c *Client) PopIn(cfg config.ResolvedPopoutLayoutConfig) error {
	return c.postConfig("/popin", cfg)
}

func (c *Client) postConfig(path string, cfg config.ResolvedPopoutLayoutConfig) error {
	data, err := config.MinifyPopout(cfg)
	if err != nil {
		return err
	}
	return c.post(path, data)
}

// Broadcast implements layout.ParentLink.
func (c *Client) Broadcast(name string, args []any) error {
	body, err := marshalEvent(name, args)
	if err != nil {
		return err
	}
	return c.post("/events", body)
}

// Closed implements layout.ParentLink.
func (c *Client) Closed() error {
	return c.post("/closed", []byte("{}"))
}

// childLink sends the parent's messages to a window's own bridge.
type childLink struct {
	http *http.Client
}

func (l childLink) broadcast(ctx context.Context, childURL, name string, args []any) error {
	body, err := marshalEvent(name, args)
	if err != nil {
		return err
	}
	return postJSON(ctx, l.http, strings.TrimRight(childURL, "/")+"/broadcast", body)
}

func (l childLink) close(ctx context.Context, childURL string) error {
	return postJSON(ctx, l.http, strings.TrimRight(childURL, "/")+"/close", []byte("{}"))
}

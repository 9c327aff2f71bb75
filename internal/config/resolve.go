package config

// Resolve fills every unset field of cfg with its default. Bare
// components at the root or directly under a row or column are wrapped
// in a stack.
func Resolve(cfg LayoutConfig) (ResolvedLayoutConfig, error) {
	return resolveLayout(cfg, true)
}

// ResolvePopout resolves a pop-out layout. Its root is not wrapped: a
// pop-out window may host a single bare component.
func ResolvePopout(cfg PopoutLayoutConfig) (ResolvedPopoutLayoutConfig, error) {
	base, err := resolveLayout(cfg.LayoutConfig, false)
	if err != nil {
		return ResolvedPopoutLayoutConfig{}, err
	}
	out := ResolvedPopoutLayoutConfig{
		ResolvedLayoutConfig: base,
		ParentID:             clonePtr(cfg.ParentID),
		IndexInParent:        clonePtr(cfg.IndexInParent),
	}
	if w := cfg.Window; w != nil {
		out.Window = ResolvedPopoutWindow{
			Width:  clonePtr(w.Width),
			Height: clonePtr(w.Height),
			Left:   clonePtr(w.Left),
			Top:    clonePtr(w.Top),
		}
	}
	return out, nil
}

// ResolveItem resolves a single item. Unlike Resolve it never wraps cfg
// itself, only its row/column children.
func ResolveItem(cfg ItemConfig) (ResolvedItemConfig, error) {
	return resolveItem(cfg)
}

// WrapInStack returns a stack holding component. The stack takes over the
// component's size, id, closability and maximised flag.
func WrapInStack(component ResolvedItemConfig) ResolvedItemConfig {
	stack := DefaultStack()
	stack.ID = component.ID
	stack.IsClosable = component.IsClosable
	stack.Maximised = component.Maximised
	stack.Width = component.Width
	stack.MinWidth = component.MinWidth
	stack.Height = component.Height
	stack.MinHeight = component.MinHeight
	stack.Content = []ResolvedItemConfig{component}
	return stack
}

func resolveLayout(cfg LayoutConfig, wrapRoot bool) (ResolvedLayoutConfig, error) {
	out := ResolvedLayoutConfig{
		OpenPopouts: make([]ResolvedPopoutLayoutConfig, 0, len(cfg.OpenPopouts)),
		Settings:    resolveSettings(cfg.Settings),
		Dimensions:  resolveDimensions(cfg.Dimensions),
		Header:      resolveHeader(cfg.Header),
	}
	if cfg.Root != nil {
		if cfg.Root.Type == TypeGround {
			return ResolvedLayoutConfig{}, configErr(cfg.Root, "root item cannot be of type ground")
		}
		root, err := resolveItem(*cfg.Root)
		if err != nil {
			return ResolvedLayoutConfig{}, err
		}
		if wrapRoot && root.Type == TypeComponent {
			root = WrapInStack(root)
		}
		out.Root = &root
	}
	for _, p := range cfg.OpenPopouts {
		rp, err := ResolvePopout(p)
		if err != nil {
			return ResolvedLayoutConfig{}, err
		}
		out.OpenPopouts = append(out.OpenPopouts, rp)
	}
	return out, nil
}

func resolveItem(cfg ItemConfig) (ResolvedItemConfig, error) {
	id, legacyMaximised := resolveID(cfg.ID)
	out := ResolvedItemConfig{
		Type:       cfg.Type,
		Width:      valueOr(cfg.Width, DefaultItemWidth),
		MinWidth:   valueOr(cfg.MinWidth, 0),
		Height:     valueOr(cfg.Height, DefaultItemHeight),
		MinHeight:  valueOr(cfg.MinHeight, 0),
		ID:         id,
		IsClosable: valueOr(cfg.IsClosable, true),
	}

	switch cfg.Type {
	case TypeRow, TypeColumn:
		content := make([]ResolvedItemConfig, 0, len(cfg.Content))
		for _, child := range cfg.Content {
			if child.Type == TypeGround {
				return ResolvedItemConfig{}, configErr(child, "%s cannot contain a ground item", cfg.Type)
			}
			rc, err := resolveItem(child)
			if err != nil {
				return ResolvedItemConfig{}, err
			}
			if rc.Type == TypeComponent {
				rc = WrapInStack(rc)
			}
			content = append(content, rc)
		}
		out.Content = content

	case TypeStack:
		content := make([]ResolvedItemConfig, 0, len(cfg.Content))
		for _, child := range cfg.Content {
			if child.Type != TypeComponent {
				return ResolvedItemConfig{}, configErr(child, "stack can only contain components, got %q", child.Type)
			}
			rc, err := resolveItem(child)
			if err != nil {
				return ResolvedItemConfig{}, err
			}
			content = append(content, rc)
		}
		out.Content = content
		out.ActiveItemIndex = valueOr(cfg.ActiveItemIndex, DefaultActiveItemIndex)
		if n := len(content); out.ActiveItemIndex < 0 || (n > 0 && out.ActiveItemIndex >= n) || (n == 0 && out.ActiveItemIndex != 0) {
			return ResolvedItemConfig{}, configErr(cfg, "activeItemIndex %d out of range for %d items", out.ActiveItemIndex, n)
		}
		out.Maximised = valueOr(cfg.Maximised, false) || legacyMaximised
		out.Header = resolveItemHeader(cfg.Header)

	case TypeComponent:
		componentType := cfg.ComponentType
		if componentType == "" {
			componentType = cfg.ComponentName
		}
		if componentType == "" {
			return ResolvedItemConfig{}, configErr(cfg, "componentType is required")
		}
		out.ComponentType = componentType
		out.Title = valueOr(cfg.Title, componentType)
		out.ComponentState = cfg.ComponentState
		if out.ComponentState == nil {
			out.ComponentState = map[string]any{}
		}
		out.ReorderEnabled = valueOr(cfg.ReorderEnabled, true)
		out.Header = resolveItemHeader(cfg.Header)

	case TypeGround:
		return ResolvedItemConfig{}, configErr(cfg, "ground items cannot be created from configuration")

	case "":
		return ResolvedItemConfig{}, configErr(cfg, "item type is required")

	default:
		return ResolvedItemConfig{}, configErr(cfg, "unknown item type %q", cfg.Type)
	}
	return out, nil
}

func resolveID(id ItemID) (string, bool) {
	var (
		first     string
		found     bool
		maximised bool
	)
	for _, s := range id {
		if s == MaximisedItemID {
			maximised = true
			continue
		}
		if !found {
			first, found = s, true
		}
	}
	return first, maximised
}

func resolveSettings(s *SettingsConfig) Settings {
	out := DefaultSettings()
	if s == nil {
		return out
	}
	out.ConstrainDragToContainer = valueOr(s.ConstrainDragToContainer, out.ConstrainDragToContainer)
	out.ReorderEnabled = valueOr(s.ReorderEnabled, out.ReorderEnabled)
	out.PopoutWholeStack = valueOr(s.PopoutWholeStack, out.PopoutWholeStack)
	out.BlockedPopoutsThrowError = valueOr(s.BlockedPopoutsThrowError, out.BlockedPopoutsThrowError)
	out.ClosePopoutsOnUnload = valueOr(s.ClosePopoutsOnUnload, out.ClosePopoutsOnUnload)
	out.ResponsiveMode = valueOr(s.ResponsiveMode, out.ResponsiveMode)
	out.TabOverlapAllowance = valueOr(s.TabOverlapAllowance, out.TabOverlapAllowance)
	out.ReorderOnTabMenuClick = valueOr(s.ReorderOnTabMenuClick, out.ReorderOnTabMenuClick)
	out.TabControlOffset = valueOr(s.TabControlOffset, out.TabControlOffset)
	out.PopInOnClose = valueOr(s.PopInOnClose, out.PopInOnClose)
	return out
}

func resolveDimensions(d *DimensionsConfig) Dimensions {
	out := DefaultDimensions()
	if d == nil {
		return out
	}
	out.BorderWidth = valueOr(d.BorderWidth, out.BorderWidth)
	out.BorderGrabWidth = valueOr(d.BorderGrabWidth, out.BorderGrabWidth)
	out.MinItemHeight = valueOr(d.MinItemHeight, out.MinItemHeight)
	out.MinItemWidth = valueOr(d.MinItemWidth, out.MinItemWidth)
	out.HeaderHeight = valueOr(d.HeaderHeight, out.HeaderHeight)
	out.DragProxyWidth = valueOr(d.DragProxyWidth, out.DragProxyWidth)
	out.DragProxyHeight = valueOr(d.DragProxyHeight, out.DragProxyHeight)
	return out
}

func resolveHeader(h *HeaderConfig) ResolvedHeaderConfig {
	out := DefaultHeader()
	if h == nil {
		return out
	}
	out.Show = valueOr(h.Show, out.Show)
	out.Popout = valueOr(h.Popout, out.Popout)
	out.Dock = valueOr(h.Dock, out.Dock)
	out.Maximise = valueOr(h.Maximise, out.Maximise)
	out.Minimise = valueOr(h.Minimise, out.Minimise)
	out.Close = valueOr(h.Close, out.Close)
	out.TabDropdown = valueOr(h.TabDropdown, out.TabDropdown)
	return out
}

// Item headers are optional; unset fields fall back to the defaults.
func resolveItemHeader(h *HeaderConfig) *ResolvedHeaderConfig {
	if h == nil {
		return nil
	}
	out := resolveHeader(h)
	return &out
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func ptr[T any](v T) *T {
	return &v
}

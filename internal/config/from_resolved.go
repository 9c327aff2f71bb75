package config

// FromResolved converts a resolved layout back into a user config with
// every field set, so that Resolve(FromResolved(x)) equals x.
func FromResolved(r ResolvedLayoutConfig) LayoutConfig {
	out := LayoutConfig{
		Settings:   fromSettings(r.Settings),
		Dimensions: fromDimensions(r.Dimensions),
		Header:     fromHeader(r.Header),
	}
	if r.Root != nil {
		root := FromResolvedItem(*r.Root)
		out.Root = &root
	}
	if len(r.OpenPopouts) > 0 {
		out.OpenPopouts = make([]PopoutLayoutConfig, 0, len(r.OpenPopouts))
		for _, p := range r.OpenPopouts {
			out.OpenPopouts = append(out.OpenPopouts, FromResolvedPopout(p))
		}
	}
	return out
}

// FromResolvedPopout is FromResolved for pop-out layouts.
func FromResolvedPopout(r ResolvedPopoutLayoutConfig) PopoutLayoutConfig {
	return PopoutLayoutConfig{
		LayoutConfig:  FromResolved(r.ResolvedLayoutConfig),
		ParentID:      clonePtr(r.ParentID),
		IndexInParent: clonePtr(r.IndexInParent),
		Window: &PopoutWindowConfig{
			Width:  clonePtr(r.Window.Width),
			Height: clonePtr(r.Window.Height),
			Left:   clonePtr(r.Window.Left),
			Top:    clonePtr(r.Window.Top),
		},
	}
}

// FromResolvedItem converts one resolved item and its subtree.
func FromResolvedItem(r ResolvedItemConfig) ItemConfig {
	out := ItemConfig{
		Type:       r.Type,
		Width:      ptr(r.Width),
		MinWidth:   ptr(r.MinWidth),
		Height:     ptr(r.Height),
		MinHeight:  ptr(r.MinHeight),
		ID:         ItemID{r.ID},
		IsClosable: ptr(r.IsClosable),
	}
	switch r.Type {
	case TypeStack:
		out.ActiveItemIndex = ptr(r.ActiveItemIndex)
		out.Maximised = ptr(r.Maximised)
		out.Header = fromItemHeader(r.Header)
	case TypeComponent:
		out.Title = ptr(r.Title)
		out.ComponentType = r.ComponentType
		out.ComponentState = r.ComponentState
		out.ReorderEnabled = ptr(r.ReorderEnabled)
		out.Header = fromItemHeader(r.Header)
	}
	if r.Type != TypeComponent {
		out.Content = make([]ItemConfig, 0, len(r.Content))
		for _, c := range r.Content {
			out.Content = append(out.Content, FromResolvedItem(c))
		}
	}
	return out
}

func fromSettings(s Settings) *SettingsConfig {
	return &SettingsConfig{
		ConstrainDragToContainer: ptr(s.ConstrainDragToContainer),
		ReorderEnabled:           ptr(s.ReorderEnabled),
		PopoutWholeStack:         ptr(s.PopoutWholeStack),
		BlockedPopoutsThrowError: ptr(s.BlockedPopoutsThrowError),
		ClosePopoutsOnUnload:     ptr(s.ClosePopoutsOnUnload),
		ResponsiveMode:           ptr(s.ResponsiveMode),
		TabOverlapAllowance:      ptr(s.TabOverlapAllowance),
		ReorderOnTabMenuClick:    ptr(s.ReorderOnTabMenuClick),
		TabControlOffset:         ptr(s.TabControlOffset),
		PopInOnClose:             ptr(s.PopInOnClose),
	}
}

func fromDimensions(d Dimensions) *DimensionsConfig {
	return &DimensionsConfig{
		BorderWidth:     ptr(d.BorderWidth),
		BorderGrabWidth: ptr(d.BorderGrabWidth),
		MinItemHeight:   ptr(d.MinItemHeight),
		MinItemWidth:    ptr(d.MinItemWidth),
		HeaderHeight:    ptr(d.HeaderHeight),
		DragProxyWidth:  ptr(d.DragProxyWidth),
		DragProxyHeight: ptr(d.DragProxyHeight),
	}
}

func fromHeader(h ResolvedHeaderConfig) *HeaderConfig {
	return &HeaderConfig{
		Show:        ptr(h.Show),
		Popout:      ptr(h.Popout),
		Dock:        ptr(h.Dock),
		Maximise:    ptr(h.Maximise),
		Minimise:    ptr(h.Minimise),
		Close:       ptr(h.Close),
		TabDropdown: ptr(h.TabDropdown),
	}
}

func fromItemHeader(h *ResolvedHeaderConfig) *HeaderConfig {
	if h == nil {
		return nil
	}
	return fromHeader(*h)
}

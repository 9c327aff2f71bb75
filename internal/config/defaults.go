package config

// Item defaults.
const (
	DefaultItemWidth       = 50.0
	DefaultItemHeight      = 50.0
	DefaultGroundSize      = 100.0
	DefaultPopoutWidth     = 500.0
	DefaultPopoutHeight    = 309.0
	DefaultActiveItemIndex = 0
)

// DefaultSettings returns the settings used for any field left unset.
func DefaultSettings() Settings {
	return Settings{
		ConstrainDragToContainer: true,
		ReorderEnabled:           true,
		PopoutWholeStack:         false,
		BlockedPopoutsThrowError: true,
		ClosePopoutsOnUnload:     true,
		ResponsiveMode:           ResponsiveNone,
		TabOverlapAllowance:      0,
		ReorderOnTabMenuClick:    true,
		TabControlOffset:         10,
		PopInOnClose:             false,
	}
}

// DefaultDimensions returns the dimensions used for any field left unset.
func DefaultDimensions() Dimensions {
	return Dimensions{
		BorderWidth:     5,
		BorderGrabWidth: 5,
		MinItemHeight:   10,
		MinItemWidth:    10,
		HeaderHeight:    20,
		DragProxyWidth:  300,
		DragProxyHeight: 200,
	}
}

// DefaultHeader returns the layout-wide header defaults.
func DefaultHeader() ResolvedHeaderConfig {
	return ResolvedHeaderConfig{
		Show:        HeaderTop,
		Popout:      "open in new window",
		Dock:        "dock",
		Maximise:    "maximise",
		Minimise:    "minimise",
		Close:       "close",
		TabDropdown: "additional tabs",
	}
}

// DefaultStack returns an empty resolved stack.
func DefaultStack() ResolvedItemConfig {
	return ResolvedItemConfig{
		Type:            TypeStack,
		Content:         []ResolvedItemConfig{},
		Width:           DefaultItemWidth,
		Height:          DefaultItemHeight,
		IsClosable:      true,
		ActiveItemIndex: DefaultActiveItemIndex,
	}
}

// DefaultRowOrColumn returns an empty resolved row or column.
func DefaultRowOrColumn(t ItemType) ResolvedItemConfig {
	return ResolvedItemConfig{
		Type:       t,
		Content:    []ResolvedItemConfig{},
		Width:      DefaultItemWidth,
		Height:     DefaultItemHeight,
		IsClosable: true,
	}
}

// DefaultGround returns the resolved config of a layout's ground item.
func DefaultGround() ResolvedItemConfig {
	return ResolvedItemConfig{
		Type:       TypeGround,
		Content:    []ResolvedItemConfig{},
		Width:      DefaultGroundSize,
		Height:     DefaultGroundSize,
		IsClosable: false,
	}
}

// DefaultLayout returns an empty resolved layout.
func DefaultLayout() ResolvedLayoutConfig {
	return ResolvedLayoutConfig{
		OpenPopouts: []ResolvedPopoutLayoutConfig{},
		Settings:    DefaultSettings(),
		Dimensions:  DefaultDimensions(),
		Header:      DefaultHeader(),
	}
}

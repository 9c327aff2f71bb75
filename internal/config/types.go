// Package config holds the user-facing and resolved layout configuration.
//
// A LayoutConfig is what users write: sparse, with optional fields left
// nil. Resolve turns it into a ResolvedLayoutConfig where every field has
// a value. FromResolved goes the other way so that a saved layout can be
// fed back through Resolve unchanged. Minify and Unminify shrink a
// resolved config for storage and pop-out hand-off.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ItemType identifies the kind of a content item.
type ItemType string

const (
	TypeGround    ItemType = "ground"
	TypeRow       ItemType = "row"
	TypeColumn    ItemType = "column"
	TypeStack     ItemType = "stack"
	TypeComponent ItemType = "component"
)

// IsRowOrColumn reports whether t lays its children out along an axis.
func (t ItemType) IsRowOrColumn() bool {
	return t == TypeRow || t == TypeColumn
}

// ResponsiveMode controls when columns are merged to fit a narrow surface.
type ResponsiveMode string

const (
	ResponsiveNone   ResponsiveMode = "none"
	ResponsiveAlways ResponsiveMode = "always"
	ResponsiveOnLoad ResponsiveMode = "onload"
)

// HeaderShow places the stack header. An empty value hides it.
const (
	HeaderTop    = "top"
	HeaderBottom = "bottom"
	HeaderLeft   = "left"
	HeaderRight  = "right"
)

// MaximisedItemID is the legacy id marker for a maximised stack.
const MaximisedItemID = "__glMaximised"

// ItemID accepts either a string or a list of strings. Only the first
// element survives resolution; the legacy maximised marker is stripped.
type ItemID []string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("decode id list: %w", err)
		}
		*id = ids
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ItemID{s}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (id ItemID) MarshalJSON() ([]byte, error) {
	if len(id) == 1 {
		return json.Marshal(id[0])
	}
	return json.Marshal([]string(id))
}

// ItemConfig is the user-supplied description of one content item.
// Nil pointers mean "use the default".
type ItemConfig struct {
	Type            ItemType      `json:"type"`
	Content         []ItemConfig  `json:"content,omitempty"`
	Width           *float64      `json:"width,omitempty"`
	MinWidth        *float64      `json:"minWidth,omitempty"`
	Height          *float64      `json:"height,omitempty"`
	MinHeight       *float64      `json:"minHeight,omitempty"`
	ID              ItemID        `json:"id,omitempty"`
	IsClosable      *bool         `json:"isClosable,omitempty"`
	Header          *HeaderConfig `json:"header,omitempty"`
	Maximised       *bool         `json:"maximised,omitempty"`
	ActiveItemIndex *int          `json:"activeItemIndex,omitempty"`
	Title           *string       `json:"title,omitempty"`
	ComponentType   string        `json:"componentType,omitempty"`
	ComponentName   string        `json:"componentName,omitempty"`
	ComponentState  any           `json:"componentState,omitempty"`
	ReorderEnabled  *bool         `json:"reorderEnabled,omitempty"`
}

// HeaderConfig overrides header placement and button labels. An empty
// string disables the corresponding button.
type HeaderConfig struct {
	Show        *string `json:"show,omitempty"`
	Popout      *string `json:"popout,omitempty"`
	Dock        *string `json:"dock,omitempty"`
	Maximise    *string `json:"maximise,omitempty"`
	Minimise    *string `json:"minimise,omitempty"`
	Close       *string `json:"close,omitempty"`
	TabDropdown *string `json:"tabDropdown,omitempty"`
}

// SettingsConfig is the user-facing form of Settings.
type SettingsConfig struct {
	ConstrainDragToContainer *bool           `json:"constrainDragToContainer,omitempty"`
	ReorderEnabled           *bool           `json:"reorderEnabled,omitempty"`
	PopoutWholeStack         *bool           `json:"popoutWholeStack,omitempty"`
	BlockedPopoutsThrowError *bool           `json:"blockedPopoutsThrowError,omitempty"`
	ClosePopoutsOnUnload     *bool           `json:"closePopoutsOnUnload,omitempty"`
	ResponsiveMode           *ResponsiveMode `json:"responsiveMode,omitempty"`
	TabOverlapAllowance      *int            `json:"tabOverlapAllowance,omitempty"`
	ReorderOnTabMenuClick    *bool           `json:"reorderOnTabMenuClick,omitempty"`
	TabControlOffset         *int            `json:"tabControlOffset,omitempty"`
	PopInOnClose             *bool           `json:"popInOnClose,omitempty"`
}

// DimensionsConfig is the user-facing form of Dimensions.
type DimensionsConfig struct {
	BorderWidth     *int `json:"borderWidth,omitempty"`
	BorderGrabWidth *int `json:"borderGrabWidth,omitempty"`
	MinItemHeight   *int `json:"minItemHeight,omitempty"`
	MinItemWidth    *int `json:"minItemWidth,omitempty"`
	HeaderHeight    *int `json:"headerHeight,omitempty"`
	DragProxyWidth  *int `json:"dragProxyWidth,omitempty"`
	DragProxyHeight *int `json:"dragProxyHeight,omitempty"`
}

// LayoutConfig is the top-level user configuration.
type LayoutConfig struct {
	Root        *ItemConfig          `json:"root,omitempty"`
	OpenPopouts []PopoutLayoutConfig `json:"openPopouts,omitempty"`
	Settings    *SettingsConfig      `json:"settings,omitempty"`
	Dimensions  *DimensionsConfig    `json:"dimensions,omitempty"`
	Header      *HeaderConfig        `json:"header,omitempty"`
}

// PopoutWindowConfig is the position and size of a pop-out window.
type PopoutWindowConfig struct {
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Left   *float64 `json:"left,omitempty"`
	Top    *float64 `json:"top,omitempty"`
}

// PopoutLayoutConfig describes a layout living in a pop-out window.
type PopoutLayoutConfig struct {
	LayoutConfig
	ParentID      *string             `json:"parentId,omitempty"`
	IndexInParent *int                `json:"indexInParent,omitempty"`
	Window        *PopoutWindowConfig `json:"window,omitempty"`
}

// ResolvedItemConfig is a fully defaulted content item. Fields that do
// not apply to Type hold their zero value.
type ResolvedItemConfig struct {
	Type            ItemType              `json:"type"`
	Content         []ResolvedItemConfig  `json:"content"`
	Width           float64               `json:"width"`
	MinWidth        float64               `json:"minWidth"`
	Height          float64               `json:"height"`
	MinHeight       float64               `json:"minHeight"`
	ID              string                `json:"id"`
	IsClosable      bool                  `json:"isClosable"`
	Header          *ResolvedHeaderConfig `json:"header,omitempty"`
	Maximised       bool                  `json:"maximised,omitempty"`
	ActiveItemIndex int                   `json:"activeItemIndex,omitempty"`
	Title           string                `json:"title,omitempty"`
	ComponentType   string                `json:"componentType,omitempty"`
	ComponentState  any                   `json:"componentState,omitempty"`
	ReorderEnabled  bool                  `json:"reorderEnabled,omitempty"`
}

// ResolvedHeaderConfig is a fully defaulted header.
type ResolvedHeaderConfig struct {
	Show        string `json:"show"`
	Popout      string `json:"popout"`
	Dock        string `json:"dock"`
	Maximise    string `json:"maximise"`
	Minimise    string `json:"minimise"`
	Close       string `json:"close"`
	TabDropdown string `json:"tabDropdown"`
}

// Settings are behaviour switches shared by the whole layout.
type Settings struct {
	ConstrainDragToContainer bool           `json:"constrainDragToContainer"`
	ReorderEnabled           bool           `json:"reorderEnabled"`
	PopoutWholeStack         bool           `json:"popoutWholeStack"`
	BlockedPopoutsThrowError bool           `json:"blockedPopoutsThrowError"`
	ClosePopoutsOnUnload     bool           `json:"closePopoutsOnUnload"`
	ResponsiveMode           ResponsiveMode `json:"responsiveMode"`
	TabOverlapAllowance      int            `json:"tabOverlapAllowance"`
	ReorderOnTabMenuClick    bool           `json:"reorderOnTabMenuClick"`
	TabControlOffset         int            `json:"tabControlOffset"`
	PopInOnClose             bool           `json:"popInOnClose"`
}

// Dimensions are measured in surface units (terminal cells for the TUI host).
type Dimensions struct {
	BorderWidth     int `json:"borderWidth"`
	BorderGrabWidth int `json:"borderGrabWidth"`
	MinItemHeight   int `json:"minItemHeight"`
	MinItemWidth    int `json:"minItemWidth"`
	HeaderHeight    int `json:"headerHeight"`
	DragProxyWidth  int `json:"dragProxyWidth"`
	DragProxyHeight int `json:"dragProxyHeight"`
}

// ResolvedLayoutConfig is the persisted form of a layout.
type ResolvedLayoutConfig struct {
	Root        *ResolvedItemConfig          `json:"root"`
	OpenPopouts []ResolvedPopoutLayoutConfig `json:"openPopouts"`
	Settings    Settings                     `json:"settings"`
	Dimensions  Dimensions                   `json:"dimensions"`
	Header      ResolvedHeaderConfig         `json:"header"`
}

// ResolvedPopoutWindow keeps nil for coordinates the user never set.
type ResolvedPopoutWindow struct {
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
	Left   *float64 `json:"left"`
	Top    *float64 `json:"top"`
}

// ResolvedPopoutLayoutConfig is a resolved layout living in a pop-out.
type ResolvedPopoutLayoutConfig struct {
	ResolvedLayoutConfig
	ParentID      *string              `json:"parentId"`
	IndexInParent *int                 `json:"indexInParent"`
	Window        ResolvedPopoutWindow `json:"window"`
}

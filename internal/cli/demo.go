package cli

import (
	"docklayout/internal/config"
	"docklayout/internal/ui"
)

const welcomeText = `Drag a tab by its title to move it.
Drop it on a header to join that stack, on a pane edge to split it.
Drag the lines between panes to resize them.

SPC opens the command menu. Enter types into the focused pane.`

func textPane(title, body string) config.ItemConfig {
	return config.ItemConfig{
		Type:           config.TypeComponent,
		ComponentType:  ui.TypeText,
		Title:          &title,
		ComponentState: map[string]any{"text": body},
	}
}

func pane(componentType, title string) config.ItemConfig {
	return config.ItemConfig{
		Type:          config.TypeComponent,
		ComponentType: componentType,
		Title:         &title,
	}
}

// DemoLayout is opened when there is neither a layout file nor a saved
// layout.
func DemoLayout() config.LayoutConfig {
	left, right := 60.0, 40.0
	top := 65.0
	return config.LayoutConfig{
		Root: &config.ItemConfig{
			Type: config.TypeRow,
			Content: []config.ItemConfig{
				{
					Type:  config.TypeStack,
					Width: &left,
					Content: []config.ItemConfig{
						textPane("welcome", welcomeText),
						textPane("notes", ""),
					},
				},
				{
					Type:  config.TypeColumn,
					Width: &right,
					Content: []config.ItemConfig{
						{Type: config.TypeStack, Height: &top, Content: []config.ItemConfig{pane(ui.TypeShell, "shell")}},
						{Type: config.TypeStack, Content: []config.ItemConfig{pane(ui.TypeEvents, "events")}},
					},
				},
			},
		},
	}
}

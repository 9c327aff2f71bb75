package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"docklayout/internal/store"
	"docklayout/internal/ui"
)

func newLayoutsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "Manage saved layouts",
	}
	cmd.AddCommand(newLayoutsListCmd())
	cmd.AddCommand(newLayoutsShowCmd())
	cmd.AddCommand(newLayoutsSaveCmd())
	cmd.AddCommand(newLayoutsDeleteCmd())
	return cmd
}

// withStore opens the layout store for the duration of fn.
func withStore(ctx context.Context, fn func(*store.Store) error) error {
	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

// renderLayoutTable draws the saved layouts as a table.
func renderLayoutTable(sums []store.Summary) string {
	rows := make([][]string, 0, len(sums))
	for _, s := range sums {
		rows = append(rows, []string{s.Name, s.UpdatedAt.Local().Format(time.DateTime), strconv.Itoa(s.Bytes)})
	}
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ui.ColorMuted)).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(ui.ColorDim))).
		Headers("Name", "Updated", "Bytes").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return t.String()
}

func newLayoutsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(db *store.Store) error {
				sums, err := db.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(sums) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no saved layouts")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderLayoutTable(sums))
				return nil
			})
		},
	}
}

func newLayoutsShowCmd() *cobra.Command {
	var minified bool
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(db *store.Store) error {
				if minified {
					data, err := db.Raw(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
					return err
				}
				cfg, err := db.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), cfg)
			})
		},
	}
	cmd.Flags().BoolVar(&minified, "minified", false, "print the stored minified form")
	return cmd
}

func newLayoutsSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <name> <file>",
		Short: "Save a layout file under name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveFile(args[1], true)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(db *store.Store) error {
				if err := db.Save(cmd.Context(), args[0], resolved); err != nil {
					return err
				}
				LoggerFromContext(cmd.Context()).Info("layout saved", "name", args[0])
				return nil
			})
		},
	}
}

func newLayoutsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(db *store.Store) error {
				return db.Delete(cmd.Context(), args[0])
			})
		},
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"docklayout/internal/config"
	"docklayout/internal/ui"
)

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// resolveFile loads a user layout file and fills in every default. With
// terminal set the dimensions are the ones the terminal host uses.
func resolveFile(path string, terminal bool) (config.ResolvedLayoutConfig, error) {
	lc, err := config.LoadFile(path)
	if err != nil {
		return config.ResolvedLayoutConfig{}, err
	}
	if terminal {
		lc = ui.Terminalize(lc)
	}
	return config.Resolve(lc)
}

func newResolveCmd() *cobra.Command {
	var terminal bool
	cmd := &cobra.Command{
		Use:   "resolve <file>",
		Short: "Print a layout file with every default filled in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveFile(args[0], terminal)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resolved)
		},
	}
	cmd.Flags().BoolVar(&terminal, "terminal", false, "use the terminal host's dimensions")
	return cmd
}

func newMinifyCmd() *cobra.Command {
	var terminal bool
	cmd := &cobra.Command{
		Use:   "minify <file>",
		Short: "Print the minified form of a layout file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveFile(args[0], terminal)
			if err != nil {
				return err
			}
			data, err := config.MinifyLayout(resolved)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
			return err
		},
	}
	cmd.Flags().BoolVar(&terminal, "terminal", false, "use the terminal host's dimensions")
	return cmd
}

func newUnminifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unminify <file|->",
		Short: "Print a minified layout as a resolved config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			resolved, err := config.UnminifyLayout(data)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resolved)
		},
	}
}

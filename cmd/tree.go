// File: cmd/tree.go
package cmd

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/pagepilot/internal/engine"
	"github.com/xkilldash9x/pagepilot/internal/observability"
	"github.com/xkilldash9x/pagepilot/internal/page"
)

// newTreeCmd creates the `tree` command: print the accessibility tree
// snapshot of a local HTML document.
func newTreeCmd() *cobra.Command {
	var pageURL string

	treeCmd := &cobra.Command{
		Use:   "tree <document.html>",
		Short: "Prints the interactive-element snapshot of an HTML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openDocument(args[0], pageURL)
			if err != nil {
				return err
			}

			result := sess.GetAccessibilityTree()
			fmt.Fprintln(cmd.OutOrStdout(), result.Tree)
			return nil
		},
	}

	treeCmd.Flags().StringVar(&pageURL, "url", "", "URL reported in the snapshot header")
	return treeCmd
}

// openDocument loads an HTML file from disk and wraps it in a session.
func openDocument(path, pageURL string) (*engine.Session, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand document path: %w", err)
	}

	src, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if pageURL == "" {
		pageURL = "file://" + expanded
	}

	p, err := page.Load(string(src), pageURL, cfg.Viewport)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	return engine.NewSession(p, cfg.Engine, observability.GetLogger()), nil
}

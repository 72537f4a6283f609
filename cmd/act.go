// File: cmd/act.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/pagepilot/api/schemas"
)

// newActCmd creates the `act` command: take a snapshot of a document,
// perform one action against it and report the outcome.
func newActCmd() *cobra.Command {
	var (
		pageURL  string
		handle   string
		action   string
		value    string
		showTree bool
	)

	actCmd := &cobra.Command{
		Use:   "act <document.html>",
		Short: "Performs one action against a snapshot of an HTML document",
		Long: `Act loads the document, takes an interactive-element snapshot and
performs the requested action. Handle references (e0, e1, ...) come from
the snapshot taken in this run; use 'tree' first to see them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openDocument(args[0], pageURL)
			if err != nil {
				return err
			}

			// Actions resolve handles against the current snapshot
			// generation, so one must be taken first.
			sess.GetAccessibilityTree()

			result := sess.WebAgentAction(schemas.ActionRequest{
				Handle:     handle,
				ActionType: action,
				Value:      value,
			})

			out := cmd.OutOrStdout()
			if result.Success {
				fmt.Fprintln(out, result.Message)
			} else {
				fmt.Fprintf(out, "Action failed: %s\n", result.Message)
			}

			if showTree {
				fmt.Fprintln(out)
				fmt.Fprintln(out, sess.GetAccessibilityTree().Tree)
			}

			if !result.Success {
				return fmt.Errorf("action %q did not succeed", action)
			}
			return nil
		},
	}

	actCmd.Flags().StringVar(&pageURL, "url", "", "URL reported in the snapshot header")
	actCmd.Flags().StringVar(&handle, "handle", "", "element handle from the snapshot (e.g. e0)")
	actCmd.Flags().StringVar(&action, "action", "", "action type: click, type, clear, select, hover, press_key, scroll_page")
	actCmd.Flags().StringVar(&value, "value", "", "action payload: text to type, option, key name or scroll direction")
	actCmd.Flags().BoolVar(&showTree, "show-tree", false, "print the refreshed snapshot after the action")
	_ = actCmd.MarkFlagRequired("action")

	return actCmd
}

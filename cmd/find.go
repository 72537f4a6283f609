// File: cmd/find.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newFindCmd creates the `find` command: locate a text snippet in a
// document and report how many occurrences were highlighted.
func newFindCmd() *cobra.Command {
	var pageURL string

	findCmd := &cobra.Command{
		Use:   "find <document.html> <text>",
		Short: "Locates a text snippet in an HTML document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openDocument(args[0], pageURL)
			if err != nil {
				return err
			}

			result := sess.FindAndHighlight(args[1])
			out := cmd.OutOrStdout()
			if !result.Found {
				fmt.Fprintf(out, "No match for %q.\n", args[1])
				return nil
			}
			fmt.Fprintf(out, "Found %d match(es) for %q.\n", result.MatchCount, args[1])
			return nil
		},
	}

	findCmd.Flags().StringVar(&pageURL, "url", "", "URL reported for the document")
	return findCmd
}

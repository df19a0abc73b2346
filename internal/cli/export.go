package cli

import (
	"github.com/spf13/cobra"

	"worktree.dev/cw/internal/actions/export"
	"worktree.dev/cw/internal/cli/helpers"
	"worktree.dev/cw/internal/runtime"
)

// newExportCmd creates the export command
func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export worktree metadata to a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				_, _, err := export.Action(ctx, export.Options{Output: output})
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write (default: cw-export-<timestamp>.json)")

	return cmd
}

// newImportCmd creates the import command
func newImportCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import worktree metadata exported with cw export",
		Long: `Preview the worktree metadata in an export file. With --apply the base
branch of every exported branch that exists locally is recorded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				_, err := export.Import(ctx, export.ImportOptions{File: args[0], Apply: apply})
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Write the imported metadata")

	return cmd
}

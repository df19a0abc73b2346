package cli

import (
	"github.com/spf13/cobra"

	"worktree.dev/cw/internal/actions"
	"worktree.dev/cw/internal/actions/backup"
	"worktree.dev/cw/internal/cli/helpers"
	"worktree.dev/cw/internal/runtime"
)

// newBackupCmd creates the backup command
func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up and restore worktrees",
		Long: `Back up worktrees as git bundles together with their uncommitted and
untracked files, and restore them later.

Backups are stored under the configured backups_dir as <branch>/<id>.`,
	}

	cmd.AddCommand(newBackupCreateCmd())
	cmd.AddCommand(newBackupListCmd())
	cmd.AddCommand(newBackupRestoreCmd())

	return cmd
}

func newBackupCreateCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:               "create [branch]",
		Short:             "Back up a worktree",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: helpers.CompleteWorktreeBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				records, err := backup.Create(ctx, backup.Options{Branch: optionalArg(args), All: all})
				if len(records) > 1 {
					ctx.Splog.Success("Created %d backups.", len(records))
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Back up every feature worktree")

	return cmd
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [branch]",
		Short: "List backups",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				records, err := backup.List(ctx.Config.BackupsDir, optionalArg(args))
				if err != nil {
					return err
				}
				if len(records) == 0 {
					ctx.Splog.Info("No backups found.")
					return nil
				}
				branch := ""
				for _, rec := range records {
					if rec.Branch != branch {
						branch = rec.Branch
						ctx.Splog.Info("%s:", actions.Branch(branch))
					}
					suffix := ""
					if rec.Snapshot.HasUncommittedChanges {
						suffix = " (with uncommitted changes)"
					}
					ctx.Splog.Info("  %s  %s%s", rec.ID, rec.Snapshot.BackedUpAt.Local().Format("2006-01-02 15:04:05"), suffix)
				}
				return nil
			})
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	var (
		id   string
		path string
	)

	cmd := &cobra.Command{
		Use:   "restore <branch>",
		Short: "Restore a worktree from a backup",
		Long: `Restore a worktree from its latest backup, or from --id.

A missing branch is recreated from the bundle. An existing branch is only
moved forward to the backed up commit, never rewound.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				res, err := backup.Restore(ctx, backup.RestoreOptions{Branch: args[0], ID: id, Path: path})
				if err != nil {
					return err
				}
				ctx.Splog.Tip("cd %s", res.Path)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Backup to restore (default: the latest)")
	cmd.Flags().StringVarP(&path, "path", "p", "", "Directory to restore into (default: the original location)")

	return cmd
}

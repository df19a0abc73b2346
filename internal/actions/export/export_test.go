package export_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"worktree.dev/cw/internal/actions/export"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/testhelpers"
	"worktree.dev/cw/testhelpers/scenario"
)

func TestExportImport(t *testing.T) {
	t.Parallel()

	t.Run("exports feature worktrees and reimports their metadata", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		require.NoError(t, s.Scene.Repo.CreateBranch("develop"))
		s.WithWorktree("feature-x", "main")
		s.WithWorktree("feature-y", "develop")
		file := filepath.Join(s.Scene.Root, "export.json")

		path, doc, err := export.Action(s.Context, export.Options{Output: file})
		require.NoError(t, err)
		require.Equal(t, file, path)
		require.Equal(t, export.Version, doc.ExportVersion)
		require.Len(t, doc.Worktrees, 2)

		raw, err := os.ReadFile(file)
		require.NoError(t, err)
		require.Contains(t, string(raw), `"export_version": "1.0"`)

		s.RunGit("config", "--remove-section", "branch.feature-x")
		s.RunGit("config", "--remove-section", "branch.feature-y")
		s.ExpectMetadata("feature-x", "")

		preview, err := export.Import(s.Context, export.ImportOptions{File: file})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"feature-x", "feature-y"}, preview.Imported)
		s.ExpectMetadata("feature-x", "")

		res, err := export.Import(s.Context, export.ImportOptions{File: file, Apply: true})
		require.NoError(t, err)
		require.Len(t, res.Imported, 2)
		s.ExpectMetadata("feature-x", "main")
		s.ExpectMetadata("feature-y", "develop")
	})

	t.Run("skips branches missing locally and invalid entries", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		file := filepath.Join(s.Scene.Root, "import.json")
		require.NoError(t, os.WriteFile(file, []byte(`{
  "export_version": "1.0",
  "repository": "/elsewhere",
  "worktrees": [
    {"branch": "ghost", "base_branch": "main", "path": "/elsewhere-ghost"},
    {"branch": "", "base_branch": "main"}
  ]
}`), 0o644))

		res, err := export.Import(s.Context, export.ImportOptions{File: file, Apply: true})
		require.NoError(t, err)
		require.Empty(t, res.Imported)
		require.Equal(t, []string{"ghost"}, res.Missing)
		require.Equal(t, 1, res.Invalid)
	})

	t.Run("rejects files that are not exports", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		file := filepath.Join(s.Scene.Root, "other.json")
		require.NoError(t, os.WriteFile(file, []byte(`{"worktrees": []}`), 0o644))

		_, err := export.Import(s.Context, export.ImportOptions{File: file})
		require.ErrorIs(t, err, cwerrors.ErrValidation)

		_, err = export.Import(s.Context, export.ImportOptions{File: filepath.Join(s.Scene.Root, "missing.json")})
		require.ErrorIs(t, err, cwerrors.ErrValidation)
	})
}

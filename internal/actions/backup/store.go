package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	cwerrors "worktree.dev/cw/internal/errors"
)

// Files inside a backup directory
const (
	BundleFile    = "bundle.git"
	PatchFile     = "changes.patch"
	ManifestFile  = "untracked.txt"
	ArchiveFile   = "untracked.tar"
	SnapshotFile  = "metadata.json"
	lockFile      = ".lock"
	idTimeLayout  = "20060102-150405"
	tempDirPrefix = ".tmp-"
)

var idPattern = regexp.MustCompile(`^\d{8}-\d{6}(-\d+)?$`)

// Snapshot is the metadata.json written next to the bundle
type Snapshot struct {
	Branch                string    `json:"branch"`
	BaseBranch            string    `json:"base_branch,omitempty"`
	BasePath              string    `json:"base_path,omitempty"`
	WorktreePath          string    `json:"worktree_path"`
	Head                  string    `json:"head"`
	BackedUpAt            time.Time `json:"backed_up_at"`
	HasUncommittedChanges bool      `json:"has_uncommitted_changes"`
	PatchFile             string    `json:"patch_file,omitempty"`
	UntrackedFiles        []string  `json:"untracked_files,omitempty"`
}

// Record is one backup on disk
type Record struct {
	Branch   string
	ID       string
	Dir      string
	Snapshot Snapshot
}

// BundlePath returns the location of the record's bundle
func (r Record) BundlePath() string {
	return filepath.Join(r.Dir, BundleFile)
}

// branchDir returns the directory holding every backup of branch.
// Slashes in branch names nest directories.
func branchDir(root, branch string) string {
	return filepath.Join(root, filepath.FromSlash(branch))
}

// List returns the backups of branch ordered by ID, oldest first. An empty
// branch lists every backup under root, ordered by branch and then ID.
func List(root, branch string) ([]Record, error) {
	if branch != "" {
		return listBranch(root, branch)
	}

	var records []Record
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), tempDirPrefix) {
			return filepath.SkipDir
		}
		if !idPattern.MatchString(d.Name()) {
			return nil
		}
		rec, err := readRecord(path)
		if err != nil {
			// an ID-shaped directory without a snapshot may still be a branch name
			return nil
		}
		records = append(records, rec)
		return filepath.SkipDir
	})
	if err != nil {
		return nil, cwerrors.NewIOError("list backups in", root, err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Branch != records[j].Branch {
			return records[i].Branch < records[j].Branch
		}
		return compareIDs(records[i].ID, records[j].ID) < 0
	})
	return records, nil
}

func listBranch(root, branch string) ([]Record, error) {
	dir := branchDir(root, branch)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, cwerrors.NewIOError("list backups in", dir, err)
	}
	var records []Record
	for _, entry := range entries {
		if !entry.IsDir() || !idPattern.MatchString(entry.Name()) {
			continue
		}
		rec, err := readRecord(filepath.Join(dir, entry.Name()))
		if err != nil || rec.Branch != branch {
			continue
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return compareIDs(records[i].ID, records[j].ID) < 0
	})
	return records, nil
}

// Find returns the backup of branch with the given ID, or the latest one when id is empty
func Find(root, branch, id string) (Record, error) {
	records, err := List(root, branch)
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, cwerrors.NewBackupNotFoundError(branch, id)
	}
	if id == "" {
		return records[len(records)-1], nil
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, cwerrors.NewBackupNotFoundError(branch, id)
}

func readRecord(dir string) (Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, SnapshotFile))
	if err != nil {
		return Record{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Record{}, fmt.Errorf("invalid %s in %s: %w", SnapshotFile, dir, err)
	}
	return Record{Branch: snap.Branch, ID: filepath.Base(dir), Dir: dir, Snapshot: snap}, nil
}

func writeSnapshot(dir string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, SnapshotFile), append(data, '\n'), 0o644)
}

// allocateID returns the first unused ID for a backup taken at t.
// The caller holds the branch directory lock.
func allocateID(dir string, t time.Time) (string, error) {
	base := t.UTC().Format(idTimeLayout)
	id := base
	for n := 1; ; n++ {
		_, err := os.Stat(filepath.Join(dir, id))
		if errors.Is(err, fs.ErrNotExist) {
			return id, nil
		}
		if err != nil {
			return "", cwerrors.NewIOError("check", filepath.Join(dir, id), err)
		}
		id = base + "-" + strconv.Itoa(n)
	}
}

// compareIDs orders IDs by timestamp and then by collision suffix
func compareIDs(a, b string) int {
	ta, na := splitID(a)
	tb, nb := splitID(b)
	if c := strings.Compare(ta, tb); c != 0 {
		return c
	}
	return na - nb
}

func splitID(id string) (string, int) {
	if len(id) <= len(idTimeLayout) {
		return id, 0
	}
	n, err := strconv.Atoi(id[len(idTimeLayout)+1:])
	if err != nil {
		return id, 0
	}
	return id[:len(idTimeLayout)], n
}

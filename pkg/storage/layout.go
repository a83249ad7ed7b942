package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	workspaceDBFile = "workspace.db"
	targetDBFile    = "target.db"
	targetsDir      = "targetsdb"
)

// Layout resolves the on-disk location of workspace and target stores.
type Layout struct {
	root string
}

func NewLayout(root string) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve storage root %q: %w", root, err)
	}
	return Layout{root: abs}, nil
}

func (l Layout) Root() string { return l.root }

// WorkspaceName builds the final internal name of a workspace from its slug
// and registry id.
func WorkspaceName(slug string, id int64) string {
	return fmt.Sprintf("ws_%s_%d", slug, id)
}

// TargetTable is the data table inside a target store.
func TargetTable(targetID int64) string {
	return fmt.Sprintf("data_%d", targetID)
}

// TargetSlug joins a sanitized target name and a unique suffix.
func TargetSlug(name, suffix string) string {
	return Sanitize(name) + "_" + suffix
}

func (l Layout) WorkspaceDir(name string) string {
	return filepath.Join(l.root, name)
}

func (l Layout) WorkspaceDB(name string) string {
	return filepath.Join(l.WorkspaceDir(name), workspaceDBFile)
}

func (l Layout) TargetDB(workspaceName, slug string) string {
	return filepath.Join(l.WorkspaceDir(workspaceName), targetsDir, slug, targetDBFile)
}

// RemoveWorkspace deletes a workspace folder and everything under it. The
// name must be a sanitized identifier so the path cannot leave the root.
func (l Layout) RemoveWorkspace(name string) error {
	if !IsSafeIdentifier(name) {
		return fmt.Errorf("refusing to remove workspace folder %q", name)
	}
	dir := l.WorkspaceDir(name)
	if !strings.HasPrefix(dir, l.root+string(os.PathSeparator)) {
		return fmt.Errorf("workspace folder %q escapes storage root", name)
	}
	return os.RemoveAll(dir)
}

// Writable checks that the root exists (creating it if needed) and accepts files.
func (l Layout) Writable() error {
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(l.root, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// Workspace is the directory holding request-scoped artifacts (generated
// PNG and MP3 files) between creation and delivery. Artifacts are deleted
// by their request on every exit path; the janitor sweep is the backstop
// for anything a crash or cancellation left behind.
type Workspace struct {
	dir string
	seq atomic.Uint64
}

func NewWorkspace(dir string) *Workspace {
	return &Workspace{dir: dir}
}

func (w *Workspace) Dir() string {
	return w.dir
}

// Ensure creates the workspace directory with owner-only permissions and
// refuses to operate through a symlink.
func (w *Workspace) Ensure() error {
	dir := strings.TrimSpace(w.dir)
	if dir == "" {
		return fmt.Errorf("media dir is empty")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create media dir: %w", err)
	}

	fi, err := os.Lstat(dir)
	if err != nil {
		return err
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("refusing symlink media dir: %s", dir)
	}
	if !fi.IsDir() {
		return fmt.Errorf("media dir is not a directory: %s", dir)
	}
	if fi.Mode().Perm() != 0o700 {
		if err := os.Chmod(dir, 0o700); err != nil {
			return fmt.Errorf("media dir has insecure perms (%#o) and chmod failed: %w", fi.Mode().Perm(), err)
		}
	}
	return nil
}

// NextPath returns a fresh unique path inside the workspace, e.g.
// img-1724581330000000000-0007.png. The file is not created.
func (w *Workspace) NextPath(prefix, ext string) string {
	n := w.seq.Add(1)
	name := fmt.Sprintf("%s-%d-%04d%s", prefix, time.Now().UnixNano(), n%10000, ext)
	return filepath.Join(w.dir, name)
}

// CreateFile writes data to a fresh unique file and returns its path.
func (w *Workspace) CreateFile(prefix, ext string, data []byte) (string, error) {
	path := w.NextPath(prefix, ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return path, nil
}

type artifact struct {
	path    string
	modTime time.Time
}

// Sweep removes regular files older than maxAge, then prunes oldest-first
// until at most maxFiles remain. Symlinks and subdirectories are skipped.
// It reports how many files were removed.
func (w *Workspace) Sweep(maxAge time.Duration, maxFiles int) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	now := time.Now()
	removed := 0
	var kept []artifact

	for _, ent := range entries {
		if ent.IsDir() || ent.Type()&os.ModeSymlink != 0 {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		path := filepath.Join(w.dir, ent.Name())
		if maxAge > 0 && now.Sub(info.ModTime()) > maxAge {
			if os.Remove(path) == nil {
				removed++
			}
			continue
		}
		kept = append(kept, artifact{path: path, modTime: info.ModTime()})
	}

	if maxFiles > 0 && len(kept) > maxFiles {
		sort.Slice(kept, func(i, j int) bool { return kept[i].modTime.Before(kept[j].modTime) })
		for _, old := range kept[:len(kept)-maxFiles] {
			if os.Remove(old.path) == nil {
				removed++
			}
		}
	}

	return removed, nil
}

package project

import (
	"io/fs"
	"path"
	"path/filepath"
	"time"
)

// DirChecker snapshots the modification times of the files under a
// directory that match a slash-separated glob pattern. The manager polls
// IsChanged before dispatch and calls Refresh after reloading.
type DirChecker struct {
	root     string
	pattern  string
	previous map[string]time.Time
}

// NewDirChecker creates a checker over root. An empty pattern matches every
// entry; otherwise the pattern is matched against the slash-separated path
// relative to root, one path.Match segment per directory level.
func NewDirChecker(root, pattern string) *DirChecker {
	c := &DirChecker{root: root, pattern: pattern}
	c.previous = c.snapshot()
	return c
}

// Refresh records the current state as the baseline.
func (c *DirChecker) Refresh() {
	c.previous = c.snapshot()
}

// IsChanged reports whether any matched entry appeared, disappeared, or
// changed its modification time since the last Refresh.
func (c *DirChecker) IsChanged() bool {
	current := c.snapshot()
	if len(current) != len(c.previous) {
		return true
	}
	for name, mtime := range current {
		previous, ok := c.previous[name]
		if !ok || !previous.Equal(mtime) {
			return true
		}
	}
	return false
}

func (c *DirChecker) snapshot() map[string]time.Time {
	stat := map[string]time.Time{}
	// A missing or unreadable root counts as an empty snapshot, so the
	// checker fires when the directory is created later.
	filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if p == c.root {
			return nil
		}
		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if c.pattern != "" {
			if ok, _ := path.Match(c.pattern, rel); !ok {
				return nil
			}
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		stat[rel] = info.ModTime()
		return nil
	})
	return stat
}

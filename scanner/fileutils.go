package scanner

import (
	"io/fs"
	"os"
)

// isRegularEntry reports whether a walked entry is a regular file or a
// symlink resolving to one. Symlinked directories are not followed.
func isRegularEntry(path string, d fs.DirEntry) bool {
	switch {
	case d.Type().IsRegular():
		return true
	case d.Type()&fs.ModeSymlink != 0:
		info, err := os.Stat(path)
		return err == nil && info.Mode().IsRegular()
	default:
		return false
	}
}

// isSymlink reports whether path itself is a symbolic link
func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&fs.ModeSymlink != 0
}

package utils

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ParseExcludeList splits a comma-separated list of directory names.
// Whitespace is stripped and empty entries are dropped.
func ParseExcludeList(list string) []string {
	return NormalizeExcludeList(strings.Split(list, ","))
}

// NormalizeExcludeList strips whitespace from each name and drops empty ones
func NormalizeExcludeList(names []string) []string {
	var out []string
	for _, n := range names {
		name := strings.Join(strings.Fields(n), "")
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// CheckInputs validates the search directory and the reference file
func CheckInputs(reference, directory string) error {
	info, err := os.Stat(directory)
	if err != nil || !info.IsDir() {
		return errors.Errorf("Directory does not exist: %s", directory)
	}

	info, err = os.Stat(reference)
	if err != nil || info.IsDir() {
		return errors.Errorf("File does not exist: %s", reference)
	}
	return nil
}

// ResolvePath returns the absolute, symlink-free form of path
func ResolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "cannot resolve %s", path)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Wrapf(err, "cannot resolve %s", path)
	}
	return filepath.Clean(resolved), nil
}

// FileURI converts an absolute path into a file:// URI
func FileURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

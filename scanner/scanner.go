package scanner

import (
	"context"
	"io/fs"
	"iter"
	"path/filepath"

	"findimg/imageprocessor"
	"findimg/logging"
	"findimg/utils"

	"github.com/pkg/errors"
)

// Scanner enumerates candidate images below a root directory
type Scanner struct {
	root        string
	walkRoot    string
	reference   string
	excluded    *ExclusionSet
	isCandidate func(string) bool
}

// New validates the options and resolves the root and reference paths
func New(options ScanOptions) (*Scanner, error) {
	root, err := filepath.Abs(options.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot resolve %s", options.Root)
	}

	walkRoot := root
	if isSymlink(root) {
		if walkRoot, err = utils.ResolvePath(root); err != nil {
			return nil, err
		}
	}

	var reference string
	if options.Reference != "" {
		if reference, err = utils.ResolvePath(options.Reference); err != nil {
			return nil, err
		}
	}

	isCandidate := options.IsCandidate
	if isCandidate == nil {
		isCandidate = imageprocessor.IsImageFile
	}

	return &Scanner{
		root:        root,
		walkRoot:    walkRoot,
		reference:   reference,
		excluded:    NewExclusionSet(options.Exclude...),
		isCandidate: isCandidate,
	}, nil
}

// Excluded returns the exclusion set in use
func (s *Scanner) Excluded() *ExclusionSet {
	return s.excluded
}

// Candidates returns a lazy sequence of resolved candidate paths in lexical
// walk order. Each range over it starts a fresh traversal; breaking out of
// the loop stops the walk. If ctx is cancelled the sequence ends with ctx's error.
func (s *Scanner) Candidates(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if s.excluded.Contains(filepath.Base(s.root)) {
			logging.LogInfo("Directory %s is excluded, skip", s.root)
			return
		}

		var ctxErr error
		stopped := false

		filepath.WalkDir(s.walkRoot, func(path string, d fs.DirEntry, err error) error {
			if ctxErr = ctx.Err(); ctxErr != nil {
				return filepath.SkipAll
			}

			if err != nil {
				logging.DebugLog("Cannot read %s: %v", path, err)
				return nil
			}

			if d.IsDir() {
				if path != s.walkRoot && s.excluded.Contains(d.Name()) {
					logging.LogInfo("Directory %s is excluded, skip", path)
					return filepath.SkipDir
				}
				return nil
			}

			if !isRegularEntry(path, d) || !s.isCandidate(path) {
				return nil
			}

			resolved, err := utils.ResolvePath(path)
			if err != nil {
				logging.DebugLog("Cannot resolve %s: %v", path, err)
				return nil
			}
			if resolved == s.reference {
				return nil
			}

			if !yield(resolved, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})

		if ctxErr != nil && !stopped {
			yield("", ctxErr)
		}
	}
}

// Collect drains the sequence into a slice. Intended for small trees and tests.
func (s *Scanner) Collect(ctx context.Context) ([]string, error) {
	var paths []string
	for path, err := range s.Candidates(ctx) {
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

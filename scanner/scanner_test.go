package scanner

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// writeTree creates files (content irrelevant) relative to root
func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func resolvedRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func collect(t *testing.T, opts ScanOptions) []string {
	t.Helper()
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	paths, err := s.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	return paths
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

func TestCandidatesFiltersAndOrders(t *testing.T) {
	root := resolvedRoot(t)
	writeTree(t, root, "b.png", "a.JPG", "readme.txt", "sub/c.gif", "sub/deeper/d.svg", "notes.md", "e.bmp")

	got := rel(t, root, collect(t, ScanOptions{Root: root}))
	want := []string{"a.JPG", "b.png", "e.bmp", "sub/c.gif", "sub/deeper/d.svg"}
	if !slices.Equal(got, want) {
		t.Errorf("Candidates() = %q, want %q", got, want)
	}
}

func TestCandidatesSkipReference(t *testing.T) {
	root := resolvedRoot(t)
	writeTree(t, root, "ref.png", "a.png")

	tests := []struct {
		name      string
		reference string
	}{
		{"absolute", filepath.Join(root, "ref.png")},
		{"with dot segments", filepath.Join(root, "sub", "..", "ref.png")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rel(t, root, collect(t, ScanOptions{Root: root, Reference: tt.reference}))
			if !slices.Equal(got, []string{"a.png"}) {
				t.Errorf("Candidates() = %q, want only a.png", got)
			}
		})
	}
}

func TestCandidatesSkipReferenceReachedThroughSymlink(t *testing.T) {
	root := resolvedRoot(t)
	writeTree(t, root, "ref.png")
	if err := os.Symlink(filepath.Join(root, "ref.png"), filepath.Join(root, "alias.png")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got := collect(t, ScanOptions{Root: root, Reference: filepath.Join(root, "ref.png")})
	if len(got) != 0 {
		t.Errorf("reference reached through a symlink was yielded: %q", got)
	}
}

func TestCandidatesExclusionAtAnyDepth(t *testing.T) {
	root := resolvedRoot(t)
	writeTree(t, root,
		"keep.png",
		"cache/a.png",
		"cache/inner/b.png",
		"photos/cache/c.png",
		"photos/d.png",
		"photos/cached/e.png",
	)

	opts := ScanOptions{Root: root, Exclude: []string{"cache", "cache"}}
	s, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	if names := s.Excluded().Names(); !slices.Equal(names, []string{"cache"}) {
		t.Errorf("Excluded().Names() = %q", names)
	}

	got := rel(t, root, collect(t, opts))
	want := []string{"keep.png", "photos/cached/e.png", "photos/d.png"}
	if !slices.Equal(got, want) {
		t.Errorf("Candidates() = %q, want %q", got, want)
	}
}

func TestCandidatesExcludedRoot(t *testing.T) {
	parent := resolvedRoot(t)
	root := filepath.Join(parent, "skipme")
	writeTree(t, root, "a.png")

	if got := collect(t, ScanOptions{Root: root, Exclude: []string{"skipme"}}); len(got) != 0 {
		t.Errorf("excluded root yielded %q", got)
	}
}

func TestCandidatesSymlinks(t *testing.T) {
	root := resolvedRoot(t)
	outside := resolvedRoot(t)
	writeTree(t, outside, "target.png", "dir/inside.png")

	if err := os.Symlink(filepath.Join(outside, "target.png"), filepath.Join(root, "link.png")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "dir"), filepath.Join(root, "linkdir")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(outside, "missing.png"), filepath.Join(root, "dangling.png")); err != nil {
		t.Fatal(err)
	}

	got := collect(t, ScanOptions{Root: root})
	want := []string{filepath.Join(outside, "target.png")}
	if !slices.Equal(got, want) {
		t.Errorf("Candidates() = %q, want %q", got, want)
	}
}

func TestCandidatesCustomClassifier(t *testing.T) {
	root := resolvedRoot(t)
	writeTree(t, root, "a.png", "b.raw")

	onlyRaw := func(path string) bool { return filepath.Ext(path) == ".raw" }
	got := rel(t, root, collect(t, ScanOptions{Root: root, IsCandidate: onlyRaw}))
	if !slices.Equal(got, []string{"b.raw"}) {
		t.Errorf("Candidates() = %q", got)
	}
}

func TestCandidatesStopEarly(t *testing.T) {
	root := resolvedRoot(t)
	writeTree(t, root, "a.png", "b.png", "c.png")

	s, err := New(ScanOptions{Root: root})
	if err != nil {
		t.Fatal(err)
	}

	var seen []string
	for path, err := range s.Candidates(context.Background()) {
		if err != nil {
			t.Fatal(err)
		}
		seen = append(seen, filepath.Base(path))
		break
	}
	if !slices.Equal(seen, []string{"a.png"}) {
		t.Errorf("seen = %q", seen)
	}

	// A new range walks the tree again
	again, err := s.Collect(context.Background())
	if err != nil || len(again) != 3 {
		t.Errorf("second traversal = %q, %v", again, err)
	}
}

func TestCandidatesCancelled(t *testing.T) {
	root := resolvedRoot(t)
	writeTree(t, root, "a.png", "b.png")

	s, err := New(ScanOptions{Root: root})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths, err := s.Collect(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Collect() error = %v, want context.Canceled", err)
	}
	if len(paths) != 0 {
		t.Errorf("cancelled scan yielded %q", paths)
	}
}

func TestExclusionSet(t *testing.T) {
	set := NewExclusionSet("tmp", "", ".git", "tmp")
	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2", set.Len())
	}
	if !set.Contains(".git") || set.Contains("git") || set.Contains("") {
		t.Error("Contains() mismatch")
	}
	if !slices.Equal(set.Names(), []string{".git", "tmp"}) {
		t.Errorf("Names() = %q", set.Names())
	}

	var nilSet *ExclusionSet
	if nilSet.Contains("x") || nilSet.Len() != 0 {
		t.Error("nil set must be empty")
	}
}

func TestProgressTrackerCounts(t *testing.T) {
	p := NewProgressTracker(io.Discard, false)
	p.Processed()
	p.Processed()
	p.Failed()
	p.Clear()
	p.Stop()

	processed, failed := p.Counts()
	if processed != 2 || failed != 1 {
		t.Errorf("Counts() = %d, %d; want 2, 1", processed, failed)
	}
}

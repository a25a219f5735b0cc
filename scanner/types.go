package scanner

import (
	"slices"

	"github.com/emirpasic/gods/sets/hashset"
)

// ScanOptions defines the options for scanning
type ScanOptions struct {
	// Root is the top search directory
	Root string
	// Reference is never yielded, however it is reached
	Reference string
	// Exclude lists directory base names to skip with their subtrees
	Exclude []string
	// IsCandidate decides whether a file is an image worth hashing
	IsCandidate func(path string) bool
}

// ExclusionSet is a set of directory base names
type ExclusionSet struct {
	names *hashset.Set
}

// NewExclusionSet builds a set from names; empty names are ignored
func NewExclusionSet(names ...string) *ExclusionSet {
	set := hashset.New()
	for _, n := range names {
		if n != "" {
			set.Add(n)
		}
	}
	return &ExclusionSet{names: set}
}

// Contains reports whether a directory with this base name is excluded
func (e *ExclusionSet) Contains(name string) bool {
	if e == nil || e.names == nil {
		return false
	}
	return e.names.Contains(name)
}

// Len returns the number of excluded names
func (e *ExclusionSet) Len() int {
	if e == nil || e.names == nil {
		return 0
	}
	return e.names.Size()
}

// Names returns the excluded names in sorted order
func (e *ExclusionSet) Names() []string {
	if e == nil || e.names == nil {
		return nil
	}
	names := make([]string, 0, e.names.Size())
	for _, v := range e.names.Values() {
		names = append(names, v.(string))
	}
	slices.Sort(names)
	return names
}

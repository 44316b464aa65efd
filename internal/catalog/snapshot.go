package catalog

import (
	"encoding/json"
	"sort"

	"github.com/danisty/LethalManager/internal/errors"
)

// Labels that describe the package kind rather than its topic
const (
	CategoryMods     = "Mods"
	CategoryModpacks = "Modpacks"
)

// Snapshot is an immutable, ordered view of the catalog. It is never mutated
// after construction; a refresh builds a new one.
type Snapshot struct {
	Packages   []Package
	Categories []string
	byName     map[string]int
}

// NewSnapshot indexes packages in the given order
func NewSnapshot(packages []Package) *Snapshot {
	s := &Snapshot{
		Packages: packages,
		byName:   make(map[string]int, len(packages)),
	}

	seen := make(map[string]struct{})
	for i := range packages {
		s.byName[packages[i].FullName] = i
		for _, c := range packages[i].Categories {
			if c == CategoryMods || c == CategoryModpacks {
				continue
			}
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				s.Categories = append(s.Categories, c)
			}
		}
	}
	sort.Strings(s.Categories)

	return s
}

// Decode parses the raw package listing. The first element of the listing is
// always a pinned pseudo-package that is never installed, and is dropped.
func Decode(data []byte) (*Snapshot, error) {
	var packages []Package
	if err := json.Unmarshal(data, &packages); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "failed to parse catalog")
	}
	if len(packages) > 0 {
		packages = packages[1:]
	}
	return NewSnapshot(packages), nil
}

// Len returns the number of packages
func (s *Snapshot) Len() int {
	return len(s.Packages)
}

// Package finds a package by its full name
func (s *Snapshot) Package(fullName string) (*Package, bool) {
	i, ok := s.byName[fullName]
	if !ok {
		return nil, false
	}
	return &s.Packages[i], true
}

// Version finds an exact version of a package
func (s *Snapshot) Version(fullName, versionNumber string) (Version, bool) {
	p, ok := s.Package(fullName)
	if !ok {
		return Version{}, false
	}
	for _, v := range p.Versions {
		if v.VersionNumber == versionNumber {
			return v, true
		}
	}
	return Version{}, false
}

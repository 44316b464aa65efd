package search

import (
	"strings"

	"github.com/danisty/LethalManager/internal/catalog"
	"github.com/sahilm/fuzzy"
)

// RankedPackage is a package scored against an interactive filter
type RankedPackage struct {
	Package        catalog.Package
	Score          int   // Higher is better
	MatchedIndexes []int // rune positions of the match in Label
}

// PackageSearchable wraps packages for fuzzy filtering
type PackageSearchable []catalog.Package

// String returns the searchable string for a package
func (p PackageSearchable) String(i int) string {
	return Label(&p[i])
}

// Len returns the number of packages
func (p PackageSearchable) Len() int {
	return len(p)
}

// Label is the text an interactive filter is matched against
func Label(p *catalog.Package) string {
	return p.Owner + "/" + p.Name
}

// Rank filters packages by a fuzzy query, best match first. An empty query
// keeps every package in its original order.
func Rank(packages []catalog.Package, query string) []RankedPackage {
	query = strings.TrimSpace(query)
	if query == "" {
		ranked := make([]RankedPackage, len(packages))
		for i := range packages {
			ranked[i] = RankedPackage{Package: packages[i]}
		}
		return ranked
	}

	matches := fuzzy.FindFrom(query, PackageSearchable(packages))
	ranked := make([]RankedPackage, 0, len(matches))
	for _, match := range matches {
		ranked = append(ranked, RankedPackage{
			Package:        packages[match.Index],
			Score:          match.Score,
			MatchedIndexes: match.MatchedIndexes,
		})
	}
	return ranked
}

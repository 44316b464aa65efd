package search

import (
	"github.com/danisty/LethalManager/internal/catalog"
)

// PageSize is the number of packages per result page
const PageSize = 20

// TypeState constrains a package kind label
type TypeState int

const (
	// Irrelevant places no constraint on the label
	Irrelevant TypeState = 0
	// Required keeps packages carrying the label
	Required TypeState = 1
	// Excluded drops packages carrying the label
	Excluded TypeState = -1
)

// Types holds the kind constraints for "Mods" and "Modpacks"
type Types struct {
	Mods     TypeState
	Modpacks TypeState
}

// SortKey selects the result ordering
type SortKey string

const (
	SortDefault   SortKey = ""
	SortRating    SortKey = "rating"
	SortUpdated   SortKey = "updated"
	SortCreated   SortKey = "created"
	SortDownloads SortKey = "downloads"
	SortName      SortKey = "name"
)

// SortKeys lists the accepted non-default sort keys
var SortKeys = []SortKey{SortRating, SortUpdated, SortCreated, SortDownloads, SortName}

// Query describes one search request
type Query struct {
	Text       string
	Page       int
	PageSize   int // zero means PageSize
	Sort       SortKey
	Types      Types
	Categories []string
}

// Results is one page of matching packages
type Results struct {
	Categories []string
	Mods       []catalog.Package
	Pages      int // floor(Total / page size)
	Total      int
}

// matchesTypes applies the kind constraints. Both labels irrelevant, or one
// irrelevant and the other excluded, start from "allowed"; any required label
// present allows the package; any excluded label present rejects it.
func matchesTypes(t Types, p *catalog.Package) bool {
	allowed := (t.Mods == Irrelevant && (t.Modpacks == Irrelevant || t.Modpacks == Excluded)) ||
		(t.Mods == Excluded && t.Modpacks == Irrelevant)

	hasMods := p.HasCategory(catalog.CategoryMods)
	hasModpacks := p.HasCategory(catalog.CategoryModpacks)

	if (t.Mods == Required && hasMods) || (t.Modpacks == Required && hasModpacks) {
		allowed = true
	}
	if !allowed {
		return false
	}

	if (t.Mods == Excluded && hasMods) || (t.Modpacks == Excluded && hasModpacks) {
		return false
	}
	return true
}

func matchesCategories(want []string, p *catalog.Package) bool {
	if len(want) == 0 {
		return true
	}
	for _, c := range p.Categories {
		for _, w := range want {
			if c == w {
				return true
			}
		}
	}
	return false
}

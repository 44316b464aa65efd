// Package outdated reports installed mods that have newer catalog versions.
package outdated

import (
	"github.com/danisty/LethalManager/internal/catalog"
	"github.com/danisty/LethalManager/internal/errors"
	"github.com/danisty/LethalManager/internal/modversion"
	"github.com/danisty/LethalManager/internal/profile"
)

// Lookup finds catalog packages by full name
type Lookup interface {
	Package(fullName string) (*catalog.Package, bool)
}

// Check compares every installed mod with the newest version the catalog
// lists. Mods the catalog does not know are reported without an update;
// mods with unparsable versions are reported as errors and skipped.
func Check(installed []profile.InstalledMod, lookup Lookup) *Result {
	result := &Result{
		Mods:   []UpdateInfo{},
		Errors: []error{},
	}

	for _, mod := range installed {
		info := UpdateInfo{Name: mod.FullName, Current: mod.VersionNumber}

		pkg, ok := lookup.Package(mod.FullName)
		if !ok {
			result.Mods = append(result.Mods, info)
			continue
		}
		latest, ok := pkg.Latest()
		if !ok {
			result.Mods = append(result.Mods, info)
			continue
		}
		info.Latest = latest.VersionNumber

		cmp, err := modversion.Compare(latest.VersionNumber, mod.VersionNumber)
		if err != nil {
			result.Errors = append(result.Errors, errors.Wrapf(err, errors.ErrInvalidInput, "cannot compare versions of %s", mod.FullName).
				WithDetail("mod", mod.FullName))
			continue
		}
		info.HasUpdate = cmp > 0

		result.Mods = append(result.Mods, info)
	}

	return result
}

// Package resolver computes the ordered set of package versions needed to
// install a mod together with its dependencies.
package resolver

import (
	"context"

	"github.com/danisty/LethalManager/internal/catalog"
	"github.com/danisty/LethalManager/internal/errors"
	"github.com/danisty/LethalManager/internal/logging"
	"github.com/danisty/LethalManager/internal/modversion"
	"github.com/rs/zerolog"
)

// Lookup finds exact package versions in the catalog
type Lookup interface {
	Version(fullName, versionNumber string) (catalog.Version, bool)
}

// Installed is a mod already present in the target profile
type Installed struct {
	FullName      string
	VersionNumber string
}

// Resolver walks dependency references against a catalog
type Resolver struct {
	lookup Lookup
	log    zerolog.Logger
}

// New creates a resolver backed by lookup
func New(lookup Lookup) *Resolver {
	return &Resolver{
		lookup: lookup,
		log:    logging.GetLogger("resolver"),
	}
}

// Resolve returns the versions to install for rootRef ("Owner-Name-x.y.z"),
// dependencies before dependents.
//
// The walk is a pre-order depth-first traversal. A package already in the
// result is only replaced, in place, by a strictly newer version, and a
// package installed at the same or a newer version is skipped. Versions that
// are missing from the catalog are skipped without error.
func (r *Resolver) Resolve(ctx context.Context, rootRef string, installed []Installed) ([]catalog.Version, error) {
	installedVersions := make(map[string]string, len(installed))
	for _, m := range installed {
		installedVersions[m.FullName] = m.VersionNumber
	}

	// found holds versions in discovery order; index maps a full name to its
	// slot. Reversing found at the end gives dependencies-first order.
	var found []catalog.Version
	index := make(map[string]int)
	// expanded records each exact reference whose dependencies were queued.
	// A reference is never expanded twice, which bounds the walk even when
	// packages depend on each other.
	expanded := make(map[string]struct{})

	stack := []string{rootRef}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCancelled, "dependency resolution cancelled")
		}

		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fullName, versionNumber, err := modversion.ParseRef(ref)
		if err != nil {
			return nil, err
		}
		if _, err := modversion.Parse(versionNumber); err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "bad dependency reference %q", ref)
		}

		slot, seen := index[fullName]
		if seen {
			newer, err := isNewer(versionNumber, found[slot].VersionNumber)
			if err != nil {
				return nil, err
			}
			if !newer {
				continue
			}
		}

		if current, ok := installedVersions[fullName]; ok {
			newer, err := isNewer(versionNumber, current)
			if err != nil {
				return nil, err
			}
			if !newer {
				r.log.Trace().Str("ref", ref).Str("installed", current).Msg("Already satisfied")
				continue
			}
		}

		if _, done := expanded[ref]; done {
			continue
		}

		v, ok := r.lookup.Version(fullName, versionNumber)
		if !ok {
			r.log.Debug().Str("ref", ref).Msg("Dependency not in catalog, skipping")
			continue
		}

		if seen {
			r.log.Trace().Str("package", fullName).Str("from", found[slot].VersionNumber).Str("to", versionNumber).Msg("Upgrading dependency")
			found[slot] = v
		} else {
			index[fullName] = len(found)
			found = append(found, v)
		}
		expanded[ref] = struct{}{}

		for i := len(v.Dependencies) - 1; i >= 0; i-- {
			stack = append(stack, v.Dependencies[i])
		}
	}

	result := make([]catalog.Version, len(found))
	for i, v := range found {
		result[len(found)-1-i] = v
	}
	return result, nil
}

// isNewer reports whether candidate orders strictly after current
func isNewer(candidate, current string) (bool, error) {
	c, err := modversion.Compare(candidate, current)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

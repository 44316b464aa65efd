// Package archive maps mod archive entries onto a profile's loader layout
// and extracts them.
package archive

import (
	"path"
	"strings"

	"github.com/danisty/LethalManager/internal/errors"
)

const (
	// LoaderRoot is the plugin loader's directory inside a profile
	LoaderRoot = "BepInEx"
	// BootstrapRoot is the archive folder of the loader package whose
	// contents belong at the profile root
	BootstrapRoot = "BepInExPack"
	// BinaryExt is the extension of loadable plugin binaries
	BinaryExt = ".dll"
)

// Area is one of the loader's well-known subdirectories
type Area int

const (
	AreaNone Area = iota
	AreaConfig
	AreaPlugins
	AreaPatchers
	AreaCore
	// AreaOther is any other directory directly under the loader root
	AreaOther
)

var areaNames = map[string]Area{
	"config":   AreaConfig,
	"plugins":  AreaPlugins,
	"patchers": AreaPatchers,
	"core":     AreaCore,
}

func (a Area) String() string {
	switch a {
	case AreaConfig:
		return "config"
	case AreaPlugins:
		return "plugins"
	case AreaPatchers:
		return "patchers"
	case AreaCore:
		return "core"
	case AreaOther:
		return "other"
	default:
		return "none"
	}
}

// EntryPath is an archive entry name split into its components
type EntryPath struct {
	Parts []string
	Dir   bool
}

// ParsePath splits an archive entry name. Backslashes are treated as
// separators. Absolute names and names that climb out with ".." are rejected.
func ParsePath(name string) (EntryPath, error) {
	slashed := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(slashed, "/") || hasDrive(slashed) {
		return EntryPath{}, errors.Newf(errors.ErrInvalidInput, "absolute archive entry %q", name)
	}

	p := EntryPath{Dir: strings.HasSuffix(slashed, "/")}
	for _, part := range strings.Split(slashed, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			return EntryPath{}, errors.Newf(errors.ErrInvalidInput, "archive entry %q escapes its root", name)
		}
		p.Parts = append(p.Parts, part)
	}
	if len(p.Parts) == 0 {
		return EntryPath{}, errors.Newf(errors.ErrInvalidInput, "empty archive entry %q", name)
	}
	return p, nil
}

func hasDrive(s string) bool {
	return len(s) >= 2 && s[1] == ':' && ((s[0] >= 'a' && s[0] <= 'z') || (s[0] >= 'A' && s[0] <= 'Z'))
}

// String returns the slash-separated form
func (p EntryPath) String() string {
	return strings.Join(p.Parts, "/")
}

// Base returns the last component
func (p EntryPath) Base() string {
	return p.Parts[len(p.Parts)-1]
}

// IsBinary reports whether the entry is a plugin binary
func (p EntryPath) IsBinary() bool {
	return !p.Dir && strings.HasSuffix(strings.ToLower(p.Base()), BinaryExt)
}

// Normalize rewrites a "<loader root>/<area>/..." prefix to its canonical
// casing, e.g. "bepinex/Plugins/x.dll" becomes "BepInEx/plugins/x.dll".
func (p EntryPath) Normalize() EntryPath {
	if len(p.Parts) < 2 || !strings.EqualFold(p.Parts[0], LoaderRoot) {
		return p
	}
	parts := make([]string, len(p.Parts))
	copy(parts, p.Parts)
	parts[0] = LoaderRoot
	if len(parts) >= 3 {
		parts[1] = strings.ToLower(parts[1])
	}
	return EntryPath{Parts: parts, Dir: p.Dir}
}

// Classify returns the loader area the entry falls under, the components
// after the area directory, and whether the entry carried the loader root
// prefix. Call it on a normalized path.
func (p EntryPath) Classify() (Area, []string, bool) {
	parts := p.Parts
	if parts[0] == LoaderRoot && len(parts) >= 2 {
		if len(parts) >= 3 {
			if area, ok := areaNames[parts[1]]; ok {
				return area, parts[2:], true
			}
		}
		return AreaOther, parts[1:], true
	}

	if len(parts) >= 2 {
		switch parts[0] {
		case "config":
			return AreaConfig, parts[1:], false
		case "plugins":
			return AreaPlugins, parts[1:], false
		case "patchers":
			return AreaPatchers, parts[1:], false
		}
	}
	return AreaNone, parts, false
}

// ModRoot is the archive folder holding a mod's own binaries. A wildcard
// root means no binary was found and no folder is singled out.
type ModRoot struct {
	Parts    []string
	Wildcard bool
}

// WildcardRoot matches no specific folder
var WildcardRoot = ModRoot{Wildcard: true}

// String returns the hint as a prefix ending in "/", or "*" for the wildcard
func (r ModRoot) String() string {
	if r.Wildcard {
		return "*"
	}
	return strings.Join(r.Parts, "/") + "/"
}

// Contains reports whether p lies under the root
func (r ModRoot) Contains(p EntryPath) bool {
	if r.Wildcard || len(p.Parts) <= len(r.Parts) {
		return false
	}
	for i, part := range r.Parts {
		if p.Parts[i] != part {
			return false
		}
	}
	return true
}

// DetectModRoot finds the folder holding the mod's binaries. For each binary
// the path is walked upward to the nearest "plugins" directory; the child of
// that directory on the way to the binary is the root, or the plugins
// directory itself when the binary sits directly inside it. When several
// binaries have a plugins ancestor the last one wins.
//
// Binaries without a plugins ancestor only count when no other binary has
// one. They give the top-level folder, except for the loader root, which
// would swallow the plugins area of the archive. Entries must already be
// normalized.
func DetectModRoot(entries []EntryPath) ModRoot {
	root, fallback := WildcardRoot, WildcardRoot
	for _, e := range entries {
		if !e.IsBinary() {
			continue
		}
		dirs := e.Parts[:len(e.Parts)-1]
		if len(dirs) == 0 {
			continue
		}

		end := 0
		for i := len(dirs) - 1; i >= 0; i-- {
			if strings.EqualFold(dirs[i], "plugins") {
				end = min(i+2, len(dirs))
				break
			}
		}
		if end > 0 {
			root = ModRoot{Parts: append([]string(nil), dirs[:end]...)}
			continue
		}
		if dirs[0] != LoaderRoot {
			fallback = ModRoot{Parts: []string{dirs[0]}}
		}
	}
	if root.Wildcard {
		return fallback
	}
	return root
}

// Target is where an entry lands, relative to the profile directory
type Target struct {
	Rel     string // slash-separated
	Private bool   // inside the mod's own folder
}

// ModFolderRel returns the mod's private folder relative to the profile
func ModFolderRel(modName string) string {
	return path.Join(LoaderRoot, "plugins", modName)
}

// Remap routes a normalized entry to its place in the profile:
//
//   - config files always go to the shared config area
//   - plugins files under the mod root, or directly inside a plugins
//     directory, go to the mod's folder; other plugins files are shared
//   - patchers files go to the mod's folder
//   - core files go to the loader core
//   - anything else inside a folder goes to the shared plugins area
//   - a top-level file goes to the mod's folder
func Remap(entry EntryPath, root ModRoot, modName string) Target {
	modFolder := ModFolderRel(modName)
	area, rest, _ := entry.Classify()

	var rel string
	switch area {
	case AreaConfig:
		rel = path.Join(LoaderRoot, "config", path.Join(rest...))
	case AreaPlugins:
		parts := entry.Parts
		switch {
		case root.Contains(entry):
			rel = path.Join(modFolder, path.Join(parts[len(root.Parts):]...))
		case len(parts) >= 2 && strings.EqualFold(parts[len(parts)-2], "plugins"):
			rel = path.Join(modFolder, path.Join(rest...))
		default:
			rel = path.Join(LoaderRoot, "plugins", path.Join(rest...))
		}
	case AreaPatchers:
		rel = path.Join(modFolder, path.Join(rest...))
	case AreaCore:
		rel = path.Join(LoaderRoot, "core", path.Join(rest...))
	case AreaOther:
		rel = path.Join(LoaderRoot, "plugins", path.Join(rest...))
	default:
		if len(entry.Parts) > 1 {
			rel = path.Join(LoaderRoot, "plugins", entry.String())
		} else {
			rel = path.Join(modFolder, entry.Base())
		}
	}

	return Target{Rel: rel, Private: isUnder(rel, modFolder)}
}

// RemapBootstrap handles the loader package, whose BepInExPack/ folder is
// unpacked straight into the profile root. It reports false for entries
// outside that folder, which then follow Remap.
func RemapBootstrap(entry EntryPath) (string, bool) {
	if len(entry.Parts) < 2 || entry.Parts[0] != BootstrapRoot {
		return "", false
	}
	return path.Join(entry.Parts[1:]...), true
}

func isUnder(rel, dir string) bool {
	return rel == dir || strings.HasPrefix(rel, dir+"/")
}

package profile

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/danisty/LethalManager/internal/archive"
	"github.com/danisty/LethalManager/internal/errors"
)

const (
	// SidecarDir is the hidden folder inside a disabled mod that holds its
	// parked external files. Its presence marks the mod as disabled.
	SidecarDir = ".disabled"
	// DisabledSuffix is appended to the binaries of a disabled mod
	DisabledSuffix = ".disabled"
)

// Toggle flips a mod between enabled and disabled
func (m *Manager) Toggle(name, fullName string) (*InstalledMod, error) {
	mod, err := m.Mod(name, fullName)
	if err != nil {
		return nil, err
	}
	return m.SetEnabled(name, fullName, !mod.Enabled)
}

// SetEnabled enables or disables a mod. Disabling renames its binaries with
// DisabledSuffix and parks its external files in the sidecar folder;
// enabling reverses both. Files already in the requested state are left
// alone, so repeating a call is harmless.
func (m *Manager) SetEnabled(name, fullName string, enabled bool) (*InstalledMod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mods, err := m.mods(name)
	if err != nil {
		return nil, err
	}
	mod := findMod(mods, fullName)
	if mod == nil {
		return nil, errors.Newf(errors.ErrNotFound, "%s is not installed in profile %s", fullName, name).
			WithDetail("mod", fullName)
	}

	if err := renameBinaries(mod.Folder, enabled); err != nil {
		return nil, err
	}

	external, err := archive.LoadExternalFiles(mod.Folder)
	if err != nil {
		return nil, err
	}
	if enabled {
		err = m.restoreExternal(name, mod.Folder, external)
	} else {
		err = m.parkExternal(name, mod.Folder, external)
	}
	if err != nil {
		return nil, err
	}

	mod.Enabled = enabled
	if err := m.saveMods(name, mods); err != nil {
		return nil, err
	}

	m.log.Info().Str("profile", name).Str("mod", fullName).Bool("enabled", enabled).Msg("Mod toggled")
	return mod, nil
}

// renameBinaries adds or strips DisabledSuffix on every binary in the mod
// folder, skipping the sidecar.
func renameBinaries(folder string, enabled bool) error {
	sidecar := filepath.Join(folder, SidecarDir)
	return filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to walk %s", folder)
		}
		if d.IsDir() {
			if path == sidecar {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.Contains(strings.ToLower(d.Name()), archive.BinaryExt) {
			return nil
		}

		disabled := strings.HasSuffix(path, DisabledSuffix)
		var target string
		switch {
		case enabled && disabled:
			target = strings.TrimSuffix(path, DisabledSuffix)
		case !enabled && !disabled:
			target = path + DisabledSuffix
		default:
			return nil
		}
		if err := os.Rename(path, target); err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to rename %s", path)
		}
		return nil
	})
}

// sidecarPath maps an external file to its parked location, keeping its
// path relative to the profile folder.
func (m *Manager) sidecarPath(name, folder, external string) (string, error) {
	local := filepath.FromSlash(external)
	rel, err := filepath.Rel(m.Dir(name), local)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		// Records from a profile that has since moved: keep the loader
		// subpath.
		i := strings.Index(external, archive.LoaderRoot+"/")
		if i < 0 {
			return "", errors.Newf(errors.ErrInvalidInput, "external file %s is outside the profile", external)
		}
		rel = filepath.FromSlash(external[i:])
	}
	return filepath.Join(folder, SidecarDir, rel), nil
}

func (m *Manager) parkExternal(name, folder string, external archive.ExternalFiles) error {
	if err := os.MkdirAll(filepath.Join(folder, SidecarDir), 0755); err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "failed to create sidecar folder")
	}

	for _, f := range external {
		parked, err := m.sidecarPath(name, folder, f)
		if err != nil {
			return err
		}
		src := filepath.FromSlash(f)
		if !fileExists(src) {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(parked), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to create %s", filepath.Dir(parked))
		}
		if err := os.Rename(src, parked); err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to park %s", f)
		}
	}
	return nil
}

func (m *Manager) restoreExternal(name, folder string, external archive.ExternalFiles) error {
	sidecar := filepath.Join(folder, SidecarDir)
	if !isDir(sidecar) {
		return nil
	}

	for _, f := range external {
		parked, err := m.sidecarPath(name, folder, f)
		if err != nil {
			return err
		}
		if !fileExists(parked) {
			continue
		}
		dst := filepath.FromSlash(f)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to create %s", filepath.Dir(dst))
		}
		if err := os.Rename(parked, dst); err != nil {
			return errors.Wrapf(err, errors.ErrIOFailure, "failed to restore %s", f)
		}
	}

	if err := removeEmptyDirs(sidecar); err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "failed to clean sidecar folder")
	}
	if isDir(sidecar) {
		m.log.Warn().Str("folder", sidecar).Msg("Sidecar folder still holds files after enabling")
	}
	return nil
}

// removeEmptyDirs deletes dir and its subdirectories bottom-up as long as
// they are empty. Files are never removed.
func removeEmptyDirs(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := removeEmptyDirs(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	entries, err = os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return os.Remove(dir)
	}
	return nil
}

package profile

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/danisty/LethalManager/internal/archive"
	"github.com/danisty/LethalManager/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ModsFile caches the installed mod index of a profile
	ModsFile = "mods.yml"
	// ManifestFile describes a mod inside its folder
	ManifestFile = "manifest.json"
	// IconFile is the mod icon shipped in the archive
	IconFile = "icon.png"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// PluginsDir returns the shared plugins folder of a profile
func (m *Manager) PluginsDir(name string) string {
	return filepath.Join(m.Dir(name), archive.LoaderRoot, "plugins")
}

// Scan rebuilds the installed mod index from the plugins folder and caches it
func (m *Manager) Scan(name string) ([]InstalledMod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scan(name)
}

// Mods returns the cached installed mod index, rescanning when it is absent
func (m *Manager) Mods(name string) ([]InstalledMod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mods(name)
}

// Mod finds one installed mod by full name
func (m *Manager) Mod(name, fullName string) (*InstalledMod, error) {
	mods, err := m.Mods(name)
	if err != nil {
		return nil, err
	}
	if mod := findMod(mods, fullName); mod != nil {
		return mod, nil
	}
	return nil, errors.Newf(errors.ErrNotFound, "%s is not installed in profile %s", fullName, name).
		WithDetail("mod", fullName)
}

// DeleteMod removes a mod's folder and every file it wrote outside of it,
// then rescans the profile. External files that are already gone are ignored.
func (m *Manager) DeleteMod(name, fullName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mods, err := m.mods(name)
	if err != nil {
		return err
	}
	mod := findMod(mods, fullName)
	if mod == nil {
		return errors.Newf(errors.ErrNotFound, "%s is not installed in profile %s", fullName, name).
			WithDetail("mod", fullName)
	}

	external, err := archive.LoadExternalFiles(mod.Folder)
	if err != nil {
		m.log.Warn().Err(err).Str("mod", fullName).Msg("Ignoring unreadable external file record")
	}
	for _, f := range external {
		if err := os.Remove(filepath.FromSlash(f)); err != nil && !os.IsNotExist(err) {
			m.log.Debug().Err(err).Str("file", f).Msg("Failed to remove external file")
		}
	}

	if err := os.RemoveAll(mod.Folder); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to remove %s", mod.Folder)
	}
	m.log.Info().Str("profile", name).Str("mod", fullName).Int("externalFiles", len(external)).Msg("Mod deleted")

	_, err = m.scan(name)
	return err
}

func (m *Manager) mods(name string) ([]InstalledMod, error) {
	if _, err := m.Get(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(m.Dir(name), ModsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return m.scan(name)
		}
		return nil, errors.Wrap(err, errors.ErrIOFailure, "failed to read installed mod index")
	}

	var mods []InstalledMod
	if err := yaml.Unmarshal(data, &mods); err != nil {
		m.log.Warn().Err(err).Str("profile", name).Msg("Installed mod index is corrupt, rescanning")
		return m.scan(name)
	}
	return mods, nil
}

func (m *Manager) scan(name string) ([]InstalledMod, error) {
	if _, err := m.Get(name); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(m.PluginsDir(name))
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, errors.ErrIOFailure, "failed to read plugins folder")
	}

	mods := []InstalledMod{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		folder := filepath.Join(m.PluginsDir(name), e.Name())
		mod, err := m.readMod(folder, e.Name())
		if err != nil {
			m.log.Debug().Err(err).Str("folder", folder).Msg("Skipping folder without a valid manifest")
			continue
		}
		mods = append(mods, *mod)
	}

	if err := m.saveMods(name, mods); err != nil {
		return nil, err
	}
	m.log.Debug().Str("profile", name).Int("mods", len(mods)).Msg("Profile scanned")
	return mods, nil
}

// readMod builds an index record from a mod folder. Display metadata comes
// from the catalog when it knows the package, else from the manifest.
func (m *Manager) readMod(folder, fullName string) (*InstalledMod, error) {
	data, err := os.ReadFile(filepath.Join(folder, ManifestFile))
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &manifest); err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid manifest in %s", folder)
	}

	mod := &InstalledMod{
		Name:          manifest.Name,
		FullName:      fullName,
		Description:   manifest.Description,
		Author:        strings.TrimSuffix(fullName, "-"+manifest.Name),
		VersionNumber: manifest.VersionNumber,
		Dependencies:  manifest.Dependencies,
		Folder:        folder,
		Enabled:       !isDir(filepath.Join(folder, SidecarDir)),
	}
	if mod.Author == fullName {
		mod.Author = ""
	}

	if m.catalog != nil {
		if pkg, ok := m.catalog.Package(fullName); ok {
			mod.Name = pkg.Name
			mod.FullName = pkg.FullName
			mod.Author = pkg.Owner
			for _, v := range pkg.Versions {
				if v.VersionNumber == manifest.VersionNumber {
					mod.Description = v.Description
					mod.Dependencies = v.Dependencies
					break
				}
			}
		}
	}

	if icon := filepath.Join(folder, IconFile); fileExists(icon) {
		mod.Icon = icon
	}
	return mod, nil
}

func (m *Manager) saveMods(name string, mods []InstalledMod) error {
	data, err := yaml.Marshal(mods)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode installed mod index")
	}
	if err := os.WriteFile(filepath.Join(m.Dir(name), ModsFile), data, 0644); err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "failed to write installed mod index")
	}
	return nil
}

func findMod(mods []InstalledMod, fullName string) *InstalledMod {
	for i := range mods {
		if mods[i].FullName == fullName {
			return &mods[i]
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

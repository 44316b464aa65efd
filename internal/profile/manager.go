// Package profile manages profiles and the mods installed into them.
package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/danisty/LethalManager/internal/catalog"
	"github.com/danisty/LethalManager/internal/errors"
	"github.com/danisty/LethalManager/internal/logging"
	"github.com/rs/zerolog"
)

// ConfigFile is the per-profile metadata file
const ConfigFile = "profile.json"

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Lookup finds catalog packages for display metadata
type Lookup interface {
	Package(fullName string) (*catalog.Package, bool)
}

// Manager owns the profiles under a root directory
type Manager struct {
	root    string
	catalog Lookup
	log     zerolog.Logger

	mu sync.Mutex // serializes index rewrites
}

// NewManager creates a manager for the profiles stored under root
func NewManager(root string, lookup Lookup) *Manager {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Manager{
		root:    root,
		catalog: lookup,
		log:     logging.GetLogger("profile"),
	}
}

// ValidateName checks that name is usable as a profile folder
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return errors.Newf(errors.ErrInvalidInput, "invalid profile name %q: use letters, digits, '_' and '-'", name).
			WithDetail("name", name)
	}
	return nil
}

// Dir returns the folder of a profile
func (m *Manager) Dir(name string) string {
	return filepath.Join(m.root, name)
}

// Create makes a new empty profile. icon may be nil.
func (m *Manager) Create(name string, icon *Icon) (*Profile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	dir := m.Dir(name)
	if _, err := os.Stat(dir); err == nil {
		return nil, errors.Newf(errors.ErrConflict, "a profile named %q already exists", name).WithDetail("name", name)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrIOFailure, "failed to create profile %s", name)
	}

	p := &Profile{Name: name, Folder: dir}
	if icon != nil && len(icon.Data) > 0 {
		ext := strings.TrimPrefix(icon.Ext, ".")
		if ext == "" {
			ext = "png"
		}
		p.Icon = filepath.Join(dir, "icon."+ext)
		if err := os.WriteFile(p.Icon, icon.Data, 0644); err != nil {
			os.RemoveAll(dir)
			return nil, errors.Wrap(err, errors.ErrIOFailure, "failed to write profile icon")
		}
	}

	if err := writeProfile(p); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	m.log.Info().Str("profile", name).Msg("Profile created")
	return p, nil
}

// Ensure returns the named profile, creating it when it does not exist
func (m *Manager) Ensure(name string) (*Profile, error) {
	p, err := m.Get(name)
	if errors.IsErrorCode(err, errors.ErrNotFound) {
		return m.Create(name, nil)
	}
	return p, err
}

// Get loads a profile
func (m *Manager) Get(name string) (*Profile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(m.Dir(name), ConfigFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "profile %q not found", name).WithDetail("name", name)
		}
		return nil, errors.Wrapf(err, errors.ErrIOFailure, "failed to read profile %s", name)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "corrupt %s in profile %s", ConfigFile, name)
	}
	// The folder may have moved with the data directory.
	p.Folder = m.Dir(name)
	return &p, nil
}

// Delete removes a profile and everything installed in it
func (m *Manager) Delete(name string) error {
	if _, err := m.Get(name); err != nil {
		return err
	}
	if err := os.RemoveAll(m.Dir(name)); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to delete profile %s", name)
	}
	m.log.Info().Str("profile", name).Msg("Profile deleted")
	return nil
}

// List returns every profile with its mod count, sorted by name
func (m *Manager) List() ([]Summary, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrIOFailure, "failed to list profiles")
	}

	var profiles []Summary
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p, err := m.Get(e.Name())
		if err != nil {
			m.log.Debug().Err(err).Str("dir", e.Name()).Msg("Skipping folder without a valid profile")
			continue
		}
		mods, err := m.Mods(p.Name)
		if err != nil {
			m.log.Warn().Err(err).Str("profile", p.Name).Msg("Failed to read installed mods")
		}
		profiles = append(profiles, Summary{Profile: *p, Mods: len(mods)})
	}
	return profiles, nil
}

func writeProfile(p *Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode profile")
	}
	if err := os.WriteFile(filepath.Join(p.Folder, ConfigFile), data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to write profile %s", p.Name)
	}
	return nil
}

package profile

import (
	"io"

	"github.com/danisty/LethalManager/internal/errors"
	"github.com/danisty/LethalManager/internal/modversion"
	"gopkg.in/yaml.v3"
)

// ExportFileName is the conventional name of a shared profile file
const ExportFileName = "export.r2x"

// Export is the r2modman-compatible description of a profile
type Export struct {
	ProfileName string      `yaml:"profileName"`
	Mods        []ExportMod `yaml:"mods"`
}

// ExportMod is one mod of an exported profile
type ExportMod struct {
	Name    string        `yaml:"name"` // full name, "Owner-Name"
	Version ExportVersion `yaml:"version"`
	Enabled bool          `yaml:"enabled"`
}

// ExportVersion is a version triplet
type ExportVersion struct {
	Major int `yaml:"major"`
	Minor int `yaml:"minor"`
	Patch int `yaml:"patch"`
}

// Ref returns the "Owner-Name-x.y.z" reference of the mod
func (e ExportMod) Ref() string {
	v := modversion.Version{Major: e.Version.Major, Minor: e.Version.Minor, Patch: e.Version.Patch}
	return modversion.FormatRef(e.Name, v.String())
}

// Export writes the installed mods of a profile as r2x YAML
func (m *Manager) Export(name string, w io.Writer) error {
	mods, err := m.Mods(name)
	if err != nil {
		return err
	}

	export := Export{ProfileName: name, Mods: []ExportMod{}}
	for _, mod := range mods {
		v, err := modversion.Parse(mod.VersionNumber)
		if err != nil {
			m.log.Warn().Err(err).Str("mod", mod.FullName).Msg("Leaving mod with unparsable version out of export")
			continue
		}
		export.Mods = append(export.Mods, ExportMod{
			Name:    mod.FullName,
			Version: ExportVersion{Major: v.Major, Minor: v.Minor, Patch: v.Patch},
			Enabled: mod.Enabled,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(export); err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "failed to write export")
	}
	return enc.Close()
}

// ReadExport parses an r2x profile description
func ReadExport(r io.Reader) (*Export, error) {
	var export Export
	if err := yaml.NewDecoder(r).Decode(&export); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid profile export")
	}
	if export.ProfileName == "" {
		return nil, errors.New(errors.ErrInvalidInput, "profile export has no profileName")
	}
	return &export, nil
}

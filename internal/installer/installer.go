// Package installer installs mods into profiles: it resolves dependencies,
// downloads each archive, extracts it, and rescans the profile.
package installer

import (
	"context"

	"github.com/danisty/LethalManager/internal/archive"
	"github.com/danisty/LethalManager/internal/catalog"
	"github.com/danisty/LethalManager/internal/errors"
	"github.com/danisty/LethalManager/internal/logging"
	"github.com/danisty/LethalManager/internal/modversion"
	"github.com/danisty/LethalManager/internal/profile"
	"github.com/danisty/LethalManager/internal/resolver"
	"github.com/rs/zerolog"
)

const (
	// StepScanning is reported once every archive is extracted
	StepScanning = "Scanning profile mods..."
	// StepDone is the last step of an install
	StepDone = "Done"
)

// Progress is one step of an install. Total and Extract are percentages.
type Progress struct {
	Step    string
	Total   float64
	Extract float64
}

// ProgressFunc receives install progress. It may be nil.
type ProgressFunc func(Progress)

// Downloader stores archives locally, see fetch.Cache
type Downloader interface {
	Get(ctx context.Context, key, url string) (string, error)
}

// Installer installs mods into the profiles of a Manager
type Installer struct {
	catalog   *catalog.Index
	resolver  *resolver.Resolver
	downloads Downloader
	extractor *archive.Extractor
	profiles  *profile.Manager
	log       zerolog.Logger
}

// New creates an installer
func New(index *catalog.Index, downloads Downloader, profiles *profile.Manager) *Installer {
	return &Installer{
		catalog:   index,
		resolver:  resolver.New(index),
		downloads: downloads,
		extractor: archive.NewExtractor(),
		profiles:  profiles,
		log:       logging.GetLogger("installer"),
	}
}

// Install installs ref ("Owner-Name-x.y.z") and whatever it depends on into
// a profile, one package at a time. It returns the versions that were
// installed, dependencies first.
func (in *Installer) Install(ctx context.Context, profileName, ref string, onProgress ProgressFunc) ([]catalog.Version, error) {
	done := logging.LogOperationStart(in.log, "install "+ref)
	defer done()

	report := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	if _, err := in.profiles.Get(profileName); err != nil {
		return nil, err
	}
	mods, err := in.profiles.Mods(profileName)
	if err != nil {
		return nil, err
	}
	installed := make([]resolver.Installed, 0, len(mods))
	for _, m := range mods {
		installed = append(installed, resolver.Installed{FullName: m.FullName, VersionNumber: m.VersionNumber})
	}

	plan, err := in.resolver.Resolve(ctx, ref, installed)
	if err != nil {
		return nil, err
	}
	in.log.Info().Str("ref", ref).Int("packages", len(plan)).Msg("Resolved install plan")

	if touched, err := in.installPlan(ctx, profileName, plan, mods, report); err != nil {
		if touched {
			in.rescanAfterFailure(profileName)
		}
		return nil, err
	}

	report(Progress{Step: StepScanning, Total: 99.9, Extract: 100})
	if _, err := in.profiles.Scan(profileName); err != nil {
		return nil, err
	}
	report(Progress{Step: StepDone, Total: 100, Extract: 100})

	return plan, nil
}

// installPlan downloads and extracts every version of plan in order. It
// reports whether the profile folder was modified, even when it fails.
func (in *Installer) installPlan(ctx context.Context, profileName string, plan []catalog.Version, mods []profile.InstalledMod, report ProgressFunc) (bool, error) {
	profileDir := in.profiles.Dir(profileName)
	touched := false
	for i, v := range plan {
		if err := ctx.Err(); err != nil {
			return touched, errors.Wrap(err, errors.ErrCancelled, "install cancelled")
		}

		name := v.PackageName()
		total := float64(i) / float64(len(plan)) * 100

		report(Progress{Step: "Downloading " + name + "...", Total: total})
		path, err := in.downloads.Get(ctx, v.FullName, v.DownloadURL)
		if err != nil {
			return touched, err
		}

		// An upgrade replaces the previous version's files.
		for _, m := range mods {
			if m.FullName == name {
				touched = true
				if err := in.profiles.DeleteMod(profileName, name); err != nil {
					return touched, err
				}
				break
			}
		}

		step := "Extracting " + name + "..."
		touched = true
		_, err = in.extractor.ExtractFile(path, name, profileDir, func(p float64) {
			report(Progress{Step: step, Total: total, Extract: p})
		})
		if err != nil {
			return touched, errors.Wrapf(err, errors.ErrIOFailure, "failed to install %s", v.FullName).
				WithDetail("mod", v.FullName)
		}
		in.log.Debug().Str("mod", v.FullName).Msg("Installed package")
	}
	return touched, nil
}

// rescanAfterFailure brings the installed-mod index in line with whatever a
// failed install left on disk.
func (in *Installer) rescanAfterFailure(profileName string) {
	mods, err := in.profiles.Scan(profileName)
	if err != nil {
		in.log.Warn().Err(err).Str("profile", profileName).Msg("Failed to rescan profile after install error")
		return
	}
	in.log.Debug().Str("profile", profileName).Int("mods", len(mods)).Msg("Rescanned profile after install error")
}

// Update installs the catalog's latest version of an installed mod
func (in *Installer) Update(ctx context.Context, profileName, fullName string, onProgress ProgressFunc) ([]catalog.Version, error) {
	if _, err := in.profiles.Mod(profileName, fullName); err != nil {
		return nil, err
	}
	pkg, ok := in.catalog.Package(fullName)
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "%s is not in the catalog", fullName).WithDetail("mod", fullName)
	}
	latest, ok := pkg.Latest()
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "%s has no published versions", fullName).WithDetail("mod", fullName)
	}
	return in.Install(ctx, profileName, latest.FullName, onProgress)
}

// Import installs every mod listed in an export into a profile, creating the
// profile when needed, then disables the mods the export marks disabled.
func (in *Installer) Import(ctx context.Context, profileName string, export *profile.Export, onProgress ProgressFunc) ([]catalog.Version, error) {
	if _, err := in.profiles.Ensure(profileName); err != nil {
		return nil, err
	}

	var installed []catalog.Version
	for _, m := range export.Mods {
		ref := m.Ref()
		if _, _, err := modversion.ParseRef(ref); err != nil {
			return installed, err
		}
		plan, err := in.Install(ctx, profileName, ref, onProgress)
		if err != nil {
			return installed, err
		}
		installed = append(installed, plan...)
	}

	for _, m := range export.Mods {
		if m.Enabled {
			continue
		}
		if _, err := in.profiles.SetEnabled(profileName, m.Name, false); err != nil {
			if errors.IsErrorCode(err, errors.ErrNotFound) {
				in.log.Warn().Str("mod", m.Name).Msg("Imported mod is missing after install, not disabling it")
				continue
			}
			return installed, err
		}
	}

	in.log.Info().Str("profile", profileName).Int("mods", len(export.Mods)).Msg("Profile imported")
	return installed, nil
}

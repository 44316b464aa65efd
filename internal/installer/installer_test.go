package installer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/danisty/LethalManager/internal/archive"
	"github.com/danisty/LethalManager/internal/catalog"
	"github.com/danisty/LethalManager/internal/errors"
	"github.com/danisty/LethalManager/internal/fetch"
	"github.com/danisty/LethalManager/internal/profile"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves archives by URL and counts requests
type fakeFetcher struct {
	mu       sync.Mutex
	archives map[string][]byte
	requests map[string]int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[url]++
	data, ok := f.archives[url]
	if !ok {
		return nil, &fetch.StatusError{URL: url, StatusCode: 404}
	}
	return data, nil
}

type fixture struct {
	installer *Installer
	profiles  *profile.Manager
	fetcher   *fakeFetcher
	index     *catalog.Index
}

func buildZip(t *testing.T, files ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i := 0; i < len(files); i += 2 {
		f, err := w.Create(files[i])
		require.NoError(t, err)
		_, err = f.Write([]byte(files[i+1]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func modZip(t *testing.T, name, version string) []byte {
	return buildZip(t,
		"manifest.json", `{"name":"`+name+`","version_number":"`+version+`","description":"","dependencies":[]}`,
		name+".dll", "binary-"+name+"-"+version,
		"config/"+name+".cfg", "config-"+name+"-"+version,
	)
}

func url(fullName string) string {
	return "https://example.test/" + fullName + ".zip"
}

func pkg(owner, name string, versions ...catalog.Version) catalog.Package {
	for i := range versions {
		versions[i].Name = name
		versions[i].FullName = owner + "-" + name + "-" + versions[i].VersionNumber
		versions[i].DownloadURL = url(versions[i].FullName)
	}
	return catalog.Package{Owner: owner, Name: name, FullName: owner + "-" + name, Versions: versions}
}

func newFixture(t *testing.T, packages ...catalog.Package) *fixture {
	t.Helper()
	tmp := t.TempDir()

	fetcher := &fakeFetcher{archives: map[string][]byte{}, requests: map[string]int{}}
	for _, p := range packages {
		for _, v := range p.Versions {
			fetcher.archives[v.DownloadURL] = modZip(t, p.Name, v.VersionNumber)
		}
	}

	index := catalog.NewIndex("", "", nil)
	index.Replace(catalog.NewSnapshot(packages))

	profiles := profile.NewManager(filepath.Join(tmp, "profiles"), index)
	_, err := profiles.Create("default", nil)
	require.NoError(t, err)

	cache := fetch.NewCache(filepath.Join(tmp, "downloads"), fetcher)
	return &fixture{
		installer: New(index, cache, profiles),
		profiles:  profiles,
		fetcher:   fetcher,
		index:     index,
	}
}

// steps collapses consecutive progress events with the same label
func steps(events []Progress) []string {
	var out []string
	for _, e := range events {
		if len(out) == 0 || out[len(out)-1] != e.Step {
			out = append(out, e.Step)
		}
	}
	return out
}

func TestInstallWithDependencies(t *testing.T) {
	f := newFixture(t,
		pkg("Team", "App", catalog.Version{VersionNumber: "1.0.0", Dependencies: []string{"Team-Lib-1.0.0"}}),
		pkg("Team", "Lib", catalog.Version{VersionNumber: "1.0.0"}),
	)

	var events []Progress
	plan, err := f.installer.Install(context.Background(), "default", "Team-App-1.0.0", func(p Progress) {
		events = append(events, p)
	})
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, "Team-Lib-1.0.0", plan[0].FullName)
	assert.Equal(t, "Team-App-1.0.0", plan[1].FullName)

	assert.Equal(t, []string{
		"Downloading Team-Lib...",
		"Extracting Team-Lib...",
		"Downloading Team-App...",
		"Extracting Team-App...",
		StepScanning,
		StepDone,
	}, steps(events))

	for _, e := range events {
		switch e.Step {
		case "Downloading Team-Lib...", "Extracting Team-Lib...":
			assert.InDelta(t, 0, e.Total, 1e-9)
		case "Downloading Team-App...", "Extracting Team-App...":
			assert.InDelta(t, 50, e.Total, 1e-9)
		}
	}
	assert.Equal(t, Progress{Step: StepScanning, Total: 99.9, Extract: 100}, events[len(events)-2])
	assert.Equal(t, Progress{Step: StepDone, Total: 100, Extract: 100}, events[len(events)-1])

	mods, err := f.profiles.Mods("default")
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, "Team-App", mods[0].FullName)
	assert.Equal(t, "Team-Lib", mods[1].FullName)

	dir := f.profiles.Dir("default")
	assert.FileExists(t, filepath.Join(archive.ModFolder(dir, "Team-App"), "App.dll"))
	assert.FileExists(t, filepath.Join(dir, "BepInEx", "config", "Lib.cfg"))
}

func TestInstallSkipsSatisfiedDependencies(t *testing.T) {
	f := newFixture(t,
		pkg("Team", "App", catalog.Version{VersionNumber: "1.0.0", Dependencies: []string{"Team-Lib-1.0.0"}}),
		pkg("Team", "Lib", catalog.Version{VersionNumber: "1.0.0"}),
	)
	ctx := context.Background()

	_, err := f.installer.Install(ctx, "default", "Team-Lib-1.0.0", nil)
	require.NoError(t, err)

	plan, err := f.installer.Install(ctx, "default", "Team-App-1.0.0", nil)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "Team-App-1.0.0", plan[0].FullName)
	assert.Equal(t, 1, f.fetcher.requests[url("Team-Lib-1.0.0")])
}

func TestInstallReusesDownloads(t *testing.T) {
	f := newFixture(t, pkg("Team", "Lib", catalog.Version{VersionNumber: "1.0.0"}))
	ctx := context.Background()

	_, err := f.installer.Install(ctx, "default", "Team-Lib-1.0.0", nil)
	require.NoError(t, err)
	require.NoError(t, f.profiles.DeleteMod("default", "Team-Lib"))
	_, err = f.installer.Install(ctx, "default", "Team-Lib-1.0.0", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, f.fetcher.requests[url("Team-Lib-1.0.0")])
}

func TestInstallUnknownProfile(t *testing.T) {
	f := newFixture(t, pkg("Team", "Lib", catalog.Version{VersionNumber: "1.0.0"}))

	_, err := f.installer.Install(context.Background(), "nope", "Team-Lib-1.0.0", nil)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestInstallDownloadFailure(t *testing.T) {
	f := newFixture(t, pkg("Team", "Lib", catalog.Version{VersionNumber: "1.0.0"}))
	delete(f.fetcher.archives, url("Team-Lib-1.0.0"))

	_, err := f.installer.Install(context.Background(), "default", "Team-Lib-1.0.0", nil)
	assert.True(t, errors.IsErrorCode(err, errors.ErrIOFailure))

	mods, err := f.profiles.Scan("default")
	require.NoError(t, err)
	assert.Empty(t, mods)
}

func TestInstallFailureKeepsIndexInSync(t *testing.T) {
	f := newFixture(t,
		pkg("Team", "App", catalog.Version{VersionNumber: "1.0.0", Dependencies: []string{"Team-Lib-1.0.0"}}),
		pkg("Team", "Lib", catalog.Version{VersionNumber: "1.0.0"}),
	)
	delete(f.fetcher.archives, url("Team-App-1.0.0"))

	_, err := f.installer.Install(context.Background(), "default", "Team-App-1.0.0", nil)
	assert.True(t, errors.IsErrorCode(err, errors.ErrIOFailure))

	// Lib was extracted before App failed and is listed without a manual rescan.
	mods, err := f.profiles.Mods("default")
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, "Team-Lib", mods[0].FullName)

	mod, err := f.profiles.SetEnabled("default", "Team-Lib", false)
	require.NoError(t, err)
	assert.False(t, mod.Enabled)
}

func TestInstallCancelled(t *testing.T) {
	f := newFixture(t, pkg("Team", "Lib", catalog.Version{VersionNumber: "1.0.0"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.installer.Install(ctx, "default", "Team-Lib-1.0.0", nil)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCancelled))
}

func TestUpdateReplacesOldVersion(t *testing.T) {
	f := newFixture(t, pkg("Team", "Lib",
		catalog.Version{VersionNumber: "2.0.0"},
		catalog.Version{VersionNumber: "1.0.0"},
	))
	ctx := context.Background()

	_, err := f.installer.Install(ctx, "default", "Team-Lib-1.0.0", nil)
	require.NoError(t, err)

	plan, err := f.installer.Update(ctx, "default", "Team-Lib", nil)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "2.0.0", plan[0].VersionNumber)

	mod, err := f.profiles.Mod("default", "Team-Lib")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", mod.VersionNumber)

	data, err := os.ReadFile(filepath.Join(mod.Folder, "Lib.dll"))
	require.NoError(t, err)
	assert.Equal(t, "binary-Lib-2.0.0", string(data))

	_, err = f.installer.Update(ctx, "default", "Team-Missing", nil)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestImport(t *testing.T) {
	f := newFixture(t,
		pkg("Team", "App", catalog.Version{VersionNumber: "1.0.0"}),
		pkg("Team", "Lib", catalog.Version{VersionNumber: "1.2.0"}),
	)
	export := &profile.Export{
		ProfileName: "shared",
		Mods: []profile.ExportMod{
			{Name: "Team-App", Version: profile.ExportVersion{Major: 1}, Enabled: true},
			{Name: "Team-Lib", Version: profile.ExportVersion{Major: 1, Minor: 2}, Enabled: false},
		},
	}

	installed, err := f.installer.Import(context.Background(), "imported", export, nil)
	require.NoError(t, err)
	assert.Len(t, installed, 2)

	mods, err := f.profiles.Mods("imported")
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.True(t, mods[0].Enabled)
	assert.False(t, mods[1].Enabled)
}

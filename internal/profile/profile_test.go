package profile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danisty/LethalManager/internal/archive"
	"github.com/danisty/LethalManager/internal/catalog"
	"github.com/danisty/LethalManager/internal/errors"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup map[string]*catalog.Package

func (f fakeLookup) Package(fullName string) (*catalog.Package, bool) {
	p, ok := f[fullName]
	return p, ok
}

func newManager(t *testing.T, lookup Lookup) *Manager {
	t.Helper()
	return NewManager(filepath.Join(t.TempDir(), "profiles"), lookup)
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

// install extracts a small mod with one private binary and one shared config
func install(t *testing.T, m *Manager, profileName, fullName, version string) {
	t.Helper()
	name := fullName[strings.LastIndex(fullName, "-")+1:]
	data := buildZip(t,
		"manifest.json", `{"name":"`+name+`","version_number":"`+version+`","description":"from manifest","dependencies":[]}`,
		"BepInEx/plugins/"+fullName+"/"+name+".dll", "binary-"+name,
		"BepInEx/config/"+name+".cfg", "config-"+name,
	)
	_, err := archive.NewExtractor().Extract(data, fullName, m.Dir(profileName), nil)
	require.NoError(t, err)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCreateAndGet(t *testing.T) {
	m := newManager(t, nil)

	p, err := m.Create("speedrun", &Icon{Data: []byte("png"), Ext: ".png"})
	require.NoError(t, err)
	assert.Equal(t, "speedrun", p.Name)
	assert.Equal(t, m.Dir("speedrun"), p.Folder)
	assert.Equal(t, "png", readFile(t, filepath.Join(p.Folder, "icon.png")))

	got, err := m.Get("speedrun")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = m.Create("speedrun", nil)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConflict))

	_, err = m.Get("missing")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestValidateName(t *testing.T) {
	for _, good := range []string{"default", "My_Profile-2"} {
		assert.NoError(t, ValidateName(good), good)
	}
	for _, bad := range []string{"", "with space", "../escape", "dots.too", "ünïcode"} {
		assert.True(t, errors.IsErrorCode(ValidateName(bad), errors.ErrInvalidInput), bad)
	}
}

func TestEnsureListDelete(t *testing.T) {
	m := newManager(t, nil)

	list, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = m.Ensure("default")
	require.NoError(t, err)
	_, err = m.Ensure("default")
	require.NoError(t, err)
	_, err = m.Create("alt", nil)
	require.NoError(t, err)
	install(t, m, "alt", "Team-Mod", "1.0.0")

	list, err = m.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alt", list[0].Name)
	assert.Equal(t, 1, list[0].Mods)
	assert.Equal(t, "default", list[1].Name)
	assert.Equal(t, 0, list[1].Mods)

	require.NoError(t, m.Delete("alt"))
	assert.NoDirExists(t, m.Dir("alt"))
	assert.True(t, errors.IsErrorCode(m.Delete("alt"), errors.ErrNotFound))
}

func TestScan(t *testing.T) {
	lookup := fakeLookup{
		"Team-Known": {
			FullName: "Team-Known",
			Name:     "Known",
			Owner:    "Team",
			Versions: []catalog.Version{
				{VersionNumber: "2.0.0", Description: "newer"},
				{VersionNumber: "1.0.0", Description: "from catalog", Dependencies: []string{"BepInEx-BepInExPack-5.4.2100"}},
			},
		},
	}
	m := newManager(t, lookup)
	_, err := m.Create("default", nil)
	require.NoError(t, err)

	install(t, m, "default", "Team-Known", "1.0.0")
	install(t, m, "default", "Other-Unknown", "0.1.0")

	// Manifests written by some tools start with a byte order mark.
	bomFolder := filepath.Join(m.PluginsDir("default"), "Bom-Mod")
	require.NoError(t, os.MkdirAll(bomFolder, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bomFolder, ManifestFile), []byte("\xef\xbb\xbf{\"name\":\"Mod\",\"version_number\":\"3.0.0\"}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(bomFolder, IconFile), []byte("png"), 0644))

	// Folders without a manifest are not mods.
	require.NoError(t, os.MkdirAll(filepath.Join(m.PluginsDir("default"), "Loose"), 0755))

	mods, err := m.Scan("default")
	require.NoError(t, err)
	require.Len(t, mods, 3)

	assert.Equal(t, "Bom-Mod", mods[0].FullName)
	assert.Equal(t, "3.0.0", mods[0].VersionNumber)
	assert.Equal(t, "Bom", mods[0].Author)
	assert.Equal(t, filepath.Join(bomFolder, IconFile), mods[0].Icon)

	assert.Equal(t, "Other-Unknown", mods[1].FullName)
	assert.Equal(t, "Unknown", mods[1].Name)
	assert.Equal(t, "from manifest", mods[1].Description)
	assert.True(t, mods[1].Enabled)

	assert.Equal(t, "Team-Known", mods[2].FullName)
	assert.Equal(t, "Team", mods[2].Author)
	assert.Equal(t, "from catalog", mods[2].Description)
	assert.Equal(t, []string{"BepInEx-BepInExPack-5.4.2100"}, mods[2].Dependencies)

	assert.FileExists(t, filepath.Join(m.Dir("default"), ModsFile))
}

func TestModsUsesCache(t *testing.T) {
	m := newManager(t, nil)
	_, err := m.Create("default", nil)
	require.NoError(t, err)

	install(t, m, "default", "Team-Mod", "1.0.0")
	mods, err := m.Mods("default")
	require.NoError(t, err)
	require.Len(t, mods, 1)

	// Installed behind the index's back: not visible until a rescan.
	install(t, m, "default", "Team-Other", "1.0.0")
	mods, err = m.Mods("default")
	require.NoError(t, err)
	assert.Len(t, mods, 1)

	mods, err = m.Scan("default")
	require.NoError(t, err)
	assert.Len(t, mods, 2)

	require.NoError(t, os.Remove(filepath.Join(m.Dir("default"), ModsFile)))
	mods, err = m.Mods("default")
	require.NoError(t, err)
	assert.Len(t, mods, 2)
}

func TestToggleRoundTrip(t *testing.T) {
	m := newManager(t, nil)
	_, err := m.Create("default", nil)
	require.NoError(t, err)
	install(t, m, "default", "Team-Mod", "1.0.0")
	_, err = m.Scan("default")
	require.NoError(t, err)

	modFolder := archive.ModFolder(m.Dir("default"), "Team-Mod")
	dll := filepath.Join(modFolder, "Mod.dll")
	cfg := filepath.Join(m.Dir("default"), "BepInEx", "config", "Mod.cfg")

	mod, err := m.Toggle("default", "Team-Mod")
	require.NoError(t, err)
	assert.False(t, mod.Enabled)
	assert.NoFileExists(t, dll)
	assert.FileExists(t, dll+DisabledSuffix)
	assert.NoFileExists(t, cfg)
	assert.FileExists(t, filepath.Join(modFolder, SidecarDir, "BepInEx", "config", "Mod.cfg"))

	// The sidecar marks the mod disabled for later rescans.
	mods, err := m.Scan("default")
	require.NoError(t, err)
	assert.False(t, mods[0].Enabled)

	mod, err = m.Toggle("default", "Team-Mod")
	require.NoError(t, err)
	assert.True(t, mod.Enabled)
	assert.Equal(t, "binary-Mod", readFile(t, dll))
	assert.Equal(t, "config-Mod", readFile(t, cfg))
	assert.NoDirExists(t, filepath.Join(modFolder, SidecarDir))

	mods, err = m.Scan("default")
	require.NoError(t, err)
	assert.True(t, mods[0].Enabled)
}

func TestToggleUppercaseBinaryExtension(t *testing.T) {
	m := newManager(t, nil)
	_, err := m.Create("default", nil)
	require.NoError(t, err)
	install(t, m, "default", "Team-Mod", "1.0.0")

	upper := filepath.Join(archive.ModFolder(m.Dir("default"), "Team-Mod"), "Up.DLL")
	require.NoError(t, os.WriteFile(upper, []byte("upper"), 0644))

	_, err = m.SetEnabled("default", "Team-Mod", false)
	require.NoError(t, err)
	assert.NoFileExists(t, upper)
	assert.FileExists(t, upper+DisabledSuffix)

	_, err = m.SetEnabled("default", "Team-Mod", true)
	require.NoError(t, err)
	assert.Equal(t, "upper", readFile(t, upper))
}

func TestDisableTwiceIsNoop(t *testing.T) {
	m := newManager(t, nil)
	_, err := m.Create("default", nil)
	require.NoError(t, err)
	install(t, m, "default", "Team-Mod", "1.0.0")

	_, err = m.SetEnabled("default", "Team-Mod", false)
	require.NoError(t, err)
	mod, err := m.SetEnabled("default", "Team-Mod", false)
	require.NoError(t, err)
	assert.False(t, mod.Enabled)

	modFolder := archive.ModFolder(m.Dir("default"), "Team-Mod")
	assert.FileExists(t, filepath.Join(modFolder, "Mod.dll"+DisabledSuffix))
	assert.NoFileExists(t, filepath.Join(modFolder, "Mod.dll"+DisabledSuffix+DisabledSuffix))
	assert.Equal(t, "config-Mod", readFile(t, filepath.Join(modFolder, SidecarDir, "BepInEx", "config", "Mod.cfg")))
}

func TestEnableWithoutSidecar(t *testing.T) {
	m := newManager(t, nil)
	_, err := m.Create("default", nil)
	require.NoError(t, err)
	install(t, m, "default", "Team-Mod", "1.0.0")

	cfg := filepath.Join(m.Dir("default"), "BepInEx", "config", "Mod.cfg")
	mod, err := m.SetEnabled("default", "Team-Mod", true)
	require.NoError(t, err)
	assert.True(t, mod.Enabled)
	assert.Equal(t, "config-Mod", readFile(t, cfg))
	assert.FileExists(t, filepath.Join(archive.ModFolder(m.Dir("default"), "Team-Mod"), "Mod.dll"))
}

func TestToggleUnknownMod(t *testing.T) {
	m := newManager(t, nil)
	_, err := m.Create("default", nil)
	require.NoError(t, err)

	_, err = m.Toggle("default", "Team-Missing")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestDeleteMod(t *testing.T) {
	m := newManager(t, nil)
	_, err := m.Create("default", nil)
	require.NoError(t, err)
	install(t, m, "default", "Team-Mod", "1.0.0")
	install(t, m, "default", "Team-Keep", "1.0.0")

	cfg := filepath.Join(m.Dir("default"), "BepInEx", "config", "Mod.cfg")
	// One external file already gone must not fail the delete.
	require.NoError(t, os.Remove(cfg))

	require.NoError(t, m.DeleteMod("default", "Team-Mod"))
	assert.NoDirExists(t, archive.ModFolder(m.Dir("default"), "Team-Mod"))
	assert.FileExists(t, filepath.Join(m.Dir("default"), "BepInEx", "config", "Keep.cfg"))

	mods, err := m.Mods("default")
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, "Team-Keep", mods[0].FullName)

	assert.True(t, errors.IsErrorCode(m.DeleteMod("default", "Team-Mod"), errors.ErrNotFound))
}

func TestDeleteDisabledModRemovesParkedFiles(t *testing.T) {
	m := newManager(t, nil)
	_, err := m.Create("default", nil)
	require.NoError(t, err)
	install(t, m, "default", "Team-Mod", "1.0.0")

	_, err = m.SetEnabled("default", "Team-Mod", false)
	require.NoError(t, err)
	require.NoError(t, m.DeleteMod("default", "Team-Mod"))

	assert.NoFileExists(t, filepath.Join(m.Dir("default"), "BepInEx", "config", "Mod.cfg"))
	assert.NoDirExists(t, archive.ModFolder(m.Dir("default"), "Team-Mod"))
}

func TestExportAndRead(t *testing.T) {
	m := newManager(t, nil)
	_, err := m.Create("default", nil)
	require.NoError(t, err)
	install(t, m, "default", "Team-Alpha", "1.2.3")
	install(t, m, "default", "Team-Beta", "0.0.7")
	_, err = m.SetEnabled("default", "Team-Beta", false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.Export("default", &buf))
	assert.Contains(t, buf.String(), "profileName: default")

	export, err := ReadExport(&buf)
	require.NoError(t, err)
	assert.Equal(t, "default", export.ProfileName)
	require.Len(t, export.Mods, 2)
	assert.Equal(t, "Team-Alpha-1.2.3", export.Mods[0].Ref())
	assert.True(t, export.Mods[0].Enabled)
	assert.Equal(t, ExportVersion{Major: 0, Minor: 0, Patch: 7}, export.Mods[1].Version)
	assert.False(t, export.Mods[1].Enabled)

	_, err = ReadExport(strings.NewReader("mods: []\n"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

package archive

import (
	"testing"

	"github.com/danisty/LethalManager/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, name string) EntryPath {
	t.Helper()
	p, err := ParsePath(name)
	require.NoError(t, err)
	return p.Normalize()
}

func TestParsePath(t *testing.T) {
	p, err := ParsePath(`BepInEx\plugins\Mod\Mod.dll`)
	require.NoError(t, err)
	assert.Equal(t, []string{"BepInEx", "plugins", "Mod", "Mod.dll"}, p.Parts)
	assert.False(t, p.Dir)

	p, err = ParsePath("./plugins/Mod/")
	require.NoError(t, err)
	assert.Equal(t, "plugins/Mod", p.String())
	assert.True(t, p.Dir)

	for _, bad := range []string{"/etc/passwd", "C:/Windows/evil.dll", "../outside.txt", "plugins/../../x", "", "./"} {
		_, err := ParsePath(bad)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput), "entry %q", bad)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"bepinex/Plugins/Mod/Mod.dll", "BepInEx/plugins/Mod/Mod.dll"},
		{"BEPINEX/CONFIG/Mod.cfg", "BepInEx/config/Mod.cfg"},
		{"BepInEx/patchers/Patch.dll", "BepInEx/patchers/Patch.dll"},
		{"bepinex/readme.txt", "BepInEx/readme.txt"},
		{"Plugins/Mod.dll", "Plugins/Mod.dll"},
		{"Mod/BepInEx/plugins/x.dll", "Mod/BepInEx/plugins/x.dll"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, mustParse(t, tt.in).String())
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in       string
		area     Area
		rest     string
		prefixed bool
	}{
		{"BepInEx/config/a.cfg", AreaConfig, "a.cfg", true},
		{"config/a.cfg", AreaConfig, "a.cfg", false},
		{"BepInEx/plugins/Mod/a.dll", AreaPlugins, "Mod/a.dll", true},
		{"plugins/a.dll", AreaPlugins, "a.dll", false},
		{"BepInEx/patchers/p.dll", AreaPatchers, "p.dll", true},
		{"patchers/p.dll", AreaPatchers, "p.dll", false},
		{"BepInEx/core/BepInEx.dll", AreaCore, "BepInEx.dll", true},
		{"BepInEx/monomod/x.dll", AreaOther, "monomod/x.dll", true},
		{"BepInEx/readme.txt", AreaOther, "readme.txt", true},
		{"Assets/bundle", AreaNone, "Assets/bundle", false},
		{"manifest.json", AreaNone, "manifest.json", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			area, rest, prefixed := mustParse(t, tt.in).Classify()
			assert.Equal(t, tt.area, area, "area %s", area)
			assert.Equal(t, tt.rest, EntryPath{Parts: rest}.String())
			assert.Equal(t, tt.prefixed, prefixed)
		})
	}
}

func TestDetectModRoot(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    string
	}{
		{"no binaries", []string{"manifest.json", "config/a.cfg"}, "*"},
		{"binary at archive root", []string{"Mod.dll"}, "*"},
		{"child of plugins", []string{"BepInEx/plugins/Author-Mod/Mod.dll"}, "BepInEx/plugins/Author-Mod/"},
		{"nested below child", []string{"plugins/Mod/lib/Mod.dll"}, "plugins/Mod/"},
		{"directly in plugins", []string{"BepInEx/plugins/Mod.dll"}, "BepInEx/plugins/"},
		{"case-insensitive plugins", []string{"Plugins/Mod/Mod.DLL"}, "Plugins/Mod/"},
		{"no plugins ancestor", []string{"Mod/lib/Mod.dll"}, "Mod/"},
		{"last binary wins", []string{"plugins/A/a.dll", "plugins/B/b.dll"}, "plugins/B/"},
		{"plugins root beats later patcher", []string{"BepInEx/plugins/Mod.dll", "BepInEx/patchers/Patch.dll"}, "BepInEx/plugins/"},
		{"plugins root beats earlier loose binary", []string{"Extra/x.dll", "plugins/Mod/Mod.dll"}, "plugins/Mod/"},
		{"patcher only never roots at loader", []string{"BepInEx/patchers/Patch.dll"}, "*"},
		{"last loose binary wins", []string{"A/a.dll", "B/lib/b.dll"}, "B/"},
		{"normalized before detection", []string{"bepinex/PLUGINS/Mod/Mod.dll"}, "BepInEx/plugins/Mod/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var paths []EntryPath
			for _, e := range tt.entries {
				paths = append(paths, mustParse(t, e))
			}
			assert.Equal(t, tt.want, DetectModRoot(paths).String())
		})
	}
}

func TestRemap(t *testing.T) {
	const mod = "Author-Mod"
	root := func(prefix string) ModRoot {
		if prefix == "*" {
			return WildcardRoot
		}
		return ModRoot{Parts: mustParse(t, prefix).Parts}
	}

	tests := []struct {
		name    string
		entry   string
		root    string
		want    string
		private bool
	}{
		{"private binary under root", "BepInEx/plugins/Author-Mod/Mod.dll", "BepInEx/plugins/Author-Mod/", "BepInEx/plugins/Author-Mod/Mod.dll", true},
		{"root prefix is stripped", "plugins/Mod/assets/x.bundle", "plugins/Mod/", "BepInEx/plugins/Author-Mod/assets/x.bundle", true},
		{"config is shared", "config/Mod.cfg", "*", "BepInEx/config/Mod.cfg", false},
		{"prefixed config is shared", "bepinex/Config/sub/Mod.cfg", "*", "BepInEx/config/sub/Mod.cfg", false},
		{"file directly in plugins is private", "BepInEx/plugins/readme.txt", "BepInEx/plugins/Other/", "BepInEx/plugins/Author-Mod/readme.txt", true},
		{"plugins outside root is shared", "plugins/Shared/lib.dll", "plugins/Mod/", "BepInEx/plugins/Shared/lib.dll", false},
		{"plugins with wildcard root is shared", "BepInEx/plugins/Lib/lib.txt", "*", "BepInEx/plugins/Lib/lib.txt", false},
		{"prefixed patchers are private", "BepInEx/patchers/Patch.dll", "*", "BepInEx/plugins/Author-Mod/Patch.dll", true},
		{"patchers are private", "patchers/sub/Patch.dll", "*", "BepInEx/plugins/Author-Mod/sub/Patch.dll", true},
		{"core goes to loader core", "BepInEx/core/Extra.dll", "*", "BepInEx/core/Extra.dll", false},
		{"unknown loader folder is shared plugins", "BepInEx/monomod/x.dll", "*", "BepInEx/plugins/monomod/x.dll", false},
		{"folder without area is shared plugins", "Assets/sounds/a.ogg", "*", "BepInEx/plugins/Assets/sounds/a.ogg", false},
		{"flat file is private", "manifest.json", "*", "BepInEx/plugins/Author-Mod/manifest.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Remap(mustParse(t, tt.entry), root(tt.root), mod)
			assert.Equal(t, tt.want, got.Rel)
			assert.Equal(t, tt.private, got.Private)
		})
	}
}

func TestRemapBootstrap(t *testing.T) {
	rel, ok := RemapBootstrap(mustParse(t, "BepInExPack/BepInEx/core/BepInEx.dll"))
	require.True(t, ok)
	assert.Equal(t, "BepInEx/core/BepInEx.dll", rel)

	rel, ok = RemapBootstrap(mustParse(t, "BepInExPack/winhttp.dll"))
	require.True(t, ok)
	assert.Equal(t, "winhttp.dll", rel)

	_, ok = RemapBootstrap(mustParse(t, "BepInExPack/"))
	assert.False(t, ok)

	_, ok = RemapBootstrap(mustParse(t, "manifest.json"))
	assert.False(t, ok)
}

package archive

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/danisty/LethalManager/internal/catalog"
	"github.com/danisty/LethalManager/internal/errors"
	"github.com/danisty/LethalManager/internal/logging"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
)

// ModFolder returns the absolute private folder of a mod in a profile
func ModFolder(profileDir, modName string) string {
	return filepath.Join(profileDir, filepath.FromSlash(ModFolderRel(modName)))
}

// Extractor unpacks mod archives into a profile
type Extractor struct {
	log zerolog.Logger
}

// NewExtractor creates an extractor
func NewExtractor() *Extractor {
	return &Extractor{log: logging.GetLogger("archive")}
}

// ExtractFile extracts the zip archive at path. See Extract.
func (x *Extractor) ExtractFile(path, modName, profileDir string, onProgress func(float64)) (ExternalFiles, error) {
	rc, err := zip.OpenReader(path)
	if rc == nil {
		return nil, errors.Wrapf(err, errors.ErrIOFailure, "failed to open archive %s", path)
	}
	defer rc.Close()
	if err != nil {
		x.log.Warn().Err(err).Str("archive", path).Msg("Archive has unsafe entry names, they will be skipped")
	}
	return x.extract(&rc.Reader, modName, profileDir, onProgress)
}

// Extract unpacks a zip archive for modName ("Owner-Name") into profileDir and
// returns the files written outside the mod's own folder. onProgress, when
// set, receives the percentage of entries processed before each entry.
//
// On a write failure the files this run created outside the mod folder are
// removed, as is the mod folder when this run created it.
func (x *Extractor) Extract(data []byte, modName, profileDir string, onProgress func(float64)) (ExternalFiles, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if r == nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "not a zip archive")
	}
	if err != nil {
		x.log.Warn().Err(err).Str("mod", modName).Msg("Archive has unsafe entry names, they will be skipped")
	}
	return x.extract(r, modName, profileDir, onProgress)
}

type entry struct {
	file *zip.File
	path EntryPath
	ok   bool
}

func (x *Extractor) extract(r *zip.Reader, modName, profileDir string, onProgress func(float64)) (ExternalFiles, error) {
	done := logging.LogOperationStart(x.log, "extract "+modName)
	defer done()

	profileDir, err := filepath.Abs(profileDir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "bad profile directory")
	}
	bootstrap := modName == catalog.BootstrapPackage
	modFolder := ModFolder(profileDir, modName)

	createdFolder := false
	if !bootstrap {
		if _, err := os.Stat(modFolder); os.IsNotExist(err) {
			createdFolder = true
		}
		if err := os.MkdirAll(modFolder, 0755); err != nil {
			return nil, errors.Wrapf(err, errors.ErrIOFailure, "failed to create %s", modFolder)
		}
	}

	// First pass: parse and normalize names, then find the mod root.
	entries := make([]entry, len(r.File))
	var paths []EntryPath
	for i, f := range r.File {
		p, err := ParsePath(f.Name)
		if err != nil {
			x.log.Warn().Err(err).Str("mod", modName).Msg("Skipping archive entry")
			continue
		}
		p = p.Normalize()
		entries[i] = entry{file: f, path: p, ok: true}
		paths = append(paths, p)
	}
	root := DetectModRoot(paths)
	x.log.Debug().Str("mod", modName).Str("root", root.String()).Msg("Detected mod root")

	var external ExternalFiles
	var created []string // external files that did not exist before this run

	fail := func(err error) (ExternalFiles, error) {
		for _, f := range created {
			os.Remove(f)
		}
		if createdFolder {
			os.RemoveAll(modFolder)
		}
		return nil, err
	}

	// Second pass: write every entry to its target.
	total := len(entries)
	for i, e := range entries {
		if onProgress != nil {
			onProgress(float64(i) / float64(total) * 100)
		}
		if !e.ok {
			continue
		}

		var rel string
		private := false
		if rest, ok := RemapBootstrap(e.path); bootstrap && ok {
			rel = rest
			if e.path.Dir {
				if err := os.MkdirAll(filepath.Join(profileDir, filepath.FromSlash(rel)), 0755); err != nil {
					return fail(errors.Wrapf(err, errors.ErrIOFailure, "failed to create directory %s", rel))
				}
				continue
			}
			// The loader itself is never recorded as external.
			private = true
		} else {
			if e.path.Dir {
				continue
			}
			target := Remap(e.path, root, modName)
			rel, private = target.Rel, target.Private
		}

		dest := filepath.Join(profileDir, filepath.FromSlash(rel))
		if !within(profileDir, dest) {
			x.log.Warn().Str("entry", e.file.Name).Str("target", dest).Msg("Skipping entry outside the profile")
			continue
		}

		existed := fileExists(dest)
		if err := writeEntry(e.file, dest); err != nil {
			return fail(errors.Wrapf(err, errors.ErrIOFailure, "failed to extract %s", e.file.Name))
		}
		x.log.Trace().Str("entry", e.file.Name).Str("target", rel).Msg("Extracted")

		if !private {
			external = append(external, filepath.ToSlash(dest))
			if !existed {
				created = append(created, dest)
			}
		}
	}

	if err := SaveExternalFiles(modFolder, external); err != nil {
		return fail(err)
	}

	return external, nil
}

func writeEntry(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

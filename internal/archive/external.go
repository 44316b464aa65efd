package archive

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/danisty/LethalManager/internal/errors"
)

// ExternalFilesName is the record kept in a mod folder listing the files
// the mod wrote outside of it
const ExternalFilesName = "external_files.json"

// ExternalFiles lists absolute, slash-separated paths a mod wrote outside
// its own folder
type ExternalFiles []string

// LoadExternalFiles reads a mod's external file record. A missing record
// means the mod has none.
func LoadExternalFiles(modFolder string) (ExternalFiles, error) {
	data, err := os.ReadFile(filepath.Join(modFolder, ExternalFilesName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrIOFailure, "failed to read external file record")
	}

	var files ExternalFiles
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "corrupt external file record in %s", modFolder)
	}
	return files, nil
}

// SaveExternalFiles writes the record, or nothing when files is empty
func SaveExternalFiles(modFolder string, files ExternalFiles) error {
	if len(files) == 0 {
		return nil
	}
	data, err := json.Marshal(files)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode external file record")
	}
	if err := os.MkdirAll(modFolder, 0755); err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "failed to create mod folder")
	}
	if err := os.WriteFile(filepath.Join(modFolder, ExternalFilesName), data, 0644); err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "failed to write external file record")
	}
	return nil
}

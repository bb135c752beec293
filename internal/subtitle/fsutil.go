package subtitle

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// writeFileAtomic replaces path with data so readers see either the old or
// the new content. An existing file keeps its permissions.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	err := renameio.WriteFile(path, data, 0644,
		renameio.WithTempDir(dir),
		renameio.WithExistingPermissions(),
	)
	if err != nil {
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}

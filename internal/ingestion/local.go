package ingestion

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// LoadLocalFiles walks root and returns the files with one of exts, sorted.
func LoadLocalFiles(root string, exts ...string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, a := range exts {
			if ext == a {
				out = append(out, path)
				break
			}
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

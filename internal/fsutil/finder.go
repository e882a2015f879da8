// Package fsutil provides file system helpers for collecting build inputs.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ExpandInputs flattens the given paths into a flat list of source files.
// Directories are walked recursively and contribute every file whose
// extension satisfies recognized, in sorted order. Explicit file paths
// pass through untouched, so later stages can report precisely on files
// that are missing or unrecognized.
func ExpandInputs(inputs []string, recognized func(ext string) bool) ([]string, error) {
	var files []string
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil || !info.IsDir() {
			files = append(files, input)
			continue
		}

		found, err := findSources(input, recognized)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func findSources(root string, recognized func(ext string) bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && recognized(filepath.Ext(d.Name())) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

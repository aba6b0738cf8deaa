// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan discovers convertible Office documents under a directory tree.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/docmark/pkg/types"
)

// Find walks root recursively and returns the documents whose extension
// matches exts (case-insensitive, with or without the leading dot), sorted
// by path. Office lock files (~$ prefix) and hidden files and directories
// are skipped.
func Find(root string, exts []string) ([]types.Document, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		extSet[e] = true
	}

	var docs []types.Document
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		if !extSet[ext] {
			return nil
		}
		docs = append(docs, types.Document{
			ID:     strings.TrimSuffix(name, filepath.Ext(name)),
			Path:   path,
			Format: formatFor(ext),
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking %s: %w", root, walkErr)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// formatFor maps a lowercase file extension to its document format.
func formatFor(ext string) types.Format {
	switch ext {
	case ".docx":
		return types.FormatDocx
	case ".pptx":
		return types.FormatPptx
	default:
		return types.Format(strings.TrimPrefix(ext, "."))
	}
}

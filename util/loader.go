// Package util - Helpers for feeding image files from disk to the classifier.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
}

// Name returns the base name of the file.
func (f ImageFile) Name() string {
	return filepath.Base(f.Path)
}

// SupportedExtensions lists the file extensions the decoder understands.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".webp"}

// IsImageFile reports whether path has a supported image extension.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// LoadImageFiles reads every path, expanding directories one level deep.
//
// Arguments:
//   - paths: Files or directories. Files are read regardless of extension;
//     directory entries are filtered by SupportedExtensions.
//
// Returns:
//   - []ImageFile: The files in argument order, directory entries sorted by name.
//   - error: Error if a path cannot be read.
func LoadImageFiles(paths ...string) ([]ImageFile, error) {
	var files []ImageFile
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, errors.Wrapf(err, "stat %s", p)
		}
		if info.IsDir() {
			dirFiles, err := LoadDirectoryImageFiles(p)
			if err != nil {
				return nil, err
			}
			files = append(files, dirFiles...)
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", p)
		}
		files = append(files, ImageFile{Path: p, Data: data})
	}
	return files, nil
}

// LoadDirectoryImageFiles reads all image files from a directory.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []ImageFile: Slice of ImageFile sorted by file name.
//   - error: Error if loading fails.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read dir %s", dir)
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		imgPath := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(imgPath)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", imgPath)
		}
		files = append(files, ImageFile{Path: imgPath, Data: data})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

package ingest

import (
	"path/filepath"
	"strings"

	"github.com/saikiran76/SwipeAI/constants"
)

// prefixes and suffixes of files still being written or owned by an editor
var (
	transientPrefixes = []string{".", "~$"}
	transientSuffixes = []string{".part", ".crdownload", ".tmp", ".swp"}
)

// AllowedExt reports whether ext names a format the pipeline can read.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden reports dot-files and dot-directories.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// IsTransient reports hidden files, office lock files and partial downloads.
func IsTransient(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, p := range transientPrefixes {
		if strings.HasPrefix(base, p) {
			return true
		}
	}
	for _, s := range transientSuffixes {
		if strings.HasSuffix(base, s) {
			return true
		}
	}
	return false
}

func candidate(path string) bool {
	return !IsTransient(path) && AllowedExt(filepath.Ext(path))
}

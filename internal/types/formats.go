package types

import (
	"path/filepath"
	"strings"
)

// SupportedVideoExtensions is the set of container formats the pipeline
// accepts as input.
var SupportedVideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".flv", ".wmv"}

// SupportedVideoFile reports whether the path has a supported video
// extension, case-insensitively.
func SupportedVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedVideoExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

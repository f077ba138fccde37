// utils/validation.go
package utils

import (
	"path/filepath"
	"strings"
)

// SanitizeFilename strips any directory components from an uploaded file
// name, including Windows-style separators.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return filepath.Base(name)
}

// HasAllowedExtension reports whether name carries one of the allowed
// extensions, compared case-insensitively.
func HasAllowedExtension(name string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range exts {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

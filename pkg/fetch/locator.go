package fetch

import (
	"path/filepath"
	"strings"
)

// Classify tells where the bytes of a locator live.
func Classify(locator string) Kind {
	switch {
	case strings.HasPrefix(locator, PREFIX_HTTP), strings.HasPrefix(locator, PREFIX_HTTPS):
		return KIND_REMOTE
	case strings.HasPrefix(locator, PREFIX_UPLOADS_ROOTED), strings.HasPrefix(locator, PREFIX_UPLOADS):
		return KIND_SERVER_RELATIVE
	}
	return KIND_LOCAL
}

// Resolve returns the filesystem path for a non-remote locator.
// Server-relative locators lose a single leading slash and are joined to uploadsDir.
func Resolve(locator, uploadsDir string) string {
	if Classify(locator) != KIND_SERVER_RELATIVE {
		return locator
	}
	rel := strings.TrimPrefix(locator, "/")
	return filepath.Join(uploadsDir, filepath.FromSlash(rel))
}

package server

import (
	"os"
	"strings"

	"example.com/fitgate/internal/profile"
)

// DefaultMaxUploadBytes bounds a single multipart upload request.
const DefaultMaxUploadBytes int64 = 512 << 20

// Options configures server creation.
type Options struct {
	// StorageDir is where the per-instance workspace directory is created.
	// Defaults to the system temp dir.
	StorageDir string

	// ProfileOverlay optionally points at a JSON file extending the
	// built-in field table.
	ProfileOverlay string

	// MaxUploadBytes limits multipart uploads; zero selects the default.
	MaxUploadBytes int64
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.StorageDir) == "" {
		o.StorageDir = os.TempDir()
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return o
}

func (o Options) loadStore() (*profile.Store, error) {
	if strings.TrimSpace(o.ProfileOverlay) == "" {
		return profile.Builtin(), nil
	}
	return profile.EnsureLoaded(o.ProfileOverlay)
}

// Package naming computes collision-free, sequence-numbered display names
// for uploaded media files within a project.
package naming

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/reelpipe/uplink/internal/category"
)

// DefaultExtension is used when the source file name carries none. Camera
// originals are overwhelmingly QuickTime containers.
const DefaultExtension = "mov"

// Name is a computed display name with its sequence number.
type Name struct {
	Sequence    int
	DisplayName string
}

// Next produces the display name for the sequence number after lastSequence.
//
// lastSequence is the highest number already taken for the project:
// persisted records plus any number the current batch has handed out and
// not released. The sequence is a pure function of that observation, never
// a shared counter, so parallel tasks cannot mint the same number as long
// as the caller serializes the observation.
func Next(projectID string, cat category.Category, sourceName string, lastSequence int) Name {
	seq := lastSequence + 1
	return Name{
		Sequence:    seq,
		DisplayName: fmt.Sprintf("%s_%s_%02d.%s", projectID, cat.Tag(), seq, Extension(sourceName)),
	}
}

// Applies reports whether sequence naming applies. Without a project
// identifier the original file name is kept.
func Applies(projectID string) bool {
	return projectID != ""
}

// Extension extracts the lower-cased extension from a file name, falling
// back to DefaultExtension.
func Extension(sourceName string) string {
	ext := strings.TrimPrefix(filepath.Ext(sourceName), ".")
	if ext == "" {
		return DefaultExtension
	}
	return strings.ToLower(ext)
}

// Package category defines the closed set of media file categories handled
// by the upload pipeline, plus the folder grouping and short tags used for
// remote placement and sequence-numbered naming.
package category

import "fmt"

// Category identifies what role a media file plays in a production.
type Category string

const (
	PrimaryFootage       Category = "primary-footage"
	SupplementaryFootage Category = "supplementary-footage"
	Hook                 Category = "hook"
	Body                 Category = "body"
	CallToAction         Category = "call-to-action"
	AudioClip            Category = "audio-clip"
	EditedVideo          Category = "edited-video"
	FinalVideo           Category = "final-video"
	Other                Category = "other"
)

// All lists every valid category in display order.
var All = []Category{
	PrimaryFootage,
	SupplementaryFootage,
	Hook,
	Body,
	CallToAction,
	AudioClip,
	EditedVideo,
	FinalVideo,
	Other,
}

// Parse converts a user-supplied string into a Category.
func Parse(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown file category %q", s)
	}
	return c, nil
}

// Valid reports whether c is one of the closed enumeration values.
func (c Category) Valid() bool {
	switch c {
	case PrimaryFootage, SupplementaryFootage, Hook, Body, CallToAction,
		AudioClip, EditedVideo, FinalVideo, Other:
		return true
	}
	return false
}

// Tag returns the short name embedded in sequence-numbered display names,
// e.g. "raw" in ABC-1000_raw_01.mov.
func (c Category) Tag() string {
	switch c {
	case PrimaryFootage:
		return "raw"
	case SupplementaryFootage:
		return "broll"
	case Hook:
		return "hook"
	case Body:
		return "body"
	case CallToAction:
		return "cta"
	case AudioClip:
		return "audio"
	case EditedVideo:
		return "edit"
	case FinalVideo:
		return "final"
	default:
		return "file"
	}
}

// Group returns the remote folder group a category belongs to. Folder
// resolution is keyed by (project, group), so categories sharing a group
// land in the same remote folder.
func (c Category) Group() Group {
	switch c {
	case PrimaryFootage, SupplementaryFootage:
		return GroupFootage
	case Hook, Body, CallToAction:
		return GroupSegments
	case AudioClip:
		return GroupAudio
	case EditedVideo, FinalVideo:
		return GroupDeliverables
	default:
		return GroupMisc
	}
}

// Group names a remote folder shared by related categories.
type Group string

const (
	GroupFootage      Group = "Footage"
	GroupSegments     Group = "Segments"
	GroupAudio        Group = "Audio"
	GroupDeliverables Group = "Deliverables"
	GroupMisc         Group = "Misc"
)

// String implements fmt.Stringer.
func (g Group) String() string { return string(g) }

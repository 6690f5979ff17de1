package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := Parse("primary-footage")
	require.NoError(t, err)
	assert.Equal(t, PrimaryFootage, c)

	_, err = Parse("selfie")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}

func TestValidCoversAll(t *testing.T) {
	for _, c := range All {
		assert.True(t, c.Valid(), "category %q", c)
	}
	assert.False(t, Category("bogus").Valid())
}

func TestTag(t *testing.T) {
	tags := map[Category]string{
		PrimaryFootage:       "raw",
		SupplementaryFootage: "broll",
		Hook:                 "hook",
		Body:                 "body",
		CallToAction:         "cta",
		AudioClip:            "audio",
		EditedVideo:          "edit",
		FinalVideo:           "final",
		Other:                "file",
	}
	for c, want := range tags {
		assert.Equal(t, want, c.Tag(), "category %q", c)
	}
}

func TestGroup(t *testing.T) {
	assert.Equal(t, GroupFootage, PrimaryFootage.Group())
	assert.Equal(t, GroupFootage, SupplementaryFootage.Group())
	assert.Equal(t, GroupSegments, Hook.Group())
	assert.Equal(t, GroupSegments, Body.Group())
	assert.Equal(t, GroupSegments, CallToAction.Group())
	assert.Equal(t, GroupAudio, AudioClip.Group())
	assert.Equal(t, GroupDeliverables, EditedVideo.Group())
	assert.Equal(t, GroupDeliverables, FinalVideo.Group())
	assert.Equal(t, GroupMisc, Other.Group())
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrengthPercent(t *testing.T) {
	cases := []struct {
		progress int
		want     int
	}{
		{1, 14},
		{2, 29},
		{3, 43},
		{4, 57},
		{5, 71},
		{6, 86},
		{7, 100},
	}
	for _, tc := range cases {
		p := &PartnerProfile{Progress: tc.progress}
		assert.Equal(t, tc.want, p.StrengthPercent(), "progress %d", tc.progress)
	}
}

func TestStepUnlocked(t *testing.T) {
	p := &PartnerProfile{Progress: 3}

	assert.True(t, p.StepUnlocked(1))
	assert.True(t, p.StepUnlocked(3))
	assert.True(t, p.StepUnlocked(4), "the next step is unlocked")
	assert.False(t, p.StepUnlocked(5), "steps past the next are locked")
	assert.False(t, p.StepUnlocked(0))
	assert.False(t, p.StepUnlocked(8))
}

func TestStep7Unlocked(t *testing.T) {
	assert.False(t, (&PartnerProfile{Progress: 5}).Step7Unlocked())
	assert.True(t, (&PartnerProfile{Progress: 6}).Step7Unlocked())
	assert.True(t, (&PartnerProfile{Progress: 7}).Step7Unlocked())
}

func TestRoadmap(t *testing.T) {
	p := &PartnerProfile{Progress: 2}
	steps := p.Roadmap()
	require.Len(t, steps, TotalSteps)

	assert.Equal(t, "Create your partner account", steps[0].Label)
	assert.True(t, steps[0].Done)
	assert.True(t, steps[0].AutoDone)

	assert.True(t, steps[1].Done)
	assert.False(t, steps[2].Done)
	assert.True(t, steps[2].Unlocked)
	assert.False(t, steps[3].Unlocked)

	assert.Equal(t, "Upload City License to go LIVE", steps[6].Label)
	assert.False(t, steps[6].AutoDone)
}

func TestAllowedLicenseExtension(t *testing.T) {
	assert.True(t, AllowedLicenseExtension("license.pdf"))
	assert.True(t, AllowedLicenseExtension("SCAN.JPEG"))
	assert.True(t, AllowedLicenseExtension("photo.webp"))
	assert.False(t, AllowedLicenseExtension("archive.zip"))
	assert.False(t, AllowedLicenseExtension("noextension"))
	assert.False(t, AllowedLicenseExtension("script.pdf.exe"))
}

package models

import (
	"math"
	"path/filepath"
	"strings"
	"time"
)

// TotalSteps is the fixed length of the onboarding roadmap.
const TotalSteps = 7

// allowedLicenseExtensions is the allow-list for verification documents.
var allowedLicenseExtensions = map[string]struct{}{
	".pdf":  {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
}

// AllowedLicenseExtension reports whether the filename carries an accepted
// verification-document extension. Matching is case-insensitive.
func AllowedLicenseExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := allowedLicenseExtensions[ext]
	return ok
}

// PartnerProfile is a partner's onboarding state. Progress counts completed
// roadmap steps and never decreases; Verified is true exactly when all seven
// steps are done.
type PartnerProfile struct {
	Email        string    `json:"email"`
	BusinessName string    `json:"business_name"`
	DisplayName  string    `json:"display_name"`
	Progress     int       `json:"progress"`
	Verified     bool      `json:"is_verified"`
	LicenseRef   string    `json:"license_ref,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// StrengthPercent is the profile-strength gauge shown on the dashboard,
// rounded to the nearest whole percent.
func (p *PartnerProfile) StrengthPercent() int {
	return int(math.Round(float64(p.Progress) / TotalSteps * 100))
}

// StepUnlocked reports whether the given roadmap step may be acted on:
// every completed step plus the single next one.
func (p *PartnerProfile) StepUnlocked(ordinal int) bool {
	if ordinal < 1 || ordinal > TotalSteps {
		return false
	}
	return ordinal <= p.Progress+1
}

// Step7Unlocked reports whether the final verification step is reachable,
// which requires all six preceding steps to be done.
func (p *PartnerProfile) Step7Unlocked() bool {
	return p.Progress >= TotalSteps-1
}

// Step is one entry of the rendered roadmap.
type Step struct {
	Ordinal  int    `json:"ordinal"`
	Label    string `json:"label"`
	Done     bool   `json:"done"`
	Unlocked bool   `json:"unlocked"`
	AutoDone bool   `json:"auto_done"`
}

var stepLabels = [TotalSteps]string{
	"Create your partner account",
	"Complete your business profile",
	"Add business description & category",
	"Confirm contact details",
	"Review sustainability commitment",
	"Accept terms and conditions",
	"Upload City License to go LIVE",
}

// Roadmap renders the fixed seven-step roadmap against the current progress.
// Step 1 is completed by account creation; step 7 is completed only by the
// verification transition, never by marking it done.
func (p *PartnerProfile) Roadmap() []Step {
	steps := make([]Step, 0, TotalSteps)
	for i, label := range stepLabels {
		ordinal := i + 1
		steps = append(steps, Step{
			Ordinal:  ordinal,
			Label:    label,
			Done:     ordinal <= p.Progress,
			Unlocked: p.StepUnlocked(ordinal),
			AutoDone: ordinal == 1,
		})
	}
	return steps
}

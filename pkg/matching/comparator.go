// Package matching implements the similarity-based pairing of claims and
// identifications: a weighted multi-field comparator over the cosine scorer,
// and the engine that runs a matching pass whenever either side changes.
package matching

import (
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/similarity"
)

// Field weights and the acceptance threshold are calibrated constants, not
// formulas: the threshold was tuned so a near-exact name match alone still
// passes with no course or date signal (0.60 at a nominal 0.90 discount).
// Keep the literals as they are.
const (
	NameWeight   = 0.60
	CourseWeight = 0.25
	DateWeight   = 0.15

	// DateBonus is granted on exact equality of the applicable date fields,
	// worth half the full temporal weight.
	DateBonus = DateWeight / 2

	// Threshold is the minimum combined score for a pair to be recorded.
	Threshold = 0.54
)

// Score combines the per-field similarities of a (claim, identification)
// pair into one weighted total in [0, 1].
func Score(claim *models.Claim, idt *models.Identification) float64 {
	score := similarity.Cosine(claim.Name, idt.Name) * NameWeight

	course := ""
	if claim.Course != nil {
		course = *claim.Course
	}
	score += similarity.Cosine(course, idt.Course) * CourseWeight

	if timeBonus(claim, idt) {
		score += DateBonus
	}

	return score
}

// IsMatch reports whether the pair scores at or above the acceptance
// threshold.
func IsMatch(claim *models.Claim, idt *models.Identification) bool {
	return Score(claim, idt) >= Threshold
}

// timeBonus checks a single temporal signal: entry year against the card's
// valid-from year, or failing availability of either, graduation year against
// valid-till. The two checks are mutually exclusive; the first one with both
// fields present wins.
func timeBonus(claim *models.Claim, idt *models.Identification) bool {
	if claim.EntryYear != nil && idt.ValidFrom != nil {
		return *claim.EntryYear == idt.ValidFrom.Year()
	}
	if claim.GraduationYear != nil && idt.ValidTill != nil {
		return *claim.GraduationYear == idt.ValidTill.Year()
	}
	return false
}

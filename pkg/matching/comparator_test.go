package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func strPtr(s string) *string    { return &s }
func intPtr(i int) *int          { return &i }
func timePtr(t time.Time) *time.Time { return &t }

func TestScore(t *testing.T) {
	validFrom := time.Date(2022, 9, 1, 0, 0, 0, 0, time.UTC)
	validTill := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		claim    models.Claim
		idt      models.Identification
		expected float64
	}{
		{
			name: "exact name and course with matching entry year",
			claim: models.Claim{
				Name:      "Jane Doe",
				Course:    strPtr("Computer Science"),
				EntryYear: intPtr(2022),
			},
			idt: models.Identification{
				Name:      "Jane Doe",
				Course:    "Computer Science",
				ValidFrom: timePtr(validFrom),
			},
			expected: 0.925,
		},
		{
			name: "exact name and course, no temporal data",
			claim: models.Claim{
				Name:   "Jane Doe",
				Course: strPtr("Computer Science"),
			},
			idt: models.Identification{
				Name:   "Jane Doe",
				Course: "Computer Science",
			},
			expected: 0.85,
		},
		{
			name: "similar name with exact course",
			claim: models.Claim{
				Name:   "Jane Doe",
				Course: strPtr("Computer Science"),
			},
			idt: models.Identification{
				Name:   "John Doe",
				Course: "Computer Science",
			},
			expected: 7.0/9.0*0.60 + 0.25,
		},
		{
			name: "missing claim course contributes nothing",
			claim: models.Claim{
				Name: "Jane Doe",
			},
			idt: models.Identification{
				Name:   "Jane Doe",
				Course: "Computer Science",
			},
			expected: 0.60,
		},
		{
			name: "graduation year used when entry year absent",
			claim: models.Claim{
				Name:           "Jane Doe",
				GraduationYear: intPtr(2026),
			},
			idt: models.Identification{
				Name:      "Jane Doe",
				ValidTill: timePtr(validTill),
			},
			expected: 0.675,
		},
		{
			name: "mismatched entry year gets no bonus",
			claim: models.Claim{
				Name:      "Jane Doe",
				EntryYear: intPtr(2020),
			},
			idt: models.Identification{
				Name:      "Jane Doe",
				ValidFrom: timePtr(validFrom),
			},
			expected: 0.60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Score(&tt.claim, &tt.idt), 1e-9)
		})
	}
}

func TestTimeBonusExclusivity(t *testing.T) {
	validFrom := time.Date(2022, 9, 1, 0, 0, 0, 0, time.UTC)
	validTill := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	// Entry year is checked first; when both fields are present on both
	// sides, a wrong entry year loses the bonus even though the graduation
	// year would have matched.
	claim := models.Claim{
		Name:           "Jane Doe",
		EntryYear:      intPtr(2020),
		GraduationYear: intPtr(2026),
	}
	idt := models.Identification{
		Name:      "Jane Doe",
		ValidFrom: timePtr(validFrom),
		ValidTill: timePtr(validTill),
	}

	assert.InDelta(t, 0.60, Score(&claim, &idt), 1e-9)
}

func TestIsMatch(t *testing.T) {
	t.Run("exact name alone passes", func(t *testing.T) {
		claim := models.Claim{Name: "Jane Doe"}
		idt := models.Identification{Name: "Jane Doe", Course: "Computer Science"}
		assert.True(t, IsMatch(&claim, &idt))
	})

	t.Run("weak name without course fails", func(t *testing.T) {
		claim := models.Claim{Name: "Bob Xi"}
		idt := models.Identification{Name: "Jane Doe", Course: "Computer Science"}
		assert.False(t, IsMatch(&claim, &idt))
	})

	t.Run("similar name needs the course signal", func(t *testing.T) {
		claim := models.Claim{Name: "Jane Doe"}
		idt := models.Identification{Name: "John Doe", Course: "Computer Science"}
		// 7/9 * 0.60 = 0.467, below threshold on its own.
		assert.False(t, IsMatch(&claim, &idt))

		claim.Course = strPtr("Computer Science")
		// 0.467 + 0.25 = 0.717, above threshold.
		assert.True(t, IsMatch(&claim, &idt))
	})
}

package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailMatchesInstitution(t *testing.T) {
	tests := []struct {
		name        string
		institution string
		email       string
		stripFiller bool
		expected    bool
	}{
		{
			name:        "institution word contained in domain",
			institution: "State College of Arts",
			email:       "jane@scarts.edu",
			expected:    true, // "arts" is a substring of "scarts"
		},
		{
			name:        "initials match a subdomain label",
			institution: "State College Arts",
			email:       "jane@mail.sca.edu",
			expected:    true,
		},
		{
			name:        "initials with filler word stripped",
			institution: "University of Lagos",
			email:       "jane@ul.edu",
			stripFiller: true,
			expected:    true,
		},
		{
			name:        "unrelated domain",
			institution: "State College of Arts",
			email:       "jane@gmail.com",
			expected:    false,
		},
		{
			name:        "no at sign",
			institution: "State College of Arts",
			email:       "jane.scarts.edu",
			expected:    false,
		},
		{
			name:        "empty domain after at sign",
			institution: "State College of Arts",
			email:       "jane@",
			expected:    false,
		},
		{
			name:        "case folded before comparison",
			institution: "State College of Arts",
			email:       "JANE@SCARTS.EDU",
			expected:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EmailMatchesInstitution(tt.institution, tt.email, tt.stripFiller))
		})
	}
}

func TestEmailMatchesInstitutionInitialsBoundary(t *testing.T) {
	// With filler stripping, initials "sca" against the single label "scaxy"
	// score 3/(sqrt(3)*sqrt(5)) ~ 0.775, just over the 0.75 cutoff; against
	// "scwxyz" they score 2/(sqrt(3)*sqrt(6)) ~ 0.47 and fail.
	assert.True(t, EmailMatchesInstitution("Sigma Chi Alpha", "jane@scaxy.edu", false))
	assert.False(t, EmailMatchesInstitution("Sigma Chi Alpha", "jane@scwxyz.edu", false))
}

func TestEmailMatchesInstitutionSingleVsMultiLabel(t *testing.T) {
	// With more than one label after dropping the TLD, each label is scored
	// on its own and the best one decides. "mail" fails but "sca" hits 1.0.
	assert.True(t, EmailMatchesInstitution("Sigma Chi Alpha", "jane@mail.sca.edu", false))

	// With one label the comparison runs against the label itself.
	assert.True(t, EmailMatchesInstitution("Sigma Chi Alpha", "jane@sca.edu", false))
}

package models

import (
	"time"
)

// Claim is a user's description of an identification they lost. It is the
// standing search query matched against newly posted identifications. A user
// holds at most one claim.
type Claim struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Name           string    `json:"name" db:"name"`
	Course         *string   `json:"course,omitempty" db:"course"`
	EntryYear      *int      `json:"entry_year,omitempty" db:"entry_year"`
	GraduationYear *int      `json:"graduation_year,omitempty" db:"graduation_year"`
	Institution    string    `json:"institution" db:"institution"`
	CampusLocation *string   `json:"campus_location,omitempty" db:"campus_location"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// CreateClaimRequest is the request to register a lost-identification claim
type CreateClaimRequest struct {
	Name           string  `json:"name" validate:"required,min=3,max=255"`
	Course         *string `json:"course,omitempty" validate:"omitempty,min=3,max=255"`
	EntryYear      *int    `json:"entry_year,omitempty" validate:"omitempty,gte=1900,lte=2200"`
	GraduationYear *int    `json:"graduation_year,omitempty" validate:"omitempty,gte=1900,lte=2200"`
	Institution    string  `json:"institution" validate:"required,min=3,max=255"`
	CampusLocation *string `json:"campus_location,omitempty" validate:"omitempty,max=255"`
}

// UpdateClaimRequest is a partial update to a claim. Nil fields are untouched.
type UpdateClaimRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Course         *string `json:"course,omitempty" validate:"omitempty,min=3,max=255"`
	EntryYear      *int    `json:"entry_year,omitempty" validate:"omitempty,gte=1900,lte=2200"`
	GraduationYear *int    `json:"graduation_year,omitempty" validate:"omitempty,gte=1900,lte=2200"`
	Institution    *string `json:"institution,omitempty" validate:"omitempty,min=3,max=255"`
	CampusLocation *string `json:"campus_location,omitempty" validate:"omitempty,max=255"`
}

// Apply copies the non-nil patch fields onto the claim
func (r *UpdateClaimRequest) Apply(claim *Claim) {
	if r.Name != nil {
		claim.Name = *r.Name
	}
	if r.Course != nil {
		claim.Course = r.Course
	}
	if r.EntryYear != nil {
		claim.EntryYear = r.EntryYear
	}
	if r.GraduationYear != nil {
		claim.GraduationYear = r.GraduationYear
	}
	if r.Institution != nil {
		claim.Institution = *r.Institution
	}
	if r.CampusLocation != nil {
		claim.CampusLocation = r.CampusLocation
	}
}

// ClaimsStrictEqual reports whether two claims describe the same lost card.
// Duplicate-submission predicate: optional fields match when both are absent
// or both carry the same value. A one-sided absence is non-matching, never a
// wildcard.
func ClaimsStrictEqual(a, b *Claim) bool {
	return a.Name == b.Name &&
		a.Institution == b.Institution &&
		intsEqual(a.EntryYear, b.EntryYear) &&
		intsEqual(a.GraduationYear, b.GraduationYear) &&
		stringsEqual(a.CampusLocation, b.CampusLocation) &&
		stringsEqual(a.Course, b.Course)
}

func intsEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

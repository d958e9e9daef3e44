package models

import (
	"time"
)

// Identification represents a found physical ID card posted to the registry.
// An Identification whose IsFound flag is true has been collected by its owner
// and is excluded from any further matching.
type Identification struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Course       string     `json:"course" db:"course"`
	ValidFrom    *time.Time `json:"valid_from,omitempty" db:"valid_from"`
	ValidTill    *time.Time `json:"valid_till,omitempty" db:"valid_till"`
	Institution  string     `json:"institution" db:"institution"`
	Campus       string     `json:"campus" db:"campus"`
	LocationName string     `json:"location_name" db:"location_name"`
	LocationLat  *float64   `json:"location_lat,omitempty" db:"location_lat"`
	LocationLon  *float64   `json:"location_lon,omitempty" db:"location_lon"`
	Picture      *string    `json:"picture,omitempty" db:"picture"`
	PostedBy     *string    `json:"posted_by,omitempty" db:"posted_by"`
	Owner        *string    `json:"owner,omitempty" db:"owner"`
	IsFound      bool       `json:"is_found" db:"is_found"`
	About        *string    `json:"about,omitempty" db:"about"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateIdentificationRequest is the request to post a new found identification
type CreateIdentificationRequest struct {
	Name         string     `json:"name" validate:"required,min=3,max=255"`
	Course       string     `json:"course" validate:"required,min=3,max=255"`
	ValidFrom    *time.Time `json:"valid_from,omitempty"`
	ValidTill    *time.Time `json:"valid_till,omitempty"`
	Institution  string     `json:"institution" validate:"required,min=3,max=255"`
	Campus       string     `json:"campus" validate:"omitempty,max=255"`
	LocationName string     `json:"location_name" validate:"required,location_name"`
	LocationLat  *float64   `json:"location_lat,omitempty"`
	LocationLon  *float64   `json:"location_lon,omitempty"`
	Picture      *string    `json:"picture,omitempty"`
	About        *string    `json:"about,omitempty"`
}

// UpdateIdentificationRequest is a partial update to an identification.
// Nil fields are left untouched.
type UpdateIdentificationRequest struct {
	Name         *string    `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Course       *string    `json:"course,omitempty" validate:"omitempty,min=3,max=255"`
	ValidFrom    *time.Time `json:"valid_from,omitempty"`
	ValidTill    *time.Time `json:"valid_till,omitempty"`
	Institution  *string    `json:"institution,omitempty" validate:"omitempty,min=3,max=255"`
	Campus       *string    `json:"campus,omitempty" validate:"omitempty,max=255"`
	LocationName *string    `json:"location_name,omitempty" validate:"omitempty,location_name"`
	LocationLat  *float64   `json:"location_lat,omitempty"`
	LocationLon  *float64   `json:"location_lon,omitempty"`
	Picture      *string    `json:"picture,omitempty"`
	About        *string    `json:"about,omitempty"`
}

// Apply copies the non-nil patch fields onto the identification
func (r *UpdateIdentificationRequest) Apply(idt *Identification) {
	if r.Name != nil {
		idt.Name = *r.Name
	}
	if r.Course != nil {
		idt.Course = *r.Course
	}
	if r.ValidFrom != nil {
		idt.ValidFrom = r.ValidFrom
	}
	if r.ValidTill != nil {
		idt.ValidTill = r.ValidTill
	}
	if r.Institution != nil {
		idt.Institution = *r.Institution
	}
	if r.Campus != nil {
		idt.Campus = *r.Campus
	}
	if r.LocationName != nil {
		idt.LocationName = *r.LocationName
	}
	if r.LocationLat != nil {
		idt.LocationLat = r.LocationLat
	}
	if r.LocationLon != nil {
		idt.LocationLon = r.LocationLon
	}
	if r.Picture != nil {
		idt.Picture = r.Picture
	}
	if r.About != nil {
		idt.About = r.About
	}
}

// IdentificationsStrictEqual reports whether two identifications describe the
// same physical card. This is the duplicate-submission predicate: a fixed,
// explicit field list, distinct from the similarity comparator. The field list
// is kept visible here so "which fields count" never hides behind an equality
// operator.
func IdentificationsStrictEqual(a, b *Identification) bool {
	return a.Name == b.Name &&
		a.Course == b.Course &&
		timesEqual(a.ValidFrom, b.ValidFrom) &&
		timesEqual(a.ValidTill, b.ValidTill) &&
		a.Institution == b.Institution &&
		a.Campus == b.Campus &&
		a.LocationName == b.LocationName &&
		floatsEqual(a.LocationLat, b.LocationLat) &&
		floatsEqual(a.LocationLon, b.LocationLon) &&
		stringsEqual(a.PostedBy, b.PostedBy)
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func floatsEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func stringsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// IdentificationFilter selects which identifications a listing returns
type IdentificationFilter string

const (
	IdentificationFilterAll     IdentificationFilter = "all"
	IdentificationFilterMissing IdentificationFilter = "missing"
	IdentificationFilterFound   IdentificationFilter = "found"
)

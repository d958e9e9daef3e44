package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocationNameTag(t *testing.T) {
	v := New()

	type payload struct {
		LocationName string `validate:"location_name"`
	}

	valid := []string{"Library", "Main Hall 2", "Block-B", "east_wing", "Cafe `Roma`"}
	for _, s := range valid {
		assert.NoError(t, v.Struct(payload{LocationName: s}), s)
	}

	invalid := []string{"", "Library!", "front@desk", "salle d'attente"}
	for _, s := range invalid {
		assert.Error(t, v.Struct(payload{LocationName: s}), s)
	}
}

func TestAlphaSpaceTag(t *testing.T) {
	v := New()

	type payload struct {
		Name string `validate:"alpha_space"`
	}

	assert.NoError(t, v.Struct(payload{Name: "Jane Doe"}))
	assert.Error(t, v.Struct(payload{Name: "Jane Doe 2"}))
	assert.Error(t, v.Struct(payload{Name: ""}))
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string   `json:"name" validate:"required,max=5"`
	Rating int      `json:"rating" validate:"min=1,max=5"`
	Links  []string `json:"links" validate:"max=2,dive,url"`
	Kind   string   `json:"kind" validate:"omitempty,oneof=a b"`
	Secret string   `json:"-" validate:"omitempty,email"`
}

func TestValidateStruct(t *testing.T) {
	assert.Nil(t, ValidateStruct(sample{Name: "ok", Rating: 3, Links: []string{"https://example.com"}}))

	fields := ValidateStruct(sample{
		Name:   "",
		Rating: 9,
		Links:  []string{"https://example.com", "nope"},
		Kind:   "c",
	})
	require.Len(t, fields, 4)

	byField := map[string]string{}
	for _, f := range fields {
		byField[f.Field] = f.Message
	}
	assert.Equal(t, "name is required", byField["name"])
	assert.Equal(t, "rating must be at most 5", byField["rating"])
	assert.Equal(t, "links[1] must be a valid URL", byField["links[1]"])
	assert.Equal(t, "kind must be one of the following values: a b", byField["kind"])
}

func TestValidateStructLengthMessages(t *testing.T) {
	fields := ValidateStruct(sample{Name: "too long", Rating: 1, Links: []string{"https://a.io", "https://b.io", "https://c.io"}})
	require.Len(t, fields, 2)
	assert.Equal(t, "name must be at most 5 characters long", fields[0].Message)
	assert.Equal(t, "links must contain at most 2 items", fields[1].Message)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "trim me", SanitizeString("  trim me \n"))
}

func TestGenerateRandomString(t *testing.T) {
	a, err := GenerateRandomString(16)
	require.NoError(t, err)
	b, err := GenerateRandomString(16)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

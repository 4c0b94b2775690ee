package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidLocale(t *testing.T) {
	for _, l := range Locales {
		assert.True(t, IsValidLocale(string(l)), l)
	}
	assert.False(t, IsValidLocale("de"))
	assert.False(t, IsValidLocale("EN"))
	assert.False(t, IsValidLocale(""))
}

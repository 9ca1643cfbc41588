package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBody(t *testing.T) {
	body, ok := ValidateBody("  hello there  ")
	assert.True(t, ok)
	assert.Equal(t, "hello there", body)

	_, ok = ValidateBody("   \t\n")
	assert.False(t, ok)

	_, ok = ValidateBody(strings.Repeat("x", MaxBodyBytes+1))
	assert.False(t, ok)

	_, ok = ValidateBody(string([]byte{0xff, 0xfe}))
	assert.False(t, ok)
}

func TestGetDayBefore(t *testing.T) {
	d0 := GetDayBefore(0)
	d30 := GetDayBefore(30)
	assert.True(t, d30.Before(d0))

	// Midnight boundary.
	assert.Equal(t, 0, d30.Hour())
	assert.Equal(t, 0, d30.Minute())
}

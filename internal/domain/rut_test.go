package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRUT(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12.345.678-5", "12.345.678-5"},
		{"12345678-5", "12.345.678-5"},
		{" 12345678-5 ", "12.345.678-5"},
		{"7775577-2", "07.775.577-2"},
		{"1300000-k", "01.300.000-K"},
		{"12.345.678–5", "12.345.678-5"}, // en-dash input
	}

	for _, tc := range cases {
		got, err := NormalizeRUT(tc.in)
		assert.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalizeRUT_Malformed(t *testing.T) {
	for _, in := range []string{"", "garbage", "123-4", "12.345.678", "123456789-5"} {
		_, err := NormalizeRUT(in)
		assert.ErrorIs(t, err, ErrInvalidRUT, in)
	}
}

func TestIsValidRUT(t *testing.T) {
	assert.True(t, IsValidRUT("12.345.678-5"))
	assert.True(t, IsValidRUT("12345678-5"))
	assert.True(t, IsValidRUT("7775577-2"))
	assert.True(t, IsValidRUT("1300000-K"))
	assert.True(t, IsValidRUT("1300000-k"))

	// wrong verifier digit
	assert.False(t, IsValidRUT("12.345.678-4"))
	assert.False(t, IsValidRUT("7775577-9"))
	// unparseable
	assert.False(t, IsValidRUT("not-a-rut"))
}

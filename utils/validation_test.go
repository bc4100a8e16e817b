package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+919876543210"))
	assert.True(t, ValidatePhone("9876543210"))
	assert.True(t, ValidatePhone("+91 98765 43210"))
	assert.True(t, ValidatePhone("(91) 98765-43210"))

	assert.False(t, ValidatePhone(""))
	assert.False(t, ValidatePhone("0123456789"))
	assert.False(t, ValidatePhone("abc123"))
	assert.False(t, ValidatePhone("+12345678901234567890"))
}

func TestValidatePan(t *testing.T) {
	assert.True(t, ValidatePan("ABCDE1234F"))
	assert.True(t, ValidatePan("abcde1234f"))
	assert.True(t, ValidatePan(" ABCDE1234F "))

	assert.False(t, ValidatePan(""))
	assert.False(t, ValidatePan("ABCDE12345"))
	assert.False(t, ValidatePan("ABCD1234F"))
	assert.False(t, ValidatePan("ABCDE1234FX"))
}

func TestValidateGstin(t *testing.T) {
	assert.True(t, ValidateGstin("27ABCDE1234F1Z5"))
	assert.True(t, ValidateGstin("27abcde1234f1z5"))

	assert.False(t, ValidateGstin(""))
	assert.False(t, ValidateGstin("27ABCDE1234F1X5"))
	assert.False(t, ValidateGstin("ABCDE1234F"))
	assert.False(t, ValidateGstin("272ABCDE1234F1Z5"))
}

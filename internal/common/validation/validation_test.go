package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{"rm@example.com", "first.last@bank.co.in", "a+tag@domain.io"}
	for _, email := range valid {
		assert.True(t, ValidateEmail(email), email)
	}

	invalid := []string{"", "no-at-sign", "missing@domain", "@example.com", "spaces in@example.com"}
	for _, email := range invalid {
		assert.False(t, ValidateEmail(email), email)
	}
}

func TestValidateMobile(t *testing.T) {
	assert.True(t, ValidateMobile("9876543210"))
	assert.True(t, ValidateMobile("6000000000"))

	invalid := []string{"", "1234567890", "987654321", "98765432101", "98765abcde"}
	for _, mobile := range invalid {
		assert.False(t, ValidateMobile(mobile), mobile)
	}
}

func TestValidateOTP(t *testing.T) {
	assert.True(t, ValidateOTP("342286"))
	assert.True(t, ValidateOTP("000000"))

	invalid := []string{"", "12345", "1234567", "12ab56"}
	for _, otp := range invalid {
		assert.False(t, ValidateOTP(otp), otp)
	}
}

func TestValidatePAN(t *testing.T) {
	assert.True(t, ValidatePAN("ABCDE1234F"))
	assert.False(t, ValidatePAN("abcde1234f"))
	assert.False(t, ValidatePAN("ABCD1234F"))
}

func TestValidateRecordEmptySchemaPasses(t *testing.T) {
	result, err := ValidateRecord(map[string]interface{}{"anything": 1}, "")
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidateRecordReportsFieldErrors(t *testing.T) {
	schema := `{
		"type": "object",
		"required": ["loanAmount"],
		"properties": {
			"loanAmount": {"type": "number", "exclusiveMinimum": 0}
		}
	}`

	result, err := ValidateRecord(map[string]interface{}{"loanAmount": 0}, schema)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Summary())

	result, err = ValidateRecord(map[string]interface{}{}, schema)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	result, err = ValidateRecord(map[string]interface{}{"loanAmount": 500000}, schema)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

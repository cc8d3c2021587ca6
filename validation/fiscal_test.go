package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateVATNumber(t *testing.T) {
	tests := []struct {
		name  string
		value any
		valid bool
		code  Code
	}{
		{"valid checksum", "12345678903", true, ""},
		{"wrong check digit", "12345678901", false, CodeInvalidVATChecksum},
		{"too short", "1234567890", false, CodeInvalidFormat},
		{"too long", "123456789012", false, CodeInvalidFormat},
		{"non-digit charset", "1234567890a", false, CodeInvalidFormat},
		{"empty", "", false, CodeInvalidFormat},
		{"non-string input", 12345678903, false, CodeInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateVATNumber(tt.value)
			assert.Equal(t, tt.valid, res.Valid)
			if !tt.valid {
				require.Len(t, res.Errors, 1)
				assert.Equal(t, tt.code, res.Errors[0].Code)
			}
		})
	}
}

func TestValidateVATNumber_ChecksumZeroMapsToZero(t *testing.T) {
	// 00000000000: digit sums are all zero, so the complement of 0 is 0 and
	// the check digit 0 is accepted.
	res := ValidateVATNumber("00000000000")
	assert.True(t, res.Valid)
}

func TestValidatePostalCode(t *testing.T) {
	tests := []struct {
		name  string
		value any
		valid bool
		code  Code
	}{
		{"valid", "00100", true, ""},
		{"too short", "0010", false, CodeInvalidFormat},
		{"too long", "001000", false, CodeInvalidFormat},
		{"letters", "0010A", false, CodeInvalidFormat},
		{"non-string", 100, false, CodeInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidatePostalCode(tt.value)
			assert.Equal(t, tt.valid, res.Valid)
			if !tt.valid {
				require.Len(t, res.Errors, 1)
				assert.Equal(t, tt.code, res.Errors[0].Code)
			}
		})
	}
}

func TestValidateProvinceCode(t *testing.T) {
	t.Run("known province", func(t *testing.T) {
		res := ValidateProvinceCode("RM")
		assert.True(t, res.Valid)
		assert.Empty(t, res.Warnings)
		assert.Empty(t, res.Errors)
	})

	t.Run("unknown but well-formed is a warning, never an error", func(t *testing.T) {
		res := ValidateProvinceCode("ZZ")
		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, CodeUnknownProvinceCode, res.Warnings[0].Code)
		assert.Equal(t, SeverityWarning, res.Warnings[0].Severity)
	})

	t.Run("lowercase is malformed", func(t *testing.T) {
		res := ValidateProvinceCode("rm")
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, CodeInvalidFormat, res.Errors[0].Code)
	})

	t.Run("wrong length", func(t *testing.T) {
		res := ValidateProvinceCode("ROM")
		assert.False(t, res.Valid)
	})

	t.Run("non-string", func(t *testing.T) {
		res := ValidateProvinceCode(42)
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, CodeInvalidType, res.Errors[0].Code)
	})
}

func TestProvinceAllowListSize(t *testing.T) {
	assert.Len(t, knownProvinceCodes, 110)
}

func TestBrandValidators(t *testing.T) {
	t.Run("amount", func(t *testing.T) {
		assert.True(t, IsAmount("12.50"))
		assert.True(t, IsAmount("-3.00"))
		assert.False(t, IsAmount("12.5"))
		assert.False(t, IsAmount("12"))
		assert.False(t, IsAmount(12.50))
	})

	t.Run("quantity", func(t *testing.T) {
		assert.True(t, IsQuantity("1"))
		assert.True(t, IsQuantity("2.125"))
		assert.True(t, IsQuantity("0.00000001"))
		assert.False(t, IsQuantity("-1"))
		assert.False(t, IsQuantity("1.123456789"))
		assert.False(t, IsQuantity(1))
	})

	t.Run("serial number", func(t *testing.T) {
		assert.True(t, IsSerialNumber("PEM-001234"))
		assert.False(t, IsSerialNumber("x"))
		assert.False(t, IsSerialNumber("-starts-with-hyphen"))
	})
}

func TestAsCustom(t *testing.T) {
	schema := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"vat_number": {Type: TypeCustom, Required: true, CustomValidation: AsCustom(ValidateVATNumber)},
		},
	}

	res := Validate(map[string]any{"vat_number": "12345678901"}, schema, nil)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeInvalidVATChecksum, res.Errors[0].Code)
	assert.Equal(t, "vat_number", res.Errors[0].Field, "issue is re-rooted at the schema field")
}

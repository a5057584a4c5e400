package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ballotbox/pkg/domain-errors"
)

func TestParseDocumentNumber(t *testing.T) {
	t.Run("strips separators and upper-cases", func(t *testing.T) {
		doc, err := ParseDocumentNumber(" 1234-5678 z ")
		require.NoError(t, err)
		assert.Equal(t, "12345678Z", doc)
	})

	t.Run("keeps leading zeros for the census to normalize", func(t *testing.T) {
		doc, err := ParseDocumentNumber("00012345678Z")
		require.NoError(t, err)
		assert.Equal(t, "00012345678Z", doc)
	})

	t.Run("rejects empty and malformed numbers", func(t *testing.T) {
		for _, input := range []string{"", "   ", "12", "1234567890123456789012", "1234$567"} {
			_, err := ParseDocumentNumber(input)
			require.Error(t, err, input)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})
}

func TestParseDocumentType(t *testing.T) {
	for _, valid := range []string{"1", "2", "3"} {
		dt, err := ParseDocumentType(valid)
		require.NoError(t, err)
		assert.Equal(t, DocumentType(valid), dt)
	}
	_, err := ParseDocumentType("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = ParseDocumentType("DNI")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestParsePostalCodeAndYear(t *testing.T) {
	pc, err := ParsePostalCode(" 28013 ")
	require.NoError(t, err)
	assert.Equal(t, "28013", pc)

	_, err = ParsePostalCode("2801")
	assert.Error(t, err)

	year, err := ParseYearOfBirth("1980", 2026)
	require.NoError(t, err)
	assert.Equal(t, 1980, year)

	for _, bad := range []string{"", "80", "1899", "2027", "19a0"} {
		_, err := ParseYearOfBirth(bad, 2026)
		assert.Error(t, err, bad)
	}
}

func TestMaskDocumentNumber(t *testing.T) {
	assert.Equal(t, "*****678Z", MaskDocumentNumber("12345678Z"))
	assert.Equal(t, "***", MaskDocumentNumber("12Z"))
	assert.Equal(t, "", MaskDocumentNumber(""))
}

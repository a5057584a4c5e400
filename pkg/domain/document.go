package domain

import (
	"regexp"
	"strconv"
	"strings"

	dErrors "ballotbox/pkg/domain-errors"
)

// DocumentType is the census code for an identity document.
type DocumentType string

const (
	DocumentTypeDNI           DocumentType = "1"
	DocumentTypePassport      DocumentType = "2"
	DocumentTypeResidenceCard DocumentType = "3"
)

var (
	documentNumberRe = regexp.MustCompile(`^[A-Z0-9]{4,20}$`)
	postalCodeRe     = regexp.MustCompile(`^[0-9]{5}$`)
)

// ParseDocumentType accepts only the census document codes.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.TrimSpace(s))
	switch t {
	case DocumentTypeDNI, DocumentTypePassport, DocumentTypeResidenceCard:
		return t, nil
	case "":
		return "", dErrors.New(dErrors.CodeValidation, "document_type is required")
	}
	return "", dErrors.New(dErrors.CodeValidation, "document_type must be one of 1, 2, 3")
}

// CleanDocumentNumber strips separators and upper-cases the input. It does
// not strip leading zeros: the census decides the canonical form.
func CleanDocumentNumber(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", ".", "").Replace(s)
}

// ParseDocumentNumber cleans and validates a user-supplied document number.
func ParseDocumentNumber(s string) (string, error) {
	cleaned := CleanDocumentNumber(s)
	if cleaned == "" {
		return "", dErrors.New(dErrors.CodeValidation, "document_number is required")
	}
	if !documentNumberRe.MatchString(cleaned) {
		return "", dErrors.New(dErrors.CodeValidation, "document_number must be 4-20 letters or digits")
	}
	return cleaned, nil
}

// ParsePostalCode validates a five-digit postal code.
func ParsePostalCode(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "postal_code is required")
	}
	if !postalCodeRe.MatchString(s) {
		return "", dErrors.New(dErrors.CodeValidation, "postal_code must be 5 digits")
	}
	return s, nil
}

// ParseYearOfBirth validates a four-digit year no later than currentYear.
func ParseYearOfBirth(s string, currentYear int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "year_of_birth is required")
	}
	year, err := strconv.Atoi(s)
	if err != nil || len(s) != 4 || year < 1900 || year > currentYear {
		return 0, dErrors.New(dErrors.CodeValidation, "year_of_birth must be a year between 1900 and "+strconv.Itoa(currentYear))
	}
	return year, nil
}

// MaskDocumentNumber keeps the last four characters, enough for an officer
// to recognise an attempt without storing the full number.
func MaskDocumentNumber(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Guest struct {
	ID        uuid.UUID
	Name      string
	Document  string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// NewGuest validates and normalizes the profile. Document is stored in
// canonical form so uniqueness holds regardless of input punctuation.
func NewGuest(name, document, email, phone string) (*Guest, error) {
	if strings.TrimSpace(name) == "" {
		return nil, Validationf("name is required")
	}
	if strings.TrimSpace(document) == "" {
		return nil, Validationf("document is required")
	}
	doc := NormalizeDocument(document)
	if !ValidDocument(doc) {
		return nil, Validationf("invalid document %q", document)
	}
	return &Guest{
		Name:      strings.TrimSpace(name),
		Document:  doc,
		Email:     strings.TrimSpace(email),
		Phone:     strings.TrimSpace(phone),
		CreatedAt: time.Now(),
	}, nil
}

var nonAlphanumeric = regexp.MustCompile(`[^0-9A-Za-z]`)

// NormalizeDocument strips punctuation (dots, dashes, slashes, spaces) and
// upper-cases the result.
func NormalizeDocument(document string) string {
	return strings.ToUpper(nonAlphanumeric.ReplaceAllString(document, ""))
}

var secondaryIDPattern = regexp.MustCompile(`^[0-9]{7}[0-9A-Z]$`)

// ValidDocument accepts either an 8-character secondary ID (seven digits
// plus a final digit or letter) or an 11-digit national ID whose two check
// digits verify. Expects the canonical form produced by NormalizeDocument.
func ValidDocument(document string) bool {
	switch len(document) {
	case 8:
		return secondaryIDPattern.MatchString(document)
	case 11:
		return validNationalID(document)
	}
	return false
}

// validNationalID runs the double mod-11 checksum. Sequences of a single
// repeated digit verify arithmetically but are reserved values, so they are
// rejected up front.
func validNationalID(document string) bool {
	repeated := true
	for i := 0; i < len(document); i++ {
		if document[i] < '0' || document[i] > '9' {
			return false
		}
		if document[i] != document[0] {
			repeated = false
		}
	}
	if repeated {
		return false
	}
	return int(document[9]-'0') == checkDigit(document[:9]) &&
		int(document[10]-'0') == checkDigit(document[:10])
}

// checkDigit weighs the preceding digits with descending factors starting
// at len+1 and folds the sum mod 11; remainders 0 and 1 map to digit 0.
func checkDigit(digits string) int {
	sum := 0
	weight := len(digits) + 1
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * (weight - i)
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

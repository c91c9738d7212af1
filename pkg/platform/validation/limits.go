package validation

import (
	"unicode/utf8"

	dErrors "clubid/pkg/domain-errors"
)

const (
	MaxEvidenceRefs      = 10
	MaxEvidenceRefLength = 2048
	MaxNotesLength       = 4000
	MaxFeedbackLength    = 2000
	MaxReasonLength      = 1000
	MaxScopeBytes        = 16 * 1024
	MaxJurisdiction      = 32
	MaxDocumentLength    = 64
)

// CheckSliceCount rejects more than max items.
func CheckSliceCount(field string, count, max int) error {
	if count <= max {
		return nil
	}
	return dErrors.Newf(dErrors.CodeValidation, "%s: at most %d items allowed, got %d", field, max, count)
}

// CheckStringLength counts characters, not bytes.
func CheckStringLength(field, value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return dErrors.Newf(dErrors.CodeValidation, "%s: at most %d characters allowed, got %d", field, max, n)
	}
	return nil
}

// CheckEachStringLength names the first offending index.
func CheckEachStringLength(field string, values []string, max int) error {
	for i, v := range values {
		if utf8.RuneCountInString(v) > max {
			return dErrors.Newf(dErrors.CodeValidation, "%s[%d]: at most %d characters allowed", field, i, max)
		}
	}
	return nil
}

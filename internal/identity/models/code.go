package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	dErrors "clubid/pkg/domain-errors"
)

// DefaultJurisdictionCode replaces jurisdictions that are empty or too short.
const DefaultJurisdictionCode = "0000"

const jurisdictionWidth = 4

var codePattern = regexp.MustCompile(`^(\d{2})\.(\d{4})\.(\d{4,})$`)

// IdentityCode is the human-readable NN.MMMM.SSSS code issued per role.
type IdentityCode string

func (c IdentityCode) String() string { return string(c) }

// Prefix returns the NN.MMMM. part that scopes the sequence.
func (c IdentityCode) Prefix() string {
	i := strings.LastIndexByte(string(c), '.')
	if i < 0 {
		return ""
	}
	return string(c[:i+1])
}

// Sequence returns the trailing counter.
func (c IdentityCode) Sequence() (int64, error) {
	m := codePattern.FindStringSubmatch(string(c))
	if m == nil {
		return 0, dErrors.Newf(dErrors.CodeValidation, "malformed identity code %q", string(c))
	}
	return strconv.ParseInt(m[3], 10, 64)
}

// FormatCode renders a code. Sequences are zero-padded to four digits.
func FormatCode(roleCode, jurisdictionCode string, seq int64) IdentityCode {
	return IdentityCode(fmt.Sprintf("%s%04d", CodePrefix(roleCode, jurisdictionCode), seq))
}

// CodePrefix is the counter key for a (role code, jurisdiction code) pair.
func CodePrefix(roleCode, jurisdictionCode string) string {
	return roleCode + "." + jurisdictionCode + "."
}

// NormalizeJurisdiction keeps the ASCII digits of raw, then pads with 0 or
// truncates to four. Fewer than two remaining digits yield 0000.
//
//	NormalizeJurisdiction("31.74")  // "3174"
//	NormalizeJurisdiction("32-7")   // "3270"
//	NormalizeJurisdiction("3")      // "0000"
func NormalizeJurisdiction(raw string) string {
	digits := make([]byte, 0, jurisdictionWidth)
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) < 2 {
		return DefaultJurisdictionCode
	}
	if len(digits) > jurisdictionWidth {
		digits = digits[:jurisdictionWidth]
	}
	for len(digits) < jurisdictionWidth {
		digits = append(digits, '0')
	}
	return string(digits)
}

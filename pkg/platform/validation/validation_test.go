package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "clubid/pkg/domain-errors"
)

type decideBody struct {
	Decision string `validate:"required,oneof=approved rejected"`
	Feedback string `validate:"max=10"`
	EntityID string `validate:"required,uuid"`
	Reason   string `validate:"notblank"`
}

func TestValidate(t *testing.T) {
	valid := decideBody{Decision: "approved", EntityID: "5d0c4d4e-8a55-4d2f-9f2c-5f35e3b4a1d2", Reason: "ok"}
	require.NoError(t, Validate(valid))

	cases := []struct {
		name   string
		mutate func(*decideBody)
		want   string
	}{
		{"required", func(b *decideBody) { b.Decision = "" }, "decision is required"},
		{"oneof", func(b *decideBody) { b.Decision = "maybe" }, "decision must be one of [approved rejected]"},
		{"max", func(b *decideBody) { b.Feedback = strings.Repeat("x", 11) }, "feedback must be at most 10"},
		{"uuid", func(b *decideBody) { b.EntityID = "club-1" }, "entity_id must be a valid uuid"},
		{"notblank", func(b *decideBody) { b.Reason = "   " }, "reason must not be blank"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := valid
			tc.mutate(&body)
			err := Validate(body)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestLimits(t *testing.T) {
	assert.NoError(t, CheckSliceCount("evidence_refs", 2, MaxEvidenceRefs))
	assert.Error(t, CheckSliceCount("evidence_refs", MaxEvidenceRefs+1, MaxEvidenceRefs))
	assert.Error(t, CheckStringLength("notes", strings.Repeat("n", MaxNotesLength+1), MaxNotesLength))
	assert.EqualError(t,
		CheckEachStringLength("evidence_refs", []string{"ok", strings.Repeat("u", MaxEvidenceRefLength+1)}, MaxEvidenceRefLength),
		"evidence_refs[1]: at most 2048 characters allowed")
	assert.NoError(t, CheckStringLength("jurisdiction", strings.Repeat("é", MaxJurisdiction), MaxJurisdiction))
}

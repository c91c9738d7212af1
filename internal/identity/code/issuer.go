// Package code issues identity codes of the form NN.MMMM.SSSS.
package code

import (
	"context"
	"log/slog"

	"clubid/internal/identity/models"
	dErrors "clubid/pkg/domain-errors"
)

// SequenceStore hands out the next value of a per-prefix counter. Concurrent
// calls for the same prefix must never return the same value. The Postgres
// store advances the counter inside the caller's transaction, so a rollback
// releases the value for the next caller. Stores outside a transaction, such
// as the in-memory one, keep the increment and leave a gap.
type SequenceStore interface {
	Next(ctx context.Context, prefix string) (int64, error)
}

// Issuer mints identity codes. It has no side effect besides advancing the
// counter; callers persist the code against a person.
type Issuer struct {
	sequences SequenceStore
	logger    *slog.Logger
}

type Option func(*Issuer)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Issuer) { i.logger = logger }
}

func NewIssuer(sequences SequenceStore, opts ...Option) *Issuer {
	i := &Issuer{sequences: sequences, logger: slog.Default()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue returns the next code for (role, jurisdiction). Unknown roles use the
// unassigned code and malformed jurisdictions degrade to 0000; only a counter
// store failure yields an error.
func (i *Issuer) Issue(ctx context.Context, role models.Role, jurisdiction string) (models.IdentityCode, error) {
	roleCode := role.Code()
	if roleCode == models.UnassignedRoleCode {
		i.logger.WarnContext(ctx, "issuing identity code for unrecognized role", "role", role)
	}
	jurisdictionCode := models.NormalizeJurisdiction(jurisdiction)
	prefix := models.CodePrefix(roleCode, jurisdictionCode)

	seq, err := i.sequences.Next(ctx, prefix)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to advance identity code sequence")
	}
	code := models.FormatCode(roleCode, jurisdictionCode, seq)
	i.logger.DebugContext(ctx, "identity code issued", "prefix", prefix, "sequence", seq)
	return code, nil
}

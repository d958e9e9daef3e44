package matching

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ClaimCandidateSource selects the claims worth comparing against a newly
// posted or updated identification: same institution, and same campus when
// the claim names one.
type ClaimCandidateSource interface {
	CandidatesForIdentification(ctx context.Context, idt *models.Identification) ([]models.Claim, error)
}

// IdentificationCandidateSource selects the unresolved identifications worth
// comparing against a new or updated claim.
type IdentificationCandidateSource interface {
	CandidatesForClaim(ctx context.Context, claim *models.Claim) ([]models.Identification, error)
}

// MatchRecorder persists an accepted pair. Record must be idempotent under
// the (claim, identification) uniqueness constraint: re-recording an existing
// pair returns inserted=false with no error. Two concurrent passes that
// discover the same pair race on insert, and this contract is what keeps
// that race harmless.
type MatchRecorder interface {
	Record(ctx context.Context, claimID, identificationID string) (*models.Match, bool, error)
}

// Notifier is told about genuinely new matches. Delivery is best effort and
// must never fail the matching pass.
type Notifier interface {
	MatchCreated(ctx context.Context, match *models.Match, claim *models.Claim, idt *models.Identification)
}

// Engine runs one matching pass per create or update of either record type.
// It holds no mutable state; passes for different records run concurrently.
type Engine struct {
	logger   ectologger.Logger
	claims   ClaimCandidateSource
	idts     IdentificationCandidateSource
	recorder MatchRecorder
	notifier Notifier
}

// NewEngine creates a new matching engine
func NewEngine(
	logger ectologger.Logger,
	claims ClaimCandidateSource,
	idts IdentificationCandidateSource,
	recorder MatchRecorder,
	notifier Notifier,
) *Engine {
	return &Engine{
		logger:   logger,
		claims:   claims,
		idts:     idts,
		recorder: recorder,
		notifier: notifier,
	}
}

// MatchIdentification scores every plausible claim against the
// identification and records the pairs that pass the threshold. Returns the
// number of newly recorded matches. Every candidate is scored; there is no
// early exit.
func (e *Engine) MatchIdentification(ctx context.Context, idt *models.Identification) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.MatchIdentification")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"identification_id": idt.ID,
		"institution":       idt.Institution,
	})

	candidates, err := e.claims.CandidatesForIdentification(ctx, idt)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := range candidates {
		claim := &candidates[i]
		if !IsMatch(claim, idt) {
			continue
		}
		inserted, err := e.record(ctx, claim, idt)
		if err != nil {
			return created, err
		}
		if inserted {
			created++
		}
	}

	tracing.AddSpanInt(ctx, "candidates", len(candidates))
	tracing.AddSpanInt(ctx, "new_matches", created)
	log.WithFields(map[string]any{"candidates": len(candidates), "new_matches": created}).Debug("Completed matching pass for identification")
	return created, nil
}

// MatchClaim is the symmetric pass for a new or updated claim.
func (e *Engine) MatchClaim(ctx context.Context, claim *models.Claim) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.MatchClaim")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"claim_id":    claim.ID,
		"institution": claim.Institution,
	})

	candidates, err := e.idts.CandidatesForClaim(ctx, claim)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := range candidates {
		idt := &candidates[i]
		if !IsMatch(claim, idt) {
			continue
		}
		inserted, err := e.record(ctx, claim, idt)
		if err != nil {
			return created, err
		}
		if inserted {
			created++
		}
	}

	tracing.AddSpanInt(ctx, "candidates", len(candidates))
	tracing.AddSpanInt(ctx, "new_matches", created)
	log.WithFields(map[string]any{"candidates": len(candidates), "new_matches": created}).Debug("Completed matching pass for claim")
	return created, nil
}

// record persists the pair and notifies only when the row is new. Re-detected
// pairs are a silent no-op per the recorder contract.
func (e *Engine) record(ctx context.Context, claim *models.Claim, idt *models.Identification) (bool, error) {
	match, inserted, err := e.recorder.Record(ctx, claim.ID, idt.ID)
	if err != nil {
		return false, err
	}
	if inserted && e.notifier != nil {
		e.notifier.MatchCreated(ctx, match, claim, idt)
	}
	return inserted, nil
}

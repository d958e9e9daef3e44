// Package lifecycle owns the state machine around identifications and claims:
// duplicate guards on create, the resolved/reopened transitions, ownership
// assignment, and the matching pass triggered by every create or update.
package lifecycle

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// IdentificationStore is the persistence surface the lifecycle needs for
// identifications.
type IdentificationStore interface {
	Create(ctx context.Context, idt *models.Identification) (*models.Identification, error)
	Get(ctx context.Context, id string) (*models.Identification, error)
	Update(ctx context.Context, idt *models.Identification) (*models.Identification, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.IdentificationFilter) ([]models.Identification, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Identification, error)
	ListByPoster(ctx context.Context, userID string) ([]models.Identification, error)
	FindSimilar(ctx context.Context, idt *models.Identification) ([]models.Identification, error)
	MarkFound(ctx context.Context, id string) error
	MarkLost(ctx context.Context, id string) error
	AssignOwner(ctx context.Context, id string, userID string) error
}

// ClaimStore is the persistence surface the lifecycle needs for claims.
type ClaimStore interface {
	Create(ctx context.Context, claim *models.Claim) (*models.Claim, error)
	Get(ctx context.Context, id string) (*models.Claim, error)
	GetByUser(ctx context.Context, userID string) (*models.Claim, error)
	Update(ctx context.Context, claim *models.Claim) (*models.Claim, error)
	Delete(ctx context.Context, id string) error
	FindSimilar(ctx context.Context, claim *models.Claim) ([]models.Claim, error)
}

// MatchStore is the persistence surface the lifecycle needs for matches.
type MatchStore interface {
	GetByPair(ctx context.Context, claimID, identificationID string) (*models.Match, error)
	ListByClaim(ctx context.Context, claimID string) ([]models.Match, error)
	ListByIdentification(ctx context.Context, identificationID string) ([]models.Match, error)
	DeleteByIdentification(ctx context.Context, identificationID string) error
}

// Matcher runs a matching pass for one record
type Matcher interface {
	MatchIdentification(ctx context.Context, idt *models.Identification) (int, error)
	MatchClaim(ctx context.Context, claim *models.Claim) (int, error)
}

// Service coordinates identification and claim lifecycles
type Service struct {
	logger  ectologger.Logger
	idts    IdentificationStore
	claims  ClaimStore
	matches MatchStore
	matcher Matcher
}

// NewService creates a new lifecycle service
func NewService(
	logger ectologger.Logger,
	idts IdentificationStore,
	claims ClaimStore,
	matches MatchStore,
	matcher Matcher,
) *Service {
	return &Service{
		logger:  logger,
		idts:    idts,
		claims:  claims,
		matches: matches,
		matcher: matcher,
	}
}

// CreateIdentification posts a new found identification. An unresolved
// identification that is strictly equal field for field blocks the create as
// a duplicate; a resolved one does not, since the same card can be lost
// again after its earlier record was closed out.
func (s *Service) CreateIdentification(ctx context.Context, req *models.CreateIdentificationRequest, postedBy string) (*models.Identification, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.CreateIdentification")
	defer span.End()

	idt := &models.Identification{
		Name:         req.Name,
		Course:       req.Course,
		ValidFrom:    req.ValidFrom,
		ValidTill:    req.ValidTill,
		Institution:  req.Institution,
		Campus:       req.Campus,
		LocationName: req.LocationName,
		LocationLat:  req.LocationLat,
		LocationLon:  req.LocationLon,
		Picture:      req.Picture,
		About:        req.About,
	}
	if postedBy != "" {
		idt.PostedBy = &postedBy
	}

	similar, err := s.idts.FindSimilar(ctx, idt)
	if err != nil {
		return nil, err
	}
	for i := range similar {
		if !similar[i].IsFound && models.IdentificationsStrictEqual(&similar[i], idt) {
			return nil, httperror.NewHTTPError(http.StatusConflict, "an identical identification is already registered")
		}
	}

	created, err := s.idts.Create(ctx, idt)
	if err != nil {
		return nil, err
	}

	if _, err := s.matcher.MatchIdentification(ctx, created); err != nil {
		// The identification is saved; a failed pass only delays discovery
		// until the next update touches either side.
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"identification_id": created.ID}).Error("Matching pass failed after identification create")
	}

	return created, nil
}

// UpdateIdentification applies a partial update and re-runs the matching
// pass. Matches recorded before the update are kept even if the new field
// values would no longer qualify.
func (s *Service) UpdateIdentification(ctx context.Context, id string, req *models.UpdateIdentificationRequest) (*models.Identification, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.UpdateIdentification")
	defer span.End()

	idt, err := s.idts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(idt)
	updated, err := s.idts.Update(ctx, idt)
	if err != nil {
		return nil, err
	}

	if !updated.IsFound {
		if _, err := s.matcher.MatchIdentification(ctx, updated); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"identification_id": updated.ID}).Error("Matching pass failed after identification update")
		}
	}

	return updated, nil
}

// GetIdentification retrieves one identification
func (s *Service) GetIdentification(ctx context.Context, id string) (*models.Identification, error) {
	return s.idts.Get(ctx, id)
}

// ListIdentifications retrieves identifications by resolution state
func (s *Service) ListIdentifications(ctx context.Context, filter models.IdentificationFilter) ([]models.Identification, error) {
	return s.idts.List(ctx, filter)
}

// ListOwnedIdentifications retrieves the identifications assigned to a user
func (s *Service) ListOwnedIdentifications(ctx context.Context, userID string) ([]models.Identification, error) {
	return s.idts.ListByOwner(ctx, userID)
}

// ListPostedIdentifications retrieves the identifications a user posted
func (s *Service) ListPostedIdentifications(ctx context.Context, userID string) ([]models.Identification, error) {
	return s.idts.ListByPoster(ctx, userID)
}

// DeleteIdentification removes an identification
func (s *Service) DeleteIdentification(ctx context.Context, id string) error {
	return s.idts.Delete(ctx, id)
}

// MarkResolved transitions an identification to found and clears its
// recorded matches. Resolving an already resolved identification is a
// conflict.
func (s *Service) MarkResolved(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.MarkResolved")
	defer span.End()

	if err := s.idts.MarkFound(ctx, id); err != nil {
		return err
	}

	// Matches against a collected card are spent.
	if err := s.matches.DeleteByIdentification(ctx, id); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"identification_id": id}).Error("Failed to clear matches after resolve")
		return err
	}

	return nil
}

// MarkReopened transitions a resolved identification back to open and runs a
// fresh matching pass. Reopening an open identification is a conflict.
func (s *Service) MarkReopened(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.MarkReopened")
	defer span.End()

	if err := s.idts.MarkLost(ctx, id); err != nil {
		return err
	}

	idt, err := s.idts.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.matcher.MatchIdentification(ctx, idt); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"identification_id": id}).Error("Matching pass failed after reopen")
	}

	return nil
}

// ConfirmClaim lets a user accept a discovered match as theirs. The caller
// must own the claim, and the pair must have been recorded by the engine; a
// confirmation for a pair the engine never accepted is rejected. On success
// the identification gains its owner, exactly once.
func (s *Service) ConfirmClaim(ctx context.Context, req *models.ConfirmClaimRequest, userID string) (*models.Identification, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.ConfirmClaim")
	defer span.End()

	claim, err := s.claims.Get(ctx, req.ClaimID)
	if err != nil {
		return nil, err
	}
	if claim.UserID != userID {
		return nil, httperror.NewHTTPError(http.StatusUnauthorized, "claim does not belong to the requesting user")
	}

	if _, err := s.matches.GetByPair(ctx, req.ClaimID, req.IdentificationID); err != nil {
		return nil, err
	}

	if err := s.idts.AssignOwner(ctx, req.IdentificationID, userID); err != nil {
		return nil, err
	}

	return s.idts.Get(ctx, req.IdentificationID)
}

// CreateClaim registers a lost-identification claim. The one-claim-per-user
// rule is checked before the duplicate guard so a user retrying their own
// submission sees the cardinality conflict, not the duplicate one.
func (s *Service) CreateClaim(ctx context.Context, req *models.CreateClaimRequest, userID string) (*models.Claim, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.CreateClaim")
	defer span.End()

	existing, err := s.claims.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, httperror.NewHTTPError(http.StatusConflict, "user already has a registered claim")
	}

	claim := &models.Claim{
		UserID:         userID,
		Name:           req.Name,
		Course:         req.Course,
		EntryYear:      req.EntryYear,
		GraduationYear: req.GraduationYear,
		Institution:    req.Institution,
		CampusLocation: req.CampusLocation,
	}

	similar, err := s.claims.FindSimilar(ctx, claim)
	if err != nil {
		return nil, err
	}
	for i := range similar {
		if models.ClaimsStrictEqual(&similar[i], claim) {
			return nil, httperror.NewHTTPError(http.StatusConflict, "an identical claim is already registered")
		}
	}

	created, err := s.claims.Create(ctx, claim)
	if err != nil {
		return nil, err
	}

	if _, err := s.matcher.MatchClaim(ctx, created); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"claim_id": created.ID}).Error("Matching pass failed after claim create")
	}

	return created, nil
}

// UpdateClaim applies a partial update and re-runs the matching pass.
// Previously recorded matches are never pruned.
func (s *Service) UpdateClaim(ctx context.Context, id string, req *models.UpdateClaimRequest, userID string) (*models.Claim, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.UpdateClaim")
	defer span.End()

	claim, err := s.claims.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if claim.UserID != userID {
		return nil, httperror.NewHTTPError(http.StatusUnauthorized, "claim does not belong to the requesting user")
	}

	req.Apply(claim)
	updated, err := s.claims.Update(ctx, claim)
	if err != nil {
		return nil, err
	}

	if _, err := s.matcher.MatchClaim(ctx, updated); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"claim_id": updated.ID}).Error("Matching pass failed after claim update")
	}

	return updated, nil
}

// GetClaim retrieves one claim
func (s *Service) GetClaim(ctx context.Context, id string) (*models.Claim, error) {
	return s.claims.Get(ctx, id)
}

// GetUserClaim retrieves the claim registered by a user
func (s *Service) GetUserClaim(ctx context.Context, userID string) (*models.Claim, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.GetUserClaim")
	defer span.End()

	claim, err := s.claims.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "user has no registered claim")
	}
	return claim, nil
}

// DeleteClaim removes a claim owned by the user
func (s *Service) DeleteClaim(ctx context.Context, id string, userID string) error {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.DeleteClaim")
	defer span.End()

	claim, err := s.claims.Get(ctx, id)
	if err != nil {
		return err
	}
	if claim.UserID != userID {
		return httperror.NewHTTPError(http.StatusUnauthorized, "claim does not belong to the requesting user")
	}
	return s.claims.Delete(ctx, id)
}

// ListClaimMatches retrieves the matches recorded for a user's claim
func (s *Service) ListClaimMatches(ctx context.Context, claimID string, userID string) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Service.ListClaimMatches")
	defer span.End()

	claim, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.UserID != userID {
		return nil, httperror.NewHTTPError(http.StatusUnauthorized, "claim does not belong to the requesting user")
	}
	return s.matches.ListByClaim(ctx, claimID)
}

var _ Matcher = (*matching.Engine)(nil)

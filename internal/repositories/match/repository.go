package match

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var columns = []string{"id", "claim_id", "identification_id", "created_at"}

// Repository handles match persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new match repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Record inserts a match for the pair if one does not already exist. The
// matches table has a unique constraint on (claim_id, identification_id), so
// the insert is a no-op when the pair was already recorded. Returns the match
// row and whether this call created it.
func (r *Repository) Record(ctx context.Context, claimID, identificationID string) (*models.Match, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.Record")
	defer span.End()

	m := &models.Match{
		ID:               uuid.New().String(),
		ClaimID:          claimID,
		IdentificationID: identificationID,
		CreatedAt:        time.Now().UTC(),
	}

	sb := database.NewInsertBuilder()
	sb.InsertInto("matches")
	sb.Cols(columns...)
	sb.Values(m.ID, m.ClaimID, m.IdentificationID, m.CreatedAt)
	sb.OnConflictDoNothing("claim_id", "identification_id")

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"claim_id":          claimID,
			"identification_id": identificationID,
		}).Error("Failed to record match")
		return nil, false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to record match")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to record match")
	}
	if rows == 0 {
		existing, err := r.GetByPair(ctx, claimID, identificationID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	return m, true, nil
}

// GetByPair retrieves the match for a claim and identification pair
func (r *Repository) GetByPair(ctx context.Context, claimID, identificationID string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.GetByPair")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("matches")
	sb.Where(
		sb.Equal("claim_id", claimID),
		sb.Equal("identification_id", identificationID),
	)

	query, args := sb.Build()
	var m models.Match
	if err := r.db.GetContext(ctx, &m, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no match between claim %s and identification %s", claimID, identificationID))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get match")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match")
	}

	return &m, nil
}

// ListByClaim retrieves every match recorded for a claim
func (r *Repository) ListByClaim(ctx context.Context, claimID string) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.ListByClaim")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("matches")
	sb.Where(sb.Equal("claim_id", claimID))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	var matches []models.Match
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list matches by claim")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list matches")
	}

	return matches, nil
}

// ListByIdentification retrieves every match recorded for an identification
func (r *Repository) ListByIdentification(ctx context.Context, identificationID string) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.ListByIdentification")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("matches")
	sb.Where(sb.Equal("identification_id", identificationID))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	var matches []models.Match
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list matches by identification")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list matches")
	}

	return matches, nil
}

// DeleteByIdentification removes every match recorded for an identification.
// Used when the identification is resolved; its matches are spent.
func (r *Repository) DeleteByIdentification(ctx context.Context, identificationID string) error {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.DeleteByIdentification")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("matches")
	sb.Where(sb.Equal("identification_id", identificationID))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"identification_id": identificationID}).Error("Failed to delete matches")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete matches")
	}

	return nil
}

package claim

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var columns = []string{
	"id", "user_id", "name", "course", "entry_year", "graduation_year",
	"institution", "campus_location", "created_at", "updated_at",
}

// Repository handles claim persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new claim repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new claim. The claims table carries a unique constraint on
// user_id, so a second claim for the same user fails as a conflict here even
// when two requests race past the service-level check.
func (r *Repository) Create(ctx context.Context, claim *models.Claim) (*models.Claim, error) {
	ctx, span := tracing.StartSpan(ctx, "claim.Repository.Create")
	defer span.End()

	if claim.ID == "" {
		claim.ID = uuid.New().String()
	}
	claim.CreatedAt = time.Now().UTC()
	claim.UpdatedAt = claim.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("claims")
	sb.Cols(columns...)
	sb.Values(claim.ID, claim.UserID, claim.Name, claim.Course, claim.EntryYear, claim.GraduationYear,
		claim.Institution, claim.CampusLocation, claim.CreatedAt, claim.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("user %s already has a claim", claim.UserID))
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"claim_id": claim.ID}).Error("Failed to create claim")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create claim")
	}

	return claim, nil
}

// Get retrieves a claim by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Claim, error) {
	ctx, span := tracing.StartSpan(ctx, "claim.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("claims")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var claim models.Claim
	if err := r.db.GetContext(ctx, &claim, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("claim %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get claim")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get claim")
	}

	return &claim, nil
}

// GetByUser retrieves the claim registered by a user, if any. Returns nil with
// no error when the user has no claim.
func (r *Repository) GetByUser(ctx context.Context, userID string) (*models.Claim, error) {
	ctx, span := tracing.StartSpan(ctx, "claim.Repository.GetByUser")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("claims")
	sb.Where(sb.Equal("user_id", userID))

	query, args := sb.Build()
	var claim models.Claim
	if err := r.db.GetContext(ctx, &claim, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get claim by user")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get claim")
	}

	return &claim, nil
}

// Update persists the mutable fields of a claim
func (r *Repository) Update(ctx context.Context, claim *models.Claim) (*models.Claim, error) {
	ctx, span := tracing.StartSpan(ctx, "claim.Repository.Update")
	defer span.End()

	claim.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("claims")
	sb.Set(
		sb.Assign("name", claim.Name),
		sb.Assign("course", claim.Course),
		sb.Assign("entry_year", claim.EntryYear),
		sb.Assign("graduation_year", claim.GraduationYear),
		sb.Assign("institution", claim.Institution),
		sb.Assign("campus_location", claim.CampusLocation),
		sb.Assign("updated_at", claim.UpdatedAt),
	)
	sb.Where(sb.Equal("id", claim.ID))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"claim_id": claim.ID}).Error("Failed to update claim")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update claim")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update claim")
	}
	if rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("claim %s not found", claim.ID))
	}

	return claim, nil
}

// Delete removes a claim
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "claim.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("claims")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete claim")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete claim")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete claim")
	}
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("claim %s not found", id))
	}

	return nil
}

// CandidatesForIdentification retrieves the claims worth scoring against an
// unresolved identification: same institution, and matching campus unless the
// claim left its campus open.
func (r *Repository) CandidatesForIdentification(ctx context.Context, idt *models.Identification) ([]models.Claim, error) {
	ctx, span := tracing.StartSpan(ctx, "claim.Repository.CandidatesForIdentification")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("claims")
	sb.Where(
		sb.Equal("institution", idt.Institution),
		sb.Or(
			sb.IsNull("campus_location"),
			sb.Equal("campus_location", ""),
			sb.Equal("campus_location", idt.Campus),
		),
	)

	query, args := sb.Build()
	var claims []models.Claim
	if err := r.db.SelectContext(ctx, &claims, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"identification_id": idt.ID}).Error("Failed to select claim candidates")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to select claim candidates")
	}

	return claims, nil
}

// FindSimilar retrieves the claims that could be duplicates of the given one,
// keyed on the indexed subset of the strict-equality fields. The caller
// applies the full field-list comparison in memory.
func (r *Repository) FindSimilar(ctx context.Context, claim *models.Claim) ([]models.Claim, error) {
	ctx, span := tracing.StartSpan(ctx, "claim.Repository.FindSimilar")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("claims")
	sb.Where(
		sb.Equal("name", claim.Name),
		sb.Equal("institution", claim.Institution),
	)

	query, args := sb.Build()
	var claims []models.Claim
	if err := r.db.SelectContext(ctx, &claims, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to select similar claims")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to select similar claims")
	}

	return claims, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// lib/pq unique_violation
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

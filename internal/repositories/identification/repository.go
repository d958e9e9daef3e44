package identification

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

var columns = []string{
	"id", "name", "course", "valid_from", "valid_till", "institution", "campus",
	"location_name", "location_lat", "location_lon", "picture", "posted_by",
	"owner", "is_found", "about", "created_at", "updated_at",
}

// Repository handles identification persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new identification repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new identification. New identifications always start
// unresolved with no owner.
func (r *Repository) Create(ctx context.Context, idt *models.Identification) (*models.Identification, error) {
	ctx, span := tracing.StartSpan(ctx, "identification.Repository.Create")
	defer span.End()

	if idt.ID == "" {
		idt.ID = uuid.New().String()
	}
	idt.IsFound = false
	idt.Owner = nil
	idt.CreatedAt = time.Now().UTC()
	idt.UpdatedAt = idt.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("identifications")
	sb.Cols(columns...)
	sb.Values(idt.ID, idt.Name, idt.Course, idt.ValidFrom, idt.ValidTill, idt.Institution, idt.Campus,
		idt.LocationName, idt.LocationLat, idt.LocationLon, idt.Picture, idt.PostedBy,
		idt.Owner, idt.IsFound, idt.About, idt.CreatedAt, idt.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"identification_id": idt.ID}).Error("Failed to create identification")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create identification")
	}

	return idt, nil
}

// Get retrieves an identification by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Identification, error) {
	ctx, span := tracing.StartSpan(ctx, "identification.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("identifications")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var idt models.Identification
	if err := r.db.GetContext(ctx, &idt, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("identification %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get identification")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get identification")
	}

	return &idt, nil
}

// Update persists the mutable fields of an identification
func (r *Repository) Update(ctx context.Context, idt *models.Identification) (*models.Identification, error) {
	ctx, span := tracing.StartSpan(ctx, "identification.Repository.Update")
	defer span.End()

	idt.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("identifications")
	sb.Set(
		sb.Assign("name", idt.Name),
		sb.Assign("course", idt.Course),
		sb.Assign("valid_from", idt.ValidFrom),
		sb.Assign("valid_till", idt.ValidTill),
		sb.Assign("institution", idt.Institution),
		sb.Assign("campus", idt.Campus),
		sb.Assign("location_name", idt.LocationName),
		sb.Assign("location_lat", idt.LocationLat),
		sb.Assign("location_lon", idt.LocationLon),
		sb.Assign("picture", idt.Picture),
		sb.Assign("about", idt.About),
		sb.Assign("updated_at", idt.UpdatedAt),
	)
	sb.Where(sb.Equal("id", idt.ID))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"identification_id": idt.ID}).Error("Failed to update identification")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update identification")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update identification")
	}
	if rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("identification %s not found", idt.ID))
	}

	return idt, nil
}

// Delete removes an identification
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "identification.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("identifications")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete identification")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete identification")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete identification")
	}
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("identification %s not found", id))
	}

	return nil
}

// List retrieves identifications, optionally filtered by resolution state
func (r *Repository) List(ctx context.Context, filter models.IdentificationFilter) ([]models.Identification, error) {
	ctx, span := tracing.StartSpan(ctx, "identification.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("identifications")
	switch filter {
	case models.IdentificationFilterMissing:
		sb.Where(sb.Equal("is_found", false))
	case models.IdentificationFilterFound:
		sb.Where(sb.Equal("is_found", true))
	}
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	var idts []models.Identification
	if err := r.db.SelectContext(ctx, &idts, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list identifications")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list identifications")
	}

	return idts, nil
}

// ListByOwner retrieves identifications assigned to a user
func (r *Repository) ListByOwner(ctx context.Context, userID string) ([]models.Identification, error) {
	ctx, span := tracing.StartSpan(ctx, "identification.Repository.ListByOwner")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("identifications")
	sb.Where(sb.Equal("owner", userID))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	var idts []models.Identification
	if err := r.db.SelectContext(ctx, &idts, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list identifications by owner")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list identifications")
	}

	return idts, nil
}

// ListByPoster retrieves identifications posted by a user
func (r *Repository) ListByPoster(ctx context.Context, userID string) ([]models.Identification, error) {
	ctx, span := tracing.StartSpan(ctx, "identification.Repository.ListByPoster")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("identifications")
	sb.Where(sb.Equal("posted_by", userID))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	var idts []models.Identification
	if err := r.db.SelectContext(ctx, &idts, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list identifications by poster")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list identifications")
	}

	return idts, nil
}

// CandidatesForClaim retrieves the unresolved identifications worth scoring
// against a claim: same institution, and same campus when the claim names one.
// A claim without a campus considers every campus.
func (r *Repository) CandidatesForClaim(ctx context.Context, claim *models.Claim) ([]models.Identification, error) {
	ctx, span := tracing.StartSpan(ctx, "identification.Repository.CandidatesForClaim")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("identifications")
	sb.Where(
		sb.Equal("institution", claim.Institution),
		sb.Equal("is_found", false),
	)
	if claim.CampusLocation != nil && *claim.CampusLocation != "" {
		sb.Where(sb.Equal("campus", *claim.CampusLocation))
	}

	query, args := sb.Build()
	var idts []models.Identification
	if err := r.db.SelectContext(ctx, &idts, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"claim_id": claim.ID}).Error("Failed to select identification candidates")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to select identification candidates")
	}

	return idts, nil
}

// FindSimilar retrieves the identifications that could be duplicates of the
// given one, keyed on the indexed subset of the strict-equality fields. The
// caller applies the full field-list comparison in memory.
func (r *Repository) FindSimilar(ctx context.Context, idt *models.Identification) ([]models.Identification, error) {
	ctx, span := tracing.StartSpan(ctx, "identification.Repository.FindSimilar")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("identifications")
	sb.Where(
		sb.Equal("name", idt.Name),
		sb.Equal("course", idt.Course),
		sb.Equal("institution", idt.Institution),
		sb.Equal("campus", idt.Campus),
	)

	query, args := sb.Build()
	var idts []models.Identification
	if err := r.db.SelectContext(ctx, &idts, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to select similar identifications")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to select similar identifications")
	}

	return idts, nil
}

// MarkFound resolves an identification. The update is conditional on the
// current state so a double resolve surfaces as a conflict rather than a
// silent no-op.
func (r *Repository) MarkFound(ctx context.Context, id string) error {
	return r.setFound(ctx, id, true)
}

// MarkLost reopens a resolved identification
func (r *Repository) MarkLost(ctx context.Context, id string) error {
	return r.setFound(ctx, id, false)
}

func (r *Repository) setFound(ctx context.Context, id string, found bool) error {
	ctx, span := tracing.StartSpan(ctx, "identification.Repository.setFound")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("identifications")
	sb.Set(
		sb.Assign("is_found", found),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("is_found", !found),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"identification_id": id}).Error("Failed to update identification state")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update identification state")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update identification state")
	}
	if rows == 0 {
		// Either the row is missing or it is already in the target state.
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		state := "lost"
		if found {
			state = "found"
		}
		return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("identification %s is already marked %s", id, state))
	}

	return nil
}

// AssignOwner sets the owner exactly once. A second assignment conflicts.
func (r *Repository) AssignOwner(ctx context.Context, id string, userID string) error {
	ctx, span := tracing.StartSpan(ctx, "identification.Repository.AssignOwner")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("identifications")
	sb.Set(
		sb.Assign("owner", userID),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("owner"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"identification_id": id}).Error("Failed to assign identification owner")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to assign identification owner")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to assign identification owner")
	}
	if rows == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("identification %s already has an owner", id))
	}

	return nil
}

package identification

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	ctxmiddleware "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/lifecycle"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/validation"
)

var validate = validation.New()

// Register registers identification routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.POST("", Create)
	g.GET("/mine", ListMine)
	g.GET("/posted", ListPosted)
	g.GET("/:id", Get)
	g.PATCH("/:id", Update)
	g.DELETE("/:id", Delete)
	g.POST("/:id/found", MarkFound)
	g.POST("/:id/lost", MarkLost)
}

// List returns identifications filtered by resolution state
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "identification_handler.List")
	defer span.End()

	filter := models.IdentificationFilter(c.QueryParam("filter"))
	switch filter {
	case "", models.IdentificationFilterAll:
		filter = models.IdentificationFilterAll
	case models.IdentificationFilterMissing, models.IdentificationFilterFound:
	default:
		return httperror.NewHTTPError(http.StatusBadRequest, "filter must be one of all, missing, found")
	}

	ctx, svc, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	items, err := svc.ListIdentifications(ctx, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, items)
}

// ListMine returns the identifications assigned to the requesting user
func ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "identification_handler.ListMine")
	defer span.End()

	userID := ctxmiddleware.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	ctx, svc, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	items, err := svc.ListOwnedIdentifications(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, items)
}

// ListPosted returns the identifications posted by the requesting user
func ListPosted(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "identification_handler.ListPosted")
	defer span.End()

	userID := ctxmiddleware.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	ctx, svc, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	items, err := svc.ListPostedIdentifications(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, items)
}

// Create posts a new found identification
func Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "identification_handler.Create")
	defer span.End()

	userID := ctxmiddleware.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	var req models.CreateIdentificationRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	result, err := svc.CreateIdentification(ctx, &req, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// Get returns a single identification by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "identification_handler.Get")
	defer span.End()

	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	result, err := svc.GetIdentification(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Update applies a partial update to an identification
func Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "identification_handler.Update")
	defer span.End()

	id := c.Param("id")

	var req models.UpdateIdentificationRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	result, err := svc.UpdateIdentification(ctx, id, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Delete removes an identification
func Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "identification_handler.Delete")
	defer span.End()

	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	if err := svc.DeleteIdentification(ctx, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// MarkFound resolves an identification as collected by its owner
func MarkFound(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "identification_handler.MarkFound")
	defer span.End()

	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	if err := svc.MarkResolved(ctx, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// MarkLost reopens a resolved identification
func MarkLost(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "identification_handler.MarkLost")
	defer span.End()

	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	if err := svc.MarkReopened(ctx, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

package claim

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

// Register registers claim routes
func Register(g *echo.Group) {
	g.POST("", Create)
	g.GET("/me", GetMine)
	g.POST("/confirm", Confirm)
	g.GET("/:id", Get)
	g.PATCH("/:id", Update)
	g.DELETE("/:id", Delete)
	g.GET("/:id/matches", ListMatches)
}

// Create registers a lost-identification claim for the requesting user
func Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "claim_handler.Create")
	defer span.End()

	userID := ctxmiddleware.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	var req models.CreateClaimRequest
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

	result, err := svc.CreateClaim(ctx, &req, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// GetMine returns the claim registered by the requesting user
func GetMine(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "claim_handler.GetMine")
	defer span.End()

	userID := ctxmiddleware.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	ctx, svc, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	result, err := svc.GetUserClaim(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Get returns a single claim by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "claim_handler.Get")
	defer span.End()

	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	result, err := svc.GetClaim(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Update applies a partial update to the requesting user's claim
func Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "claim_handler.Update")
	defer span.End()

	userID := ctxmiddleware.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}
	id := c.Param("id")

	var req models.UpdateClaimRequest
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

	result, err := svc.UpdateClaim(ctx, id, &req, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Delete removes the requesting user's claim
func Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "claim_handler.Delete")
	defer span.End()

	userID := ctxmiddleware.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	if err := svc.DeleteClaim(ctx, id, userID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// ListMatches returns the matches recorded for the requesting user's claim
func ListMatches(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "claim_handler.ListMatches")
	defer span.End()

	userID := ctxmiddleware.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}
	id := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	matches, err := svc.ListClaimMatches(ctx, id, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, matches)
}

// Confirm accepts a discovered match, assigning the identification's owner
func Confirm(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "claim_handler.Confirm")
	defer span.End()

	userID := ctxmiddleware.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	var req models.ConfirmClaimRequest
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

	result, err := svc.ConfirmClaim(ctx, &req, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

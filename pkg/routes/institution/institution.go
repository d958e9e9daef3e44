package institution

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/validation"
)

var validate = validation.New()

// Register registers institution routes
func Register(g *echo.Group) {
	g.POST("/verify", Verify)
}

// VerifyRequest asks whether an email address plausibly belongs to an
// institution's domain.
type VerifyRequest struct {
	Institution      string `json:"institution" validate:"required,min=3,max=255"`
	Email            string `json:"email" validate:"required,email"`
	StripFillerWords bool   `json:"strip_filler_words"`
}

// VerifyResponse reports the affiliation decision
type VerifyResponse struct {
	Affiliated bool `json:"affiliated"`
}

// Verify checks an email address against an institution name
func Verify(c echo.Context) error {
	ctx := c.Request().Context()
	_, span := tracing.StartSpan(ctx, "institution_handler.Verify")
	defer span.End()

	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	affiliated := matching.EmailMatchesInstitution(req.Institution, req.Email, req.StripFillerWords)

	return c.JSON(http.StatusOK, VerifyResponse{Affiliated: affiliated})
}

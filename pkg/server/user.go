package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"aijudge/pkg/schema"
)

// POST /api/user/login
func (s *Server) handlePostLogin(c echo.Context) error {
	var req schema.LoginRequest
	if err := c.Bind(&req); err != nil {
		if he, ok := bodyTooLarge(err); ok {
			return he
		}
		if fe, ok := typeMismatch(err, "udid"); ok {
			return unprocessable(c, fe)
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if err := c.Validate(&req); err != nil {
		return unprocessable(c, validationDetails(err)...)
	}
	udid, err := req.Normalized()
	if err != nil {
		return unprocessable(c, FieldError{Field: "udid", Message: err.Error()})
	}

	u, err := s.Users.Upsert(c.Request().Context(), udid)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return c.JSON(http.StatusOK, u)
}

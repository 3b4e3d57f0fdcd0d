package ingest

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// signInResponse is returned by GET /sign-in once Basic auth succeeds: the
// client learns its own id and permission level without a separate session.
type signInResponse struct {
	UserID     int32  `json:"user_id"`
	Permission string `json:"permission"`
}

func (s *Server) handleSignIn(c echo.Context) error {
	account := accountFromContext(c)
	return c.JSON(http.StatusOK, signInResponse{
		UserID:     account.ID,
		Permission: string(account.Role),
	})
}

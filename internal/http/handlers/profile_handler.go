// Profile HTTP handlers: the principal's own profile record.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-poll-backend/internal/http/middleware"
)

// UpdateProfileRequest is the JSON payload for updating the profile.
type UpdateProfileRequest struct {
	Username string `json:"username" binding:"required" example:"ada"`
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Fetch the current user's profile
// @Description Returns the profile, provisioning it on first access.
// @Tags        Profile
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  domain.Profile
// @Failure     401  {object}  handlers.ErrorResponse "Authentication required"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.profileSvc.Get(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update the current user's display name
// @Tags        Profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.UpdateProfileRequest  true  "New username"
//
// @Success     200  {object}  domain.Profile
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Authentication required"
// @Failure     422  {object}  handlers.ErrorResponse "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /profile [put]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username is required")
		return
	}
	p, err := h.profileSvc.SetUsername(c.Request.Context(), middleware.PrincipalFrom(c), req.Username)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

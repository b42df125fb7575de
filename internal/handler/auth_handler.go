package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/canister"
	"github.com/stemsi/surveychain/internal/middleware"
	"github.com/stemsi/surveychain/internal/model"
	"github.com/stemsi/surveychain/internal/response"
	"github.com/stemsi/surveychain/internal/service"
	"github.com/stemsi/surveychain/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	manager        *auth.Manager
	profileService *service.ProfileService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(manager *auth.Manager, profileService *service.ProfileService) *AuthHandler {
	return &AuthHandler{
		manager:        manager,
		profileService: profileService,
	}
}

// Login godoc
// POST /api/v1/auth/login
// Registers the identity token and returns the session with the caller's profile.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.manager.Login(c.Request.Context(), req.Token)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":     session,
		"has_profile": session.HasProfile(),
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Ends the caller's session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.manager.Logout(c.Request.Context(), session); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the current session. User is null until the caller creates a profile.
func (h *AuthHandler) Me(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.profileService.Get(c.Request.Context(), session)
	var resultErr *canister.ResultError
	switch {
	case err == nil:
		session.User = &user
	case errors.As(err, &resultErr):
		session.User = nil
	default:
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":     session,
		"has_profile": session.HasProfile(),
	})
}

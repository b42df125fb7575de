package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/surveychain/internal/middleware"
	"github.com/stemsi/surveychain/internal/model"
	"github.com/stemsi/surveychain/internal/response"
	"github.com/stemsi/surveychain/internal/service"
	"github.com/stemsi/surveychain/internal/validator"
)

// ProfileHandler handles the caller's profile and wallet.
type ProfileHandler struct {
	profileService *service.ProfileService
	walletService  *service.WalletService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService *service.ProfileService, walletService *service.WalletService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		walletService:  walletService,
	}
}

// GetProfile godoc
// GET /api/v1/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.profileService.Get(c.Request.Context(), session)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdateProfile godoc
// PUT /api/v1/profile
// Saves name, age, gender, country, city and occupation. Blank age and gender
// fall back to 17 and "male".
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.UpdateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.profileService.Update(c.Request.Context(), session, req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// GetBalance godoc
// GET /api/v1/wallet/balance
func (h *ProfileHandler) GetBalance(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	balance, err := h.walletService.Balance(c.Request.Context(), session)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"balance": balance})
}

package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/surveychain/internal/middleware"
	"github.com/stemsi/surveychain/internal/response"
	"github.com/stemsi/surveychain/internal/service"
)

// VerificationHandler handles identity verification uploads.
type VerificationHandler struct {
	verificationService *service.VerificationService
	maxUploadBytes      int64
}

// NewVerificationHandler creates a new VerificationHandler.
func NewVerificationHandler(verificationService *service.VerificationService, maxUploadBytes int64) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
		maxUploadBytes:      maxUploadBytes,
	}
}

// Verify godoc
// POST /api/v1/verification
// Takes the captured frame as multipart "image" and submits it for verification.
func (h *VerificationHandler) Verify(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return
	}

	result, err := h.verificationService.Verify(c.Request.Context(), session, data)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"verification": result})
}

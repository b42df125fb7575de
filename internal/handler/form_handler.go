package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/surveychain/internal/browse"
	"github.com/stemsi/surveychain/internal/middleware"
	"github.com/stemsi/surveychain/internal/model"
	"github.com/stemsi/surveychain/internal/response"
	"github.com/stemsi/surveychain/internal/service"
	"github.com/stemsi/surveychain/internal/validator"
)

// FormHandler handles form catalogue, response and summary endpoints.
type FormHandler struct {
	formService     *service.FormService
	responseService *service.ResponseService
	journalService  *service.JournalService
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(
	formService *service.FormService,
	responseService *service.ResponseService,
	journalService *service.JournalService,
) *FormHandler {
	return &FormHandler{
		formService:     formService,
		responseService: responseService,
		journalService:  journalService,
	}
}

// ListForms godoc
// GET /api/v1/forms?q=&category=&sort=
// Lists published forms, searched, filtered and sorted.
func (h *FormHandler) ListForms(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var q browse.Query
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	forms, err := h.formService.Browse(c.Request.Context(), session, q)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"forms": forms})
}

// ListOwnedForms godoc
// GET /api/v1/forms/mine
func (h *FormHandler) ListOwnedForms(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	forms, err := h.formService.Owned(c.Request.Context(), session)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"forms": forms})
}

// CreateForm godoc
// POST /api/v1/forms
// Creates an empty form owned by the caller.
func (h *FormHandler) CreateForm(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateFormRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	form, err := h.formService.Create(c.Request.Context(), session, req.Title)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"form": form})
}

// GetForm godoc
// GET /api/v1/forms/:id
func (h *FormHandler) GetForm(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	form, err := h.formService.Get(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"form": form})
}

// SubmitResponse godoc
// POST /api/v1/forms/:id/responses
// Validates and submits one answer per question.
func (h *FormHandler) SubmitResponse(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitResponseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.responseService.Submit(c.Request.Context(), session, c.Param("id"), req.Answers); err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"message": "Response submitted"})
}

// GetSummary godoc
// GET /api/v1/forms/:id/summary
// Returns chart-ready series for each question. Creator only.
func (h *FormHandler) GetSummary(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	report, err := h.formService.Summary(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"summary": report})
}

// ListJournal godoc
// GET /api/v1/forms/:id/journal?page=&per_page=
// Lists recorded sync, publish and submission outcomes. Creator only.
func (h *FormHandler) ListJournal(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	entries, pagination, err := h.journalService.List(c.Request.Context(), session, c.Param("id"), page, perPage)
	if err != nil {
		failWith(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"entries": entries}, pagination)
}

package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/surveychain/internal/editor"
	"github.com/stemsi/surveychain/internal/ledger"
	"github.com/stemsi/surveychain/internal/middleware"
	"github.com/stemsi/surveychain/internal/model"
	"github.com/stemsi/surveychain/internal/response"
	"github.com/stemsi/surveychain/internal/service"
	"github.com/stemsi/surveychain/internal/validator"
)

// EditorHandler exposes the live editing session of a form to its creator.
type EditorHandler struct {
	editorService *service.EditorService
}

// NewEditorHandler creates a new EditorHandler.
func NewEditorHandler(editorService *service.EditorService) *EditorHandler {
	return &EditorHandler{editorService: editorService}
}

// OpenEditor godoc
// POST /api/v1/forms/:id/editor
// Loads the form into an editing session and returns its view.
func (h *EditorHandler) OpenEditor(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	es, err := h.editorService.Open(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"editor": es.View()})
}

// GetEditor godoc
// GET /api/v1/forms/:id/editor
func (h *EditorHandler) GetEditor(c *gin.Context) {
	h.withSession(c, http.StatusOK, func(es *editor.Session) error { return nil })
}

// CloseEditor godoc
// DELETE /api/v1/forms/:id/editor
// Flushes pending edits and ends the session.
func (h *EditorHandler) CloseEditor(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.editorService.Close(c.Request.Context(), session, c.Param("id")); err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Editor closed"})
}

// AddQuestion godoc
// POST /api/v1/forms/:id/editor/questions
func (h *EditorHandler) AddQuestion(c *gin.Context) {
	h.withSession(c, http.StatusCreated, func(es *editor.Session) error {
		_, err := es.AddQuestion()
		return err
	})
}

// UpdateQuestion godoc
// PUT /api/v1/forms/:id/editor/questions/:index
// Replaces the question; body is a full question with its type variant.
func (h *EditorHandler) UpdateQuestion(c *gin.Context) {
	index, ok := paramIndex(c, "index")
	if !ok {
		return
	}
	var q model.Question
	if err := c.ShouldBindJSON(&q); err != nil {
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrInvalidPayload, err.Error())
		return
	}
	h.withSession(c, http.StatusOK, func(es *editor.Session) error {
		return es.UpdateQuestion(index, q)
	})
}

// RemoveQuestion godoc
// DELETE /api/v1/forms/:id/editor/questions/:index
func (h *EditorHandler) RemoveQuestion(c *gin.Context) {
	index, ok := paramIndex(c, "index")
	if !ok {
		return
	}
	h.withSession(c, http.StatusOK, func(es *editor.Session) error {
		return es.RemoveQuestion(index)
	})
}

// DuplicateQuestion godoc
// POST /api/v1/forms/:id/editor/questions/:index/duplicate
func (h *EditorHandler) DuplicateQuestion(c *gin.Context) {
	index, ok := paramIndex(c, "index")
	if !ok {
		return
	}
	h.withSession(c, http.StatusCreated, func(es *editor.Session) error {
		_, err := es.DuplicateQuestion(index)
		return err
	})
}

// ChangeQuestionType godoc
// PUT /api/v1/forms/:id/editor/questions/:index/type
func (h *EditorHandler) ChangeQuestionType(c *gin.Context) {
	index, ok := paramIndex(c, "index")
	if !ok {
		return
	}
	var req model.ChangeTypeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.withSession(c, http.StatusOK, func(es *editor.Session) error {
		return es.ChangeQuestionType(index, req.Type)
	})
}

// AddOption godoc
// POST /api/v1/forms/:id/editor/questions/:index/options
func (h *EditorHandler) AddOption(c *gin.Context) {
	index, ok := paramIndex(c, "index")
	if !ok {
		return
	}
	h.withSession(c, http.StatusCreated, func(es *editor.Session) error {
		return es.AddOption(index)
	})
}

// UpdateOption godoc
// PUT /api/v1/forms/:id/editor/questions/:index/options/:option
func (h *EditorHandler) UpdateOption(c *gin.Context) {
	index, ok := paramIndex(c, "index")
	if !ok {
		return
	}
	option, ok := paramIndex(c, "option")
	if !ok {
		return
	}
	var req model.UpdateOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.withSession(c, http.StatusOK, func(es *editor.Session) error {
		return es.UpdateOption(index, option, req.Value)
	})
}

// RemoveOption godoc
// DELETE /api/v1/forms/:id/editor/questions/:index/options/:option
func (h *EditorHandler) RemoveOption(c *gin.Context) {
	index, ok := paramIndex(c, "index")
	if !ok {
		return
	}
	option, ok := paramIndex(c, "option")
	if !ok {
		return
	}
	h.withSession(c, http.StatusOK, func(es *editor.Session) error {
		return es.RemoveOption(index, option)
	})
}

// Reorder godoc
// POST /api/v1/forms/:id/editor/reorder
func (h *EditorHandler) Reorder(c *gin.Context) {
	var req model.ReorderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.withSession(c, http.StatusOK, func(es *editor.Session) error {
		return es.Reorder(*req.From, *req.To)
	})
}

// UpdateMetadata godoc
// PATCH /api/v1/forms/:id/editor/metadata
// Sets one metadata field. Reward fields are clamped and maxRespondent re-derived.
func (h *EditorHandler) UpdateMetadata(c *gin.Context) {
	var req model.UpdateMetadataFieldRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	value, err := fieldValue(req)
	if err != nil {
		failWith(c, err)
		return
	}
	h.withSession(c, http.StatusOK, func(es *editor.Session) error {
		return es.UpdateMetadataField(req.Field, value)
	})
}

// Flush godoc
// POST /api/v1/forms/:id/editor/flush
// Persists pending edits now; also the manual retry after a failed sync.
func (h *EditorHandler) Flush(c *gin.Context) {
	h.withSession(c, http.StatusOK, func(es *editor.Session) error {
		return es.Flush(c.Request.Context())
	})
}

// Resync godoc
// POST /api/v1/forms/:id/editor/resync
// Drops local edits and reloads the form from the backend.
func (h *EditorHandler) Resync(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.editorService.Resync(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"editor": view})
}

// Publish godoc
// POST /api/v1/forms/:id/editor/publish
// Saves the final metadata, pays half the reward pool to the treasury and
// flips the published flag.
func (h *EditorHandler) Publish(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.PublishRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	block, err := h.editorService.Publish(c.Request.Context(), session, c.Param("id"), req.Metadata)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"block": block})
}

// withSession resolves the caller's open session, applies fn and replies with
// the resulting view.
func (h *EditorHandler) withSession(c *gin.Context, status int, fn func(es *editor.Session) error) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	es, err := h.editorService.Get(session, c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	if err := fn(es); err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, status, gin.H{"editor": es.View()})
}

func paramIndex(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n < 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return n, true
}

// fieldValue decodes the raw field value keeping integers exact. ICP reward
// amounts are converted to e8s.
func fieldValue(req model.UpdateMetadataFieldRequest) (any, error) {
	var value any
	if len(req.Value) > 0 {
		dec := json.NewDecoder(bytes.NewReader(req.Value))
		dec.UseNumber()
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", req.Field, model.ErrFieldValue, err)
		}
	}

	isReward := req.Field == model.FieldRewardAmount || req.Field == model.FieldMaxRewardPool
	if req.Unit != "icp" || !isReward {
		return value, nil
	}

	var text string
	switch v := value.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
	default:
		return nil, fmt.Errorf("%s: %w: want ICP amount, got %T", req.Field, model.ErrFieldValue, value)
	}
	return ledger.ParseICP(text)
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/surveychain/internal/answer"
	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/canister"
	"github.com/stemsi/surveychain/internal/editor"
	"github.com/stemsi/surveychain/internal/ledger"
	"github.com/stemsi/surveychain/internal/model"
	"github.com/stemsi/surveychain/internal/response"
	"github.com/stemsi/surveychain/internal/service"
	"github.com/stemsi/surveychain/internal/summary"
	"github.com/stemsi/surveychain/internal/verify"
)

// failWith maps a service error onto the response envelope.
func failWith(c *gin.Context, err error) {
	var (
		publishErr    *editor.PublishError
		validationErr *answer.ValidationError
		transferErr   *ledger.TransferError
		resultErr     *canister.ResultError
		transportErr  *canister.TransportError
	)

	switch {
	// ─── Auth ──────────────────────────────────────────────────────────
	case errors.Is(err, auth.ErrTokenInvalid):
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
	case errors.Is(err, auth.ErrSessionNotFound):
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionNotFound)
	case errors.Is(err, service.ErrNotCreator):
		response.Fail(c, http.StatusForbidden, response.ErrNotCreator)

	// ─── Editing ───────────────────────────────────────────────────────
	case errors.Is(err, service.ErrEditorNotOpen), errors.Is(err, editor.ErrClosed):
		response.Fail(c, http.StatusConflict, response.ErrEditorNotOpen)
	case errors.Is(err, editor.ErrPublished):
		response.Fail(c, http.StatusConflict, response.ErrFormPublished)
	case errors.Is(err, editor.ErrPublishing):
		response.Fail(c, http.StatusConflict, response.ErrFormPublishing)
	case errors.Is(err, editor.ErrLastQuestion):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrLastQuestion)
	case errors.Is(err, model.ErrOptionFloor):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrOptionFloor)
	case errors.Is(err, model.ErrNotOptionBearing):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNotOptionBearing)
	case errors.Is(err, model.ErrReadOnlyField):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrMetadataReadOnly)
	case errors.Is(err, editor.ErrIndex),
		errors.Is(err, model.ErrOptionIndex),
		errors.Is(err, model.ErrInvalidRange),
		errors.Is(err, model.ErrUnknownField),
		errors.Is(err, model.ErrFieldValue),
		errors.Is(err, model.ErrMalformedVariant),
		errors.Is(err, model.ErrMissingTitle),
		errors.Is(err, model.ErrAgeBounds),
		errors.Is(err, model.ErrRewardRequired),
		errors.Is(err, model.ErrRewardPool),
		errors.Is(err, ledger.ErrAmount):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, err.Error())
	case errors.As(err, &publishErr):
		if errors.As(err, &transferErr) {
			response.FailWithMessage(c, http.StatusUnprocessableEntity, response.ErrTransferRejected, transferErr.Error())
			return
		}
		response.FailWithMessage(c, http.StatusBadGateway, response.ErrPublishIncomplete, publishErr.Error())

	// ─── Responses ─────────────────────────────────────────────────────
	case errors.As(err, &validationErr):
		fields := make(map[string]string, len(validationErr.Indices))
		for _, i := range validationErr.Indices {
			fields[strconv.Itoa(i)] = "This question is required."
		}
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrAnswersMissing, fields)
	case errors.Is(err, answer.ErrMalformed):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrAnswerInvalid, err.Error())
	case errors.Is(err, answer.ErrNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrFormNotOpen)
	case errors.Is(err, answer.ErrDeadlinePassed):
		response.Fail(c, http.StatusConflict, response.ErrDeadlinePassed)
	case errors.Is(err, summary.ErrVariantMismatch):
		response.Fail(c, http.StatusBadGateway, response.ErrSummaryMismatch)

	// ─── Verification ──────────────────────────────────────────────────
	case errors.Is(err, verify.ErrFrameTooLarge):
		response.FailWithMessage(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge, err.Error())
	case errors.Is(err, verify.ErrUnsupportedImage):
		response.Fail(c, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile)
	case errors.Is(err, verify.ErrCameraUnavailable):
		response.FailWithMessage(c, http.StatusUnprocessableEntity, response.ErrUnsupportedFile, err.Error())
	case errors.Is(err, verify.ErrInvalidState):
		response.Fail(c, http.StatusConflict, response.ErrInvalidState)

	// ─── Canisters ─────────────────────────────────────────────────────
	case errors.As(err, &transferErr):
		response.FailWithMessage(c, http.StatusUnprocessableEntity, response.ErrTransferRejected, transferErr.Error())
	case errors.As(err, &resultErr):
		if strings.Contains(strings.ToLower(resultErr.Message), "not found") {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.FailWithMessage(c, http.StatusUnprocessableEntity, response.ErrBackendRejected, resultErr.Message)
	case errors.Is(err, canister.ErrRateLimited):
		response.Fail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
	case errors.As(err, &transportErr), errors.Is(err, context.DeadlineExceeded):
		response.Fail(c, http.StatusBadGateway, response.ErrUpstream)

	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired   ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid    ErrCode = "TOKEN_INVALID"
	ErrSessionNotFound ErrCode = "SESSION_NOT_FOUND"
	ErrProfileRequired ErrCode = "PROFILE_REQUIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden  ErrCode = "FORBIDDEN"
	ErrNotCreator ErrCode = "NOT_FORM_CREATOR"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrAnswersMissing ErrCode = "REQUIRED_ANSWERS_MISSING"
	ErrAnswerInvalid  ErrCode = "ANSWER_INVALID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Form editing ──────────────────────────────────────────────────
	ErrEditorNotOpen     ErrCode = "EDITOR_NOT_OPEN"
	ErrFormPublished     ErrCode = "FORM_PUBLISHED"
	ErrFormPublishing    ErrCode = "FORM_PUBLISHING"
	ErrLastQuestion      ErrCode = "LAST_QUESTION"
	ErrOptionFloor       ErrCode = "OPTION_FLOOR"
	ErrNotOptionBearing  ErrCode = "NOT_OPTION_BEARING"
	ErrMetadataReadOnly  ErrCode = "METADATA_FIELD_READ_ONLY"
	ErrPublishIncomplete ErrCode = "PUBLISH_INCOMPLETE"

	// ─── Responses ─────────────────────────────────────────────────────
	ErrFormNotOpen     ErrCode = "FORM_NOT_OPEN"
	ErrDeadlinePassed  ErrCode = "DEADLINE_PASSED"
	ErrSummaryMismatch ErrCode = "SUMMARY_MISMATCH"

	// ─── Ledger ────────────────────────────────────────────────────────
	ErrTransferRejected ErrCode = "TRANSFER_REJECTED"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"
	ErrInvalidState    ErrCode = "INVALID_STATE"

	// ─── Upstream ──────────────────────────────────────────────────────
	ErrBackendRejected ErrCode = "BACKEND_REJECTED"
	ErrUpstream        ErrCode = "UPSTREAM_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "An identity token is required."
	case ErrTokenInvalid:
		return "The identity token is invalid or expired."
	case ErrSessionNotFound:
		return "Your session has ended. Please log in again."
	case ErrProfileRequired:
		return "Complete your profile first."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You are not allowed to access this resource."
	case ErrNotCreator:
		return "Only the creator of this form can do that."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed."
	case ErrInvalidID:
		return "The identifier is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."
	case ErrAnswersMissing:
		return "Some required questions are unanswered."
	case ErrAnswerInvalid:
		return "An answer does not fit its question."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."
	case ErrConflict:
		return "The request conflicts with the current state."

	// ─── Form editing ──────────────────────────────────────────────────
	case ErrEditorNotOpen:
		return "Open the form editor first."
	case ErrFormPublished:
		return "The form is published and can no longer be edited."
	case ErrFormPublishing:
		return "The form is being published."
	case ErrLastQuestion:
		return "A form needs at least one question."
	case ErrOptionFloor:
		return "A question needs at least two options."
	case ErrNotOptionBearing:
		return "This question type has no options."
	case ErrMetadataReadOnly:
		return "This metadata field cannot be changed directly."
	case ErrPublishIncomplete:
		return "Publishing stopped before completion."

	// ─── Responses ─────────────────────────────────────────────────────
	case ErrFormNotOpen:
		return "This form is not accepting responses."
	case ErrDeadlinePassed:
		return "The deadline for this form has passed."
	case ErrSummaryMismatch:
		return "The response summary does not match the form questions."

	// ─── Ledger ────────────────────────────────────────────────────────
	case ErrTransferRejected:
		return "The ledger rejected the transfer."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "An image file is required."
	case ErrUnsupportedFile:
		return "Only PNG and JPEG images are accepted."
	case ErrFileTooLarge:
		return "The file is too large."
	case ErrInvalidState:
		return "The operation is not allowed right now."

	// ─── Upstream ──────────────────────────────────────────────────────
	case ErrBackendRejected:
		return "The survey backend rejected the request."
	case ErrUpstream:
		return "The survey backend is unavailable. Please try again."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please slow down."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."

	default:
		return "An unknown error occurred."
	}
}

package canister

import (
	"context"

	"github.com/stemsi/surveychain/internal/model"
)

// Backend method names.
const (
	MethodCreateForm             = "createForm"
	MethodGetForm                = "getForm"
	MethodGetAllForms            = "getAllForms"
	MethodGetOwnedForms          = "getOwnedForms"
	MethodUpdateFormMetadata     = "updateFormMetadata"
	MethodSetFormQuestions       = "setFormQuestions"
	MethodChangeFormPublish      = "changeFormPublish"
	MethodAddFormResponse        = "addFormResponse"
	MethodGetFormResponseSummary = "getFormResponseSummary"
	MethodGetUser                = "getUser"
	MethodUpdateUser             = "updateUser"
	MethodVerify                 = "verify"
)

// Backend is the survey backend canister bound to one caller identity.
type Backend struct {
	agent      *Agent
	canisterID string
	token      string
}

// Backend binds the agent to the backend canister and the caller's identity token.
func (a *Agent) Backend(canisterID, token string) *Backend {
	return &Backend{agent: a, canisterID: canisterID, token: token}
}

func call[T any](ctx context.Context, b *Backend, method string, args ...any) (T, error) {
	var res Result[T]
	if err := b.agent.Call(ctx, b.token, b.canisterID, method, args, &res); err != nil {
		var zero T
		return zero, err
	}
	return res.Unwrap(method)
}

func (b *Backend) CreateForm(ctx context.Context) (string, error) {
	return call[string](ctx, b, MethodCreateForm)
}

func (b *Backend) GetForm(ctx context.Context, formID string) (model.Form, error) {
	return call[model.Form](ctx, b, MethodGetForm, formID)
}

func (b *Backend) GetAllForms(ctx context.Context) ([]model.Form, error) {
	return call[[]model.Form](ctx, b, MethodGetAllForms)
}

func (b *Backend) GetOwnedForms(ctx context.Context) ([]model.Form, error) {
	return call[[]model.Form](ctx, b, MethodGetOwnedForms)
}

func (b *Backend) UpdateFormMetadata(ctx context.Context, formID string, metadata model.Metadata) error {
	_, err := call[Unit](ctx, b, MethodUpdateFormMetadata, formID, metadata)
	return err
}

// SetFormQuestions replaces the whole question list of a form.
func (b *Backend) SetFormQuestions(ctx context.Context, formID string, questions []model.Question) error {
	if questions == nil {
		questions = []model.Question{}
	}
	_, err := call[Unit](ctx, b, MethodSetFormQuestions, formID, questions)
	return err
}

func (b *Backend) ChangeFormPublish(ctx context.Context, formID string) error {
	_, err := call[Unit](ctx, b, MethodChangeFormPublish, formID)
	return err
}

// AddFormResponse submits one respondent's answers; timestamp is in nanoseconds.
func (b *Backend) AddFormResponse(ctx context.Context, formID string, timestamp int64, answers model.Answers) error {
	_, err := call[Unit](ctx, b, MethodAddFormResponse, formID, timestamp, answers)
	return err
}

func (b *Backend) GetFormResponseSummary(ctx context.Context, formID string) (model.ResponseSummary, error) {
	return call[model.ResponseSummary](ctx, b, MethodGetFormResponseSummary, formID)
}

func (b *Backend) GetUser(ctx context.Context) (model.User, error) {
	return call[model.User](ctx, b, MethodGetUser)
}

func (b *Backend) UpdateUser(ctx context.Context, update model.UserUpdate) (model.User, error) {
	return call[model.User](ctx, b, MethodUpdateUser, update.Args()...)
}

// Verify submits a face image; the bytes travel base64-encoded in the JSON body.
func (b *Backend) Verify(ctx context.Context, image []byte) error {
	_, err := call[Unit](ctx, b, MethodVerify, image)
	return err
}

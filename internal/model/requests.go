package model

import "encoding/json"

// LoginRequest carries the identity token issued by the identity provider.
type LoginRequest struct {
	Token string `json:"token" binding:"required"`
}

// SubmitResponseRequest holds one answer variant per question, null when unanswered.
type SubmitResponseRequest struct {
	Answers []json.RawMessage `json:"answers" binding:"required"`
}

// ChangeTypeRequest switches a question to another variant.
type ChangeTypeRequest struct {
	Type QuestionKind `json:"type" binding:"required,oneof=Essay MultipleChoice Checkbox Range"`
}

// UpdateOptionRequest replaces one option label.
type UpdateOptionRequest struct {
	Value string `json:"value" binding:"max=500"`
}

// ReorderRequest moves the question at From to To.
type ReorderRequest struct {
	From *int `json:"from" binding:"required,min=0"`
	To   *int `json:"to" binding:"required,min=0"`
}

// UpdateMetadataFieldRequest sets one metadata field. Reward fields are e8s
// unless Unit is "icp", in which case Value is a decimal ICP amount.
type UpdateMetadataFieldRequest struct {
	Field MetadataField   `json:"field" binding:"required"`
	Value json.RawMessage `json:"value"`
	Unit  string          `json:"unit" binding:"omitempty,oneof=e8s icp"`
}

// PublishRequest carries the final metadata a form goes live with.
type PublishRequest struct {
	Metadata Metadata `json:"metadata"`
}

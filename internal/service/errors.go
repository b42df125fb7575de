package service

import (
	"errors"

	"github.com/stemsi/surveychain/internal/editor"
)

// Domain Errors
var (
	ErrNotCreator    = editor.ErrNotCreator
	ErrEditorNotOpen = errors.New("no editing session is open for this form")
)

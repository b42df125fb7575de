package editor

import (
	"errors"
	"fmt"
)

// Session errors.
var (
	ErrPublished    = errors.New("form is published and can no longer be edited")
	ErrPublishing   = errors.New("form is being published")
	ErrClosed       = errors.New("editing session is closed")
	ErrIndex        = errors.New("question index out of range")
	ErrLastQuestion = errors.New("a form needs at least one question")
	ErrNotCreator   = errors.New("only the form creator can edit it")
)

// PublishStep names one step of the publish sequence.
type PublishStep string

const (
	StepMetadata PublishStep = "metadata"
	StepTransfer PublishStep = "transfer"
	StepFlag     PublishStep = "publish_flag"
)

// PublishError reports the step at which publishing stopped.
type PublishError struct {
	Step PublishStep
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish stopped at %s: %v", e.Step, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

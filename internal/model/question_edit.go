package model

import (
	"errors"
	"fmt"
)

// MinOptions is the floor for option-bearing questions while editing.
const MinOptions = 2

// Defaults for freshly created questions and ranges.
const (
	DefaultQuestionTitle = "Untitled Question"
	DefaultRangeMin      = 1
	DefaultRangeMax      = 10
)

// Question editing errors.
var (
	ErrNotOptionBearing = errors.New("question type has no options")
	ErrOptionIndex      = errors.New("option index out of range")
	ErrOptionFloor      = errors.New("option-bearing questions need at least 2 options")
	ErrInvalidRange     = errors.New("range minimum exceeds maximum")
)

// NewQuestion returns the question added by an editor: required, untitled, Essay.
func NewQuestion(formID string) Question {
	return Question{
		FormID:        formID,
		QuestionTitle: DefaultQuestionTitle,
		IsRequired:    true,
		QuestionType:  Essay{},
	}
}

// DefaultOptions returns the two seed options used when a question gains options.
func DefaultOptions() []string {
	return []string{optionLabel(1), optionLabel(2)}
}

func optionLabel(n int) string {
	return fmt.Sprintf("Option %d", n)
}

// ChangeType switches q to kind. Variant payload is dropped except when moving
// between the two option-bearing variants, which keep their options. Unknown
// kinds leave q unchanged.
func ChangeType(q Question, kind QuestionKind) Question {
	if q.Kind() == kind && q.QuestionType != nil {
		return q.Clone()
	}
	current, _ := q.Options()
	opts := cloneStrings(current)
	if len(opts) == 0 {
		opts = DefaultOptions()
	}

	out := q
	switch kind {
	case KindEssay:
		out.QuestionType = Essay{}
	case KindMultipleChoice:
		out.QuestionType = MultipleChoice{Options: opts}
	case KindCheckbox:
		out.QuestionType = Checkbox{Options: opts}
	case KindRange:
		out.QuestionType = Range{MinRange: DefaultRangeMin, MaxRange: DefaultRangeMax}
	default:
		return q.Clone()
	}
	return out
}

// AddOption appends "Option N" to an option-bearing question.
func AddOption(q Question) (Question, error) {
	return editOptions(q, func(opts []string) ([]string, error) {
		return append(opts, optionLabel(len(opts)+1)), nil
	})
}

// UpdateOption replaces the label at index.
func UpdateOption(q Question, index int, value string) (Question, error) {
	return editOptions(q, func(opts []string) ([]string, error) {
		if index < 0 || index >= len(opts) {
			return nil, ErrOptionIndex
		}
		opts[index] = value
		return opts, nil
	})
}

// RemoveOption deletes the option at index. It is rejected, leaving q as is,
// when the question is already at the option floor.
func RemoveOption(q Question, index int) (Question, error) {
	return editOptions(q, func(opts []string) ([]string, error) {
		if index < 0 || index >= len(opts) {
			return nil, ErrOptionIndex
		}
		if len(opts) <= MinOptions {
			return nil, ErrOptionFloor
		}
		return append(opts[:index], opts[index+1:]...), nil
	})
}

// SetRange updates the bounds of a Range question.
func SetRange(q Question, minRange, maxRange int64) (Question, error) {
	if _, ok := q.QuestionType.(Range); !ok {
		return q, fmt.Errorf("set range on %s question: %w", q.Kind(), ErrNotOptionBearing)
	}
	if minRange > maxRange {
		return q, ErrInvalidRange
	}
	out := q
	out.QuestionType = Range{MinRange: minRange, MaxRange: maxRange}
	return out, nil
}

func editOptions(q Question, fn func([]string) ([]string, error)) (Question, error) {
	current, ok := q.Options()
	if !ok {
		return q, ErrNotOptionBearing
	}
	next, err := fn(cloneStrings(current))
	if err != nil {
		return q, err
	}
	out := q
	switch q.QuestionType.(type) {
	case MultipleChoice:
		out.QuestionType = MultipleChoice{Options: next}
	case Checkbox:
		out.QuestionType = Checkbox{Options: next}
	}
	return out, nil
}

// ValidateQuestion checks the structural invariants of a question.
func ValidateQuestion(q Question) error {
	switch t := q.QuestionType.(type) {
	case nil, Essay:
		return nil
	case MultipleChoice:
		if len(t.Options) < MinOptions {
			return ErrOptionFloor
		}
	case Checkbox:
		if len(t.Options) < MinOptions {
			return ErrOptionFloor
		}
	case Range:
		if t.MinRange > t.MaxRange {
			return ErrInvalidRange
		}
	}
	return nil
}

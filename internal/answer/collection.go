package answer

import (
	"context"
	"fmt"
	"time"

	"github.com/stemsi/surveychain/internal/model"
)

// Submitter delivers a finished answer set to the backend.
type Submitter interface {
	AddFormResponse(ctx context.Context, formID string, timestamp int64, answers model.Answers) error
}

// Collection holds one respondent's in-progress answers for a form.
// It is not safe for concurrent use.
type Collection struct {
	formID    string
	questions []model.Question
	metadata  model.Metadata
	values    []model.Answer
}

// NewCollection starts an empty answer set for form.
func NewCollection(form model.Form) *Collection {
	qs := make([]model.Question, len(form.Questions))
	for i, q := range form.Questions {
		qs[i] = q.Clone()
	}
	return &Collection{
		formID:    form.ID,
		questions: qs,
		metadata:  form.Metadata.Clone(),
		values:    make([]model.Answer, len(qs)),
	}
}

// FormID returns the id of the answered form.
func (c *Collection) FormID() string { return c.formID }

// Len returns the number of questions.
func (c *Collection) Len() int { return len(c.questions) }

// SetAnswer records or overwrites the value for question i. A nil value or an
// absent payload clears it. Values that do not fit the question are rejected
// and leave the previous value in place.
func (c *Collection) SetAnswer(i int, value model.Answer) error {
	if i < 0 || i >= len(c.questions) {
		return &MalformedError{Index: i, Reason: fmt.Sprintf("no question at index %d", i)}
	}
	if value == nil {
		c.values[i] = nil
		return nil
	}
	if err := check(i, c.questions[i], value); err != nil {
		return err
	}
	c.values[i] = copyAnswer(value)
	return nil
}

// Answer returns the recorded value for question i, or nil.
func (c *Collection) Answer(i int) model.Answer {
	if i < 0 || i >= len(c.values) || c.values[i] == nil {
		return nil
	}
	return copyAnswer(c.values[i])
}

// Validate returns the indices of required questions without a present answer.
func (c *Collection) Validate() []int {
	return Validate(c.questions, c.values)
}

// BuildSubmission returns the wire answers, one per question.
func (c *Collection) BuildSubmission() model.Answers {
	return BuildSubmission(c.questions, c.values)
}

// Open reports whether the form currently accepts responses.
func (c *Collection) Open(now time.Time) error {
	if !c.metadata.Published {
		return ErrNotPublished
	}
	if d := c.metadata.Deadline; d != nil && *d > 0 && now.UnixNano() > *d {
		return ErrDeadlinePassed
	}
	return nil
}

// Submit validates and sends the answers stamped with now. Nothing is sent if
// validation fails. The collection is left untouched either way so a failed
// submit can be retried.
func (c *Collection) Submit(ctx context.Context, sub Submitter, now time.Time) error {
	if err := c.Open(now); err != nil {
		return err
	}
	if missing := c.Validate(); len(missing) > 0 {
		return &ValidationError{Indices: missing}
	}
	if err := sub.AddFormResponse(ctx, c.formID, now.UnixNano(), c.BuildSubmission()); err != nil {
		return fmt.Errorf("add form response: %w", err)
	}
	return nil
}

// Validate checks values against questions. values may be shorter than
// questions; missing entries count as unanswered. The result is ascending.
func Validate(questions []model.Question, values []model.Answer) []int {
	missing := []int{}
	for i, q := range questions {
		if !q.IsRequired {
			continue
		}
		if v := valueAt(values, i); v == nil || v.Kind() != q.Kind() || !v.Present() {
			missing = append(missing, i)
		}
	}
	return missing
}

// BuildSubmission maps each question to its wire answer. Unanswered questions
// get the empty payload of their variant.
func BuildSubmission(questions []model.Question, values []model.Answer) model.Answers {
	out := make(model.Answers, len(questions))
	for i, q := range questions {
		v := valueAt(values, i)
		if v == nil || v.Kind() != q.Kind() {
			out[i] = model.EmptyAnswer(q.Kind())
			continue
		}
		out[i] = copyAnswer(v)
	}
	return out
}

func valueAt(values []model.Answer, i int) model.Answer {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func check(i int, q model.Question, value model.Answer) error {
	if value.Kind() != q.Kind() {
		return &MalformedError{Index: i, Reason: fmt.Sprintf("%s answer for %s question", value.Kind(), q.Kind())}
	}

	switch v := value.(type) {
	case model.MultipleChoiceAnswer:
		opts, _ := q.Options()
		if v.Index != nil && *v.Index >= uint64(len(opts)) {
			return &MalformedError{Index: i, Reason: fmt.Sprintf("option %d of %d", *v.Index, len(opts))}
		}
	case model.CheckboxAnswer:
		opts, _ := q.Options()
		seen := make(map[uint64]bool, len(v.Indices))
		for _, idx := range v.Indices {
			if idx >= uint64(len(opts)) {
				return &MalformedError{Index: i, Reason: fmt.Sprintf("option %d of %d", idx, len(opts))}
			}
			if seen[idx] {
				return &MalformedError{Index: i, Reason: fmt.Sprintf("option %d selected twice", idx)}
			}
			seen[idx] = true
		}
	case model.RangeAnswer:
		r, _ := q.QuestionType.(model.Range)
		if v.Value != nil && !r.Contains(*v.Value) {
			return &MalformedError{Index: i, Reason: fmt.Sprintf("%d outside [%d, %d]", *v.Value, r.MinRange, r.MaxRange)}
		}
	}
	return nil
}

func copyAnswer(a model.Answer) model.Answer {
	switch v := a.(type) {
	case model.EssayAnswer:
		if v.Text != nil {
			return model.TextAnswer(*v.Text)
		}
	case model.MultipleChoiceAnswer:
		if v.Index != nil {
			return model.ChoiceAnswer(*v.Index)
		}
	case model.CheckboxAnswer:
		return model.ChoicesAnswer(v.Indices...)
	case model.RangeAnswer:
		if v.Value != nil {
			return model.ScaleAnswer(*v.Value)
		}
	}
	return a
}

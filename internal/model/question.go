package model

import (
	"encoding/json"
	"fmt"
)

// QuestionKind names one of the question variants.
type QuestionKind string

const (
	KindEssay          QuestionKind = "Essay"
	KindMultipleChoice QuestionKind = "MultipleChoice"
	KindCheckbox       QuestionKind = "Checkbox"
	KindRange          QuestionKind = "Range"
)

// Valid reports whether k is one of the four known variants.
func (k QuestionKind) Valid() bool {
	switch k {
	case KindEssay, KindMultipleChoice, KindCheckbox, KindRange:
		return true
	}
	return false
}

// QuestionType is the closed set of question variants. Only the types in this
// package implement it; match on it with a type switch.
type QuestionType interface {
	Kind() QuestionKind
	isQuestionType()
}

// Essay expects a free text answer.
type Essay struct{}

// MultipleChoice expects exactly one option index.
type MultipleChoice struct {
	Options []string `json:"options"`
}

// Checkbox expects any subset of option indices.
type Checkbox struct {
	Options []string `json:"options"`
}

// Range expects one integer in [MinRange, MaxRange].
type Range struct {
	MinRange int64 `json:"minRange"`
	MaxRange int64 `json:"maxRange"`
}

func (Essay) Kind() QuestionKind          { return KindEssay }
func (MultipleChoice) Kind() QuestionKind { return KindMultipleChoice }
func (Checkbox) Kind() QuestionKind       { return KindCheckbox }
func (Range) Kind() QuestionKind          { return KindRange }

func (Essay) isQuestionType()          {}
func (MultipleChoice) isQuestionType() {}
func (Checkbox) isQuestionType()       {}
func (Range) isQuestionType()          {}

// Contains reports whether v lies inside the range bounds.
func (r Range) Contains(v int64) bool {
	return v >= r.MinRange && v <= r.MaxRange
}

// Question is a single survey question as the backend stores it.
type Question struct {
	FormID        string       `json:"formId"`
	QuestionTitle string       `json:"questionTitle"`
	IsRequired    bool         `json:"isRequired"`
	QuestionType  QuestionType `json:"questionType"`
}

// Kind returns the variant of the question, defaulting to Essay when unset.
func (q Question) Kind() QuestionKind {
	if q.QuestionType == nil {
		return KindEssay
	}
	return q.QuestionType.Kind()
}

// Options returns the option labels of an option-bearing question.
func (q Question) Options() ([]string, bool) {
	switch t := q.QuestionType.(type) {
	case MultipleChoice:
		return t.Options, true
	case Checkbox:
		return t.Options, true
	default:
		return nil, false
	}
}

// Clone returns a deep copy; option slices are not shared.
func (q Question) Clone() Question {
	out := q
	switch t := q.QuestionType.(type) {
	case MultipleChoice:
		out.QuestionType = MultipleChoice{Options: cloneStrings(t.Options)}
	case Checkbox:
		out.QuestionType = Checkbox{Options: cloneStrings(t.Options)}
	}
	return out
}

type questionWire struct {
	FormID        string          `json:"formId"`
	QuestionTitle string          `json:"questionTitle"`
	IsRequired    bool            `json:"isRequired"`
	QuestionType  json.RawMessage `json:"questionType"`
}

// MarshalJSON encodes the question with its variant as a single-key object.
func (q Question) MarshalJSON() ([]byte, error) {
	qt, err := MarshalQuestionType(q.QuestionType)
	if err != nil {
		return nil, err
	}
	return json.Marshal(questionWire{
		FormID:        q.FormID,
		QuestionTitle: q.QuestionTitle,
		IsRequired:    q.IsRequired,
		QuestionType:  qt,
	})
}

// UnmarshalJSON decodes a question and its variant.
func (q *Question) UnmarshalJSON(data []byte) error {
	var w questionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	qt, err := UnmarshalQuestionType(w.QuestionType)
	if err != nil {
		return err
	}
	*q = Question{
		FormID:        w.FormID,
		QuestionTitle: w.QuestionTitle,
		IsRequired:    w.IsRequired,
		QuestionType:  qt,
	}
	return nil
}

// MarshalQuestionType renders a variant as {"Essay":null}, {"Range":{...}} and so on.
func MarshalQuestionType(t QuestionType) ([]byte, error) {
	switch v := t.(type) {
	case nil:
		return encodeVariant(string(KindEssay), nil)
	case Essay:
		return encodeVariant(string(KindEssay), nil)
	case MultipleChoice:
		return encodeVariant(string(KindMultipleChoice), MultipleChoice{Options: nonNilStrings(v.Options)})
	case Checkbox:
		return encodeVariant(string(KindCheckbox), Checkbox{Options: nonNilStrings(v.Options)})
	case Range:
		return encodeVariant(string(KindRange), v)
	default:
		return nil, fmt.Errorf("marshal question type %T: %w", t, ErrMalformedVariant)
	}
}

// UnmarshalQuestionType parses a single-key variant object.
func UnmarshalQuestionType(data []byte) (QuestionType, error) {
	tag, raw, err := decodeVariant(data)
	if err != nil {
		return nil, err
	}
	switch QuestionKind(tag) {
	case KindEssay:
		return Essay{}, nil
	case KindMultipleChoice:
		var v MultipleChoice
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode MultipleChoice: %w", err)
		}
		return v, nil
	case KindCheckbox:
		var v Checkbox
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode Checkbox: %w", err)
		}
		return v, nil
	case KindRange:
		var v Range
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode Range: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unknown question type %q", ErrMalformedVariant, tag)
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

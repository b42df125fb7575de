package model

import (
	"encoding/json"
	"fmt"
)

// Answer is a respondent's value for one question. Like QuestionType it is a
// closed set: EssayAnswer, MultipleChoiceAnswer, CheckboxAnswer, RangeAnswer.
type Answer interface {
	Kind() QuestionKind
	// Present reports whether the answer carries a value.
	Present() bool
	isAnswer()
}

type EssayAnswer struct{ Text *string }

type MultipleChoiceAnswer struct{ Index *uint64 }

type CheckboxAnswer struct{ Indices []uint64 }

type RangeAnswer struct{ Value *int64 }

func (EssayAnswer) Kind() QuestionKind          { return KindEssay }
func (MultipleChoiceAnswer) Kind() QuestionKind { return KindMultipleChoice }
func (CheckboxAnswer) Kind() QuestionKind       { return KindCheckbox }
func (RangeAnswer) Kind() QuestionKind          { return KindRange }

func (a EssayAnswer) Present() bool          { return a.Text != nil && *a.Text != "" }
func (a MultipleChoiceAnswer) Present() bool { return a.Index != nil }
func (a CheckboxAnswer) Present() bool       { return len(a.Indices) > 0 }
func (a RangeAnswer) Present() bool          { return a.Value != nil }

func (EssayAnswer) isAnswer()          {}
func (MultipleChoiceAnswer) isAnswer() {}
func (CheckboxAnswer) isAnswer()       {}
func (RangeAnswer) isAnswer()          {}

// TextAnswer, ChoiceAnswer, ChoicesAnswer and ScaleAnswer build present answers.
func TextAnswer(s string) Answer { return EssayAnswer{Text: &s} }

func ChoiceAnswer(i uint64) Answer { return MultipleChoiceAnswer{Index: &i} }

func ChoicesAnswer(indices ...uint64) Answer {
	out := make([]uint64, len(indices))
	copy(out, indices)
	return CheckboxAnswer{Indices: out}
}

func ScaleAnswer(v int64) Answer { return RangeAnswer{Value: &v} }

// EmptyAnswer returns the empty-payload form of the variant for kind.
func EmptyAnswer(kind QuestionKind) Answer {
	switch kind {
	case KindMultipleChoice:
		return MultipleChoiceAnswer{}
	case KindCheckbox:
		return CheckboxAnswer{Indices: []uint64{}}
	case KindRange:
		return RangeAnswer{}
	default:
		return EssayAnswer{}
	}
}

// MarshalAnswer renders {"Essay":"text"}, {"MultipleChoice":1}, {"Checkbox":[0,2]}, {"Range":5}.
// Absent optional payloads render as null.
func MarshalAnswer(a Answer) ([]byte, error) {
	switch v := a.(type) {
	case EssayAnswer:
		return encodeVariant(string(KindEssay), v.Text)
	case MultipleChoiceAnswer:
		return encodeVariant(string(KindMultipleChoice), v.Index)
	case CheckboxAnswer:
		indices := v.Indices
		if indices == nil {
			indices = []uint64{}
		}
		return encodeVariant(string(KindCheckbox), indices)
	case RangeAnswer:
		return encodeVariant(string(KindRange), v.Value)
	default:
		return nil, fmt.Errorf("marshal answer %T: %w", a, ErrMalformedVariant)
	}
}

// UnmarshalAnswer parses a single-key answer variant.
func UnmarshalAnswer(data []byte) (Answer, error) {
	tag, raw, err := decodeVariant(data)
	if err != nil {
		return nil, err
	}
	switch QuestionKind(tag) {
	case KindEssay:
		var v EssayAnswer
		if !isNull(raw) {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, fmt.Errorf("decode Essay answer: %w", err)
			}
			v.Text = &s
		}
		return v, nil
	case KindMultipleChoice:
		var v MultipleChoiceAnswer
		if !isNull(raw) {
			var i uint64
			if err := json.Unmarshal(raw, &i); err != nil {
				return nil, fmt.Errorf("decode MultipleChoice answer: %w", err)
			}
			v.Index = &i
		}
		return v, nil
	case KindCheckbox:
		v := CheckboxAnswer{Indices: []uint64{}}
		if !isNull(raw) {
			if err := json.Unmarshal(raw, &v.Indices); err != nil {
				return nil, fmt.Errorf("decode Checkbox answer: %w", err)
			}
		}
		return v, nil
	case KindRange:
		var v RangeAnswer
		if !isNull(raw) {
			var n int64
			if err := json.Unmarshal(raw, &n); err != nil {
				return nil, fmt.Errorf("decode Range answer: %w", err)
			}
			v.Value = &n
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unknown answer type %q", ErrMalformedVariant, tag)
	}
}

// Answers is an ordered answer list with variant-aware JSON.
type Answers []Answer

func (as Answers) MarshalJSON() ([]byte, error) {
	raws := make([]json.RawMessage, len(as))
	for i, a := range as {
		b, err := MarshalAnswer(a)
		if err != nil {
			return nil, fmt.Errorf("answer %d: %w", i, err)
		}
		raws[i] = b
	}
	return json.Marshal(raws)
}

func (as *Answers) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Answers, len(raws))
	for i, raw := range raws {
		a, err := UnmarshalAnswer(raw)
		if err != nil {
			return fmt.Errorf("answer %d: %w", i, err)
		}
		out[i] = a
	}
	*as = out
	return nil
}

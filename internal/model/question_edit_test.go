package model

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestChangeTypeSeedsDefaultOptions(t *testing.T) {
	for _, kind := range []QuestionKind{KindMultipleChoice, KindCheckbox} {
		t.Run(string(kind), func(t *testing.T) {
			q := ChangeType(NewQuestion("form-1"), kind)
			opts, ok := q.Options()
			if !ok {
				t.Fatalf("expected option-bearing question, got %s", q.Kind())
			}
			if !reflect.DeepEqual(opts, []string{"Option 1", "Option 2"}) {
				t.Fatalf("unexpected default options: %v", opts)
			}
		})
	}
}

func TestChangeTypeKeepsOptionsBetweenChoiceVariants(t *testing.T) {
	q := NewQuestion("form-1")
	q.QuestionType = MultipleChoice{Options: []string{"A", "B", "C"}}

	got := ChangeType(q, KindCheckbox)
	cb, ok := got.QuestionType.(Checkbox)
	if !ok {
		t.Fatalf("expected Checkbox, got %T", got.QuestionType)
	}
	if !reflect.DeepEqual(cb.Options, []string{"A", "B", "C"}) {
		t.Fatalf("options not carried over: %v", cb.Options)
	}
}

func TestChangeTypeDropsPayload(t *testing.T) {
	q := NewQuestion("form-1")
	q.QuestionType = Checkbox{Options: []string{"A", "B"}}

	if got := ChangeType(q, KindEssay); got.QuestionType != (Essay{}) {
		t.Fatalf("expected Essay, got %#v", got.QuestionType)
	}
	got := ChangeType(q, KindRange)
	if got.QuestionType != (Range{MinRange: 1, MaxRange: 10}) {
		t.Fatalf("expected default range, got %#v", got.QuestionType)
	}
}

func TestRemoveOptionRejectedAtFloor(t *testing.T) {
	q := ChangeType(NewQuestion("form-1"), KindMultipleChoice)

	got, err := RemoveOption(q, 0)
	if !errors.Is(err, ErrOptionFloor) {
		t.Fatalf("expected ErrOptionFloor, got %v", err)
	}
	if opts, _ := got.Options(); len(opts) != 2 {
		t.Fatalf("question changed on rejected removal: %v", opts)
	}
}

func TestOptionEditing(t *testing.T) {
	q := ChangeType(NewQuestion("form-1"), KindCheckbox)

	q, err := AddOption(q)
	if err != nil {
		t.Fatalf("add option: %v", err)
	}
	q, err = UpdateOption(q, 0, "Red")
	if err != nil {
		t.Fatalf("update option: %v", err)
	}
	q, err = RemoveOption(q, 1)
	if err != nil {
		t.Fatalf("remove option: %v", err)
	}

	opts, _ := q.Options()
	if !reflect.DeepEqual(opts, []string{"Red", "Option 3"}) {
		t.Fatalf("unexpected options: %v", opts)
	}

	if _, err := UpdateOption(q, 5, "x"); !errors.Is(err, ErrOptionIndex) {
		t.Fatalf("expected ErrOptionIndex, got %v", err)
	}
	if _, err := AddOption(NewQuestion("form-1")); !errors.Is(err, ErrNotOptionBearing) {
		t.Fatalf("expected ErrNotOptionBearing, got %v", err)
	}
}

func TestOptionEditDoesNotAliasSource(t *testing.T) {
	src := NewQuestion("form-1")
	src.QuestionType = MultipleChoice{Options: []string{"A", "B", "C"}}

	if _, err := UpdateOption(src, 0, "Z"); err != nil {
		t.Fatalf("update option: %v", err)
	}
	if opts, _ := src.Options(); opts[0] != "A" {
		t.Fatalf("source question mutated: %v", opts)
	}
}

func TestSetRange(t *testing.T) {
	q := ChangeType(NewQuestion("form-1"), KindRange)

	if _, err := SetRange(q, 5, 1); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	got, err := SetRange(q, 0, 5)
	if err != nil {
		t.Fatalf("set range: %v", err)
	}
	if got.QuestionType != (Range{MinRange: 0, MaxRange: 5}) {
		t.Fatalf("unexpected range: %#v", got.QuestionType)
	}
}

func TestQuestionJSONVariants(t *testing.T) {
	q := Question{
		FormID:        "form-1",
		QuestionTitle: "Colour?",
		IsRequired:    true,
		QuestionType:  Checkbox{Options: []string{"A", "B", "C"}},
	}

	b, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"formId":"form-1","questionTitle":"Colour?","isRequired":true,"questionType":{"Checkbox":{"options":["A","B","C"]}}}`
	if string(b) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", b, want)
	}

	var back Question
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back, q) {
		t.Fatalf("round trip mismatch: %#v", back)
	}
}

func TestUnmarshalQuestionTypeRejectsAmbiguousVariant(t *testing.T) {
	_, err := UnmarshalQuestionType([]byte(`{"Essay":null,"Range":{"minRange":1,"maxRange":2}}`))
	if !errors.Is(err, ErrMalformedVariant) {
		t.Fatalf("expected ErrMalformedVariant, got %v", err)
	}
	_, err = UnmarshalQuestionType([]byte(`{"Slider":null}`))
	if !errors.Is(err, ErrMalformedVariant) {
		t.Fatalf("expected ErrMalformedVariant for unknown tag, got %v", err)
	}
}

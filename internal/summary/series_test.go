package summary

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/stemsi/surveychain/internal/model"
)

func labels(s Series) []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Label
	}
	return out
}

func TestFrequencyArrayZipsLabels(t *testing.T) {
	qs := model.QuestionSummary{
		Question: model.Question{QuestionTitle: "Pick", QuestionType: model.Checkbox{Options: []string{"A", "B"}}},
		Summary:  model.FrequencyArray{3, 1, 2},
	}
	s, err := ToChartSeries(qs)
	if err != nil {
		t.Fatal(err)
	}
	if got := labels(s); !reflect.DeepEqual(got, []string{"A", "B", "Option 3"}) {
		t.Fatalf("labels = %v", got)
	}
	if s.Total != 6 || s.Points[0].Count != 3 {
		t.Fatalf("unexpected series %+v", s)
	}
}

func TestFrequencyMapKeepsBackendOrder(t *testing.T) {
	qs := model.QuestionSummary{
		Question: model.Question{QuestionTitle: "Rate", QuestionType: model.Range{MinRange: 1, MaxRange: 10}},
		Summary:  model.FrequencyMap{{Value: 7, Count: 2}, {Value: 3, Count: 5}, {Value: 9, Count: 1}},
	}
	s, err := ToChartSeries(qs)
	if err != nil {
		t.Fatal(err)
	}
	if got := labels(s); !reflect.DeepEqual(got, []string{"7", "3", "9"}) {
		t.Fatalf("order changed: %v", got)
	}
	if *s.Points[1].Value != 3 || s.Points[1].Count != 5 {
		t.Fatalf("unexpected point %+v", s.Points[1])
	}
}

func TestEssayPassThrough(t *testing.T) {
	texts := model.EssaySummary{"good", "bad"}
	s, err := ToChartSeries(model.QuestionSummary{
		Question: model.Question{QuestionTitle: "Why", QuestionType: model.Essay{}},
		Summary:  texts,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s.Texts, []string{"good", "bad"}) || s.Points != nil {
		t.Fatalf("unexpected series %+v", s)
	}
}

func TestVariantMismatch(t *testing.T) {
	tests := []struct {
		name string
		qs   model.QuestionSummary
	}{
		{"array for essay", model.QuestionSummary{Question: model.Question{QuestionType: model.Essay{}}, Summary: model.FrequencyArray{1}}},
		{"map for checkbox", model.QuestionSummary{Question: model.Question{QuestionType: model.Checkbox{Options: []string{"A", "B"}}}, Summary: model.FrequencyMap{}}},
		{"essay for range", model.QuestionSummary{Question: model.Question{QuestionType: model.Range{MaxRange: 3}}, Summary: model.EssaySummary{}}},
		{"missing", model.QuestionSummary{Question: model.Question{QuestionType: model.Essay{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ToChartSeries(tt.qs); !errors.Is(err, ErrVariantMismatch) {
				t.Fatalf("expected ErrVariantMismatch, got %v", err)
			}
		})
	}
}

func TestBuildFromWire(t *testing.T) {
	raw := `[2, [
		{"question":{"formId":"f","questionTitle":"Q1","isRequired":true,"questionType":{"MultipleChoice":{"options":["Yes","No"]}}},
		 "summary":{"FrequencyArray":[2,0]}},
		{"question":{"formId":"f","questionTitle":"Q2","isRequired":false,"questionType":{"Essay":null}},
		 "summary":{"Essay":["hi"]}}
	]]`
	var rs model.ResponseSummary
	if err := json.Unmarshal([]byte(raw), &rs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	report, err := Build(rs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if report.ResponseCount != 2 || len(report.Series) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if got := labels(report.Series[0]); !reflect.DeepEqual(got, []string{"Yes", "No"}) {
		t.Fatalf("labels = %v", got)
	}
}

package model

import (
	"encoding/json"
	"testing"
)

func TestResponseSummaryDecodesTuple(t *testing.T) {
	payload := `[3, [
		{"question":{"formId":"f","questionTitle":"Pick","isRequired":true,"questionType":{"MultipleChoice":{"options":["A","B"]}}},
		 "summary":{"FrequencyArray":[2,1]}},
		{"question":{"formId":"f","questionTitle":"Scale","isRequired":false,"questionType":{"Range":{"minRange":1,"maxRange":10}}},
		 "summary":{"FrequencyMap":[[7,2],[3,1]]}},
		{"question":{"formId":"f","questionTitle":"Why","isRequired":false,"questionType":{"Essay":null}},
		 "summary":{"Essay":["because"]}}
	]]`

	var rs ResponseSummary
	if err := json.Unmarshal([]byte(payload), &rs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rs.ResponseCount != 3 || len(rs.Summaries) != 3 {
		t.Fatalf("unexpected summary: %+v", rs)
	}
	fm, ok := rs.Summaries[1].Summary.(FrequencyMap)
	if !ok {
		t.Fatalf("expected FrequencyMap, got %T", rs.Summaries[1].Summary)
	}
	if fm[0] != (FrequencyEntry{Value: 7, Count: 2}) || fm[1] != (FrequencyEntry{Value: 3, Count: 1}) {
		t.Fatalf("frequency map order or values changed: %+v", fm)
	}
	if es, ok := rs.Summaries[2].Summary.(EssaySummary); !ok || es[0] != "because" {
		t.Fatalf("unexpected essay summary: %#v", rs.Summaries[2].Summary)
	}
}

func TestAnswersJSON(t *testing.T) {
	answers := Answers{TextAnswer("hello"), EmptyAnswer(KindMultipleChoice), ChoicesAnswer(0, 2), ScaleAnswer(5)}
	b, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"Essay":"hello"},{"MultipleChoice":null},{"Checkbox":[0,2]},{"Range":5}]`
	if string(b) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", b, want)
	}

	var back Answers
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[1].Present() || !back[3].Present() {
		t.Fatalf("presence lost in decoding: %#v", back)
	}
}

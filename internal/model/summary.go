package model

import (
	"encoding/json"
	"fmt"
)

// SummaryKind names a summary variant.
type SummaryKind string

const (
	SummaryEssay          SummaryKind = "Essay"
	SummaryFrequencyArray SummaryKind = "FrequencyArray"
	SummaryFrequencyMap   SummaryKind = "FrequencyMap"
)

// Summary is the backend's per-question aggregation. Closed set: EssaySummary,
// FrequencyArray, FrequencyMap.
type Summary interface {
	SummaryKind() SummaryKind
	isSummary()
}

// EssaySummary lists every free text answer.
type EssaySummary []string

// FrequencyArray holds one count per option, aligned to option order.
type FrequencyArray []uint64

// FrequencyMap holds sparse value counts in backend order.
type FrequencyMap []FrequencyEntry

// FrequencyEntry is a (value, count) tuple, encoded as a two-element array.
type FrequencyEntry struct {
	Value int64
	Count uint64
}

func (EssaySummary) SummaryKind() SummaryKind   { return SummaryEssay }
func (FrequencyArray) SummaryKind() SummaryKind { return SummaryFrequencyArray }
func (FrequencyMap) SummaryKind() SummaryKind   { return SummaryFrequencyMap }

func (EssaySummary) isSummary()   {}
func (FrequencyArray) isSummary() {}
func (FrequencyMap) isSummary()   {}

func (e FrequencyEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Value, e.Count})
}

func (e *FrequencyEntry) UnmarshalJSON(data []byte) error {
	var tuple []json.Number
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("decode frequency entry: %w", err)
	}
	if len(tuple) != 2 {
		return fmt.Errorf("decode frequency entry: want 2 elements, got %d", len(tuple))
	}
	v, err := tuple[0].Int64()
	if err != nil {
		return fmt.Errorf("decode frequency value: %w", err)
	}
	var c uint64
	if err := json.Unmarshal([]byte(tuple[1].String()), &c); err != nil {
		return fmt.Errorf("decode frequency count: %w", err)
	}
	*e = FrequencyEntry{Value: v, Count: c}
	return nil
}

// QuestionSummary pairs a question with its aggregated answers.
type QuestionSummary struct {
	Question Question
	Summary  Summary
}

type questionSummaryWire struct {
	Question Question        `json:"question"`
	Summary  json.RawMessage `json:"summary"`
}

func (qs QuestionSummary) MarshalJSON() ([]byte, error) {
	var (
		raw []byte
		err error
	)
	switch s := qs.Summary.(type) {
	case EssaySummary:
		raw, err = encodeVariant(string(SummaryEssay), []string(s))
	case FrequencyArray:
		raw, err = encodeVariant(string(SummaryFrequencyArray), []uint64(s))
	case FrequencyMap:
		raw, err = encodeVariant(string(SummaryFrequencyMap), []FrequencyEntry(s))
	default:
		err = fmt.Errorf("marshal summary %T: %w", qs.Summary, ErrMalformedVariant)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(questionSummaryWire{Question: qs.Question, Summary: raw})
}

func (qs *QuestionSummary) UnmarshalJSON(data []byte) error {
	var w questionSummaryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	tag, raw, err := decodeVariant(w.Summary)
	if err != nil {
		return err
	}
	var s Summary
	switch SummaryKind(tag) {
	case SummaryEssay:
		var v EssaySummary
		err = json.Unmarshal(raw, &v)
		s = v
	case SummaryFrequencyArray:
		var v FrequencyArray
		err = json.Unmarshal(raw, &v)
		s = v
	case SummaryFrequencyMap:
		var v FrequencyMap
		err = json.Unmarshal(raw, &v)
		s = v
	default:
		return fmt.Errorf("%w: unknown summary %q", ErrMalformedVariant, tag)
	}
	if err != nil {
		return fmt.Errorf("decode %s summary: %w", tag, err)
	}
	*qs = QuestionSummary{Question: w.Question, Summary: s}
	return nil
}

// ResponseSummary is the getFormResponseSummary payload, a [count, summaries] tuple on the wire.
type ResponseSummary struct {
	ResponseCount uint64
	Summaries     []QuestionSummary
}

func (rs ResponseSummary) MarshalJSON() ([]byte, error) {
	summaries := rs.Summaries
	if summaries == nil {
		summaries = []QuestionSummary{}
	}
	return json.Marshal([2]any{rs.ResponseCount, summaries})
}

func (rs *ResponseSummary) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("decode response summary: %w", err)
	}
	if len(tuple) != 2 {
		return fmt.Errorf("decode response summary: want 2 elements, got %d", len(tuple))
	}
	var out ResponseSummary
	if err := json.Unmarshal(tuple[0], &out.ResponseCount); err != nil {
		return fmt.Errorf("decode response count: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &out.Summaries); err != nil {
		return fmt.Errorf("decode question summaries: %w", err)
	}
	*rs = out
	return nil
}

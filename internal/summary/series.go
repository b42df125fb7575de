package summary

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/stemsi/surveychain/internal/model"
)

var ErrVariantMismatch = errors.New("summary variant does not match question type")

// Point is one bar of a frequency chart.
type Point struct {
	Label string `json:"label"`
	Value *int64 `json:"value,omitempty"`
	Count uint64 `json:"count"`
}

// Series is the renderable form of one question summary. Frequency variants
// fill Points; Essay fills Texts.
type Series struct {
	Question string             `json:"question"`
	Type     model.QuestionKind `json:"type"`
	Kind     model.SummaryKind  `json:"kind"`
	Points   []Point            `json:"points,omitempty"`
	Texts    []string           `json:"texts,omitempty"`
	Total    uint64             `json:"total"`
}

// Report is the chart view of a whole form.
type Report struct {
	ResponseCount uint64   `json:"response_count"`
	Series        []Series `json:"series"`
}

// ToChartSeries adapts one question summary. Frequency arrays are zipped with
// the option labels in order; counts past the last label are labelled
// "Option N". Frequency maps keep the backend's order.
func ToChartSeries(qs model.QuestionSummary) (Series, error) {
	q := qs.Question
	out := Series{
		Question: q.QuestionTitle,
		Type:     q.Kind(),
	}
	if qs.Summary == nil {
		return out, fmt.Errorf("%q: missing summary: %w", q.QuestionTitle, ErrVariantMismatch)
	}
	out.Kind = qs.Summary.SummaryKind()

	switch s := qs.Summary.(type) {
	case model.EssaySummary:
		if q.Kind() != model.KindEssay {
			return out, mismatch(q, out.Kind)
		}
		out.Texts = append([]string{}, s...)
		out.Total = uint64(len(s))

	case model.FrequencyArray:
		labels, ok := q.Options()
		if !ok {
			return out, mismatch(q, out.Kind)
		}
		out.Points = make([]Point, len(s))
		for i, count := range s {
			label := "Option " + strconv.Itoa(i+1)
			if i < len(labels) {
				label = labels[i]
			}
			out.Points[i] = Point{Label: label, Count: count}
			out.Total += count
		}

	case model.FrequencyMap:
		if q.Kind() != model.KindRange {
			return out, mismatch(q, out.Kind)
		}
		out.Points = make([]Point, len(s))
		for i, e := range s {
			v := e.Value
			out.Points[i] = Point{Label: strconv.FormatInt(v, 10), Value: &v, Count: e.Count}
			out.Total += e.Count
		}

	default:
		return out, mismatch(q, out.Kind)
	}
	return out, nil
}

func mismatch(q model.Question, kind model.SummaryKind) error {
	return fmt.Errorf("%q: %s summary for %s question: %w", q.QuestionTitle, kind, q.Kind(), ErrVariantMismatch)
}

// Build adapts a whole response summary, stopping at the first mismatch.
func Build(rs model.ResponseSummary) (Report, error) {
	report := Report{
		ResponseCount: rs.ResponseCount,
		Series:        make([]Series, 0, len(rs.Summaries)),
	}
	for i, qs := range rs.Summaries {
		s, err := ToChartSeries(qs)
		if err != nil {
			return Report{}, fmt.Errorf("question %d: %w", i, err)
		}
		report.Series = append(report.Series, s)
	}
	return report, nil
}

// Package scoring turns scored MCQ answers into result summaries. All
// functions are pure; persistence and catalog lookups live elsewhere.
package scoring

import (
	"github.com/mindwellhq/mindwell/internal/catalog"
	"github.com/mindwellhq/mindwell/internal/model"
)

// Severity bands a percentage into a coarse result category for display.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// Summary is the computed result of one attempt's MCQ answers.
type Summary struct {
	TotalScore int
	MaxScore   int
	Percentage float64
	Severity   Severity
}

// ResolveScore maps an answer to its catalog score by positional lookup.
// Answers not found among the options score 0, as do questions whose
// options and scores are misaligned.
func ResolveScore(q catalog.Question, answer string) int {
	for i, opt := range q.Options {
		if opt == answer {
			if i < len(q.Scores) {
				return q.Scores[i]
			}
			return 0
		}
	}
	return 0
}

// Summarize sums per-answer scores into a total, maximum, and percentage.
// An attempt with no answers yields a zero summary rather than NaN.
func Summarize(answers []model.MCQAnswer) Summary {
	var sum Summary
	for _, a := range answers {
		sum.TotalScore += a.Score
	}
	sum.MaxScore = len(answers) * catalog.MaxQuestionScore
	if sum.MaxScore > 0 {
		sum.Percentage = float64(sum.TotalScore) / float64(sum.MaxScore) * 100
	}
	sum.Severity = severityFor(sum.Percentage)
	return sum
}

func severityFor(pct float64) Severity {
	switch {
	case pct < 100.0/3:
		return SeverityLow
	case pct < 200.0/3:
		return SeverityModerate
	default:
		return SeverityHigh
	}
}

package scoring

import (
	"math"
	"testing"

	"github.com/mindwellhq/mindwell/internal/catalog"
	"github.com/mindwellhq/mindwell/internal/model"
)

var likert = catalog.Question{
	ID:      1,
	Prompt:  "How often?",
	Options: []string{"Never", "Sometimes", "Often", "Always"},
	Scores:  []int{0, 1, 2, 3},
}

func TestResolveScore(t *testing.T) {
	tests := []struct {
		name   string
		q      catalog.Question
		answer string
		want   int
	}{
		{"first option", likert, "Never", 0},
		{"middle option", likert, "Often", 2},
		{"last option", likert, "Always", 3},
		{"unmatched answer", likert, "Maybe", 0},
		{"empty answer", likert, "", 0},
		{"case sensitive", likert, "often", 0},
		{"misaligned scores", catalog.Question{
			Options: []string{"A", "B"},
			Scores:  []int{1},
		}, "B", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveScore(tt.q, tt.answer); got != tt.want {
				t.Errorf("ResolveScore(%q) = %d, want %d", tt.answer, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	answers := []model.MCQAnswer{
		{QuestionID: 1, Answer: "Often", Score: 2},
		{QuestionID: 2, Answer: "Always", Score: 3},
		{QuestionID: 3, Answer: "Never", Score: 0},
	}

	sum := Summarize(answers)
	if sum.TotalScore != 5 {
		t.Errorf("TotalScore = %d, want 5", sum.TotalScore)
	}
	if sum.MaxScore != 9 {
		t.Errorf("MaxScore = %d, want 9", sum.MaxScore)
	}
	wantPct := 5.0 / 9.0 * 100
	if math.Abs(sum.Percentage-wantPct) > 1e-9 {
		t.Errorf("Percentage = %f, want %f", sum.Percentage, wantPct)
	}
}

func TestSummarizeSampleScenario(t *testing.T) {
	// A single "Often" answer against a 0..3 scale scores 2 of 3.
	score := ResolveScore(likert, "Often")
	if score != 2 {
		t.Fatalf("ResolveScore = %d, want 2", score)
	}
	sum := Summarize([]model.MCQAnswer{{QuestionID: 1, Answer: "Often", Score: score}})
	if sum.TotalScore != 2 || sum.MaxScore != 3 {
		t.Errorf("got total %d max %d, want 2 and 3", sum.TotalScore, sum.MaxScore)
	}
	if math.Abs(sum.Percentage-66.666666) > 0.001 {
		t.Errorf("Percentage = %f, want ~66.67", sum.Percentage)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	if sum.TotalScore != 0 || sum.MaxScore != 0 {
		t.Errorf("got total %d max %d, want zeros", sum.TotalScore, sum.MaxScore)
	}
	if sum.Percentage != 0 {
		t.Errorf("Percentage = %f, want 0 (no NaN)", sum.Percentage)
	}
	if math.IsNaN(sum.Percentage) {
		t.Error("Percentage must never be NaN")
	}
}

func TestPercentageBounds(t *testing.T) {
	tests := []struct {
		name    string
		answers []model.MCQAnswer
	}{
		{"all zero", []model.MCQAnswer{{Score: 0}, {Score: 0}}},
		{"all max", []model.MCQAnswer{{Score: 3}, {Score: 3}}},
		{"mixed", []model.MCQAnswer{{Score: 1}, {Score: 2}, {Score: 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := Summarize(tt.answers)
			if sum.Percentage < 0 || sum.Percentage > 100 {
				t.Errorf("Percentage %f out of [0,100]", sum.Percentage)
			}
		})
	}
}

func TestSeverityBands(t *testing.T) {
	tests := []struct {
		answers []model.MCQAnswer
		want    Severity
	}{
		{[]model.MCQAnswer{{Score: 0}}, SeverityLow},
		{[]model.MCQAnswer{{Score: 1}, {Score: 1}}, SeverityModerate},
		{[]model.MCQAnswer{{Score: 3}}, SeverityHigh},
	}
	for _, tt := range tests {
		if got := Summarize(tt.answers).Severity; got != tt.want {
			t.Errorf("Severity = %q, want %q", got, tt.want)
		}
	}
}

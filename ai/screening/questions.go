package screening

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Answer scales.
var (
	FrequencyOptions = []string{"Never", "Rarely", "Sometimes", "Often", "Always"}
	HistoryOptions   = []string{"No", "Not sure", "Yes"}
)

// Answers that count towards the risk rules.
var (
	highConcern   = map[string]bool{"Often": true, "Always": true, "Yes": true}
	mediumConcern = map[string]bool{"Sometimes": true}
)

// Question is one screening question.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"question"`
	Options []string `json:"options"`
}

// DefaultQuestions returns the parent screening questionnaire.
func DefaultQuestions() []Question {
	texts := []string{
		"Does your child have difficulty learning the alphabet?",
		"Does your child struggle to identify rhyming words?",
		"Does your child have trouble sounding out unfamiliar words?",
		"Does your child confuse letters that look similar (like b/d, p/q)?",
		"Does your child read slowly compared to peers?",
		"Does your child avoid reading aloud?",
		"Does your child have difficulty remembering what they've read?",
		"Does your child frequently spell the same word differently?",
		"Does your child struggle with organizing thoughts in writing?",
	}
	qs := make([]Question, 0, len(texts)+1)
	for i, text := range texts {
		qs = append(qs, Question{ID: i + 1, Text: text, Options: FrequencyOptions})
	}
	return append(qs, Question{
		ID:      len(texts) + 1,
		Text:    "Does your child have a family history of reading difficulties?",
		Options: HistoryOptions,
	})
}

// Resolve maps raw input to one of q's options. It accepts the option text
// in any case or its 1-based position.
func (q Question) Resolve(input string) (string, error) {
	input = strings.TrimSpace(input)
	for _, opt := range q.Options {
		if strings.EqualFold(opt, input) {
			return opt, nil
		}
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(q.Options) {
		return q.Options[n-1], nil
	}
	return "", errors.Errorf("question %d: %q is not one of %s", q.ID, input, strings.Join(q.Options, ", "))
}

// Package screening scores the parent questionnaire for dyslexia
// indicators. It is a conversation starter, not a diagnosis.
package screening

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// Level is the overall indicator level of a questionnaire.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// ErrNoAnswers is returned when scoring an empty questionnaire.
var ErrNoAnswers = errors.New("no answers to score")

// Rule assigns Level when Expr holds. Expr is a CEL expression over the
// integer variables high, medium and answered.
type Rule struct {
	Level Level
	Expr  string
}

// DefaultRules are checked in order; LevelLow applies when none matches.
func DefaultRules() []Rule {
	return []Rule{
		{Level: LevelHigh, Expr: "high >= 5"},
		{Level: LevelMedium, Expr: "high >= 3 || (high >= 2 && medium >= 3)"},
	}
}

type compiledRule struct {
	Rule
	prg cel.Program
}

// Scorer scores answers against a question set.
type Scorer struct {
	questions map[int]Question
	rules     []compiledRule
}

// NewScorer compiles rules for questions. Nil arguments select the defaults.
func NewScorer(questions []Question, rules []Rule) (*Scorer, error) {
	if questions == nil {
		questions = DefaultQuestions()
	}
	if rules == nil {
		rules = DefaultRules()
	}

	env, err := cel.NewEnv(
		cel.Variable("high", cel.IntType),
		cel.Variable("medium", cel.IntType),
		cel.Variable("answered", cel.IntType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}

	s := &Scorer{questions: make(map[int]Question, len(questions))}
	for _, q := range questions {
		s.questions[q.ID] = q
	}
	for _, r := range rules {
		ast, issues := env.Compile(r.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, errors.Wrapf(issues.Err(), "invalid %s rule: %s", r.Level, r.Expr)
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, errors.Errorf("%s rule %q must evaluate to bool, got %s", r.Level, r.Expr, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build %s rule", r.Level)
		}
		s.rules = append(s.rules, compiledRule{Rule: r, prg: prg})
	}
	return s, nil
}

// Questions returns the question set in id order.
func (s *Scorer) Questions() []Question {
	qs := make([]Question, 0, len(s.questions))
	for _, q := range s.questions {
		qs = append(qs, q)
	}
	sort.Slice(qs, func(i, j int) bool { return qs[i].ID < qs[j].ID })
	return qs
}

// Result is a scored questionnaire.
type Result struct {
	Level           Level    `json:"risk_level"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	High            int      `json:"high_concern"`
	Medium          int      `json:"medium_concern"`
	Answered        int      `json:"answered"`
	Recommendations []string `json:"recommendations"`
}

// Analyze scores answers keyed by question id. Every answer must resolve to
// one of its question's options; unanswered questions are allowed.
func (s *Scorer) Analyze(answers map[int]string) (*Result, error) {
	if len(answers) == 0 {
		return nil, ErrNoAnswers
	}

	res := &Result{Answered: len(answers)}
	for id, raw := range answers {
		q, ok := s.questions[id]
		if !ok {
			return nil, errors.Errorf("unknown question %d", id)
		}
		answer, err := q.Resolve(raw)
		if err != nil {
			return nil, err
		}
		switch {
		case highConcern[answer]:
			res.High++
		case mediumConcern[answer]:
			res.Medium++
		}
	}

	res.Level = LevelLow
	vars := map[string]any{
		"high":     int64(res.High),
		"medium":   int64(res.Medium),
		"answered": int64(res.Answered),
	}
	for _, r := range s.rules {
		out, _, err := r.prg.Eval(vars)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to evaluate %s rule", r.Level)
		}
		if matched, ok := out.Value().(bool); ok && matched {
			res.Level = r.Level
			break
		}
	}

	info := levelInfo[res.Level]
	res.Title = info.title
	res.Description = info.description
	res.Recommendations = Recommendations(res.Level)
	return res, nil
}

var levelInfo = map[Level]struct{ title, description string }{
	LevelHigh: {
		"Significant Dyslexia Indicators",
		"Based on your responses, there are several indicators that suggest your child may be experiencing challenges consistent with dyslexia.",
	},
	LevelMedium: {
		"Moderate Dyslexia Indicators",
		"Based on your responses, there are some indicators that your child may be experiencing reading challenges that could be related to dyslexia.",
	},
	LevelLow: {
		"Few Dyslexia Indicators",
		"Based on your responses, there are few indicators associated with dyslexia. However, it's still beneficial to support your child's reading development.",
	},
}

var (
	commonRecommendations = []string{
		"Use multi-sensory learning approaches (visual, auditory, tactile)",
		"Practice reading regularly with texts at an appropriate level",
		"Focus on phonological awareness skills",
	}
	levelRecommendations = map[Level][]string{
		LevelHigh: {
			"Consider a professional evaluation by an educational psychologist",
			"Explore structured literacy programs specifically designed for dyslexia",
			"Discuss accommodations with your child's school",
		},
		LevelMedium: {
			"Monitor your child's reading progress closely",
			"Try strategies like colored overlays or dyslexia-friendly fonts",
			"Consider additional reading support through tutoring",
		},
		LevelLow: {
			"Continue supporting regular reading practice",
			"Encourage reading for enjoyment with high-interest materials",
			"Build vocabulary through conversation and reading aloud",
		},
	}
)

// Recommendations returns the common suggestions followed by the ones for
// level. Unknown levels get the low-level suggestions.
func Recommendations(level Level) []string {
	extra, ok := levelRecommendations[level]
	if !ok {
		extra = levelRecommendations[LevelLow]
	}
	out := make([]string, 0, len(commonRecommendations)+len(extra))
	out = append(out, commonRecommendations...)
	return append(out, extra...)
}

// Report renders the result as a chat-style message: the title and
// description as prose, then the recommendations as a numbered list.
func (r *Result) Report() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n%s\n\nRecommended next steps:\n", r.Title, r.Description)
	for i, rec := range r.Recommendations {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rec)
	}
	return sb.String()
}

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/readle/ai/format"
	"github.com/hrygo/readle/ai/screening"
)

func newQuizCmd(v *viper.Viper) *cobra.Command {
	var answers []string

	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Score the dyslexia screening questionnaire",
		Long: `Scores the parent questionnaire for dyslexia indicators. Answers come from
repeated --answer N=VALUE flags, where VALUE is an option name or its number;
without them each question is asked on stdin (Enter skips a question).

The result is a conversation starter, not a diagnosis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile(v, false)
			if err != nil {
				return err
			}
			scorer, err := screening.NewScorer(nil, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var given map[int]string
			if len(answers) > 0 {
				given, err = parseAnswers(answers)
			} else {
				given, err = askQuestions(cmd.InOrStdin(), out, scorer.Questions())
			}
			if err != nil {
				return err
			}

			res, err := scorer.Analyze(given)
			if err != nil {
				return err
			}

			if p.Output == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			r, err := newRenderer(p, out)
			if err != nil {
				return err
			}
			frags := format.New(format.Options{MinListItems: p.MinListItems}).Format(res.Report())
			return r.Render(out, frags)
		},
	}
	cmd.Flags().StringArrayVarP(&answers, "answer", "a", nil, "answer as N=VALUE, e.g. 3=Often or 3=4 (repeatable)")
	return cmd
}

// parseAnswers turns N=VALUE pairs into answers keyed by question id.
// Values are checked later against the question's options.
func parseAnswers(pairs []string) (map[int]string, error) {
	answers := make(map[int]string, len(pairs))
	for _, pair := range pairs {
		id, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.Errorf("answer %q must look like N=VALUE", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil || n < 1 {
			return nil, errors.Errorf("answer %q: %q is not a question number", pair, id)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, errors.Errorf("answer %q has no value", pair)
		}
		answers[n] = value
	}
	return answers, nil
}

// askQuestions asks each question on w and reads the answers from r until
// the questions or the input run out.
func askQuestions(r io.Reader, w io.Writer, questions []screening.Question) (map[int]string, error) {
	answers := make(map[int]string, len(questions))
	scanner := bufio.NewScanner(r)

	for _, q := range questions {
		fmt.Fprintf(w, "\n%d. %s\n", q.ID, q.Text)
		for i, opt := range q.Options {
			fmt.Fprintf(w, "   %d) %s\n", i+1, opt)
		}
		for {
			fmt.Fprint(w, "> ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, errors.Wrap(err, "failed to read answer")
				}
				return answers, nil
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				break
			}
			answer, err := q.Resolve(input)
			if err != nil {
				fmt.Fprintln(w, err)
				continue
			}
			answers[q.ID] = answer
			break
		}
	}
	return answers, nil
}

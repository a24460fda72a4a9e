package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"career-mentor/internal/fields"
	"career-mentor/internal/prompt"
)

func newRoadmapCommand() *cobra.Command {
	var field, answersPath string
	cmd := &cobra.Command{
		Use:   "roadmap",
		Short: "Draft a roadmap from a YAML file of answers and print it as JSON",
		Example: `  counselor roadmap --answers answers.yaml --field "data science"

answers.yaml:
  interests_strengths: statistics, puzzles
  values_motivation: impact
  math_background: linear algebra`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			answers, err := readAnswers(answersPath)
			if err != nil {
				return err
			}
			if field == "" {
				field = answers[prompt.KeyPreferredField]
			}
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := a.Roadmap(cmd.Context(), field, answers)
			if out.Fallback {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: using the fallback roadmap (%s)\n", out.Reason)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out.Draft)
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "career field; defaults to the preferred_field answer")
	cmd.Flags().StringVar(&answersPath, "answers", "", "YAML map of answer key to answer text")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func readAnswers(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read answers")
	}
	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "parse answers %s", path)
	}
	answers := make(map[string]string, len(raw))
	for k, v := range raw {
		answers[fields.Normalize(k)] = v
	}
	return answers, nil
}

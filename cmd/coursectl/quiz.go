package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stemsi/course-builder/internal/quiz"
	"github.com/stemsi/course-builder/internal/service"
	"gopkg.in/yaml.v3"
)

func loadQuiz(path string) (quiz.Form, error) {
	var form quiz.Form
	raw, err := os.ReadFile(path)
	if err != nil {
		return form, err
	}
	if err := yaml.Unmarshal(raw, &form); err != nil {
		return form, fmt.Errorf("parse %s: %w", path, err)
	}
	return form, nil
}

func newQuizCommand(g *globals) *cobra.Command {
	var (
		file      string
		contentID int64
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Create a quiz with its questions and options on existing content",
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := loadQuiz(file)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("content-id") {
				form.ContentID = contentID
			}

			if dryRun {
				problems := quiz.ValidateQuizData(form)
				if len(problems) > 0 {
					printProblems(cmd.OutOrStdout(), problems)
					return errors.New("quiz is invalid")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d question(s)\n", file, len(form.Questions))
				return nil
			}

			svc, userID, err := g.submissionService(cmd)
			if err != nil {
				return err
			}
			res, err := svc.CreateCompleteQuiz(cmd.Context(), userID, form)
			var ve *service.ValidationError
			if errors.As(err, &ve) {
				printProblems(cmd.ErrOrStderr(), ve.Problems)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Quiz YAML file")
	cmd.Flags().Int64Var(&contentID, "content-id", 0, "Override the file's contentId")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only validate the quiz")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

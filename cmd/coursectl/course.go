package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/stemsi/course-builder/internal/draft"
	"github.com/stemsi/course-builder/internal/service"
	"gopkg.in/yaml.v3"
)

// loadCourse reads a course YAML file into a draft. Relative file paths are
// resolved against the file's directory and missing ids are filled in.
func loadCourse(path string) (*draft.Draft, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	d := draft.New()
	if err := yaml.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	base := filepath.Dir(path)
	resolve := func(ref *draft.FileRef) {
		if ref == nil || ref.Path == "" || filepath.IsAbs(ref.Path) {
			return
		}
		ref.Path = filepath.Join(base, ref.Path)
		if ref.Filename == "" {
			ref.Filename = filepath.Base(ref.Path)
		}
	}
	resolve(d.Basic.Image)

	for i := range d.Sections {
		s := &d.Sections[i]
		if s.ID == "" {
			s.ID = fmt.Sprintf("section-%d", i+1)
		}
		for j := range s.Contents {
			c := &s.Contents[j]
			if c.ID == "" {
				c.ID = fmt.Sprintf("%s-content-%d", s.ID, j+1)
			}
			if f, ok := c.Body.(draft.File); ok {
				resolve(&f.File)
				c.Body = f
			}
		}
	}
	d.SetTarget()
	return d, nil
}

func printProblems(w io.Writer, problems []string) {
	for _, p := range problems {
		fmt.Fprintln(w, "  -", p)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newValidateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a course file without contacting the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadCourse(file)
			if err != nil {
				return err
			}
			problems := draft.ValidateCourse(d)
			if len(problems) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has %d problem(s):\n", file, len(problems))
				printProblems(cmd.OutOrStdout(), problems)
				return errors.New("course is invalid")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d section(s)\n", file, len(d.Sections))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Course YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSubmitCommand(g *globals) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Create the course described by a course file",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadCourse(file)
			if err != nil {
				return err
			}
			svc, userID, err := g.submissionService(cmd)
			if err != nil {
				return err
			}

			res, err := svc.CreateCourse(cmd.Context(), userID, d)
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
	cmd.Flags().StringVarP(&file, "file", "f", "", "Course YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

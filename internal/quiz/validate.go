package quiz

import (
	"fmt"
	"strings"
)

// ValidateQuizData checks a quiz form without touching the network and
// returns every problem found. An empty slice means the form is submittable.
func ValidateQuizData(form Form) []string {
	errs := []string{}

	if form.ContentID <= 0 {
		errs = append(errs, "Content id is required")
	}
	if len(form.Questions) == 0 {
		errs = append(errs, "At least one question is required")
	}

	for i, q := range form.Questions {
		errs = append(errs, ValidateQuestion(i+1, q)...)
	}

	return errs
}

// ValidateQuestion checks a single question; n is its 1-based position used
// in the messages.
func ValidateQuestion(n int, q FormQuestion) []string {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("Question %d: ", n)+fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(q.Text) == "" {
		fail("text is required")
	}

	c := q.Content
	switch q.Type {
	case KindChoice, KindMultiple:
		if len(nonBlank(c.Answers)) < 2 {
			fail("at least 2 answers are required")
		}
		if len(c.CorrectAnswers) == 0 {
			fail("at least one correct answer is required")
		}
		if q.Type == KindChoice && len(c.CorrectAnswers) > 1 {
			fail("single choice questions accept exactly one correct answer")
		}
		for _, a := range c.CorrectAnswers {
			if !contains(c.Answers, a) {
				fail("correct answer %q is not among the answers", a)
			}
		}
	case KindReorder:
		if len(nonBlank(c.Answers)) < 2 {
			fail("at least 2 items are required to reorder")
		}
	case KindFillGap:
		if len(nonBlank(c.CorrectAnswers)) == 0 {
			fail("at least one correct answer is required")
		}
	case KindCategorize:
		if len(c.Categories) == 0 {
			fail("at least one category is required")
		}
		for j, cat := range c.Categories {
			if strings.TrimSpace(cat.Name) == "" {
				fail("category %d needs a name", j+1)
			}
			if len(nonBlank(cat.Answers)) == 0 {
				fail("category %d needs at least one answer", j+1)
			}
		}
	default:
		fail("unknown question type %q", q.Type)
	}

	return errs
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func contains(items []string, want string) bool {
	for _, s := range items {
		if s == want {
			return true
		}
	}
	return false
}

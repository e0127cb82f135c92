// Package quiz maps quiz form input onto the Backend API's quiz, question and
// option rows.
package quiz

import (
	"github.com/stemsi/course-builder/internal/ticks"
)

// Question kinds as submitted by the dashboard forms.
const (
	KindChoice     = "choice"
	KindMultiple   = "multiple"
	KindReorder    = "reorder"
	KindFillGap    = "fillgap"
	KindCategorize = "categorize"
)

// Backend question type ids.
const (
	TypeChoice     = 1
	TypeMultiple   = 2
	TypeReorder    = 3
	TypeFillGap    = 4
	TypeCategorize = 5
)

// QuestionTypeID maps a form kind to the backend's numeric question type.
// Unknown kinds fall back to single choice.
func QuestionTypeID(kind string) int {
	switch kind {
	case KindChoice:
		return TypeChoice
	case KindMultiple:
		return TypeMultiple
	case KindReorder:
		return TypeReorder
	case KindFillGap:
		return TypeFillGap
	case KindCategorize:
		return TypeCategorize
	default:
		return TypeChoice
	}
}

// FormCategory is one bucket of a categorize question.
type FormCategory struct {
	Name    string   `json:"name" yaml:"name"`
	Answers []string `json:"answers" yaml:"answers"`
}

// FormContent holds the answer material of a form question. Which fields are
// meaningful depends on the question kind.
type FormContent struct {
	Answers          []string       `json:"answers,omitempty" yaml:"answers,omitempty"`
	CorrectAnswers   []string       `json:"correctAnswers,omitempty" yaml:"correctAnswers,omitempty"`
	IncorrectAnswers []string       `json:"incorrectAnswers,omitempty" yaml:"incorrectAnswers,omitempty"`
	Categories       []FormCategory `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// FormQuestion is a question as edited in the quiz modal.
type FormQuestion struct {
	CorrelationID string      `json:"correlationId,omitempty" yaml:"correlationId,omitempty"`
	Type          string      `json:"type" yaml:"type"`
	Text          string      `json:"text" yaml:"text"`
	Title         string      `json:"title,omitempty" yaml:"title,omitempty"`
	QuestionRate  float64     `json:"questionRate" yaml:"questionRate"`
	Duration      any         `json:"duration,omitempty" yaml:"duration,omitempty"`
	HasDuration   bool        `json:"hasDuration" yaml:"hasDuration"`
	CanSkip       bool        `json:"canSkip" yaml:"canSkip"`
	Content       FormContent `json:"content" yaml:"content"`
}

// Form is a complete quiz submission for one quiz-typed content item.
type Form struct {
	ContentID int64          `json:"contentId" yaml:"contentId"`
	Duration  any            `json:"duration,omitempty" yaml:"duration,omitempty"`
	CanSkip   bool           `json:"canSkip" yaml:"canSkip"`
	Questions []FormQuestion `json:"questions" yaml:"questions"`
}

// Question is one row of the AddQuestion request.
type Question struct {
	CorrelationID string      `json:"correlationId,omitempty"`
	QuizID        int64       `json:"quizId"`
	Text          string      `json:"text"`
	Title         string      `json:"title"`
	QuestionRate  float64     `json:"questionRate"`
	Duration      ticks.Ticks `json:"duration"`
	HasDuration   bool        `json:"hasDuration"`
	CanSkip       bool        `json:"canSkip"`
	QuestionType  int         `json:"questionType"`
	Categories    []string    `json:"categories"`
}

// Option is one row of the AddOption request.
type Option struct {
	QuestionID int64  `json:"questionId"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"isCorrect"`
	Order      int    `json:"order"`
	GapText    string `json:"gapText"`
	Category   string `json:"category"`
}

// BuildQuestion converts a form question into its API row.
func BuildQuestion(quizID int64, q FormQuestion) Question {
	categories := []string{}
	if q.Type == KindCategorize {
		for _, c := range q.Content.Categories {
			categories = append(categories, c.Name)
		}
	}

	return Question{
		CorrelationID: q.CorrelationID,
		QuizID:        quizID,
		Text:          q.Text,
		Title:         q.Title,
		QuestionRate:  q.QuestionRate,
		Duration:      ticks.FromInput(q.Duration),
		HasDuration:   q.HasDuration,
		CanSkip:       q.CanSkip,
		QuestionType:  QuestionTypeID(q.Type),
		Categories:    categories,
	}
}

// BuildQuestions converts every question of a form, preserving order.
func BuildQuestions(quizID int64, form Form) []Question {
	out := make([]Question, len(form.Questions))
	for i, q := range form.Questions {
		out[i] = BuildQuestion(quizID, q)
	}
	return out
}

// FormatOptionsForAPI derives the option rows of one question. Order is
// 1-based and continuous across correct and incorrect answers.
func FormatOptionsForAPI(q FormQuestion, questionID int64) []Option {
	options := []Option{}
	add := func(text string, correct bool, category string) {
		options = append(options, Option{
			QuestionID: questionID,
			Text:       text,
			IsCorrect:  correct,
			Order:      len(options) + 1,
			Category:   category,
		})
	}

	switch q.Type {
	case KindChoice, KindMultiple:
		correct := make(map[string]struct{}, len(q.Content.CorrectAnswers))
		for _, a := range q.Content.CorrectAnswers {
			correct[a] = struct{}{}
		}
		for _, a := range q.Content.Answers {
			_, ok := correct[a]
			add(a, ok, "")
		}
	case KindFillGap:
		for _, a := range q.Content.CorrectAnswers {
			add(a, true, "")
		}
		for _, a := range q.Content.IncorrectAnswers {
			add(a, false, "")
		}
	case KindCategorize:
		for _, c := range q.Content.Categories {
			for _, a := range c.Answers {
				add(a, true, c.Name)
			}
		}
	case KindReorder:
		for _, a := range q.Content.Answers {
			add(a, true, "")
		}
	}

	return options
}

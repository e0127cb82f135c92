package quiz

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/stemsi/course-builder/internal/ticks"
)

func TestQuestionTypeID(t *testing.T) {
	tests := map[string]int{
		"choice":     1,
		"multiple":   2,
		"reorder":    3,
		"fillgap":    4,
		"categorize": 5,
		"unknown":    1,
		"":           1,
	}
	for kind, want := range tests {
		if got := QuestionTypeID(kind); got != want {
			t.Errorf("QuestionTypeID(%q) = %d, want %d", kind, got, want)
		}
	}
}

func TestFormatOptionsForAPI_FillGap(t *testing.T) {
	q := FormQuestion{
		Type: KindFillGap,
		Content: FormContent{
			CorrectAnswers:   []string{"a", "b"},
			IncorrectAnswers: []string{"c"},
		},
	}

	got := FormatOptionsForAPI(q, 7)
	want := []Option{
		{QuestionID: 7, Text: "a", IsCorrect: true, Order: 1},
		{QuestionID: 7, Text: "b", IsCorrect: true, Order: 2},
		{QuestionID: 7, Text: "c", IsCorrect: false, Order: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FormatOptionsForAPI() = %+v, want %+v", got, want)
	}
}

func TestFormatOptionsForAPI_Kinds(t *testing.T) {
	tests := []struct {
		name string
		q    FormQuestion
		want []Option
	}{
		{
			name: "choice marks membership in correct answers",
			q: FormQuestion{Type: KindChoice, Content: FormContent{
				Answers:        []string{"x", "y", "z"},
				CorrectAnswers: []string{"y"},
			}},
			want: []Option{
				{QuestionID: 3, Text: "x", Order: 1},
				{QuestionID: 3, Text: "y", IsCorrect: true, Order: 2},
				{QuestionID: 3, Text: "z", Order: 3},
			},
		},
		{
			name: "multiple allows several correct answers",
			q: FormQuestion{Type: KindMultiple, Content: FormContent{
				Answers:        []string{"x", "y"},
				CorrectAnswers: []string{"x", "y"},
			}},
			want: []Option{
				{QuestionID: 3, Text: "x", IsCorrect: true, Order: 1},
				{QuestionID: 3, Text: "y", IsCorrect: true, Order: 2},
			},
		},
		{
			name: "categorize flattens and tags with category",
			q: FormQuestion{Type: KindCategorize, Content: FormContent{
				Categories: []FormCategory{
					{Name: "fruit", Answers: []string{"apple", "pear"}},
					{Name: "veg", Answers: []string{"leek"}},
				},
			}},
			want: []Option{
				{QuestionID: 3, Text: "apple", IsCorrect: true, Order: 1, Category: "fruit"},
				{QuestionID: 3, Text: "pear", IsCorrect: true, Order: 2, Category: "fruit"},
				{QuestionID: 3, Text: "leek", IsCorrect: true, Order: 3, Category: "veg"},
			},
		},
		{
			name: "reorder keeps original order",
			q: FormQuestion{Type: KindReorder, Content: FormContent{
				Answers: []string{"first", "second"},
			}},
			want: []Option{
				{QuestionID: 3, Text: "first", IsCorrect: true, Order: 1},
				{QuestionID: 3, Text: "second", IsCorrect: true, Order: 2},
			},
		},
		{
			name: "unknown kind yields no options",
			q:    FormQuestion{Type: "essay", Content: FormContent{Answers: []string{"x"}}},
			want: []Option{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatOptionsForAPI(tt.q, 3)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildQuestion(t *testing.T) {
	q := FormQuestion{
		CorrelationID: "c-1",
		Type:          KindCategorize,
		Text:          "Sort these",
		Title:         "Sorting",
		QuestionRate:  2.5,
		Duration:      "0:30",
		HasDuration:   true,
		Content: FormContent{Categories: []FormCategory{
			{Name: "a", Answers: []string{"1"}},
			{Name: "b", Answers: []string{"2"}},
		}},
	}

	got := BuildQuestion(42, q)
	if got.QuizID != 42 || got.QuestionType != TypeCategorize {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.Duration.Ticks != 30*ticks.TicksPerSecond {
		t.Errorf("Duration = %d", got.Duration.Ticks)
	}
	if !reflect.DeepEqual(got.Categories, []string{"a", "b"}) {
		t.Errorf("Categories = %v", got.Categories)
	}

	raw, _ := json.Marshal(BuildQuestion(1, FormQuestion{Type: KindChoice}))
	if !strings.Contains(string(raw), `"categories":[]`) {
		t.Errorf("non-categorize questions must send an empty list: %s", raw)
	}
	if !strings.Contains(string(raw), `"duration":{"ticks":600000000}`) {
		t.Errorf("missing duration must default to a minute: %s", raw)
	}
}

func validChoice(text string) FormQuestion {
	return FormQuestion{
		Type: KindChoice,
		Text: text,
		Content: FormContent{
			Answers:        []string{"yes", "no"},
			CorrectAnswers: []string{"yes"},
		},
	}
}

func TestValidateQuizData(t *testing.T) {
	form := Form{ContentID: 5, Questions: []FormQuestion{validChoice("One?"), validChoice("Two?")}}
	if errs := ValidateQuizData(form); len(errs) != 0 {
		t.Fatalf("valid form reported errors: %v", errs)
	}

	tests := []struct {
		name    string
		form    Form
		wantSub string
	}{
		{"missing content", Form{Questions: []FormQuestion{validChoice("a")}}, "Content id is required"},
		{"no questions", Form{ContentID: 1}, "At least one question"},
		{"blank text", Form{ContentID: 1, Questions: []FormQuestion{validChoice(" ")}}, "Question 1: text is required"},
		{
			"choice with one answer",
			Form{ContentID: 1, Questions: []FormQuestion{{Type: KindChoice, Text: "q", Content: FormContent{
				Answers: []string{"a"}, CorrectAnswers: []string{"a"},
			}}}},
			"at least 2 answers",
		},
		{
			"choice without correct",
			Form{ContentID: 1, Questions: []FormQuestion{{Type: KindChoice, Text: "q", Content: FormContent{
				Answers: []string{"a", "b"},
			}}}},
			"at least one correct answer",
		},
		{
			"correct answer not offered",
			Form{ContentID: 1, Questions: []FormQuestion{{Type: KindMultiple, Text: "q", Content: FormContent{
				Answers: []string{"a", "b"}, CorrectAnswers: []string{"c"},
			}}}},
			`"c" is not among the answers`,
		},
		{
			"reorder too short",
			Form{ContentID: 1, Questions: []FormQuestion{{Type: KindReorder, Text: "q", Content: FormContent{
				Answers: []string{"a"},
			}}}},
			"at least 2 items",
		},
		{
			"fillgap without correct",
			Form{ContentID: 1, Questions: []FormQuestion{{Type: KindFillGap, Text: "q"}}},
			"at least one correct answer",
		},
		{
			"categorize empty category",
			Form{ContentID: 1, Questions: []FormQuestion{{Type: KindCategorize, Text: "q", Content: FormContent{
				Categories: []FormCategory{{Name: "a"}},
			}}}},
			"category 1 needs at least one answer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateQuizData(tt.form)
			if !containsSub(errs, tt.wantSub) {
				t.Errorf("errors %v do not mention %q", errs, tt.wantSub)
			}
		})
	}
}

func containsSub(errs []string, sub string) bool {
	for _, e := range errs {
		if strings.Contains(e, sub) {
			return true
		}
	}
	return false
}

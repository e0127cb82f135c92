package payload

import (
	"fmt"
	"strconv"

	"github.com/stemsi/course-builder/internal/draft"
	"github.com/stemsi/course-builder/internal/quiz"
	"github.com/stemsi/course-builder/internal/ticks"
)

// BuildCourseForm assembles the POST /Course body from a draft. Field names
// mix bracket and dot paths because that is what the backend's model binder
// accepts; they must not be normalised.
func BuildCourseForm(d *draft.Draft, userID int) *Form {
	f := &Form{}
	b := d.Basic

	f.Add("Name", b.Name)
	f.Add("Description", b.Description)
	for _, id := range b.TargetGroupIDs {
		f.AddInt("TargetGroupId", int64(id))
	}
	f.AddBool("VerifiedCertificate", b.VerifiedCertificate)
	f.Add("Duration", b.Duration)
	f.AddInt("CategoryId", int64(b.CategoryID))
	f.AddInt("UserId", int64(userID))
	if b.Image != nil && b.Image.Path != "" {
		f.AddFile("imageFile", b.Image.Filename, b.Image.ContentType, b.Image.Path)
	}

	for i, r := range d.SuccessionRates {
		p := fmt.Sprintf("SuccessionRates[%d]", i)
		f.AddInt(p+"[certificateId]", int64(r.CertificateID))
		f.AddInt(p+"[minRange]", int64(r.MinRange))
		f.AddInt(p+"[maxRange]", int64(r.MaxRange))
	}

	for i, s := range d.Sections {
		p := fmt.Sprintf("Sections[%d]", i)
		f.Add(p+"[description]", s.Description)
		f.Add(p+"[duration]", s.Duration)
		f.AddBool(p+"[hideSection]", s.HideSection)
		f.AddBool(p+"[mandatory]", s.Mandatory)

		for j, c := range s.Contents {
			addContent(f, i, j, c)
		}
	}

	return f
}

func addContent(f *Form, i, j int, c draft.Content) {
	f.AddInt(fmt.Sprintf("Sections[%d][contents][%d][type]", i, j), int64(c.Body.TypeCode()))
	p := fmt.Sprintf("Sections[%d].Contents[%d]", i, j)

	if s, ok := draft.ContentString(c.Body); ok {
		f.Add(p+".contentString", s)
	}

	switch b := c.Body.(type) {
	case draft.File:
		if b.File.Path != "" {
			f.AddFile(p+".ContentFile", b.File.Filename, b.File.ContentType, b.File.Path)
		}
	case draft.Quiz:
		addQuiz(f, p+".quizzes[0]", b)
	}
}

func addQuiz(f *Form, p string, q draft.Quiz) {
	f.Add(p+"[duration]", ticks.TicksJSON(ticks.ParseDurationToTicks(q.Duration)))
	f.AddBool(p+"[canSkip]", q.CanSkip)

	for k, fq := range q.Questions {
		row := quiz.BuildQuestion(0, fq)
		qp := fmt.Sprintf("%s.questions[%d]", p, k)

		f.Add(qp+"[text]", row.Text)
		f.Add(qp+"[title]", row.Title)
		f.AddFloat(qp+"[questionRate]", row.QuestionRate)
		f.Add(qp+"[duration]", ticks.TicksJSON(row.Duration.Ticks))
		f.AddBool(qp+"[hasDuration]", row.HasDuration)
		f.AddBool(qp+"[canSkip]", row.CanSkip)
		f.Add(qp+"[questionType]", strconv.Itoa(row.QuestionType))
		for c, name := range row.Categories {
			f.Add(fmt.Sprintf("%s[categories][%d]", qp, c), name)
		}

		for l, o := range quiz.FormatOptionsForAPI(fq, 0) {
			op := fmt.Sprintf("%s.options[%d]", qp, l)
			f.Add(op+"[text]", o.Text)
			f.AddBool(op+"[isCorrect]", o.IsCorrect)
			f.Add(op+"[order]", strconv.Itoa(o.Order))
			f.Add(op+"[gapText]", o.GapText)
			f.Add(op+"[category]", o.Category)
		}
	}
}

// BuildAddQuizForm assembles the POST /Course/AddQuiz body.
func BuildAddQuizForm(contentID int64, duration any, canSkip bool) *Form {
	f := &Form{}
	f.AddInt("ContentId", contentID)
	f.Add("Duration", ticks.TicksJSON(ticks.ParseDurationToTicks(duration)))
	f.AddBool("CanSkip", canSkip)
	return f
}

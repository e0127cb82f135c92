package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stemsi/course-builder/internal/draft"
	"github.com/stemsi/course-builder/internal/quiz"
)

// trans is the singleton English translator for validation errors.
var trans ut.Translator

// domain tags and their messages.
var customTags = map[string]struct {
	fn  govalidator.Func
	msg string
}{
	"wizard_step": {
		fn:  func(fl govalidator.FieldLevel) bool { return draft.Step(fl.Field().String()).Valid() },
		msg: "{0} must be basicInfo, courseContent or targetGroups",
	},
	"content_kind": {
		fn: func(fl govalidator.FieldLevel) bool {
			switch draft.ContentKind(fl.Field().String()) {
			case draft.KindTextPage, draft.KindTextBox, draft.KindURL, draft.KindFile, draft.KindQuiz:
				return true
			}
			return false
		},
		msg: "{0} must be textPage, textBox, url, file or quiz",
	},
	"question_kind": {
		fn: func(fl govalidator.FieldLevel) bool {
			switch fl.Field().String() {
			case quiz.KindChoice, quiz.KindMultiple, quiz.KindReorder, quiz.KindFillGap, quiz.KindCategorize:
				return true
			}
			return false
		},
		msg: "{0} is not a known question type",
	},
}

// Setup registers the validator with English translations on Gin's binding engine.
// Call once during application startup.
func Setup() {
	if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
		// Use JSON tag name for field names in error messages.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})

		// Register English translations.
		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		en_translations.RegisterDefaultTranslations(v, trans)

		for tag, ct := range customTags {
			_ = v.RegisterValidation(tag, ct.fn)
			registerMessage(v, tag, ct.msg)
		}
	}
}

func registerMessage(v *govalidator.Validate, tag, msg string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, msg, true) },
		func(t ut.Translator, fe govalidator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name → human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// BindQuery binds and validates query parameters into dst.
func BindQuery(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindQuery(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

package editor

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ValidationError reports the first missing required field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// articleForm lists the required fields in the order they are checked.
type articleForm struct {
	Title      string `validate:"notblank"`
	Content    string `validate:"notblank"`
	CategoryID int64  `validate:"required"`
}

var fieldMessages = map[string]ValidationError{
	"Title":      {Field: "title", Message: "Naslov je obavezan"},
	"Content":    {Field: "content", Message: "Sadržaj je obavezan"},
	"CategoryID": {Field: "category", Message: "Kategorija je obavezna"},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Validate checks title, content and category in that order and reports only
// the first failure.
func Validate(f Fields) *ValidationError {
	err := validate.Struct(articleForm{Title: f.Title, Content: f.Content, CategoryID: f.CategoryID})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "form", Message: err.Error()}
	}
	first := fieldMessages[verrs[0].StructField()]
	return &first
}

package parser

import "fmt"

// Reason classifies a parse failure
type Reason string

const (
	ReasonInvalidJSON       Reason = "INVALID_JSON"
	ReasonNoChoices         Reason = "NO_CHOICES"
	ReasonMissingContent    Reason = "MISSING_CONTENT"
	ReasonMissingMealName   Reason = "MISSING_MEAL_NAME"
	ReasonMissingArrayField Reason = "MISSING_ARRAY_FIELD"
	ReasonNoImageData       Reason = "NO_IMAGE_DATA"
	ReasonMissingImageURL   Reason = "MISSING_IMAGE_URL"
)

// ParseFailure is returned when a model response cannot be turned into a domain value.
type ParseFailure struct {
	Reason Reason
	// Field is set for ReasonMissingArrayField.
	Field string
	Err   error
}

func (f *ParseFailure) Error() string {
	msg := fmt.Sprintf("parse failed: %s", f.Reason)
	if f.Field != "" {
		msg += fmt.Sprintf(" (%s)", f.Field)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *ParseFailure) Unwrap() error {
	return f.Err
}

func failure(reason Reason, err error) *ParseFailure {
	return &ParseFailure{Reason: reason, Err: err}
}

package service

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names the pipeline step an AIGenerationError came from.
type Stage string

const (
	StageText       Stage = "TEXT"
	StageParseText  Stage = "PARSE_TEXT"
	StageImage      Stage = "IMAGE"
	StageParseImage Stage = "PARSE_IMAGE"
	StageRelocate   Stage = "RELOCATE"
)

// Causes set by the service itself. Client and parser failures carry their own
// cause strings (ai.Cause and parser.Reason).
const (
	CauseTimeout  = "TIMEOUT"
	CauseCanceled = "CANCELED"
	CauseStorage  = "STORAGE"
)

var (
	ErrDraftNotFound  = errors.New("draft not found")
	ErrRecipeNotFound = errors.New("recipe not found")
)

// InvalidIngredientsError is returned before any outbound call when the
// ingredient list is empty or an element fails the lexical pattern.
type InvalidIngredientsError struct {
	// Index is -1 when the list itself is empty.
	Index      int
	Ingredient string
	Reason     string
}

func (e *InvalidIngredientsError) Error() string {
	if e.Index < 0 {
		return "Ingredients list cannot be empty"
	}
	return fmt.Sprintf("Invalid ingredient format: %q", e.Ingredient)
}

// AIGenerationError wraps any failure of a generation or parse step.
type AIGenerationError struct {
	Stage Stage
	Cause string
	Err   error
}

func (e *AIGenerationError) Error() string {
	msg := fmt.Sprintf("meal generation failed at %s", e.Stage)
	if e.Cause != "" {
		msg += fmt.Sprintf(" (%s)", e.Cause)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AIGenerationError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the step ran out of time
func (e *AIGenerationError) Timeout() bool {
	return e.Cause == CauseTimeout
}

// Canceled reports whether the caller went away
func (e *AIGenerationError) Canceled() bool {
	return e.Cause == CauseCanceled
}

// Message is the caller-facing description. It names the stage and never
// includes upstream response text.
func (e *AIGenerationError) Message() string {
	switch {
	case e.Timeout():
		return fmt.Sprintf("%s generation timed out", stageNoun(e.Stage))
	case e.Canceled():
		return "request was canceled"
	}
	switch e.Stage {
	case StageParseText, StageParseImage:
		return fmt.Sprintf("could not read the %s response", stageNoun(e.Stage))
	case StageRelocate:
		return "could not store the generated image"
	}
	return fmt.Sprintf("%s generation failed", stageNoun(e.Stage))
}

func stageNoun(s Stage) string {
	switch s {
	case StageText, StageParseText:
		return "recipe"
	case StageImage, StageParseImage, StageRelocate:
		return "image"
	}
	return strings.ToLower(string(s))
}

// RelocationError is returned by an ImageRelocator when the source image
// cannot be fetched or the durable copy cannot be written.
type RelocationError struct {
	SourceURL string
	Err       error
}

func (e *RelocationError) Error() string {
	if e.Err == nil {
		return "image relocation failed"
	}
	return "image relocation failed: " + e.Err.Error()
}

func (e *RelocationError) Unwrap() error {
	return e.Err
}

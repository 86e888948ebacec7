package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names the generation service that failed
type Stage string

const (
	StageChat  Stage = "CHAT"
	StageImage Stage = "IMAGE"
)

// Cause classifies why a generation call failed
type Cause string

const (
	CauseTransport      Cause = "TRANSPORT"
	CauseStatus         Cause = "STATUS"
	CauseTimeout        Cause = "TIMEOUT"
	CauseCanceled       Cause = "CANCELED"
	CauseInvalidRequest Cause = "INVALID_REQUEST"
)

// GenerationFailure is returned by the chat and image clients. The upstream
// response body is logged by the client and never carried here.
type GenerationFailure struct {
	Stage      Stage
	Cause      Cause
	StatusCode int
	Err        error
}

func (f *GenerationFailure) Error() string {
	msg := fmt.Sprintf("%s generation failed (%s)", strings.ToLower(string(f.Stage)), f.Cause)
	if f.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", f.StatusCode)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *GenerationFailure) Unwrap() error {
	return f.Err
}

// CauseOf returns the cause of the first GenerationFailure in err's chain, or "".
func CauseOf(err error) Cause {
	var gf *GenerationFailure
	if errors.As(err, &gf) {
		return gf.Cause
	}
	return ""
}

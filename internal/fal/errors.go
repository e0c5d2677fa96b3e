package fal

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a generation call failed.
type ErrorKind string

const (
	SubmissionFailed ErrorKind = "submission_failed"
	PollFailed       ErrorKind = "poll_failed"
	RemoteFailed     ErrorKind = "remote_failed"
	RemoteCancelled  ErrorKind = "remote_cancelled"
	Timeout          ErrorKind = "timeout"
	EmptyResult      ErrorKind = "empty_result"
)

// GenerationError is returned for every failed Submit, Await, or Generate call.
// StatusCode and Body are set when the queue answered with a non-2xx status.
type GenerationError struct {
	Kind       ErrorKind
	RequestID  string
	Message    string
	StatusCode int
	Body       string
	Err        error
}

func (e *GenerationError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: %d", msg, e.StatusCode)
		if e.Body != "" {
			msg += " - " + e.Body
		}
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// KindOf reports the ErrorKind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind, true
	}
	return "", false
}

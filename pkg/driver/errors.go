package driver

import (
	"errors"

	"github.com/pd360/onecoretts/core"
)

// newInitializationFailure builds the InitializationFailure error kind: the
// engine or wave player could not start, including the bounded-wait
// timeout being exceeded.
func newInitializationFailure(op, msg string, cause error) error {
	return core.New(op, core.ErrInitializationFailure, msg, cause)
}

// newNoSuchVoice builds the NoSuchVoice error kind: SetVoice was called
// with an id absent from the current voice list.
func newNoSuchVoice(op, id string) error {
	return core.New(op, core.ErrNoSuchVoice, "no voice with id "+id, nil)
}

// newEngineError builds the EngineError kind: an engine primitive returned
// a non-success result, propagated from a parameter setter or the
// synchronous portion of Speak.
func newEngineError(op string, cause error) error {
	return core.New(op, core.ErrEngine, "engine primitive failed", cause)
}

// newInvalidSequence builds the InternalError kind for a caller-supplied
// Sequence that fails its own structural validation, e.g. a Phoneme with an
// empty IPA or fallback string.
func newInvalidSequence(op string, cause error) error {
	return core.New(op, core.ErrInternal, "invalid speech sequence", cause)
}

// IsNoSuchVoice reports whether err is the NoSuchVoice error kind.
func IsNoSuchVoice(err error) bool {
	var e *core.Error
	return errors.As(err, &e) && e.Code == core.ErrNoSuchVoice
}

// IsInitializationFailure reports whether err is the InitializationFailure
// error kind.
func IsInitializationFailure(err error) bool {
	var e *core.Error
	return errors.As(err, &e) && e.Code == core.ErrInitializationFailure
}

// IsEngineError reports whether err is the EngineError kind.
func IsEngineError(err error) bool {
	var e *core.Error
	return errors.As(err, &e) && e.Code == core.ErrEngine
}

// IsInvalidSequence reports whether err was returned because the Sequence
// passed to Speak failed structural validation.
func IsInvalidSequence(err error) bool {
	var e *core.Error
	return errors.As(err, &e) && e.Code == core.ErrInternal
}

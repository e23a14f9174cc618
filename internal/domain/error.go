package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrThreadFinished  = errors.New("thread is not active")
	ErrNotThreadOwner  = errors.New("thread belongs to another user")
	ErrTurnInProgress  = errors.New("another turn is already running on this thread")
)

// TurnErrorKind classifies where inside a chat turn a failure happened,
// so the transport layer can pick a status without inspecting messages.
type TurnErrorKind string

const (
	TurnSearch     TurnErrorKind = "search"
	TurnCompletion TurnErrorKind = "completion"
	TurnHistory    TurnErrorKind = "history"
)

// TurnError tags an underlying error with the pipeline stage it came from.
type TurnError struct {
	Kind TurnErrorKind
	Err  error
}

func (e *TurnError) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }
func (e *TurnError) Unwrap() error { return e.Err }

func SearchErr(err error) error     { return &TurnError{Kind: TurnSearch, Err: err} }
func CompletionErr(err error) error { return &TurnError{Kind: TurnCompletion, Err: err} }
func HistoryErr(err error) error    { return &TurnError{Kind: TurnHistory, Err: err} }

// TurnKind returns the stage tag of err, or "" when err is untagged.
func TurnKind(err error) TurnErrorKind {
	var te *TurnError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

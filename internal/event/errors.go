package event

import (
	"errors"
	"fmt"
)

var (
	ErrBusNotRunning        = errors.New("event bus is not running")
	ErrBusAlreadyRunning    = errors.New("event bus is already running")
	ErrInvalidEvent         = errors.New("invalid event")
	ErrInvalidTopic         = errors.New("invalid topic")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNilHandler           = errors.New("handler cannot be nil")

	// ErrHandlerPanic matches every *PanicError.
	ErrHandlerPanic = errors.New("handler panicked")
)

// HandlerError is a handler failure during delivery of one event.
type HandlerError struct {
	SubscriptionID string
	Topic          string
	Err            error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("subscription %s on %s: %v", e.SubscriptionID, e.Topic, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// PanicError is a recovered handler panic. Stack holds the goroutine stack
// at the point of the panic.
type PanicError struct {
	SubscriptionID string
	Topic          string
	Value          any
	Stack          string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("subscription %s on %s panicked: %v", e.SubscriptionID, e.Topic, e.Value)
}

func (e *PanicError) Is(target error) bool { return target == ErrHandlerPanic }

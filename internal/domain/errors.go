package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrCustomerNotFound = errors.New("customer not found")

// FieldError is one violated constraint on one field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	return fmt.Sprintf("El campo '%s' %s", e.Field, e.Message)
}

// ValidationError carries every violated constraint in validation order.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

func (e *ValidationError) Messages() []string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.String())
	}
	return msgs
}

// StoreError wraps any failure coming from the persistence layer.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Detail is the operation text followed by the innermost cause message.
func (e *StoreError) Detail() string {
	return e.Op + ": " + rootCause(e.Err).Error()
}

// PhotoIOError wraps a failure while copying an uploaded photo into storage.
type PhotoIOError struct {
	Op  string
	Err error
}

func (e *PhotoIOError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PhotoIOError) Unwrap() error {
	return e.Err
}

func (e *PhotoIOError) Detail() string {
	return e.Op + ": " + rootCause(e.Err).Error()
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

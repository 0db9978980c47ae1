package usecase

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "LEAD_NOT_FOUND"
	CodeInvalidStage      = "INVALID_STAGE"
	CodeNothingToImport   = "NO_VALID_ROWS"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeSessionNotFound   = "IMPORT_SESSION_NOT_FOUND"
)

// DomainError is a business-rule rejection the caller can act on.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// DomainCode returns the code of the first DomainError in err's chain.
func DomainCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// InputError carries every field problem found in a lead form.
type InputError struct {
	Errors []ValidationError
}

func (e *InputError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + " (" + fe.Message + ")"
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// FormatError aborts an import: the text cannot be read as a lead sheet at all.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return e.Message
}

func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// StoreError wraps any Record Store failure. It is never retried here.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

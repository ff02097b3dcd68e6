package pricing

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrLogic          = errors.New("logic error")
	ErrRecordNotFound = errors.New("record not found")
)

type ValidationError struct {
	fields map[string][]string
}

func newValidationError() *ValidationError {
	return &ValidationError{
		fields: make(map[string][]string),
	}
}

func IsValidationError(err error) *ValidationError {
	if err == nil {
		return nil
	}

	var validationErr *ValidationError

	if errors.As(err, &validationErr) {
		return validationErr
	}

	return nil
}

func (ve *ValidationError) fieldsCount() int {
	return len(ve.fields)
}

func (ve *ValidationError) addError(field, msg string) {
	ve.fields[field] = append(ve.fields[field], msg)
}

func (ve *ValidationError) orNil() error {
	if ve.fieldsCount() > 0 {
		return ve
	}

	return nil
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %+v", ve.fields)
}

func (ve *ValidationError) Fields() map[string][]string {
	return ve.fields
}

type ConflictError struct {
	UnitID       string
	Start        time.Time
	End          time.Time
	BlockedDates []time.Time
}

func IsConflictError(err error) *ConflictError {
	if err == nil {
		return nil
	}

	var conflictErr *ConflictError

	if errors.As(err, &conflictErr) {
		return conflictErr
	}

	return nil
}

func (e *ConflictError) Error() string {
	dates := make([]string, 0, len(e.BlockedDates))
	for _, d := range e.BlockedDates {
		dates = append(dates, FormatDate(d))
	}

	return fmt.Sprintf(
		"unit '%v' is unavailable from %v to %v, blocked dates %v",
		e.UnitID,
		FormatDate(e.Start),
		FormatDate(e.End),
		dates,
	)
}

type ComputationError struct {
	Reason string
}

func newComputationError(format string, v ...any) *ComputationError {
	return &ComputationError{Reason: fmt.Sprintf(format, v...)}
}

func IsComputationError(err error) *ComputationError {
	if err == nil {
		return nil
	}

	var computationErr *ComputationError

	if errors.As(err, &computationErr) {
		return computationErr
	}

	return nil
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed: %s", e.Reason)
}

func (e *ComputationError) Unwrap() error {
	return ErrLogic
}

package apperrors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ValidationError represents malformed client input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ItemUnavailableError is returned when a flower is missing or deactivated
type ItemUnavailableError struct {
	FlowerID uint
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("flower %d is not available", e.FlowerID)
}

// InsufficientStockError is returned when a reservation asks for more than is in stock
type InsufficientStockError struct {
	FlowerID  uint
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for flower %d: available %d, requested %d",
		e.FlowerID, e.Available, e.Requested)
}

// NegativeStockError is returned when a stock adjustment would drop stock below zero
type NegativeStockError struct {
	FlowerID uint
	Current  int
	Delta    int
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("adjusting stock of flower %d by %d would leave %d units",
		e.FlowerID, e.Delta, e.Current+e.Delta)
}

// ProfileResolutionError is returned when a principal cannot be mapped to a customer profile
type ProfileResolutionError struct {
	Message string
}

func (e *ProfileResolutionError) Error() string {
	return e.Message
}

// NotFoundError represents a lookup miss
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// TransientError wraps a failure that is safe to retry as a whole
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err (or anything it wraps) is a TransientError
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsBusiness reports whether err belongs to the caller-recoverable taxonomy
func IsBusiness(err error) bool {
	var (
		ve *ValidationError
		iu *ItemUnavailableError
		is *InsufficientStockError
		ns *NegativeStockError
		pr *ProfileResolutionError
		nf *NotFoundError
	)
	return errors.As(err, &ve) || errors.As(err, &iu) || errors.As(err, &is) ||
		errors.As(err, &ns) || errors.As(err, &pr) || errors.As(err, &nf)
}

// Postgres SQLSTATE codes that mean "try the whole transaction again"
var retryablePgCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57014": true, // query_canceled (statement_timeout)
}

// Classify wraps driver and context errors that are safe to retry in a TransientError.
// Business errors and already-classified errors are returned unchanged.
func Classify(err error) error {
	if err == nil || IsTransient(err) || IsBusiness(err) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && retryablePgCodes[pgErr.Code] {
		return &TransientError{Err: err}
	}

	// SQLite reports contention as SQLITE_BUSY / SQLITE_LOCKED
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "deadlock") {
		return &TransientError{Err: err}
	}

	return err
}

// IsUniqueViolation checks for duplicate key errors (works with both PostgreSQL and SQLite)
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate") ||
		strings.Contains(errMsg, "unique constraint")
}

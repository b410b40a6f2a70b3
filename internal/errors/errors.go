package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/plantmanager/internal/logger"
)

var (
	// ErrStorageFailure marks a device persistence fault. The last committed
	// value for the affected key is left intact.
	ErrStorageFailure = errors.New("storage failure")
	// ErrNotInitialized is returned when the store has not been created yet.
	ErrNotInitialized = errors.New("storage not initialized, run 'plantmanager init' first")
	// ErrDuplicateID is returned when a plant with the same id is already saved.
	ErrDuplicateID = errors.New("duplicate plant id")
	// ErrNotFound is returned when no saved plant matches the id.
	ErrNotFound = errors.New("plant not found")
	// ErrCatalogUnavailable wraps any network, status or decoding failure of the catalog service.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrInvalidHandle is returned for notification handles this scheduler never issued.
	ErrInvalidHandle = errors.New("invalid notification handle")
	// ErrInvalidInput is returned when user supplied values fail validation.
	ErrInvalidInput = errors.New("invalid input")
)

// StorageFailure wraps err so that errors.Is(result, ErrStorageFailure) holds.
func StorageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageFailure) || errors.Is(err, ErrNotInitialized) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}

// DuplicateID reports a rejected insert for id.
func DuplicateID(id string) error {
	return fmt.Errorf("%w: %s", ErrDuplicateID, id)
}

// NotFound reports a missing plant id.
func NotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// CatalogUnavailable wraps a catalog failure for the named operation.
func CatalogUnavailable(op string, err error) error {
	if errors.Is(err, ErrCatalogUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrCatalogUnavailable, op, err)
}

// InvalidHandle reports a malformed notification handle.
func InvalidHandle(handle string) error {
	return fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
}

// InvalidInput reports a rejected user value.
func InvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Is re-exports errors.Is so callers importing this package don't need both.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}

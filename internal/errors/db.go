package errors

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/mongo"
)

// reDupIndex extracts the index name from a duplicate key error message:
// "E11000 duplicate key error collection: db.users index: email_1 dup key: ...".
var reDupIndex = regexp.MustCompile(`index: ([A-Za-z0-9_]+?)(?:_-?1)+ `)

// MapDBError maps database errors to AppError instances.
// It handles common database error patterns including:
// - mongo.ErrNoDocuments → NotFound
// - Duplicate key errors → Conflict
// - Context timeouts/cancellations → Timeout/Canceled
//
// If the error is not a recognized database error, it returns the original error.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	// Check for context errors first
	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out. Please try again.",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "Request was canceled.",
			Cause:   err,
		}
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return &AppError{
			Code:    ErrCodeNotFound,
			Message: "Resource not found",
			Cause:   err,
		}
	}

	if mongo.IsDuplicateKeyError(err) {
		return mapDuplicateKeyError(err)
	}

	if mongo.IsTimeout(err) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Database operation timed out. Please try again.",
			Cause:   err,
		}
	}

	return err
}

// mapDuplicateKeyError maps unique index violations to Conflict errors,
// naming the offending field when the index name reveals it.
func mapDuplicateKeyError(err error) error {
	appErr := &AppError{
		Code:    ErrCodeConflict,
		Message: "Resource already exists",
		Cause:   err,
	}
	if m := reDupIndex.FindStringSubmatch(err.Error()); len(m) == 2 {
		appErr.Field = m[1]
		appErr.Message = m[1] + " already exists"
	}
	return appErr
}

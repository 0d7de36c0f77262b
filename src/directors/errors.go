package directors

import (
	"errors"
	"fmt"
)

// ErrUnexpectedInsertedID is returned when the server reports an _id that is not an ObjectID,
// which happens when the inserted document brings its own _id of another type.
var ErrUnexpectedInsertedID = errors.New("inserted id is not an ObjectID")

// OperationError wraps a failed database call with the operation and namespace
type OperationError struct {
	Op        string
	Namespace string
	Err       error
}

func (e *OperationError) Error() string {
	if e.Namespace == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s on %s failed: %v", e.Op, e.Namespace, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// BatchDeleteError reports the filter that failed in DeleteMany.
// Deleted holds the documents removed by the earlier filters; those deletions stay committed.
type BatchDeleteError struct {
	Index   int
	Deleted int64
	Err     error
}

func (e *BatchDeleteError) Error() string {
	return fmt.Sprintf("delete filter %d failed after %d documents were deleted: %v", e.Index, e.Deleted, e.Err)
}

func (e *BatchDeleteError) Unwrap() error {
	return e.Err
}

package journal

import (
	"errors"
	"fmt"
	"time"
)

// FutureTimestampError is returned when a backfill or restore names an
// instant later than the current clock reading.
type FutureTimestampError struct {
	At  time.Time // The rejected instant
	Now time.Time // Clock reading at the time of the call
}

// Error implements the error interface.
func (e *FutureTimestampError) Error() string {
	return fmt.Sprintf("timestamp %s is in the future (now %s)",
		e.At.Format(time.RFC3339), e.Now.Format(time.RFC3339))
}

// IsFutureTimestampError returns true if the error is a FutureTimestampError.
// Uses errors.As to handle wrapped errors.
func IsFutureTimestampError(err error) bool {
	var fe *FutureTimestampError
	return errors.As(err, &fe)
}

// DuplicateIDError is returned when a restore would violate id uniqueness
// within the collection.
type DuplicateIDError struct {
	ID string
}

// Error implements the error interface.
func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("slip id %s already exists", e.ID)
}

// IsDuplicateIDError returns true if the error is a DuplicateIDError.
// Uses errors.As to handle wrapped errors.
func IsDuplicateIDError(err error) bool {
	var de *DuplicateIDError
	return errors.As(err, &de)
}

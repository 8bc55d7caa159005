package apperrors

import (
	"errors"
	"fmt"
)

// LinkageError is returned when a sheet has neither a query id nor a legacy bucket name.
type LinkageError struct {
	SheetID int64
}

func (e *LinkageError) Error() string {
	return fmt.Sprintf("sheet %v is not linked to a DBM report - might need to link the sheet again", e.SheetID)
}

// IdentityNotFoundError is returned when a legacy bucket name does not match any of the
// queries visible to the current user.
type IdentityNotFoundError struct {
	SheetID    int64
	BucketName string
}

func (e *IdentityNotFoundError) Error() string {
	return fmt.Sprintf("couldn't find the query for bucket '%v' - perhaps you do not own the DBM report that sheet %v is linked to. "+
		"Please ask the person who did the original linking to refresh it once, or remove the link and link the report to the sheet again",
		e.BucketName, e.SheetID)
}

// AuthExpiredError is returned when a credentialed call to the DBM API fails or the
// OAuth capability is no longer authorised.
type AuthExpiredError struct {
	Operation        string
	AuthorizationURL string
	Cause            error
}

func (e *AuthExpiredError) Error() string {
	msg := fmt.Sprintf("error %v - DBM API credentials expired", e.Operation)

	if e.Cause != nil {
		msg += fmt.Sprintf(" (%v)", e.Cause)
	}

	if e.AuthorizationURL != "" {
		msg += fmt.Sprintf(". Please re-authorise at %v", e.AuthorizationURL)
	}

	return msg
}

func (e *AuthExpiredError) Unwrap() error {
	return e.Cause
}

// EmptyResponseError is returned when the DBM API returns an empty body.
type EmptyResponseError struct {
	URL string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("empty response from DBM API call, maybe report doesn't exist (%v)", e.URL)
}

// MalformedResponseError is returned when the DBM API response is not valid JSON or is
// missing the expected object.
type MalformedResponseError struct {
	URL    string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("no or empty response from DBM report query %v (%v)", e.URL, e.Reason)
}

// ScheduleOrphanedError flags a stored schedule whose trigger no longer exists. It is
// handled internally by purging the schedule and is never shown to a user.
type ScheduleOrphanedError struct {
	TriggerID string
}

func (e *ScheduleOrphanedError) Error() string {
	return fmt.Sprintf("trigger %v no longer exists", e.TriggerID)
}

func IsAuthExpired(err error) bool {
	var e *AuthExpiredError

	return errors.As(err, &e)
}

func IsLinkage(err error) bool {
	var e *LinkageError

	return errors.As(err, &e)
}

func IsIdentityNotFound(err error) bool {
	var e *IdentityNotFoundError

	return errors.As(err, &e)
}

func IsEmptyResponse(err error) bool {
	var e *EmptyResponseError

	return errors.As(err, &e)
}

func IsMalformedResponse(err error) bool {
	var e *MalformedResponseError

	return errors.As(err, &e)
}

func IsScheduleOrphaned(err error) bool {
	var e *ScheduleOrphanedError

	return errors.As(err, &e)
}

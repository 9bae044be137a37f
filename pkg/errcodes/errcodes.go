package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"
	InvalidPaging       failure.ErrorCode = "InvalidPaging"
	InvalidURL          failure.ErrorCode = "InvalidURL"

	// Run orchestration.
	QuotaExceeded    failure.ErrorCode = "QuotaExceeded"
	RunInProgress    failure.ErrorCode = "RunInProgress"
	RunNotFound      failure.ErrorCode = "RunNotFound"
	PlanningFailed   failure.ErrorCode = "PlanningFailed"
	InvalidRecipient failure.ErrorCode = "InvalidRecipient"

	// Persistence.
	PersistenceFailed   failure.ErrorCode = "PersistenceFailed"
	MalformedSnapshot   failure.ErrorCode = "MalformedSnapshot"
	OpportunityNotFound failure.ErrorCode = "OpportunityNotFound"
	InvalidKeepCount    failure.ErrorCode = "InvalidKeepCount"

	// Notifications.
	NotifierUnavailable failure.ErrorCode = "NotifierUnavailable"
	AlertFailed         failure.ErrorCode = "AlertFailed"
)

// Package docerr defines the error codes shared by the document synchronization packages.
//
// Every error returned to callers is an errx.ErrorX carrying one of the codes below.
// The errx type of the error is the taxonomy kind and decides the HTTP status
// (see http/server). Internal causes stay in the error details and logs.
package docerr

import "github.com/code19m/errx"

// Validation errors (ValidationError, 400).
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeUnknownSlot      = "UNKNOWN_SLOT"
	CodeEmptyFile        = "EMPTY_FILE"
)

// Policy errors (PermissionDenied, 403).
const (
	CodePermissionDenied = "PERMISSION_DENIED"
)

// Lookup errors (NotFound, 404).
const (
	CodeRecordNotFound  = "RECORD_NOT_FOUND"
	CodeIndexOutOfRange = "INDEX_OUT_OF_RANGE"
	CodeChoiceNotFound  = "CHOICE_NOT_FOUND"
	CodeFieldNotFound   = "FIELD_NOT_FOUND"
	CodeTableNotFound   = "TABLE_NOT_FOUND"
)

// Conflict errors (Conflict, 409).
const (
	CodeChoiceInUse = "CHOICE_IN_USE"
)

// Upstream errors (UpstreamError, 5xx).
const (
	CodeUpstream           = "UPSTREAM_ERROR"
	CodeUploadFailed       = "UPLOAD_FAILED"
	CodeValidationRejected = "STORE_VALIDATION_REJECTED"
	CodeConfiguration      = "CONFIGURATION_ERROR"
)

// CodeManualIntervention marks an orphaned placeholder record left behind by a failed
// add-choice cleanup. It is always logged at error level and alerted.
const CodeManualIntervention = "MANUAL_INTERVENTION_REQUIRED"

// Validation returns a ValidationError.
func Validation(msg, code string, details errx.D) error {
	return errx.New(msg, errx.WithCode(code), errx.WithType(errx.T_Validation), errx.WithDetails(details))
}

// PermissionDenied returns a PermissionDenied error.
func PermissionDenied(msg string, details errx.D) error {
	return errx.New(
		msg,
		errx.WithCode(CodePermissionDenied),
		errx.WithType(errx.T_Forbidden),
		errx.WithDetails(details),
	)
}

// NotFound returns a NotFound error with the given code.
func NotFound(msg, code string, details errx.D) error {
	return errx.New(msg, errx.WithCode(code), errx.WithType(errx.T_NotFound), errx.WithDetails(details))
}

// Conflict returns a Conflict error with the given code.
func Conflict(msg, code string, details errx.D) error {
	return errx.New(msg, errx.WithCode(code), errx.WithType(errx.T_Conflict), errx.WithDetails(details))
}

// Upstream wraps a failure of the blob store or the record store.
// Errors that already carry a taxonomy code keep it.
func Upstream(err error, code string, details errx.D) error {
	if err == nil {
		return nil
	}
	if hasTaxonomyCode(err) {
		return errx.Wrap(err, errx.WithDetails(details))
	}
	return errx.Wrap(err, errx.WithCode(code), errx.WithType(errx.T_Internal), errx.WithDetails(details))
}

func hasTaxonomyCode(err error) bool {
	return errx.IsCodeIn(err,
		CodeValidationFailed, CodeUnknownSlot, CodeEmptyFile,
		CodePermissionDenied,
		CodeRecordNotFound, CodeIndexOutOfRange, CodeChoiceNotFound, CodeFieldNotFound, CodeTableNotFound,
		CodeChoiceInUse,
		CodeUpstream, CodeUploadFailed, CodeValidationRejected, CodeConfiguration,
		CodeManualIntervention,
	)
}

// Kind names the taxonomy kind of err as shown to callers.
func Kind(err error) string {
	if errx.IsCodeIn(err, CodeManualIntervention) {
		return "ManualInterventionRequired"
	}
	switch errx.GetType(err) {
	case errx.T_Validation:
		return "ValidationError"
	case errx.T_Forbidden:
		return "PermissionDenied"
	case errx.T_NotFound:
		return "NotFound"
	case errx.T_Conflict:
		return "Conflict"
	default:
		return "UpstreamError"
	}
}

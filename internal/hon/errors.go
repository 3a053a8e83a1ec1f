package hon

import "errors"

// Sentinel errors for cloud API operations.
//
// Credential problems are reported with command.ErrMissingCredentials so
// callers can handle them without importing this package.
var (
	// ErrRequestFailed indicates the cloud answered with a non-zero result code.
	ErrRequestFailed = errors.New("hon: request failed")

	// ErrUnexpectedStatus indicates a non-2xx HTTP status.
	ErrUnexpectedStatus = errors.New("hon: unexpected HTTP status")

	// ErrBadResponse indicates a response body that could not be decoded.
	ErrBadResponse = errors.New("hon: malformed response")
)

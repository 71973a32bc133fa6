package ports

import "errors"

// Sentinel markers let callers classify a collaborator failure with
// errors.Is instead of scanning message text. Adapters wrap one of these
// into every error they return.
var (
	// ErrTimeout marks a call that exceeded its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrAPI marks a transport-level or service-reported failure (network
	// error, non-2xx status, malformed service response).
	ErrAPI = errors.New("api error")
	// ErrToolkit marks a failure reported by the external media toolkit.
	ErrToolkit = errors.New("toolkit error")
	// ErrMissingBinary marks a toolkit binary that is not on PATH.
	ErrMissingBinary = errors.New("binary not found")
)

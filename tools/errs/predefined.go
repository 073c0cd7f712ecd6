package errs

import "net/http"

// Error taxonomy of the gateway. The request path maps these to HTTP
// statuses; the live path logs and drops (silent-drop is the contract,
// the peer never sees an error event).
var (
	ErrAuthRequired     = NewCodeError(1101, "authentication required")
	ErrTokenExpired     = NewCodeError(1102, "token expired or invalid")
	ErrNotFound         = NewCodeError(1201, "record not found")
	ErrPermissionDenied = NewCodeError(1301, "permission denied")
	ErrValidation       = NewCodeError(1401, "invalid request payload")
	ErrInternal         = NewCodeError(1500, "internal error")
)

// HTTPStatus maps a CodeError code to the request-path status.
func HTTPStatus(err error) int {
	switch Code(err) {
	case ErrAuthRequired.Code, ErrTokenExpired.Code:
		return http.StatusUnauthorized
	case ErrNotFound.Code:
		return http.StatusNotFound
	case ErrPermissionDenied.Code:
		return http.StatusForbidden
	case ErrValidation.Code:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"
	ErrUploadDenied    ErrCode = "UPLOAD_NOT_AUTHORIZED"
	ErrNotOwner        ErrCode = "NOT_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrDomainMismatch ErrCode = "DOMAIN_MISMATCH"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Verification ──────────────────────────────────────────────────
	ErrInstituteNotApproved ErrCode = "INSTITUTE_NOT_APPROVED"
	ErrAlreadyRegistered    ErrCode = "ALREADY_REGISTERED"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrTooManyFiles    ErrCode = "TOO_MANY_FILES"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server / Upstream ─────────────────────────────────────────────
	ErrInternal     ErrCode = "INTERNAL_ERROR"
	ErrUpstream     ErrCode = "UPSTREAM_ERROR"
	ErrPartialWrite ErrCode = "PARTIAL_WRITE"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrAdminAccessOnly:
		return "This resource is restricted to the platform admin."
	case ErrUploadDenied:
		return "Only verified staff can upload memories. Please register as staff first."
	case ErrNotOwner:
		return "You can only modify your own memories."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrDomainMismatch:
		return "Email domain must match the provided domain."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "An institute with this email or domain is already registered."

	// ─── Verification ──────────────────────────────────────────────────
	case ErrInstituteNotApproved:
		return "This institute has not been approved yet."
	case ErrAlreadyRegistered:
		return "You are already registered as staff."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrTooManyFiles:
		return "Too many files in one upload."
	case ErrUnsupportedFile:
		return "Unsupported file type. Allowed: JPEG, PNG, WebP, GIF."
	case ErrFileTooLarge:
		return "File size exceeds the limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server / Upstream ─────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	case ErrUpstream:
		return "An upstream service is unavailable. Please try again."
	case ErrPartialWrite:
		return "The file was stored but the record could not be saved. Please retry."
	default:
		return "An unexpected error occurred."
	}
}

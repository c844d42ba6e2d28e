package service

import "errors"

// Common service errors. Handlers map these onto HTTP status codes and
// response error codes.
var (
	ErrNotFound             = errors.New("resource not found")
	ErrConflict             = errors.New("resource already exists")
	ErrForbidden            = errors.New("operation not allowed")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrDomainMismatch       = errors.New("email does not belong to the supplied domain")
	ErrInstituteNotApproved = errors.New("institute is not approved")
	ErrAlreadyRegistered    = errors.New("email is already registered")
	ErrFileRequired         = errors.New("at least one file is required")
	ErrTooManyFiles         = errors.New("too many files")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds the size limit")
	ErrPartialWrite         = errors.New("upload stored but record could not be written")
)
